package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/cmisq/internal/model"
)

// NewRegistry returns a frozen registry holding the built-in types and defs.
func NewRegistry(defs ...TypeDefinition) (*model.Registry, error) {
	reg := model.NewRegistry()
	for _, t := range Builtins() {
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	for _, def := range defs {
		td, err := def.descriptor()
		if err != nil {
			return nil, err
		}
		if err := reg.Register(td); err != nil {
			return nil, err
		}
	}
	if err := reg.Freeze(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (def TypeDefinition) descriptor() (model.TypeDescriptor, error) {
	if def.ID == "" {
		return model.TypeDescriptor{}, fmt.Errorf("type definition without id")
	}
	if def.Parent == "" {
		return model.TypeDescriptor{}, fmt.Errorf("type %s: parent is required", def.ID)
	}
	creatable := true
	if def.Creatable != nil {
		creatable = *def.Creatable
	}
	td := model.TypeDescriptor{
		ID:        def.ID,
		LocalName: def.LocalName,
		ParentID:  def.Parent,
		Creatable: creatable,
	}
	for _, p := range def.Properties {
		if p.Name == "" {
			return model.TypeDescriptor{}, fmt.Errorf("type %s: property without name", def.ID)
		}
		k, err := model.ParseKind(p.Kind)
		if err != nil {
			return model.TypeDescriptor{}, fmt.Errorf("type %s: property %s: %w", def.ID, p.Name, err)
		}
		d := model.PropertyDescriptor{QueryName: p.Name, Kind: k}
		if p.Multi {
			d.Cardinality = model.CardinalityMulti
		}
		td.Declared = append(td.Declared, d)
	}
	return td, nil
}

// Parse decodes a schema file's contents.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return &f, nil
}

// Load reads a schema file and builds the registry from it.
// A missing file yields a registry with only the built-in types.
func Load(path string) (*model.Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewRegistry()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	reg, err := NewRegistry(f.Types...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// DefaultSchema is written by CreateDefault.
const DefaultSchema = `# cmisq type definitions
#
# Built-in types (always available):
#   - cmis:document, cmis:folder: base types, not creatable
#   - Root: type of the root folder
#
# Property kinds: string, boolean, integer, decimal, datetime, id
# Set multi: true for multi-valued properties.

types:
  - id: Folder
    parent: cmis:folder
  - id: OrderedFolder
    parent: cmis:folder
  - id: Workspace
    parent: cmis:folder
  - id: Domain
    parent: cmis:folder

  - id: File
    parent: cmis:document
  - id: Note
    parent: cmis:document
    properties:
      - name: note
        kind: string
  - id: MyDocType
    parent: cmis:document
    properties:
      - name: my:string
        kind: string
      - name: my:boolean
        kind: boolean
      - name: my:integer
        kind: integer
      - name: my:long
        kind: integer
      - name: my:double
        kind: decimal
      - name: my:date
        kind: datetime
`

// CreateDefault writes DefaultSchema to path unless a file already exists.
func CreateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create schema directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultSchema), 0644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	return nil
}
