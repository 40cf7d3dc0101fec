package repository

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/cmisq/internal/atomicfile"
	"github.com/aidanlsb/cmisq/internal/model"
)

// fileVersion is written to every repository file.
const fileVersion = 1

type repositoryFile struct {
	Version int            `yaml:"version"`
	Objects []objectRecord `yaml:"objects"`
}

// objectRecord is one object on disk. Objects are listed in tree pre-order,
// so a parent always precedes its children.
type objectRecord struct {
	ID         string                  `yaml:"id"`
	Type       string                  `yaml:"type"`
	Parent     string                  `yaml:"parent,omitempty"`
	Segment    string                  `yaml:"segment,omitempty"`
	Properties map[string]propertyText `yaml:"properties,omitempty"`
	Content    *contentRecord          `yaml:"content,omitempty"`
}

type contentRecord struct {
	FileName string `yaml:"file_name,omitempty"`
	MimeType string `yaml:"mime_type,omitempty"`
	Text     string `yaml:"text,omitempty"`
	Base64   string `yaml:"base64,omitempty"`
}

// propertyText is a property's textual form: a scalar for single-valued
// properties, a sequence for multi-valued ones.
type propertyText struct {
	Multi  bool
	Values []string
}

func (p propertyText) MarshalYAML() (any, error) {
	if p.Multi {
		return p.Values, nil
	}
	return p.Values[0], nil
}

func (p *propertyText) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		p.Multi = false
		p.Values = []string{n.Value}
		return nil
	case yaml.SequenceNode:
		p.Multi = true
		p.Values = make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: property values must be scalars", c.Line)
			}
			p.Values = append(p.Values, c.Value)
		}
		return nil
	}
	return fmt.Errorf("line %d: property must be a scalar or a sequence", n.Line)
}

// Load reads a repository file. A missing file yields a new repository with
// only a root folder.
func Load(path string, reg *model.Registry, opts ...Option) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(reg, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read repository file %s: %w", path, err)
	}
	s, err := Decode(data, reg, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode builds a repository from the contents of a repository file.
func Decode(data []byte, reg *model.Registry, opts ...Option) (*Store, error) {
	var f repositoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse repository: %w", err)
	}
	if f.Version > fileVersion {
		return nil, fmt.Errorf("unsupported repository version %d", f.Version)
	}
	if len(f.Objects) == 0 {
		return New(reg, opts...)
	}

	s := newStore(reg, opts...)
	for i, rec := range f.Objects {
		if err := s.load(i, rec); err != nil {
			return nil, fmt.Errorf("object %d (%s): %w", i, rec.ID, err)
		}
	}
	s.refreshPath(s.rootID)

	s.logger.Debug("repository loaded", "objects", len(s.entries))
	return s, nil
}

func (s *Store) load(i int, rec objectRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("id is required")
	}
	if _, dup := s.entries[rec.ID]; dup {
		return fmt.Errorf("duplicate id")
	}
	td, err := s.reg.ResolveType(rec.Type)
	if err != nil {
		return err
	}

	props := make(map[string]model.PropertyValue, len(rec.Properties))
	for name, text := range rec.Properties {
		d, ok := td.Property(name)
		if !ok {
			return fmt.Errorf("%w: %s on type %s", model.ErrUnknownProperty, name, td.ID)
		}
		if text.Multi != d.Multi() {
			return fmt.Errorf("property %s is %s-valued", name, d.Cardinality)
		}
		v, err := ParseProperty(d, text.Values)
		if err != nil {
			return err
		}
		props[name] = v
	}

	obj := &model.Object{
		ID:         rec.ID,
		TypeID:     td.ID,
		BaseTypeID: td.BaseID(),
		ParentID:   rec.Parent,
		Properties: props,
	}
	if td.IsFolder() {
		obj.Children = []string{}
	}
	e := &entry{obj: obj, segment: rec.Segment}

	if i == 0 {
		if rec.Parent != "" || !td.IsFolder() {
			return fmt.Errorf("the first object must be the root folder")
		}
		s.insert(e)
		s.rootID = obj.ID
		return nil
	}

	parent, ok := s.entries[rec.Parent]
	if !ok {
		return fmt.Errorf("%w: parent %s", ErrObjectNotFound, rec.Parent)
	}
	if !parent.obj.IsFolder() {
		return fmt.Errorf("parent %s is not a folder", rec.Parent)
	}
	if rec.Segment == "" {
		return fmt.Errorf("segment is required")
	}
	if s.segmentTaken(parent, rec.Segment) {
		return fmt.Errorf("%w: %s", ErrNameConflict, rec.Segment)
	}
	s.insert(e)
	parent.obj.Children = append(parent.obj.Children, obj.ID)

	if rec.Content != nil {
		if td.IsFolder() {
			return fmt.Errorf("%w: folders have no content stream", ErrConstraint)
		}
		cs := &model.ContentStream{FileName: rec.Content.FileName, MimeType: rec.Content.MimeType}
		if rec.Content.Base64 != "" {
			cs.Data, err = base64.StdEncoding.DecodeString(rec.Content.Base64)
			if err != nil {
				return fmt.Errorf("content: %w", err)
			}
		} else {
			cs.Data = []byte(rec.Content.Text)
		}
		s.attachContent(e, cs)
	}
	return nil
}

// Save writes the repository to path atomically.
func (s *Store) Save(path string) error {
	if err := atomicfile.Write(path, 0, s.Encode); err != nil {
		return fmt.Errorf("failed to write repository file %s: %w", path, err)
	}
	return nil
}

// Encode writes the repository file form of s to w.
func (s *Store) Encode(w io.Writer) error {
	s.mu.RLock()
	f := repositoryFile{Version: fileVersion}
	for _, e := range s.ordered() {
		f.Objects = append(f.Objects, e.record())
	}
	s.mu.RUnlock()

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return err
	}
	return enc.Close()
}

func (e *entry) record() objectRecord {
	rec := objectRecord{
		ID:         e.obj.ID,
		Type:       e.obj.TypeID,
		Parent:     e.obj.ParentID,
		Segment:    e.segment,
		Properties: make(map[string]propertyText, len(e.obj.Properties)),
	}
	for name, v := range e.obj.Properties {
		if v.IsAbsent() || isDerived(name) {
			continue
		}
		text := propertyText{Multi: v.IsMulti(), Values: []string{}}
		for i := 0; i < v.Len(); i++ {
			text.Values = append(text.Values, formatValue(v.At(i)))
		}
		rec.Properties[name] = text
	}
	if e.content != nil {
		c := &contentRecord{FileName: e.content.FileName, MimeType: e.content.MimeType}
		if utf8.Valid(e.content.Data) {
			c.Text = string(e.content.Data)
		} else {
			c.Base64 = base64.StdEncoding.EncodeToString(e.content.Data)
		}
		rec.Content = c
	}
	return rec
}

func formatValue(v model.Value) string {
	if v.Kind() == model.KindDateTime {
		return v.Time().Format(time.RFC3339Nano)
	}
	return v.String()
}

// isDerived reports properties recomputed on load.
func isDerived(name string) bool {
	switch name {
	case "cmis:path", "cmis:contentStreamLength", "cmis:contentStreamMimeType", "cmis:contentStreamFileName":
		return true
	}
	return false
}
