package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/audit"
	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/repository"
	"github.com/aidanlsb/cmisq/internal/ui"
)

var (
	createType    string
	createName    string
	createSegment string
	createProps   []string
	createFile    string
	createMime    string
	createFrom    string
)

var createCmd = &cobra.Command{
	Use:   "create <parent-folder>",
	Short: "Create a folder or document",
	Long: `Creates an object in a folder. The type decides whether a folder or a
document is created; its properties are checked against the type's
declared kinds and cardinalities.

The object's path segment defaults to a slug of its name. --from copies
an existing document (properties and content) into the folder; --prop
values then override the copied ones.

Examples:
  cmisq create / --type Folder --name testfolder1
  cmisq create /testfolder1 --type File --name testfile1 --prop dc:title=testfile1_Title
  cmisq create /testfolder1 --type Note --name readme --file README.txt --mime text/plain
  cmisq create / --type MyDocType --name typed --prop my:integer=123 --prop my:date=2010-09-30T16:04:59Z
  cmisq create /testfolder2 --from /testfolder1/testfile1 --prop dc:title=copy`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace()
		if ws == nil {
			return err
		}
		parent, err := ws.resolve(args[0])
		if err != nil {
			return fail(err)
		}

		var obj *model.Object
		if createFrom != "" {
			obj, err = createFromSource(ws, parent.ID)
		} else {
			obj, err = createObject(ws, parent.ID)
		}
		if err != nil {
			return fail(err)
		}

		v := ws.view(obj)
		entry := audit.Entry{Operation: audit.OpCreate, ID: obj.ID, Type: obj.TypeID, Path: v.Path}
		if createFrom != "" {
			entry.Extra = map[string]interface{}{"source": createFrom}
		}
		warnings, ok, err := ws.finishMutation(cmd.Context(), indexUpdate{upsert: []string{obj.ID}}, entry)
		if !ok {
			return err
		}

		if isJSONOutput() {
			outputSuccessWithWarnings(v, warnings, nil)
			return nil
		}
		printLine(ui.Successf("Created %s %s (%s)", obj.TypeID, v.Path, obj.ID))
		printWarnings(warnings)
		return nil
	},
}

func createObject(ws *workspace, parentID string) (*model.Object, error) {
	if createType == "" {
		return nil, fmt.Errorf("%w: --type is required", repository.ErrInvalidArgument)
	}
	td, err := ws.reg.ResolveType(createType)
	if err != nil {
		return nil, err
	}
	props, err := typedProperties(td, createProps, nil)
	if err != nil {
		return nil, err
	}
	if createName != "" {
		props["cmis:name"] = model.Single(model.String(createName))
	}

	n := repository.NewObject{
		TypeID:     td.ID,
		Segment:    createSegment,
		Properties: props,
	}
	if td.IsFolder() {
		if createFile != "" {
			return nil, fmt.Errorf("%w: folders have no content stream", repository.ErrConstraint)
		}
		return ws.store.CreateFolder(parentID, n)
	}
	if createFile != "" {
		cs, err := readContentFile(createFile, createMime)
		if err != nil {
			return nil, err
		}
		n.Content = cs
	}
	return ws.store.CreateDocument(parentID, n)
}

func createFromSource(ws *workspace, parentID string) (*model.Object, error) {
	if createType != "" || createFile != "" || createSegment != "" {
		return nil, fmt.Errorf("%w: --from cannot be combined with --type, --segment or --file", repository.ErrInvalidArgument)
	}
	src, err := ws.resolve(createFrom)
	if err != nil {
		return nil, err
	}
	td, err := ws.reg.ResolveType(src.TypeID)
	if err != nil {
		return nil, err
	}
	props, err := typedProperties(td, createProps, nil)
	if err != nil {
		return nil, err
	}
	if createName != "" {
		props["cmis:name"] = model.Single(model.String(createName))
	}
	return ws.store.CreateDocumentFromSource(src.ID, parentID, props)
}

// readContentFile loads a content stream from disk. The stream's file
// name is the file's base name.
func readContentFile(path, mime string) (*model.ContentStream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrInvalidArgument, err)
	}
	return &model.ContentStream{
		FileName: filepath.Base(path),
		MimeType: mime,
		Data:     data,
	}, nil
}

// printWarnings writes warnings to stderr in text mode.
func printWarnings(warnings []Warning) {
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, ui.Warning(w.Message))
	}
}

func init() {
	createCmd.Flags().StringVarP(&createType, "type", "t", "", "Type id of the new object")
	createCmd.Flags().StringVarP(&createName, "name", "n", "", "cmis:name of the new object")
	createCmd.Flags().StringVar(&createSegment, "segment", "", "Path segment (default: slug of the name)")
	createCmd.Flags().StringArrayVarP(&createProps, "prop", "p", nil, "Property as name=value (repeat for multi-valued properties)")
	createCmd.Flags().StringVarP(&createFile, "file", "f", "", "Content stream file (documents only)")
	createCmd.Flags().StringVar(&createMime, "mime", "", "Content stream MIME type")
	createCmd.Flags().StringVar(&createFrom, "from", "", "Copy this document instead of creating an empty one")
	rootCmd.AddCommand(createCmd)
}
