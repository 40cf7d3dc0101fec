package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/ui"
)

// objectView is the JSON form of an object.
type objectView struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	BaseType   string         `json:"base_type"`
	ParentID   string         `json:"parent_id,omitempty"`
	Path       string         `json:"path"`
	Properties map[string]any `json:"properties"`
}

func (w *workspace) view(o *model.Object) objectView {
	v := objectView{
		ID:         o.ID,
		Type:       o.TypeID,
		BaseType:   o.BaseTypeID,
		ParentID:   o.ParentID,
		Properties: make(map[string]any, len(o.Properties)),
	}
	v.Path, _ = w.store.Path(o.ID)
	for name, p := range o.Properties {
		if !p.IsAbsent() {
			v.Properties[name] = p.Interface()
		}
	}
	return v
}

var showCmd = &cobra.Command{
	Use:   "show <id-or-path>",
	Short: "Show an object's properties",
	Long: `Shows the type, path and properties of one object.

Objects are addressed by id, or by absolute path when the argument
starts with "/". Path segments match either the objects' path names
or their cmis:name values.

Examples:
  cmisq show /testfolder1/testfile1
  cmisq show /testfolder1_Title/testfile1_Title
  cmisq show 6f1c0c3e-5d64-4a49-9d0e-8f0b6f2f6a10 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace()
		if ws == nil {
			return err
		}
		o, err := ws.resolve(args[0])
		if err != nil {
			return fail(err)
		}

		v := ws.view(o)
		if isJSONOutput() {
			outputSuccess(v, nil)
			return nil
		}
		printObject(o, v.Path)
		return nil
	},
}

// printObject writes an object's header line and its properties sorted
// by name.
func printObject(o *model.Object, path string) {
	printf("%s %s\n", ui.Header(path), ui.Hint("("+o.TypeID+")"))

	names := make([]string, 0, len(o.Properties))
	for name, p := range o.Properties {
		if !p.IsAbsent() {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name, ui.Cell(o.Properties[name])}
	}
	printRows([]string{"property", "value"}, rows)
}

func init() {
	rootCmd.AddCommand(showCmd)
}
