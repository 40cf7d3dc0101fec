package cli

import (
	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/repository"
	"github.com/aidanlsb/cmisq/internal/ui"
)

var treeDepth int

// nodeView is the JSON form of a descendants tree node. Children is
// omitted below the depth limit and empty for an empty folder above it.
type nodeView struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Children *[]nodeView `json:"children,omitempty"`
}

func nodeViews(nodes []*repository.Node) []nodeView {
	out := make([]nodeView, len(nodes))
	for i, n := range nodes {
		out[i] = nodeView{ID: n.Object.ID, Name: n.Object.Name(), Type: n.Object.TypeID}
		if n.Children != nil {
			children := nodeViews(n.Children)
			out[i].Children = &children
		}
	}
	return out
}

var treeCmd = &cobra.Command{
	Use:   "tree [id-or-path]",
	Short: "Show the folder tree",
	Long: `Shows the objects below a folder (the root folder by default).

--depth limits how many levels are listed: 1 lists the folder's children,
2 adds their children, and so on. A negative depth lists everything.
Folders at the depth limit are marked with "…".

Examples:
  cmisq tree
  cmisq tree /testfolder1 --depth 1
  cmisq tree --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace()
		if ws == nil {
			return err
		}

		ref := "/"
		if len(args) == 1 {
			ref = args[0]
		}
		folder, err := ws.resolve(ref)
		if err != nil {
			return fail(err)
		}
		nodes, err := ws.store.Descendants(folder.ID, treeDepth)
		if err != nil {
			return fail(err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"id":       folder.ID,
				"children": nodeViews(nodes),
			}, nil)
			return nil
		}

		label, _ := ws.store.Path(folder.ID)
		printLine(ui.RenderTree(label, nodes))
		return nil
	},
}

func init() {
	treeCmd.Flags().IntVarP(&treeDepth, "depth", "d", -1, "Levels to list (negative = unlimited)")
	rootCmd.AddCommand(treeCmd)
}
