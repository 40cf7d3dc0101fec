package cli

import (
	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/audit"
	"github.com/aidanlsb/cmisq/internal/repository"
	"github.com/aidanlsb/cmisq/internal/ui"
)

var deleteTree bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id-or-path>",
	Short: "Delete an object",
	Long: `Deletes a document or an empty folder. The root folder cannot be
deleted. Use --tree to delete a folder together with everything below it.

Examples:
  cmisq delete /testfolder1/testfile1
  cmisq delete /testfolder1 --tree
  cmisq delete 6f1c0c3e-5d64-4a49-9d0e-8f0b6f2f6a10 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace()
		if ws == nil {
			return err
		}
		obj, err := ws.resolve(args[0])
		if err != nil {
			return fail(err)
		}
		path, _ := ws.store.Path(obj.ID)

		removed := []string{obj.ID}
		if deleteTree {
			nodes, err := ws.store.Descendants(obj.ID, -1)
			if err != nil {
				return fail(err)
			}
			removed = append(removed, nodeIDs(nodes)...)
			if _, err := ws.store.DeleteTree(obj.ID); err != nil {
				return fail(err)
			}
		} else if err := ws.store.Delete(obj.ID); err != nil {
			return handleError(errorCode(err), err, deleteSuggestion(obj.IsFolder()))
		}

		entries := make([]audit.Entry, len(removed))
		for i, id := range removed {
			entries[i] = audit.Entry{Operation: audit.OpDelete, ID: id}
		}
		entries[0].Type = obj.TypeID
		entries[0].Path = path
		warnings, ok, err := ws.finishMutation(cmd.Context(), indexUpdate{remove: removed}, entries...)
		if !ok {
			return err
		}

		if isJSONOutput() {
			outputSuccessWithWarnings(map[string]interface{}{
				"path":    path,
				"deleted": removed,
			}, warnings, &Meta{Count: len(removed)})
			return nil
		}
		printLine(ui.Successf("Deleted %s (%s)", path, ui.Count(len(removed), "object", "objects")))
		printWarnings(warnings)
		return nil
	},
}

func nodeIDs(nodes []*repository.Node) []string {
	var ids []string
	for _, n := range nodes {
		ids = append(ids, n.Object.ID)
		ids = append(ids, nodeIDs(n.Children)...)
	}
	return ids
}

func deleteSuggestion(folder bool) string {
	if folder {
		return "Use --tree to delete the folder and its contents"
	}
	return ""
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteTree, "tree", false, "Delete a folder and everything below it")
	rootCmd.AddCommand(deleteCmd)
}
