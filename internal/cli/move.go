package cli

import (
	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/audit"
	"github.com/aidanlsb/cmisq/internal/ui"
)

var moveCmd = &cobra.Command{
	Use:   "move <id-or-path> <target-folder>",
	Short: "Move an object to another folder",
	Long: `Moves an object, and everything below it, into another folder. A folder
cannot be moved into itself or one of its descendants, and the object's
path segment must be free in the target.

Examples:
  cmisq move /testfolder1/testfile1 /testfolder2
  cmisq move /testfolder2 /testfolder1 --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace()
		if ws == nil {
			return err
		}
		obj, err := ws.resolve(args[0])
		if err != nil {
			return fail(err)
		}
		target, err := ws.resolve(args[1])
		if err != nil {
			return fail(err)
		}

		from, _ := ws.store.Path(obj.ID)
		obj, err = ws.store.Move(obj.ID, target.ID)
		if err != nil {
			return fail(err)
		}
		v := ws.view(obj)
		// Moves change no indexed text.
		warnings, ok, err := ws.finishMutation(cmd.Context(), indexUpdate{}, audit.Entry{
			Operation: audit.OpMove,
			ID:        obj.ID,
			Type:      obj.TypeID,
			Path:      v.Path,
			Extra:     map[string]interface{}{"from": from},
		})
		if !ok {
			return err
		}

		if isJSONOutput() {
			outputSuccessWithWarnings(map[string]interface{}{
				"from":   from,
				"object": v,
			}, warnings, nil)
			return nil
		}
		printLine(ui.Successf("Moved %s → %s", from, v.Path))
		printWarnings(warnings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
}
