package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/audit"
	"github.com/aidanlsb/cmisq/internal/dates"
	"github.com/aidanlsb/cmisq/internal/ui"
)

var (
	changesSince string
	changesLimit int
)

var changesCmd = &cobra.Command{
	Use:   "changes [id-or-path]",
	Short: "Show the change log",
	Long: `Lists recorded repository mutations, oldest first. With an argument only
the entries of that object are shown; a bare id also matches objects that
have since been deleted.

Examples:
  cmisq changes
  cmisq changes /testfolder1/testfile1
  cmisq changes --since 7d
  cmisq changes --since 2024-01-01T00:00:00Z --limit 20 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace()
		if ws == nil {
			return err
		}
		if !ws.audit.Enabled() {
			return handleErrorMsg(ErrConfigInvalid, "the change log is disabled", "Set audit in the config file")
		}

		var f audit.Filter
		if changesSince != "" {
			t, err := dates.ParseSince(changesSince, time.Now())
			if err != nil {
				return handleError(ErrInvalidInput, err, "")
			}
			f.Since = t
		}
		if changesLimit < 0 {
			return handleErrorMsg(ErrInvalidInput, "--limit must not be negative", "")
		}
		f.Limit = changesLimit
		if len(args) == 1 {
			f.ObjectID = args[0]
			if strings.HasPrefix(args[0], "/") {
				obj, err := ws.resolve(args[0])
				if err != nil {
					return fail(err)
				}
				f.ObjectID = obj.ID
			}
		}

		entries, err := ws.audit.Query(f)
		if err != nil {
			return handleError(ErrFileReadError, err, "")
		}

		if isJSONOutput() {
			if entries == nil {
				entries = []audit.Entry{}
			}
			outputSuccess(entries, &Meta{Count: len(entries)})
			return nil
		}
		if len(entries) == 0 {
			printLine(ui.Hint("No changes recorded."))
			return nil
		}
		rows := make([][]string, len(entries))
		for i, e := range entries {
			rows[i] = []string{e.Timestamp.Format(time.RFC3339), e.Operation, e.ID, e.Path, e.User}
		}
		printRows([]string{"ts", "op", "id", "path", "user"}, rows)
		return nil
	},
}

func init() {
	changesCmd.Flags().StringVar(&changesSince, "since", "", "Only entries at or after this time (datetime, age such as 7d, today, yesterday)")
	changesCmd.Flags().IntVar(&changesLimit, "limit", 0, "Keep only the newest N entries")
	rootCmd.AddCommand(changesCmd)
}
