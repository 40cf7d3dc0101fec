package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/index"
	"github.com/aidanlsb/cmisq/internal/ui"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the full-text index",
	Long: `Rebuilds the SQLite full-text index from the repository. The index holds
each object's name, dc:title, dc:description and textual content streams.

Commands that change the repository keep a file index up to date; run
this after editing the repository file by hand or when a command warns
that the index could not be updated. An in-memory index is rebuilt on
every run and needs no reindexing.

Examples:
  cmisq reindex
  cmisq reindex --index /tmp/cmisq-index.db --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace()
		if ws == nil {
			return err
		}

		var spinner *ui.Spinner
		if !isJSONOutput() {
			spinner = ui.NewSpinner("Rebuilding full-text index")
			spinner.Start()
		}
		start := time.Now()

		n, err := rebuildIndex(cmd, ws)
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			suggestion := ""
			if errors.Is(err, index.ErrIndexLocked) {
				suggestion = "Another cmisq process is rebuilding the index; try again shortly"
			}
			return handleError(ErrDatabaseError, err, suggestion)
		}
		elapsed := time.Since(start)

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"index":   ws.cfg.Index,
				"indexed": n,
			}, &Meta{Count: n, QueryTimeMs: elapsed.Milliseconds()})
			return nil
		}
		printLine(ui.Successf("Indexed %s in %s", ui.Count(n, "object", "objects"), elapsed.Round(time.Millisecond)))
		if !ws.persistentIndex() {
			printLine(ui.Hint("The index is in memory; set 'index' in the config to keep it between runs."))
		}
		return nil
	},
}

func rebuildIndex(cmd *cobra.Command, ws *workspace) (int, error) {
	db, err := index.Open(ws.cfg.Index)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return db.Rebuild(cmd.Context(), index.DocumentsFrom(ws.store.Snapshot()))
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
