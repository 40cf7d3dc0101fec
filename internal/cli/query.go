package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/query"
	"github.com/aidanlsb/cmisq/internal/ui"
)

var (
	querySkip     int
	queryMaxItems int
	queryIDsOnly  bool
)

var queryCmd = &cobra.Command{
	Use:   "query <statement>",
	Short: "Run a CMIS-SQL query",
	Long: `Runs a CMIS-SQL SELECT statement against the repository.

The statement may be given as one quoted argument or as several words,
which are joined with spaces.

Examples:
  cmisq query "SELECT cmis:name FROM cmis:document WHERE dc:title = 'testfile1_Title'"
  cmisq query "SELECT * FROM cmis:folder WHERE IN_TREE('<folder-id>') ORDER BY cmis:name"
  cmisq query "SELECT cmis:name, SCORE() FROM cmis:document WHERE CONTAINS('rice')"
  cmisq query "SELECT A.cmis:name, B.note FROM File A JOIN Note B ON A.cmis:objectId = B.cmis:objectId"
  cmisq query --max-items 10 --skip 20 "SELECT * FROM cmis:document"
  cmisq query --ids "SELECT cmis:objectId FROM File" | xargs -n1 cmisq show`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		statement := joinQueryArgs(args)

		ws, err := loadWorkspace()
		if ws == nil {
			return err
		}

		maxItems := queryMaxItems
		if !cmd.Flags().Changed("max-items") {
			maxItems = ws.cfg.Query.MaxItems
		}

		engine, release, err := ws.engine(cmd.Context())
		if err != nil {
			return handleError(ErrDatabaseError, err, "Run 'cmisq reindex' to rebuild the index")
		}
		defer release()

		start := time.Now()
		res, err := engine.Execute(cmd.Context(), statement, query.Page{Skip: querySkip, MaxItems: maxItems})
		if err != nil {
			return fail(err)
		}
		elapsed := time.Since(start)

		if isJSONOutput() {
			outputSuccess(res, &Meta{
				Count:        len(res.Rows),
				TotalCount:   res.TotalCount,
				HasMoreItems: res.HasMoreItems,
				QueryTimeMs:  elapsed.Milliseconds(),
			})
			return nil
		}
		if queryIDsOnly {
			for _, row := range res.Rows {
				printLine(row.ObjectIDs[0])
			}
			return nil
		}
		printResult(res)
		return nil
	},
}

func joinQueryArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// printResult renders rows as a table on a terminal and as TSV otherwise.
func printResult(res *query.Result) {
	if len(res.Rows) == 0 {
		printLine(ui.Hint("No results."))
		return
	}

	headers := res.Rows[0].Keys()
	rows := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		cells := make([]string, len(row.Columns))
		for j, c := range row.Columns {
			cells[j] = ui.Cell(c.Value)
		}
		rows[i] = cells
	}

	printRows(headers, rows)
	if !ui.NewDisplayContext().IsTTY {
		return
	}

	summary := ui.Count(res.TotalCount, "row", "rows")
	if res.HasMoreItems {
		summary = fmt.Sprintf("%d of %s", len(res.Rows), summary)
	}
	printLine(ui.Hint(summary))
}

func init() {
	queryCmd.Flags().IntVar(&querySkip, "skip", 0, "Number of rows to skip")
	queryCmd.Flags().IntVar(&queryMaxItems, "max-items", 0, "Maximum rows to return (0 = no limit; default from config)")
	queryCmd.Flags().BoolVar(&queryIDsOnly, "ids", false, "Print only the object id of each row (FROM table)")
	rootCmd.AddCommand(queryCmd)
}
