package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/atomicfile"
	"github.com/aidanlsb/cmisq/internal/audit"
	"github.com/aidanlsb/cmisq/internal/ui"
)

var (
	contentOutput    string
	contentMime      string
	contentFileName  string
	contentOverwrite bool
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Read, set or delete a document's content stream",
}

// contentInfo is the JSON form of a content stream's metadata.
type contentInfo struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	Length   int64  `json:"length"`
}

var contentGetCmd = &cobra.Command{
	Use:   "get <id-or-path>",
	Short: "Write a document's content to stdout or a file",
	Long: `Writes a document's content stream to stdout, or to a file with -o.
With --json only the stream's metadata is printed.

Examples:
  cmisq content get /testfolder1/testfile1
  cmisq content get /testfolder1/testfile1 -o testfile.txt`,
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
		cs, err := ws.store.ContentStream(obj.ID)
		if err != nil {
			return fail(err)
		}

		if isJSONOutput() {
			outputSuccess(contentInfo{
				ID:       obj.ID,
				FileName: cs.FileName,
				MimeType: cs.MimeType,
				Length:   cs.Length(),
			}, nil)
			return nil
		}
		if contentOutput != "" {
			if err := atomicfile.WriteFile(contentOutput, cs.Data, 0644); err != nil {
				return handleError(ErrFileWriteError, err, "")
			}
			fmt.Fprintln(os.Stderr, ui.Successf("Wrote %d bytes to %s", cs.Length(), contentOutput))
			return nil
		}
		_, err = stdout.Write(cs.Data)
		return err
	},
}

var contentSetCmd = &cobra.Command{
	Use:   "set <id-or-path> <file>",
	Short: "Attach a file as a document's content",
	Long: `Attaches a file as a document's content stream. A document that already
has content is only replaced with --overwrite. The stream's file name
defaults to the file's base name.

Examples:
  cmisq content set /testfolder1/testfile2 notes.txt --mime text/plain
  cmisq content set /testfolder1/testfile1 new.txt --overwrite`,
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
		cs, err := readContentFile(args[1], contentMime)
		if err != nil {
			return handleError(ErrFileReadError, err, "")
		}
		if contentFileName != "" {
			cs.FileName = contentFileName
		}

		obj, err = ws.store.SetContentStream(obj.ID, cs, contentOverwrite)
		if err != nil {
			return handleError(errorCode(err), err, "Use --overwrite to replace existing content")
		}
		v := ws.view(obj)
		warnings, ok, err := ws.finishMutation(cmd.Context(), indexUpdate{upsert: []string{obj.ID}}, audit.Entry{
			Operation: audit.OpSetContent,
			ID:        obj.ID,
			Path:      v.Path,
			Extra:     map[string]interface{}{"file_name": cs.FileName, "mime_type": cs.MimeType, "length": cs.Length()},
		})
		if !ok {
			return err
		}
		if isJSONOutput() {
			outputSuccessWithWarnings(v, warnings, nil)
			return nil
		}
		printLine(ui.Successf("Set content of %s (%d bytes)", v.Path, cs.Length()))
		printWarnings(warnings)
		return nil
	},
}

var contentDeleteCmd = &cobra.Command{
	Use:   "delete <id-or-path>",
	Short: "Remove a document's content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace()
		if ws == nil {
			return err
		}
		obj, err := ws.resolve(args[0])
		if err != nil {
			return fail(err)
		}
		obj, err = ws.store.DeleteContentStream(obj.ID)
		if err != nil {
			return fail(err)
		}
		v := ws.view(obj)
		warnings, ok, err := ws.finishMutation(cmd.Context(), indexUpdate{upsert: []string{obj.ID}}, audit.Entry{
			Operation: audit.OpDeleteContent,
			ID:        obj.ID,
			Path:      v.Path,
		})
		if !ok {
			return err
		}
		if isJSONOutput() {
			outputSuccessWithWarnings(v, warnings, nil)
			return nil
		}
		printLine(ui.Successf("Removed content of %s", v.Path))
		printWarnings(warnings)
		return nil
	},
}

func init() {
	contentGetCmd.Flags().StringVarP(&contentOutput, "output", "o", "", "Write to this file instead of stdout")
	contentSetCmd.Flags().StringVar(&contentMime, "mime", "", "MIME type (default application/octet-stream)")
	contentSetCmd.Flags().StringVar(&contentFileName, "filename", "", "Stream file name (default: the file's base name)")
	contentSetCmd.Flags().BoolVar(&contentOverwrite, "overwrite", false, "Replace existing content")
	contentCmd.AddCommand(contentGetCmd, contentSetCmd, contentDeleteCmd)
	rootCmd.AddCommand(contentCmd)
}
