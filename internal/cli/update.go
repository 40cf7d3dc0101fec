package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/audit"
	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/repository"
	"github.com/aidanlsb/cmisq/internal/ui"
)

var (
	updateProps []string
	updateUnset []string
	updateName  string
)

var updateCmd = &cobra.Command{
	Use:   "update <id-or-path>",
	Short: "Update an object's properties",
	Long: `Sets or removes properties on an object. System properties such as
cmis:objectId and cmis:creationDate are read-only. Renaming an object
changes its cmis:name but not its path segment.

Examples:
  cmisq update /testfolder1/testfile1 --prop dc:title=new_title
  cmisq update /testfolder1/testfile1 --prop dc:subjects=foo --prop dc:subjects=bar
  cmisq update /testfolder1/testfile1 --unset dc:description
  cmisq update /testfolder1 --name renamed --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(updateProps) == 0 && len(updateUnset) == 0 && updateName == "" {
			return handleErrorMsg(ErrMissingArgument, "nothing to update", "Use --prop name=value, --unset name or --name")
		}

		ws, err := loadWorkspace()
		if ws == nil {
			return err
		}
		obj, err := ws.resolve(args[0])
		if err != nil {
			return fail(err)
		}
		td, err := ws.reg.ResolveType(obj.TypeID)
		if err != nil {
			return fail(err)
		}
		props, err := typedProperties(td, updateProps, updateUnset)
		if err != nil {
			return fail(err)
		}
		if updateName != "" {
			if _, set := props["cmis:name"]; set {
				return fail(fmt.Errorf("%w: --name and --prop cmis:name both given", repository.ErrInvalidArgument))
			}
			props["cmis:name"] = model.Single(model.String(updateName))
		}

		obj, err = ws.store.UpdateProperties(obj.ID, props)
		if err != nil {
			return fail(err)
		}
		v := ws.view(obj)
		changes := make(map[string]interface{}, len(props))
		for name, p := range props {
			changes[name] = p.Interface()
		}
		warnings, ok, err := ws.finishMutation(cmd.Context(), indexUpdate{upsert: []string{obj.ID}}, audit.Entry{
			Operation: audit.OpUpdate,
			ID:        obj.ID,
			Type:      obj.TypeID,
			Path:      v.Path,
			Changes:   changes,
		})
		if !ok {
			return err
		}

		if isJSONOutput() {
			outputSuccessWithWarnings(v, warnings, nil)
			return nil
		}
		printLine(ui.Successf("Updated %s", v.Path))
		printWarnings(warnings)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringArrayVarP(&updateProps, "prop", "p", nil, "Property as name=value (repeat for multi-valued properties)")
	updateCmd.Flags().StringArrayVar(&updateUnset, "unset", nil, "Property to remove")
	updateCmd.Flags().StringVarP(&updateName, "name", "n", "", "New cmis:name")
	rootCmd.AddCommand(updateCmd)
}
