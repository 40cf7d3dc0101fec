package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/schema"
	"github.com/aidanlsb/cmisq/internal/ui"
)

type typeView struct {
	ID         string         `json:"id"`
	Parent     string         `json:"parent,omitempty"`
	Base       string         `json:"base"`
	Creatable  bool           `json:"creatable"`
	Subtypes   []string       `json:"subtypes,omitempty"`
	Properties []propertyView `json:"properties,omitempty"`
}

type propertyView struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Multi      bool   `json:"multi,omitempty"`
	ReadOnly   bool   `json:"read_only,omitempty"`
	DeclaredBy string `json:"declared_by"`
}

func newTypeView(reg *model.Registry, td *model.TypeDescriptor, withProps bool) (typeView, error) {
	v := typeView{
		ID:        td.ID,
		Parent:    td.ParentID,
		Base:      td.BaseID(),
		Creatable: td.Creatable,
	}
	subs, err := reg.Descendants(td.ID)
	if err != nil {
		return v, err
	}
	for _, s := range subs {
		v.Subtypes = append(v.Subtypes, s.ID)
	}
	if withProps {
		for _, d := range td.Properties() {
			v.Properties = append(v.Properties, propertyView{
				Name:       d.QueryName,
				Kind:       d.Kind.String(),
				Multi:      d.Multi(),
				ReadOnly:   d.ReadOnly,
				DeclaredBy: d.DeclaredBy,
			})
		}
	}
	return v, nil
}

var typesCmd = &cobra.Command{
	Use:   "types [type-id]",
	Short: "List types or describe one",
	Long: `Without arguments, lists every registered type with its parent and
whether it can be instantiated. With a type id, lists the type's
properties (inherited ones first) and its subtypes.

A query over a type also matches objects of its subtypes.

Examples:
  cmisq types
  cmisq types MyDocType
  cmisq types cmis:document --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := schema.Load(getConfig().Schema)
		if err != nil {
			return handleError(ErrSchemaInvalid, err, "")
		}
		if len(args) == 1 {
			return describeType(reg, args[0])
		}

		types := reg.Types()
		views := make([]typeView, 0, len(types))
		for _, td := range types {
			v, err := newTypeView(reg, td, false)
			if err != nil {
				return fail(err)
			}
			views = append(views, v)
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"types": views}, &Meta{Count: len(views)})
			return nil
		}

		headers := []string{"type", "parent", "base", "creatable"}
		rows := make([][]string, len(views))
		for i, v := range views {
			rows[i] = []string{v.ID, v.Parent, v.Base, strconv.FormatBool(v.Creatable)}
		}
		printRows(headers, rows)
		return nil
	},
}

func describeType(reg *model.Registry, id string) error {
	td, err := reg.ResolveType(id)
	if err != nil {
		return handleError(ErrTypeNotFound, err, "Run 'cmisq types' to list types")
	}
	v, err := newTypeView(reg, td, true)
	if err != nil {
		return fail(err)
	}

	if isJSONOutput() {
		outputSuccess(v, nil)
		return nil
	}

	printf("%s %s\n", ui.Header(v.ID), ui.Hint("(base "+v.Base+")"))
	headers := []string{"property", "kind", "cardinality", "read-only", "declared by"}
	rows := make([][]string, len(v.Properties))
	for i, p := range v.Properties {
		card := model.CardinalitySingle
		if p.Multi {
			card = model.CardinalityMulti
		}
		rows[i] = []string{p.Name, p.Kind, card.String(), strconv.FormatBool(p.ReadOnly), p.DeclaredBy}
	}
	printRows(headers, rows)
	for _, s := range v.Subtypes {
		printLine(ui.Hint("subtype: " + s))
	}
	return nil
}

// printRows renders a table on a terminal and TSV otherwise.
func printRows(headers []string, rows [][]string) {
	display := ui.NewDisplayContext()
	if !display.IsTTY {
		printf("%s", ui.TSV(headers, rows))
		return
	}
	table := ui.NewResultsTable(display, headers...)
	for _, r := range rows {
		table.AddRow(r...)
	}
	printLine(table.Render())
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
