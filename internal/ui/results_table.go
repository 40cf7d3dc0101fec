package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aidanlsb/cmisq/internal/model"
)

// minColumnWidth is the narrowest a column is squeezed to before cells are
// truncated.
const minColumnWidth = 8

// ResultsTable renders rows of property values under a header line.
type ResultsTable struct {
	display *DisplayContext
	headers []string
	rows    [][]string
}

// NewResultsTable creates a table with one column per header.
func NewResultsTable(display *DisplayContext, headers ...string) *ResultsTable {
	return &ResultsTable{display: display, headers: headers}
}

// AddRow adds a row. Missing cells render empty; extra cells are dropped.
func (t *ResultsTable) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows added.
func (t *ResultsTable) Len() int { return len(t.rows) }

// calculateWidths sizes columns to their content, then shrinks the widest
// columns until the table fits the terminal.
func (t *ResultsTable) calculateWidths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	const columnPadding = 2
	available := t.display.TermWidth - columnPadding*(len(widths)-1)
	for {
		total, widest := 0, -1
		for i, w := range widths {
			total += w
			if widest < 0 || w > widths[widest] {
				widest = i
			}
		}
		if total <= available || widest < 0 || widths[widest] <= minColumnWidth {
			return widths
		}
		widths[widest]--
	}
}

// Render generates the table output as a string.
func (t *ResultsTable) Render() string {
	if len(t.headers) == 0 {
		return ""
	}
	widths := t.calculateWidths()

	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = TruncateWithEllipsis(cell, widths[j])
		}
	}
	headers := make([]string, len(t.headers))
	for i, h := range t.headers {
		headers[i] = TruncateWithEllipsis(h, widths[i])
	}

	tbl := table.New().
		Border(lipgloss.Border{
			Top:    "─",
			Bottom: "─",
			Left:   "",
			Right:  "",
			Middle: "─",
		}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderRow(false).
		BorderColumn(false).
		BorderStyle(Muted).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle()
			if row == table.HeaderRow {
				style = AccentBold
			}
			if col < len(t.headers)-1 {
				style = style.PaddingRight(2)
			}
			return style
		}).
		Headers(headers...).
		Rows(rows...)

	return tbl.Render()
}

// TSV renders headers and rows tab-separated, for output that is not a
// terminal. Tabs and newlines inside cells become spaces.
func TSV(headers []string, rows [][]string) string {
	var sb strings.Builder
	writeLine := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(c))
		}
		sb.WriteByte('\n')
	}
	writeLine(headers)
	for _, row := range rows {
		writeLine(row)
	}
	return sb.String()
}

// Cell formats a property value for a table cell. Absent values are empty;
// multi-valued properties are comma-separated.
func Cell(v model.PropertyValue) string {
	if v.IsAbsent() {
		return ""
	}
	if !v.IsMulti() {
		return v.String()
	}
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = v.At(i).String()
	}
	return strings.Join(parts, ", ")
}

// TruncateWithEllipsis truncates s to maxLen runes, ending in "…" when
// anything was cut.
func TruncateWithEllipsis(s string, maxLen int) string {
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	if len(r) > maxLen-1 {
		r = r[:maxLen-1]
	}
	return strings.TrimRight(string(r), " ") + "…"
}
