package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"sheetsql/internal/core"
)

const queryWidth = 60

type tableFormatter struct{}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// Grid renders rows of plain text under headers with the same borders as
// the table format.
func Grid(headers []string, rows [][]string) string {
	tbl := newTable(headers...)
	for _, r := range rows {
		tbl.Row(r...)
	}
	return tbl.String() + "\n"
}

// FormatResults renders one line per statement followed by the totals.
func (tableFormatter) FormatResults(results []core.StatementResult) (string, error) {
	if len(results) == 0 {
		return "No statements executed.\n", nil
	}
	tbl := newTable("#", "Type", "Outcome", "Rows", "Result", "Query")
	for _, r := range results {
		tbl.Row(
			strconv.Itoa(r.Index),
			string(r.Kind),
			string(r.Outcome),
			strconv.FormatInt(r.AffectedRows, 10),
			oneLine(r.ResultText, queryWidth),
			oneLine(r.Query, queryWidth),
		)
	}

	var sb strings.Builder
	sb.WriteString(tbl.String())
	sb.WriteString("\n")
	writeTotals(&sb, core.Summarize(results))
	return sb.String(), nil
}

// FormatTable renders the column list of t.
func (tableFormatter) FormatTable(t *core.Table, _ string) (string, error) {
	if t == nil {
		return "", nil
	}
	tbl := newTable("Column", "Type", "Null", "Key", "Extra", "Source")
	for _, c := range t.Columns {
		tbl.Row(c.Name, c.Type.String(), yesNo(c.Nullable), columnKey(c), columnExtra(c), c.MappedSourceColumn)
	}
	return fmt.Sprintf("Table %s\n%s\n", t.QualifiedName(), tbl.String()), nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func columnKey(c *core.Column) string {
	switch {
	case c.PrimaryKey:
		return "PRI"
	case c.UniqueKey:
		return "UNI"
	default:
		return ""
	}
}

func columnExtra(c *core.Column) string {
	if c.AutoIncrement {
		return "auto_increment"
	}
	return ""
}

func writeTotals(sb *strings.Builder, s core.BatchSummary) {
	fmt.Fprintf(sb, "Inserted: %d, Updated: %d, Deleted: %d, Errors: %d, Warnings: %d\n",
		s.InsertedCount, s.UpdatedCount, s.DeletedCount, s.Errors, s.Warnings)
}
