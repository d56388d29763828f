package output

import (
	"fmt"
	"strings"

	"sheetsql/internal/core"
)

type summaryFormatter struct{}

// FormatResults formats a batch as a compact summary.
// Example output:
//
//	Batch Summary
//	=============
//
//	Statements: 5
//	Inserted:   3 rows
//	Updated:    0 rows
//	Deleted:    1 row
//	Errors:     1
//	Warnings:   0
//
//	Failed:
//	  #3 UPDATE: Duplicate entry '2' for key 'PRIMARY'
func (summaryFormatter) FormatResults(results []core.StatementResult) (string, error) {
	if len(results) == 0 {
		return "No statements executed.\n", nil
	}
	s := core.Summarize(results)

	var sb strings.Builder
	sb.WriteString("Batch Summary\n")
	sb.WriteString("=============\n\n")
	fmt.Fprintf(&sb, "Statements: %d\n", len(results))
	fmt.Fprintf(&sb, "Inserted:   %d %s\n", s.InsertedCount, rowsWord(s.InsertedCount))
	fmt.Fprintf(&sb, "Updated:    %d %s\n", s.UpdatedCount, rowsWord(s.UpdatedCount))
	fmt.Fprintf(&sb, "Deleted:    %d %s\n", s.DeletedCount, rowsWord(s.DeletedCount))
	fmt.Fprintf(&sb, "Errors:     %d\n", s.Errors)
	fmt.Fprintf(&sb, "Warnings:   %d\n", s.Warnings)

	writeOutcomes(&sb, "Failed", results, core.OutcomeError)
	writeOutcomes(&sb, "Warnings", results, core.OutcomeWarning)
	return sb.String(), nil
}

func writeOutcomes(sb *strings.Builder, title string, results []core.StatementResult, outcome core.Outcome) {
	first := true
	for _, r := range results {
		if r.Outcome != outcome {
			continue
		}
		if first {
			fmt.Fprintf(sb, "\n%s:\n", title)
			first = false
		}
		fmt.Fprintf(sb, "  #%d %s: %s\n", r.Index, r.Kind, oneLine(r.ResultText, 0))
	}
}

// FormatTable lists the columns of t one per line.
func (summaryFormatter) FormatTable(t *core.Table, _ string) (string, error) {
	if t == nil {
		return "", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Table %s: %d columns\n", t.QualifiedName(), len(t.Columns))
	for _, c := range t.Columns {
		fmt.Fprintf(&sb, "  - %s %s", c.Name, c.Type.String())
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if key := columnKey(c); key != "" {
			sb.WriteString(" " + key)
		}
		if c.AutoIncrement {
			sb.WriteString(" auto_increment")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
