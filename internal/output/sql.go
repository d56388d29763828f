package output

import (
	"fmt"
	"strings"

	"sheetsql/internal/core"
)

type sqlFormatter struct{}

// FormatResults writes the executed statements as a script, each preceded by
// a comment with its outcome. Failed statements are commented out.
func (sqlFormatter) FormatResults(results []core.StatementResult) (string, error) {
	var sb strings.Builder
	sb.WriteString("-- sheetsql batch\n")
	if len(results) == 0 {
		sb.WriteString("\n-- No statements executed.\n")
		return sb.String(), nil
	}
	for _, r := range results {
		fmt.Fprintf(&sb, "\n-- #%d %s %s: %s\n", r.Index, r.Kind, r.Outcome, oneLine(r.ResultText, 0))
		stmt := normalizeStatement(r.Query)
		if r.Outcome == core.OutcomeError {
			for _, line := range strings.Split(stmt, "\n") {
				sb.WriteString("-- " + line + "\n")
			}
			continue
		}
		sb.WriteString(stmt + "\n")
	}
	return sb.String(), nil
}

// FormatTable returns the DDL.
func (sqlFormatter) FormatTable(_ *core.Table, ddl string) (string, error) {
	if ddl == "" {
		return "", nil
	}
	return normalizeStatement(ddl) + "\n", nil
}
