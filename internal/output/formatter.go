// Package output renders statement results and table definitions for the
// command line. It provides four formats: table, SQL, JSON and summary.
package output

import (
	"fmt"
	"strings"

	"sheetsql/internal/core"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatTable   Format = "table"
	FormatSQL     Format = "sql"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// Formatter renders executed batches and table previews.
type Formatter interface {
	FormatResults(results []core.StatementResult) (string, error)
	// FormatTable renders a table definition; ddl is its CREATE TABLE text.
	FormatTable(t *core.Table, ddl string) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to the table format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatTable:
		return tableFormatter{}, nil
	case FormatSQL:
		return sqlFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'table', 'sql', 'json', or 'summary'", name)
	}
}

func normalizeStatement(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if stmt != "" && !strings.HasSuffix(stmt, ";") {
		stmt += ";"
	}
	return stmt
}

// oneLine collapses whitespace so multi-line DDL fits a table cell.
func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit > 0 && len([]rune(s)) > limit {
		return string([]rune(s)[:limit-3]) + "..."
	}
	return s
}

func rowsWord(n int64) string {
	if n == 1 {
		return "row"
	}
	return "rows"
}
