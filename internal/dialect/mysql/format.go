package mysql

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"sheetsql/internal/core"
)

var defaultKeywords = []string{"NULL", "CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME", "NOW()", "TRUE", "FALSE"}

func (g *Generator) formatColumns(cols []string) string {
	var quoted []string
	for _, c := range cols {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		quoted = append(quoted, g.QuoteIdentifier(c))
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func (g *Generator) formatIndexColumns(cols []core.IndexColumn) string {
	var quoted []string
	for _, c := range cols {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		qname := g.QuoteIdentifier(name)
		if c.Order == core.SortDesc {
			qname += " DESC"
		}
		quoted = append(quoted, qname)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

// formatDefault renders a column default. Keywords and expressions stay bare;
// other values are quoted only when the column type requires quotes.
func (g *Generator) formatDefault(c *core.Column, v string) string {
	trimmed := strings.TrimSpace(v)
	upper := strings.ToUpper(trimmed)
	if slices.Contains(defaultKeywords, upper) {
		return upper
	}
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		return trimmed
	}
	if !c.Type.RequiresQuotes() {
		if trimmed == "" {
			return "NULL"
		}
		if lit, ok := numericLiteral(trimmed); ok {
			return lit
		}
	}
	return g.QuoteString(v)
}

// FormatLiteral renders a row value as a SQL literal for column c. nil is
// NULL; quoted types get a single-quoted literal; numeric and boolean types
// are written bare, with blank text treated as NULL.
func (g *Generator) FormatLiteral(c *core.Column, v any) string {
	if v == nil {
		return "NULL"
	}
	if b, ok := v.([]byte); ok && c.Type.Kind == core.KindBinary {
		return "X'" + hex.EncodeToString(b) + "'"
	}
	if c.Type.RequiresQuotes() {
		return g.QuoteString(TextValue(c, v))
	}

	switch x := v.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return g.QuoteString(x.Format(time.DateTime))
	}

	s := strings.TrimSpace(cast.ToString(v))
	if s == "" {
		return "NULL"
	}
	if lit, ok := numericLiteral(s); ok {
		return lit
	}
	return g.QuoteString(s)
}

// numericLiteral accepts plain numbers and boolean words. Anything else must
// be quoted so text never reaches the statement unescaped.
func numericLiteral(s string) (string, bool) {
	if _, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "xXpPnN") {
		return s, true
	}
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			return "1", true
		}
		return "0", true
	}
	return "", false
}

// TextValue converts a row value to the text stored in column c. Times are
// formatted for the column's date kind.
func TextValue(c *core.Column, v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		switch c.Type.Kind {
		case core.KindDate:
			return x.Format(time.DateOnly)
		case core.KindTime:
			return x.Format(time.TimeOnly)
		default:
			return x.Format(time.DateTime)
		}
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return cast.ToString(v)
	}
}
