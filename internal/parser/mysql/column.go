package mysql

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	tidbmysql "github.com/pingcap/tidb/pkg/parser/mysql"

	"sheetsql/internal/core"
)

func (p *Parser) parseColumns(cols []*ast.ColumnDef, table *core.Table) error {
	var primary []string
	for _, colDef := range cols {
		col, err := newColumnFromDef(colDef)
		if err != nil {
			return fmt.Errorf("table %q: %w", table.Name, err)
		}
		for _, opt := range colDef.Options {
			p.applyColumnOption(col, opt)
		}
		if col.PrimaryKey {
			primary = append(primary, col.Name)
		}
		if err := table.AddColumn(col); err != nil {
			return err
		}
	}
	if len(primary) > 0 {
		return table.SetPrimaryKey(primary...)
	}
	return nil
}

// newColumnFromDef maps the TiDB field type onto a StorageType. The compact
// form carries name, length and precision; sign and zerofill are flags.
func newColumnFromDef(colDef *ast.ColumnDef) (*core.Column, error) {
	typeRaw := colDef.Tp.CompactStr()
	flag := colDef.Tp.GetFlag()
	if tidbmysql.HasUnsignedFlag(flag) {
		typeRaw += " unsigned"
	}
	if tidbmysql.HasZerofillFlag(flag) {
		typeRaw += " zerofill"
	}
	st, err := core.ParseStorageType(typeRaw)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", colDef.Name.Name.O, err)
	}

	col := &core.Column{
		Name:     colDef.Name.Name.O,
		Type:     st,
		Nullable: true,
	}
	if st.IsCharacter() {
		col.CharacterSet = colDef.Tp.GetCharset()
		col.Collation = colDef.Tp.GetCollate()
	}
	return col, nil
}

func (p *Parser) applyColumnOption(col *core.Column, opt *ast.ColumnOption) {
	if opt == nil {
		return
	}

	switch opt.Tp {
	case ast.ColumnOptionNotNull:
		col.Nullable = false
	case ast.ColumnOptionNull:
		col.Nullable = true
	case ast.ColumnOptionPrimaryKey:
		col.PrimaryKey = true
		col.Nullable = false
	case ast.ColumnOptionAutoIncrement:
		col.AutoIncrement = true
	case ast.ColumnOptionDefaultValue:
		col.DefaultValue = p.exprToString(opt.Expr)
		if col.DefaultValue != nil && strings.EqualFold(*col.DefaultValue, "NULL") {
			col.DefaultValue = nil
		}
	case ast.ColumnOptionUniqKey:
		col.UniqueKey = true
	case ast.ColumnOptionComment:
		if s := p.exprToString(opt.Expr); s != nil {
			col.Comment = *s
		}
	case ast.ColumnOptionCollate:
		if col.Type.IsCharacter() && opt.StrValue != "" {
			col.Collation = opt.StrValue
		}
	case ast.ColumnOptionNoOption:
	}
}

func (p *Parser) exprToString(expr ast.ExprNode) *string {
	if expr == nil {
		return nil
	}

	var sb strings.Builder
	restoreCtx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := expr.Restore(restoreCtx); err != nil {
		return nil
	}
	s := strings.TrimSpace(sb.String())

	if unquoted, ok := tryUnquoteSQLStringLiteral(s); ok {
		return &unquoted
	}
	// CURRENT_TIMESTAMP() and friends restore with parentheses.
	if upper := strings.ToUpper(s); strings.HasPrefix(upper, "CURRENT_") && strings.HasSuffix(upper, "()") {
		s = strings.TrimSuffix(upper, "()")
	}

	return &s
}

func tryUnquoteSQLStringLiteral(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[len(s)-1] != '\'' {
		return "", false
	}

	if s[0] == '\'' {
		return unescapeSQLString(s[1 : len(s)-1]), true
	}

	q := strings.IndexByte(s, '\'')
	if q <= 0 {
		return "", false
	}
	if !isSQLStringIntroducer(strings.TrimSpace(s[:q])) {
		return "", false
	}
	return unescapeSQLString(s[q+1 : len(s)-1]), true
}

var sqlStringUnescaper = strings.NewReplacer("''", "'", `\\`, `\`, `\'`, "'", `\n`, "\n", `\r`, "\r", `\0`, "\x00", `\Z`, "\x1a")

func unescapeSQLString(s string) string {
	return sqlStringUnescaper.Replace(s)
}

func isSQLStringIntroducer(prefix string) bool {
	if prefix == "" {
		return false
	}
	if strings.EqualFold(prefix, "N") {
		return true
	}
	if !strings.HasPrefix(prefix, "_") || len(prefix) == 1 {
		return false
	}
	for _, r := range prefix[1:] {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
