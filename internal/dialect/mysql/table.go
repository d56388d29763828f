package mysql

import (
	"fmt"
	"strconv"
	"strings"

	"sheetsql/internal/core"
)

// GenerateCreateTable builds the CREATE TABLE statement of t. Character set
// and collation clauses are always emitted, with DEFAULT when unset.
func (g *Generator) GenerateCreateTable(t *core.Table) (string, error) {
	if err := checkColumnNames(t); err != nil {
		return "", err
	}

	var lines []string
	for _, c := range t.Columns {
		lines = append(lines, "  "+g.columnDefinition(c))
	}

	if pk := t.PrimaryKeyColumns(); len(pk) > 0 {
		names := make([]string, len(pk))
		for i, c := range pk {
			names[i] = c.Name
		}
		line := "PRIMARY KEY " + g.formatColumns(names)
		if idx := t.PrimaryIndex(); idx != nil && idx.Using != core.IndexUsingDefault {
			line += " USING " + string(idx.Using)
		}
		lines = append(lines, "  "+line)
	}

	for _, idx := range t.Indexes {
		if idx == nil || idx.Primary {
			continue
		}
		if line := g.indexDefinitionInline(idx); line != "" {
			lines = append(lines, "  "+line)
		}
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n) %s;", g.QualifiedName(t), strings.Join(lines, ",\n"), g.tableOptions(t)), nil
}

// GenerateDropTable generate an SQL statement to drop a table.
func (g *Generator) GenerateDropTable(t *core.Table) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", g.QualifiedName(t))
}

func checkColumnNames(t *core.Table) error {
	if t == nil {
		return fmt.Errorf("table is nil")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("table %w", core.ErrEmptyName)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", t.Name)
	}
	for i, c := range t.Columns {
		if c == nil || strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("table %q: column %d: %w", t.Name, i+1, core.ErrEmptyName)
		}
	}
	return nil
}

func (g *Generator) tableOptions(t *core.Table) string {
	var parts []string
	if t.AutoIncrementStart > 0 {
		parts = append(parts, "AUTO_INCREMENT="+strconv.FormatUint(t.AutoIncrementStart, 10))
	}
	if engine := strings.TrimSpace(t.Engine); engine != "" {
		parts = append(parts, "ENGINE="+engine)
	}
	if cmt := strings.TrimSpace(t.Comment); cmt != "" {
		parts = append(parts, "COMMENT="+g.QuoteString(cmt))
	}
	parts = append(parts, "DEFAULT CHARACTER SET="+orDefault(t.CharacterSet))
	parts = append(parts, "COLLATE="+orDefault(t.Collation))
	return strings.Join(parts, ", ")
}

func orDefault(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "DEFAULT"
	}
	return v
}

func (g *Generator) columnDefinition(c *core.Column) string {
	parts := []string{g.QuoteIdentifier(c.Name), c.Type.String()}
	parts = g.addCharsetCollation(parts, c)
	parts = g.addNullability(parts, c)
	parts = g.addDefault(parts, c)
	if c.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if c.UniqueKey && !c.PrimaryKey {
		parts = append(parts, "UNIQUE KEY")
	}
	if comment := strings.TrimSpace(c.Comment); comment != "" {
		parts = append(parts, "COMMENT", g.QuoteString(comment))
	}
	return strings.Join(parts, " ")
}

func (g *Generator) addCharsetCollation(parts []string, c *core.Column) []string {
	if !c.Type.IsCharacter() {
		return parts
	}
	if cs := strings.TrimSpace(c.CharacterSet); cs != "" {
		parts = append(parts, "CHARACTER SET", cs)
	}
	if coll := strings.TrimSpace(c.Collation); coll != "" {
		parts = append(parts, "COLLATE", coll)
	}
	return parts
}

func (g *Generator) addNullability(parts []string, c *core.Column) []string {
	if c.Nullable && !c.PrimaryKey {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}
	return parts
}

func (g *Generator) addDefault(parts []string, c *core.Column) []string {
	if c.DefaultValue != nil && !c.AutoIncrement {
		parts = append(parts, "DEFAULT", g.formatDefault(c, *c.DefaultValue))
	}
	return parts
}

func (g *Generator) indexDefinitionInline(idx *core.Index) string {
	name := strings.TrimSpace(idx.Name)
	if name == "" || len(idx.Columns) == 0 {
		return ""
	}
	cols := g.formatIndexColumns(idx.Columns)

	var def string
	switch {
	case idx.FullText:
		def = fmt.Sprintf("FULLTEXT KEY %s %s", g.QuoteIdentifier(name), cols)
	case idx.Spatial:
		def = fmt.Sprintf("SPATIAL KEY %s %s", g.QuoteIdentifier(name), cols)
	case idx.Unique:
		def = fmt.Sprintf("UNIQUE KEY %s %s", g.QuoteIdentifier(name), cols)
	default:
		def = fmt.Sprintf("KEY %s %s", g.QuoteIdentifier(name), cols)
	}
	if idx.Using != core.IndexUsingDefault && !idx.FullText && !idx.Spatial {
		def += " USING " + string(idx.Using)
	}
	return def
}
