package mysql

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sheetsql/internal/core"
)

// ErrNoChanges is returned for an update whose images are identical.
var ErrNoChanges = errors.New("row has no changes")

// Parameter prefixes of the incremental path: W_ binds the original image in
// the WHERE clause, S_ binds new values.
const (
	WherePrefix = "W_"
	SetPrefix   = "S_"
)

func (g *Generator) checkRow(t *core.Table, label string, row core.Row) error {
	if err := checkColumnNames(t); err != nil {
		return err
	}
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table %q: %s row has %d values, table has %d columns", t.Name, label, len(row), len(t.Columns))
	}
	return nil
}

// insertColumns lists the columns an INSERT writes. Auto-increment columns
// are left to MySQL unless some row carries an explicit value for them.
func insertColumns(t *core.Table, rows []core.Row) []int {
	var idx []int
	for i, c := range t.Columns {
		if c.AutoIncrement {
			explicit := false
			for _, r := range rows {
				if r[i] != nil {
					explicit = true
					break
				}
			}
			if !explicit {
				continue
			}
		}
		idx = append(idx, i)
	}
	return idx
}

// GenerateInsert builds a single-row INSERT with literal values.
func (g *Generator) GenerateInsert(t *core.Table, row core.Row) (string, error) {
	return g.GenerateMultiInsert(t, []core.Row{row})
}

// GenerateMultiInsert builds one INSERT carrying a VALUES tuple per row.
func (g *Generator) GenerateMultiInsert(t *core.Table, rows []core.Row) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("table %q: no rows to insert", t.Name)
	}
	for _, r := range rows {
		if err := g.checkRow(t, "insert", r); err != nil {
			return "", err
		}
	}
	cols := insertColumns(t, rows)
	if len(cols) == 0 {
		return fmt.Sprintf("INSERT INTO %s () VALUES %s", g.QualifiedName(t), strings.TrimSuffix(strings.Repeat("(), ", len(rows)), ", ")), nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(g.QualifiedName(t))
	sb.WriteString(" ")
	sb.WriteString(g.formatColumns(columnNames(t, cols)))
	sb.WriteString(" VALUES ")
	for ri, r := range rows {
		if ri > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for i, ci := range cols {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(g.FormatLiteral(t.Columns[ci], r[ci]))
		}
		sb.WriteByte(')')
	}
	return sb.String(), nil
}

// setColumns lists the columns an UPDATE changes. Auto-increment key columns
// identify the row and are never rewritten.
func setColumns(t *core.Table, original, current core.Row) []int {
	var idx []int
	for i, c := range t.Columns {
		if c.PrimaryKey && c.AutoIncrement {
			continue
		}
		if valuesEqual(c, original[i], current[i]) {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

func valuesEqual(c *core.Column, a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return TextValue(c, a) == TextValue(c, b)
}

// GenerateUpdate builds an UPDATE that sets the changed columns and
// correlates on the full original row image.
func (g *Generator) GenerateUpdate(t *core.Table, original, current core.Row) (string, error) {
	if err := g.checkRow(t, "original", original); err != nil {
		return "", err
	}
	if err := g.checkRow(t, "current", current); err != nil {
		return "", err
	}
	cols := setColumns(t, original, current)
	if len(cols) == 0 {
		return "", fmt.Errorf("table %q: %w", t.Name, ErrNoChanges)
	}

	sets := make([]string, len(cols))
	for i, ci := range cols {
		c := t.Columns[ci]
		sets[i] = g.QuoteIdentifier(c.Name) + "=" + g.FormatLiteral(c, current[ci])
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", g.QualifiedName(t), strings.Join(sets, ", "), g.literalWhere(t, original)), nil
}

// GenerateDelete builds a DELETE correlated on the full original row image.
func (g *Generator) GenerateDelete(t *core.Table, original core.Row) (string, error) {
	if err := g.checkRow(t, "original", original); err != nil {
		return "", err
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", g.QualifiedName(t), g.literalWhere(t, original)), nil
}

func (g *Generator) literalWhere(t *core.Table, original core.Row) string {
	conds := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if original[i] == nil {
			conds[i] = g.QuoteIdentifier(c.Name) + " IS NULL"
			continue
		}
		conds[i] = g.QuoteIdentifier(c.Name) + "=" + g.FormatLiteral(c, original[i])
	}
	return strings.Join(conds, " AND ")
}

// ParameterizedInsert builds an INSERT binding new values as @S_<col>.
func (g *Generator) ParameterizedInsert(t *core.Table, row core.Row) (core.Statement, error) {
	if err := g.checkRow(t, "insert", row); err != nil {
		return core.Statement{}, err
	}
	names := ParamNames(t)
	cols := insertColumns(t, []core.Row{row})

	st := core.Statement{Kind: core.StatementInsert}
	placeholders := make([]string, len(cols))
	for i, ci := range cols {
		name := SetPrefix + names[ci]
		placeholders[i] = "@" + name
		st.Params = append(st.Params, core.Param{Name: name, Value: bindValue(t.Columns[ci], row[ci])})
	}
	st.Text = fmt.Sprintf("INSERT INTO %s %s VALUES (%s)", g.QualifiedName(t), g.formatColumns(columnNames(t, cols)), strings.Join(placeholders, ", "))
	return st, nil
}

// ParameterizedUpdate builds an UPDATE binding new values as @S_<col> and
// the original image as @W_<col>.
func (g *Generator) ParameterizedUpdate(t *core.Table, original, current core.Row) (core.Statement, error) {
	if err := g.checkRow(t, "original", original); err != nil {
		return core.Statement{}, err
	}
	if err := g.checkRow(t, "current", current); err != nil {
		return core.Statement{}, err
	}
	cols := setColumns(t, original, current)
	if len(cols) == 0 {
		return core.Statement{}, fmt.Errorf("table %q: %w", t.Name, ErrNoChanges)
	}
	names := ParamNames(t)

	st := core.Statement{Kind: core.StatementUpdate}
	sets := make([]string, len(cols))
	for i, ci := range cols {
		c := t.Columns[ci]
		name := SetPrefix + names[ci]
		sets[i] = g.QuoteIdentifier(c.Name) + "=@" + name
		st.Params = append(st.Params, core.Param{Name: name, Value: bindValue(c, current[ci])})
	}
	where, params := g.paramWhere(t, names, original)
	st.Params = append(st.Params, params...)
	st.Text = fmt.Sprintf("UPDATE %s SET %s WHERE %s", g.QualifiedName(t), strings.Join(sets, ", "), where)
	return st, nil
}

// ParameterizedDelete builds a DELETE binding the original image as @W_<col>.
func (g *Generator) ParameterizedDelete(t *core.Table, original core.Row) (core.Statement, error) {
	if err := g.checkRow(t, "original", original); err != nil {
		return core.Statement{}, err
	}
	where, params := g.paramWhere(t, ParamNames(t), original)
	return core.Statement{
		Kind:   core.StatementDelete,
		Text:   fmt.Sprintf("DELETE FROM %s WHERE %s", g.QualifiedName(t), where),
		Params: params,
	}, nil
}

func (g *Generator) paramWhere(t *core.Table, names []string, original core.Row) (string, []core.Param) {
	conds := make([]string, len(t.Columns))
	var params []core.Param
	for i, c := range t.Columns {
		if original[i] == nil {
			conds[i] = g.QuoteIdentifier(c.Name) + " IS NULL"
			continue
		}
		name := WherePrefix + names[i]
		conds[i] = g.QuoteIdentifier(c.Name) + "=@" + name
		params = append(params, core.Param{Name: name, Value: bindValue(c, original[i])})
	}
	return strings.Join(conds, " AND "), params
}

// bindValue prepares a row value for the driver. Dates go as text in the
// column's format so correlation matches what MySQL stores.
func bindValue(c *core.Column, v any) any {
	if v == nil {
		return nil
	}
	if c.Type.IsDateLike() {
		return TextValue(c, v)
	}
	if s, ok := v.(string); ok && c.Type.IsNumeric() && strings.TrimSpace(s) == "" {
		return nil
	}
	return v
}

var reParamUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// ParamNames returns one parameter-safe name per column, in column order.
// Characters outside [A-Za-z0-9_] become underscores and collisions get a
// numeric suffix.
func ParamNames(t *core.Table) []string {
	names := make([]string, len(t.Columns))
	seen := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		base := reParamUnsafe.ReplaceAllString(strings.TrimSpace(c.Name), "_")
		if base == "" {
			base = "col" + strconv.Itoa(i+1)
		}
		name := base
		for n := 2; seen[strings.ToLower(name)]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		seen[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

func columnNames(t *core.Table, idx []int) []string {
	names := make([]string, len(idx))
	for i, ci := range idx {
		names[i] = t.Columns[ci].Name
	}
	return names
}

// GenerateSelect reads every column of t. A limit <= 0 reads all rows.
func (g *Generator) GenerateSelect(t *core.Table, limit, offset int) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = g.QuoteIdentifier(c.Name)
	}
	list := "*"
	if len(cols) > 0 {
		list = strings.Join(cols, ", ")
	}
	q := fmt.Sprintf("SELECT %s FROM %s", list, g.QualifiedName(t))
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d, %d", max(offset, 0), limit)
	}
	return q
}
