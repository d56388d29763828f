package diff

import (
	"strconv"
	"strings"

	"sheetsql/internal/core"
)

var indexAttrs = []attr[*core.Index]{
	{name: "unique", value: func(i *core.Index) string { return strconv.FormatBool(i.Unique || i.Primary) }},
	{name: "using", value: func(i *core.Index) string { return string(i.Using) }},
	{name: "columns", fold: true, value: func(i *core.Index) string { return indexColumnList(i.Columns) }},
	{name: "fulltext", value: func(i *core.Index) string { return strconv.FormatBool(i.FullText) }},
	{name: "spatial", value: func(i *core.Index) string { return strconv.FormatBool(i.Spatial) }},
}

func (td *TableDiff) compareIndexes(existing, proposed []*core.Index) {
	have := make(map[string]*core.Index, len(existing))
	for _, i := range existing {
		have[indexIdentity(i)] = i
	}
	seen := make(map[string]bool, len(proposed))
	for _, p := range proposed {
		id := indexIdentity(p)
		seen[id] = true
		e, ok := have[id]
		if !ok {
			td.AddedIndexes = append(td.AddedIndexes, p)
			continue
		}
		if changes := fieldChanges(indexAttrs, e, p); len(changes) > 0 {
			td.ModifiedIndexes = append(td.ModifiedIndexes, &IndexChange{Name: p.Name, Existing: e, Proposed: p, Changes: changes})
		}
	}
	for _, e := range existing {
		if !seen[indexIdentity(e)] {
			td.RemovedIndexes = append(td.RemovedIndexes, e)
		}
	}
}

// indexIdentity matches indexes by name, the primary key with the primary
// key, and unnamed indexes by uniqueness and column list.
func indexIdentity(i *core.Index) string {
	if i.Primary {
		return "primary"
	}
	if name := strings.TrimSpace(i.Name); name != "" {
		return "name:" + strings.ToLower(name)
	}
	return "shape:" + strconv.FormatBool(i.Unique) + ":" + strings.ToLower(indexColumnList(i.Columns))
}

func indexColumnList(cols []core.IndexColumn) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for n, c := range cols {
		if n > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.Name)
		if c.Order == core.SortDesc {
			sb.WriteString(" DESC")
		}
	}
	sb.WriteByte(')')
	return sb.String()
}
