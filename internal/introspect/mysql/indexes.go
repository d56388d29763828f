package mysql

import (
	"context"
	"strings"

	"sheetsql/internal/core"
	"sheetsql/internal/gateway"
)

func (l *Loader) introspectIndexes(ctx context.Context, t *core.Table) error {
	heads, err := l.gw.GetSchemaInformation(ctx, gateway.InfoIndexes, t.SchemaName, t.Name)
	if err != nil {
		return err
	}
	parts, err := l.gw.GetSchemaInformation(ctx, gateway.InfoIndexColumns, t.SchemaName, t.Name)
	if err != nil {
		return err
	}

	columns := map[string][]core.IndexColumn{}
	for i := range parts.Len() {
		name := parts.String(i, "index_name")
		ic := core.IndexColumn{Name: parts.String(i, "column_name"), Order: core.SortAsc}
		if strings.EqualFold(parts.String(i, "collation"), "D") {
			ic.Order = core.SortDesc
		}
		columns[name] = append(columns[name], ic)
	}

	for i := range heads.Len() {
		name := heads.String(i, "index_name")
		cols := columns[name]
		if len(cols) == 0 {
			// Functional key parts have no column name.
			continue
		}
		idx := &core.Index{
			Name:    name,
			Columns: cols,
			Primary: name == core.PrimaryIndexName,
			Unique:  heads.Int(i, "non_unique") == 0,
		}
		applyIndexType(idx, heads.String(i, "index_type"))
		if err := t.AddIndex(idx); err != nil {
			return err
		}
	}
	return nil
}

func applyIndexType(idx *core.Index, indexType string) {
	switch strings.ToUpper(indexType) {
	case "BTREE":
		idx.Using = core.IndexUsingBTree
	case "HASH":
		idx.Using = core.IndexUsingHash
	case "RTREE":
		idx.Using = core.IndexUsingRTree
	case "FULLTEXT":
		idx.FullText = true
	case "SPATIAL":
		idx.Spatial = true
	}
}
