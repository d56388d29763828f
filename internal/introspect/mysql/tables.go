package mysql

import (
	"context"

	"sheetsql/internal/core"
	"sheetsql/internal/gateway"
)

// TableInfo is one row of a table or view listing.
type TableInfo struct {
	Name    string
	IsView  bool
	Engine  string
	Comment string
	Rows    int64
}

// ListTables lists the base tables and then the views of schema.
func (l *Loader) ListTables(ctx context.Context, schema string) ([]TableInfo, error) {
	var out []TableInfo
	for _, kind := range []gateway.SchemaInfoKind{gateway.InfoTables, gateway.InfoViews} {
		rs, err := l.gw.GetSchemaInformation(ctx, kind, schema, "")
		if err != nil {
			return nil, err
		}
		for i := range rs.Len() {
			out = append(out, TableInfo{
				Name:    rs.String(i, "table_name"),
				IsView:  kind == gateway.InfoViews,
				Engine:  rs.String(i, "engine"),
				Comment: rs.String(i, "table_comment"),
				Rows:    rs.Int(i, "table_rows"),
			})
		}
	}
	return out, nil
}

func introspectTableOptions(info *gateway.ResultSet, t *core.Table) {
	t.Engine = info.String(0, "engine")
	t.Comment = info.String(0, "table_comment")
	t.CharacterSet = info.String(0, "character_set_name")
	t.Collation = info.String(0, "table_collation")
	if n := info.Int(0, "auto_increment"); n > 0 {
		t.AutoIncrementStart = uint64(n)
	}
}
