package mysql

import (
	"context"
	"fmt"
	"strings"

	"sheetsql/internal/core"
	"sheetsql/internal/gateway"
)

func (l *Loader) introspectColumns(ctx context.Context, t *core.Table) error {
	rs, err := l.gw.GetSchemaInformation(ctx, gateway.InfoColumns, t.SchemaName, t.Name)
	if err != nil {
		return err
	}

	for i := range rs.Len() {
		name := rs.String(i, "column_name")
		st, err := core.ParseStorageType(rs.String(i, "column_type"))
		if err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}

		col := &core.Column{
			Name:          name,
			Type:          st,
			Nullable:      strings.EqualFold(rs.String(i, "is_nullable"), "YES"),
			AutoIncrement: strings.Contains(strings.ToLower(rs.String(i, "extra")), "auto_increment"),
			Comment:       rs.String(i, "column_comment"),
		}
		if st.IsCharacter() {
			col.CharacterSet = rs.String(i, "character_set_name")
			col.Collation = rs.String(i, "collation_name")
		}
		if def := rs.Value(i, "column_default"); def != nil {
			s := rs.String(i, "column_default")
			col.DefaultValue = &s
		}

		if err := t.AddColumn(col); err != nil {
			return err
		}
	}
	return nil
}
