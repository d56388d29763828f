package mysql

import (
	"context"
	"strings"

	"sheetsql/internal/core"
	"sheetsql/internal/gateway"
)

// LoadRelationships returns one edge per foreign key column pair touching
// table. Keys referencing table from elsewhere come back as Reverse edges
// seen from table.
func (l *Loader) LoadRelationships(ctx context.Context, schema, table string) ([]*core.RelationshipEdge, error) {
	rs, err := l.gw.GetSchemaInformation(ctx, gateway.InfoForeignKeyColumns, schema, table)
	if err != nil {
		return nil, err
	}

	var edges []*core.RelationshipEdge
	for i := range rs.Len() {
		name := rs.String(i, "constraint_name")
		edge, err := core.NewRelationshipEdge(&name,
			rs.String(i, "table_name"), rs.String(i, "column_name"),
			rs.String(i, "referenced_table_name"), rs.String(i, "referenced_column_name"),
			core.DirectionNormal)
		if err != nil {
			return nil, err
		}
		if table != "" && !strings.EqualFold(edge.FromTable, table) {
			edge = edge.Reverse()
		}
		edges = append(edges, edge)
	}
	return edges, nil
}
