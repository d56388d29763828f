package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetsql/internal/core"
	"sheetsql/internal/gateway"
	"sheetsql/internal/gateway/gatewaytest"
)

func rs(columns []string, rows ...[]any) *gateway.ResultSet {
	return &gateway.ResultSet{Columns: columns, Rows: rows}
}

func ordersCatalog() *gatewaytest.Fake {
	gw := gatewaytest.New()
	gw.Schema[gateway.InfoTables] = rs(
		[]string{"TABLE_NAME", "ENGINE", "TABLE_COLLATION", "CHARACTER_SET_NAME", "TABLE_COMMENT", "AUTO_INCREMENT", "TABLE_ROWS"},
		[]any{"orders", "InnoDB", "utf8mb4_0900_ai_ci", "utf8mb4", "customer orders", int64(42), int64(41)},
	)
	gw.Schema[gateway.InfoColumns] = rs(
		[]string{"COLUMN_NAME", "ORDINAL_POSITION", "COLUMN_DEFAULT", "IS_NULLABLE", "COLUMN_TYPE", "CHARACTER_SET_NAME", "COLLATION_NAME", "COLUMN_KEY", "EXTRA", "COLUMN_COMMENT"},
		[]any{"id", int64(1), nil, "NO", "int unsigned", nil, nil, "PRI", "auto_increment", ""},
		[]any{"customer_id", int64(2), nil, "NO", "int", nil, nil, "MUL", "", ""},
		[]any{"item", int64(3), "none", "YES", "varchar(40)", "utf8mb4", "utf8mb4_bin", "", "", "what was sold"},
		[]any{"total", int64(4), "0.00", "NO", "decimal(10,2)", nil, nil, "", "", ""},
		[]any{"paid", int64(5), "0", "NO", "tinyint(1)", nil, nil, "", "", ""},
	)
	gw.Schema[gateway.InfoIndexes] = rs(
		[]string{"TABLE_NAME", "INDEX_NAME", "NON_UNIQUE", "INDEX_TYPE"},
		[]any{"orders", "PRIMARY", int64(0), "BTREE"},
		[]any{"orders", "customer_item", int64(1), "BTREE"},
		[]any{"orders", "item_text", int64(1), "FULLTEXT"},
		[]any{"orders", "uq_item", "0", "HASH"},
	)
	gw.Schema[gateway.InfoIndexColumns] = rs(
		[]string{"TABLE_NAME", "INDEX_NAME", "SEQ_IN_INDEX", "COLUMN_NAME", "COLLATION"},
		[]any{"orders", "PRIMARY", int64(1), "id", "A"},
		[]any{"orders", "customer_item", int64(1), "customer_id", "A"},
		[]any{"orders", "customer_item", int64(2), "item", "D"},
		[]any{"orders", "item_text", int64(1), "item", nil},
		[]any{"orders", "uq_item", int64(1), "item", "A"},
	)
	gw.Schema[gateway.InfoForeignKeyColumns] = rs(
		[]string{"CONSTRAINT_NAME", "TABLE_NAME", "COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME", "ORDINAL_POSITION"},
		[]any{"fk_customer", "orders", "customer_id", "customers", "id", int64(1)},
		[]any{"fk_order", "order_lines", "order_id", "orders", "id", int64(1)},
	)
	return gw
}

func TestLoadTable(t *testing.T) {
	l := NewLoader(ordersCatalog(), nil)
	table, err := l.LoadTable(context.Background(), "shop", "orders")
	require.NoError(t, err)

	assert.False(t, table.IsNew)
	assert.Equal(t, "shop", table.SchemaName)
	assert.Equal(t, "InnoDB", table.Engine)
	assert.Equal(t, "utf8mb4", table.CharacterSet)
	assert.Equal(t, "utf8mb4_0900_ai_ci", table.Collation)
	assert.Equal(t, "customer orders", table.Comment)
	assert.Equal(t, uint64(42), table.AutoIncrementStart)

	assert.Equal(t, []string{"id", "customer_id", "item", "total", "paid"}, table.ColumnNames())

	id := table.Columns[0]
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.AutoIncrement)
	assert.True(t, id.Type.Unsigned)
	assert.False(t, id.Nullable)
	assert.Nil(t, id.DefaultValue)
	assert.Empty(t, id.CharacterSet)

	item := table.Columns[2]
	assert.True(t, item.Nullable)
	assert.Equal(t, "varchar(40)", item.Type.String())
	assert.Equal(t, "utf8mb4_bin", item.Collation)
	require.NotNil(t, item.DefaultValue)
	assert.Equal(t, "none", *item.DefaultValue)
	assert.Equal(t, "what was sold", item.Comment)

	assert.Equal(t, core.KindDecimal, table.Columns[3].Type.Kind)
	assert.Equal(t, core.KindBoolean, table.Columns[4].Type.Kind)

	require.Len(t, table.Indexes, 4)
	assert.True(t, table.PrimaryIndex().Primary)

	composite := table.FindIndex("customer_item")
	require.NotNil(t, composite)
	assert.False(t, composite.Unique)
	assert.Equal(t, core.IndexUsingBTree, composite.Using)
	assert.Equal(t, []core.IndexColumn{{Name: "customer_id", Order: core.SortAsc}, {Name: "item", Order: core.SortDesc}}, composite.Columns)

	assert.True(t, table.FindIndex("item_text").FullText)
	uq := table.FindIndex("uq_item")
	assert.True(t, uq.Unique)
	assert.Equal(t, core.IndexUsingHash, uq.Using)
}

func TestLoadTableMissing(t *testing.T) {
	l := NewLoader(gatewaytest.New(), nil)
	_, err := l.LoadTable(context.Background(), "shop", "gone")
	assert.ErrorIs(t, err, gateway.ErrTableNotFound)
}

func TestLoadViewFallsBackToViews(t *testing.T) {
	gw := ordersCatalog()
	gw.Schema[gateway.InfoViews] = gw.Schema[gateway.InfoTables]
	delete(gw.Schema, gateway.InfoTables)

	table, err := NewLoader(gw, nil).LoadTable(context.Background(), "shop", "orders")
	require.NoError(t, err)
	assert.Equal(t, "orders", table.Name)
}

func TestLoadRelationships(t *testing.T) {
	l := NewLoader(ordersCatalog(), nil)
	edges, err := l.LoadRelationships(context.Background(), "shop", "orders")
	require.NoError(t, err)
	require.Len(t, edges, 2)

	assert.Equal(t, "orders", edges[0].FromTable)
	assert.Equal(t, "customers", edges[0].ToTable)
	assert.Equal(t, core.DirectionNormal, edges[0].Direction)
	assert.False(t, edges[0].IsUserDefined())

	assert.Equal(t, "orders", edges[1].FromTable)
	assert.Equal(t, "id", edges[1].FromColumn)
	assert.Equal(t, "order_lines", edges[1].ToTable)
	assert.Equal(t, core.DirectionReverse, edges[1].Direction)
}

func TestLoadRelationshipsRejectsEmptyEndpoint(t *testing.T) {
	gw := gatewaytest.New()
	gw.Schema[gateway.InfoForeignKeyColumns] = rs(
		[]string{"CONSTRAINT_NAME", "TABLE_NAME", "COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME"},
		[]any{"fk", "orders", "", "customers", "id"},
	)
	_, err := NewLoader(gw, nil).LoadRelationships(context.Background(), "shop", "orders")
	assert.ErrorIs(t, err, core.ErrEmptyRelationshipEndpoint)
}

func TestListTablesAndCatalog(t *testing.T) {
	gw := ordersCatalog()
	gw.Schema[gateway.InfoViews] = rs([]string{"TABLE_NAME"}, []any{"open_orders"})
	gw.Schema[gateway.InfoEngines] = rs([]string{"ENGINE", "SUPPORT"}, []any{"InnoDB", "DEFAULT"}, []any{"MEMORY", "YES"})
	gw.Schema[gateway.InfoCollations] = rs([]string{"COLLATION_NAME"}, []any{"utf8mb4_bin"})
	gw.Schema[gateway.InfoCharacterSets] = rs([]string{"CHARACTER_SET_NAME"}, []any{"latin1"}, []any{"utf8mb4"})

	l := NewLoader(gw, nil)
	ctx := context.Background()

	tables, err := l.ListTables(ctx, "shop")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, TableInfo{Name: "orders", Engine: "InnoDB", Comment: "customer orders", Rows: 41}, tables[0])
	assert.True(t, tables[1].IsView)

	engines, err := l.Engines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"InnoDB", "MEMORY"}, engines)

	sets, err := l.CharacterSets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"latin1", "utf8mb4"}, sets)

	collations, err := l.Collations(ctx, "utf8mb4")
	require.NoError(t, err)
	assert.Equal(t, []string{"utf8mb4_bin"}, collations)
}
