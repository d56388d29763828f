package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetsql/internal/core"
	"sheetsql/internal/diff"
	"sheetsql/internal/gateway"
	"sheetsql/internal/gateway/gatewaytest"
	"sheetsql/internal/mapping"
	"sheetsql/internal/surface"
)

func exportRegion(t *testing.T, w *surface.Workbook, values ...[]any) *surface.Region {
	t.Helper()
	return namedRegion(t, w, "Data", values...)
}

func namedRegion(t *testing.T, w *surface.Workbook, name string, values ...[]any) *surface.Region {
	t.Helper()
	r, err := w.CreateNewRegion(name, surface.Bounds{Sheet: name, Row: 1, Col: 1})
	require.NoError(t, err)
	require.NoError(t, w.WriteGrid(r, values))
	return r
}

func TestExportSessionNewTable(t *testing.T) {
	gw := gatewaytest.New()
	gw.Affected["INSERT"] = 2
	env, w := newEnv(t, gw)
	r := exportRegion(t, w, []any{"id", "name"}, []any{1, "Ann"}, []any{2, "Bob"})

	s, err := NewExportSession(env, r, ExportOptions{TableName: "t", UseFirstRowAsHeader: true, RowsPerInsert: 100})
	require.NoError(t, err)

	ddl, err := s.DDL()
	require.NoError(t, err)
	assert.Contains(t, ddl, "CREATE TABLE `t`")
	assert.Contains(t, ddl, "`name` varchar(10)")

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Statements, 2)
	assert.Equal(t, core.StatementCreateTable, res.Statements[0].Kind)
	assert.Equal(t, ddl, res.Statements[0].Text)
	assert.Contains(t, res.Statements[1].Text, "VALUES (1, 'Ann'), (2, 'Bob')")
	assert.Equal(t, []core.RowRef{"Data!2", "Data!3"}, res.Statements[1].RowRefs)

	require.Len(t, res.Results, 2)
	assert.Equal(t, []int{1, 2}, []int{res.Results[0].Index, res.Results[1].Index})
	assert.Equal(t, int64(2), res.Summary.InsertedCount)
	assert.False(t, res.Summary.HasErrors())
	assert.Equal(t, []string{res.Statements[0].Text, res.Statements[1].Text}, gw.Statements())
}

func TestExportSessionCreateFailureStopsInserts(t *testing.T) {
	gw := gatewaytest.New()
	gw.Failures["CREATE TABLE"] = errors.New("table 't' already exists")
	env, w := newEnv(t, gw)
	r := exportRegion(t, w, []any{"a"}, []any{1}, []any{2})

	s, err := NewExportSession(env, r, ExportOptions{TableName: "t", UseFirstRowAsHeader: true})
	require.NoError(t, err)
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, core.OutcomeError, res.Results[0].Outcome)
	assert.Equal(t, 1, res.Summary.Errors)
	assert.Empty(t, gw.Statements())
}

func TestExportSessionAddsPrimaryKeyAndSkipsBlankRows(t *testing.T) {
	gw := gatewaytest.New()
	env, w := newEnv(t, gw)
	r := exportRegion(t, w, []any{"name"}, []any{"Ann"}, []any{nil}, []any{"Bob"})

	s, err := NewExportSession(env, r, ExportOptions{TableName: "people", UseFirstRowAsHeader: true, AddPrimaryKey: true})
	require.NoError(t, err)

	table, err := s.Preview()
	require.NoError(t, err)
	assert.Equal(t, []string{"people_id", "name"}, table.ColumnNames())
	assert.True(t, table.Columns[0].AutoIncrement)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Statements, 3)
	assert.Equal(t, core.RowRef("Data!2"), res.Statements[1].RowRef())
	assert.Equal(t, core.RowRef("Data!4"), res.Statements[2].RowRef())
	assert.NotContains(t, res.Statements[1].Text, "people_id")
}

func TestExportSessionAppendWithSavedMapping(t *testing.T) {
	gw := peopleGateway()
	env, w := newEnv(t, gw)
	store, err := mapping.OpenFileStore(filepath.Join(t.TempDir(), "mappings.toml"))
	require.NoError(t, err)
	env.Mappings = store

	saved := mapping.New("hr", gw.ConnectionID(), "shop", "people", []string{"Full Name", "Birth"})
	saved.TargetColumns = []string{"id", "name", "born"}
	saved.MappedSourceIndex = []int{mapping.Unmapped, 0, 1}
	require.NoError(t, store.Save(saved))

	r := exportRegion(t, w, []any{"Birth", "Full Name"}, []any{nil, "Ann"}, []any{nil, "Bob"})
	s, err := NewExportSession(env, r, ExportOptions{Schema: "shop", TableName: "people", UseFirstRowAsHeader: true, AppendToExisting: true})
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Mapping)
	assert.Equal(t, []int{mapping.Unmapped, 1, 0}, res.Mapping.MappedSourceIndex)
	require.Len(t, res.Statements, 2)
	assert.Equal(t, "INSERT INTO `shop`.`people` (`name`, `born`) VALUES ('Ann', NULL)", res.Statements[0].Text)
	assert.Equal(t, int64(2), res.Summary.InsertedCount)
	assert.Equal(t, []diff.Issue{{Severity: diff.SeverityInfo, Description: "Column receives no value and keeps its default", Column: "id"}}, res.Issues)
}

func TestExportSessionCompare(t *testing.T) {
	gw := peopleGateway()
	env, w := newEnv(t, gw)
	r := exportRegion(t, w, []any{"name", "age"}, []any{"Ann", 30}, []any{nil, 40})

	s, err := NewExportSession(env, r, ExportOptions{Schema: "shop", TableName: "people", UseFirstRowAsHeader: true})
	require.NoError(t, err)
	c, err := s.Compare(context.Background())
	require.NoError(t, err)

	require.Len(t, c.Diff.AddedColumns, 1)
	assert.Equal(t, "age", c.Diff.AddedColumns[0].Name)
	assert.Len(t, c.Diff.RemovedColumns, 2)
	assert.Equal(t, []string{"age"}, unmappedSources(c))
	assert.Contains(t, c.Issues, diff.Issue{Severity: diff.SeverityWarning, Description: "Blank cells will be rejected by a NOT NULL column", Column: "name"})
	assert.False(t, diff.HasBreaking(c.Issues))
	assert.Empty(t, gw.Statements())
}

func unmappedSources(c *Comparison) []string {
	used := map[int]bool{}
	for _, idx := range c.Mapping.MappedSourceIndex {
		used[idx] = true
	}
	var out []string
	for i, name := range c.Mapping.SourceColumns {
		if !used[i] {
			out = append(out, name)
		}
	}
	return out
}

func TestExportSessionAppendMatchesHeaders(t *testing.T) {
	gw := peopleGateway()
	env, w := newEnv(t, gw)
	store, err := mapping.OpenFileStore(filepath.Join(t.TempDir(), "mappings.toml"))
	require.NoError(t, err)
	env.Mappings = store

	r := exportRegion(t, w, []any{"NAME", "extra"}, []any{"Ann", "x"})
	s, err := NewExportSession(env, r, ExportOptions{
		Schema: "shop", TableName: "people", UseFirstRowAsHeader: true,
		AppendToExisting: true, MappingName: "by-header", SaveMapping: true,
	})
	require.NoError(t, err)
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "born"}, res.Mapping.UnmappedColumns())

	stored := store.Find(gw.ConnectionID(), "shop", "people")
	require.Len(t, stored, 1)
	assert.Equal(t, "by-header", stored[0].Name)

	none := namedRegion(t, w, "Other", []any{"x"}, []any{"1"})
	s, err = NewExportSession(env, none, ExportOptions{Schema: "shop", TableName: "people", UseFirstRowAsHeader: true, AppendToExisting: true})
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	assert.ErrorContains(t, err, "no grid column matches")
}

func TestExportSessionEmptyRegion(t *testing.T) {
	env, w := newEnv(t, gatewaytest.New())
	r, err := w.CreateNewRegion("Empty", surface.Bounds{})
	require.NoError(t, err)

	s, err := NewExportSession(env, r, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Empty", s.Options.TableName)
	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func TestExportSessionPreviewWithoutGateway(t *testing.T) {
	env, w := newEnv(t, nil)
	r := exportRegion(t, w, []any{"qty", "price"}, []any{3, 1.5}, []any{10, 2.25})

	s, err := NewExportSession(env, r, ExportOptions{TableName: "items", UseFirstRowAsHeader: true, Engine: "MyISAM"})
	require.NoError(t, err)

	tbl, err := s.Preview()
	require.NoError(t, err)
	require.Len(t, tbl.Columns, 2)
	assert.Equal(t, core.KindInteger, tbl.Columns[0].Type.Kind)
	assert.Equal(t, core.KindDecimal, tbl.Columns[1].Type.Kind)
	assert.Equal(t, "MyISAM", tbl.Engine)

	_, err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database gateway")
}

func TestExportSessionInferenceKeepsBothReadings(t *testing.T) {
	env, w := newEnv(t, nil)
	r := exportRegion(t, w, []any{"qty"}, []any{3}, []any{10})

	s, err := NewExportSession(env, r, ExportOptions{TableName: "items", UseFirstRowAsHeader: true, AddPrimaryKey: true})
	require.NoError(t, err)

	res, err := s.Inference()
	require.NoError(t, err)
	require.Len(t, res.HeaderGuesses, 2)
	require.Len(t, res.DataGuesses, 2)
	assert.True(t, res.PrimaryKeyAdded)
	assert.Equal(t, "items_id", res.HeaderGuesses[0].Name)
	assert.Equal(t, core.KindInteger, res.HeaderGuesses[1].Type.Kind)
	assert.False(t, res.DataGuesses[1].Consistent)
}

// ordersGateway answers catalog queries for shop.orders, whose status
// column is NOT NULL with a default.
func ordersGateway() *gatewaytest.Fake {
	gw := gatewaytest.New()
	gw.Schema[gateway.InfoTables] = rs(
		[]string{"TABLE_NAME", "ENGINE", "TABLE_COLLATION", "CHARACTER_SET_NAME", "TABLE_COMMENT", "AUTO_INCREMENT", "TABLE_ROWS"},
		[]any{"orders", "InnoDB", "utf8mb4_0900_ai_ci", "utf8mb4", "", int64(1), int64(0)},
	)
	gw.Schema[gateway.InfoColumns] = rs(
		[]string{"COLUMN_NAME", "ORDINAL_POSITION", "COLUMN_DEFAULT", "IS_NULLABLE", "COLUMN_TYPE", "CHARACTER_SET_NAME", "COLLATION_NAME", "COLUMN_KEY", "EXTRA", "COLUMN_COMMENT"},
		[]any{"id", int64(1), nil, "NO", "int", nil, nil, "PRI", "auto_increment", ""},
		[]any{"name", int64(2), nil, "NO", "varchar(40)", "utf8mb4", "utf8mb4_0900_ai_ci", "", "", ""},
		[]any{"status", int64(3), "new", "NO", "varchar(10)", "utf8mb4", "utf8mb4_0900_ai_ci", "", "", ""},
		[]any{"note", int64(4), nil, "YES", "text", "utf8mb4", "utf8mb4_0900_ai_ci", "", "", ""},
	)
	gw.Schema[gateway.InfoIndexes] = rs(
		[]string{"TABLE_NAME", "INDEX_NAME", "NON_UNIQUE", "INDEX_TYPE"},
		[]any{"orders", "PRIMARY", int64(0), "BTREE"},
	)
	gw.Schema[gateway.InfoIndexColumns] = rs(
		[]string{"TABLE_NAME", "INDEX_NAME", "SEQ_IN_INDEX", "COLUMN_NAME", "COLLATION"},
		[]any{"orders", "PRIMARY", int64(1), "id", "A"},
	)
	return gw
}

func TestExportSessionAppendLeavesUnmappedColumnsToDefaults(t *testing.T) {
	gw := ordersGateway()
	env, w := newEnv(t, gw)
	r := exportRegion(t, w, []any{"name"}, []any{"Ann"}, []any{"Bob"})

	s, err := NewExportSession(env, r, ExportOptions{
		Schema: "shop", TableName: "orders", UseFirstRowAsHeader: true,
		AppendToExisting: true, RowsPerInsert: 100,
	})
	require.NoError(t, err)
	res, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Statements, 1)
	assert.Equal(t, "INSERT INTO `shop`.`orders` (`name`) VALUES ('Ann'), ('Bob')", res.Statements[0].Text)
	assert.Equal(t, int64(2), res.Summary.InsertedCount)
	assert.Len(t, res.Table.Columns, 4)
	assert.Contains(t, res.Issues, diff.Issue{Severity: diff.SeverityInfo, Description: "Column receives no value and keeps its default", Column: "status"})
}

func TestExportSessionTrimsTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		want      string
	}{
		{"given name", "  orders ", "orders"},
		{"region name", "", "Data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, w := newEnv(t, gatewaytest.New())
			r := exportRegion(t, w, []any{"id"}, []any{1})

			s, err := NewExportSession(env, r, ExportOptions{TableName: tt.tableName, UseFirstRowAsHeader: true})
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Options.TableName)

			ddl, err := s.DDL()
			require.NoError(t, err)
			assert.Contains(t, ddl, "CREATE TABLE `"+tt.want+"`")
		})
	}
}
