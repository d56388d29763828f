package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sheetsql/internal/dialect/mysql"
	"sheetsql/internal/gateway"
	"sheetsql/internal/gateway/gatewaytest"
	"sheetsql/internal/surface"
)

var born = time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)

func rs(columns []string, rows ...[]any) *gateway.ResultSet {
	return &gateway.ResultSet{Columns: columns, Rows: rows}
}

// peopleGateway answers catalog queries for shop.people(id, name, born).
func peopleGateway() *gatewaytest.Fake {
	gw := gatewaytest.New()
	gw.Schema[gateway.InfoTables] = rs(
		[]string{"TABLE_NAME", "ENGINE", "TABLE_COLLATION", "CHARACTER_SET_NAME", "TABLE_COMMENT", "AUTO_INCREMENT", "TABLE_ROWS"},
		[]any{"people", "InnoDB", "utf8mb4_0900_ai_ci", "utf8mb4", "", int64(4), int64(3)},
	)
	gw.Schema[gateway.InfoColumns] = rs(
		[]string{"COLUMN_NAME", "ORDINAL_POSITION", "COLUMN_DEFAULT", "IS_NULLABLE", "COLUMN_TYPE", "CHARACTER_SET_NAME", "COLLATION_NAME", "COLUMN_KEY", "EXTRA", "COLUMN_COMMENT"},
		[]any{"id", int64(1), nil, "NO", "int", nil, nil, "PRI", "auto_increment", ""},
		[]any{"name", int64(2), nil, "NO", "varchar(40)", "utf8mb4", "utf8mb4_0900_ai_ci", "", "", ""},
		[]any{"born", int64(3), nil, "YES", "date", nil, nil, "", "", ""},
	)
	gw.Schema[gateway.InfoIndexes] = rs(
		[]string{"TABLE_NAME", "INDEX_NAME", "NON_UNIQUE", "INDEX_TYPE"},
		[]any{"people", "PRIMARY", int64(0), "BTREE"},
	)
	gw.Schema[gateway.InfoIndexColumns] = rs(
		[]string{"TABLE_NAME", "INDEX_NAME", "SEQ_IN_INDEX", "COLUMN_NAME", "COLLATION"},
		[]any{"people", "PRIMARY", int64(1), "id", "A"},
	)
	gw.Scalars["COUNT(*)"] = int64(3)
	gw.Selects["FROM `shop`.`people`"] = peopleRows()
	return gw
}

func peopleRows() *gateway.ResultSet {
	return rs([]string{"id", "name", "born"},
		[]any{int64(1), "Ann", born},
		[]any{int64(2), "Bob", nil},
		[]any{int64(3), "Cy", nil},
	)
}

func newEnv(t *testing.T, gw gateway.Gateway) (Env, *surface.Workbook) {
	t.Helper()
	w := surface.NewWorkbook(filepath.Join(t.TempDir(), "book.xlsx"))
	t.Cleanup(func() { _ = w.Close() })
	return Env{Gateway: gw, Surface: w, Generator: mysql.NewMySQLGenerator()}, w
}

// setCells overwrites cells without registering a region.
func setCells(t *testing.T, w *surface.Workbook, sheet string, row, col int, values ...[]any) {
	t.Helper()
	r := &surface.Region{Name: "scratch", Bounds: surface.Bounds{Sheet: sheet, Row: row, Col: col}}
	require.NoError(t, w.WriteGrid(r, values))
}

type gatewayFixture struct {
	gw *gatewaytest.Fake
	w  *surface.Workbook
}
