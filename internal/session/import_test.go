package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetsql/internal/gateway"
	"sheetsql/internal/surface"
)

func TestImportSessionRun(t *testing.T) {
	gw := peopleGateway()
	env, w := newEnv(t, gw)

	imp, err := NewImportSession(env, "shop", "people", ImportOptions{IncludeHeaders: true, AnchorRow: 2, AnchorCol: 2})
	require.NoError(t, err)
	require.NotEmpty(t, imp.ID)

	res, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, ImportingRowsInfo{RowsCount: 3, RowsToImport: 3, MaximumRowsThatFit: w.MaxRows() - 2, RowsLimit: 3}, res.Info)
	assert.Nil(t, res.Snapshot)

	grid, err := w.ReadGrid(res.Region)
	require.NoError(t, err)
	require.Len(t, grid, 4)
	assert.Equal(t, []any{"id", "name", "born"}, grid[0])
	assert.Equal(t, []any{int64(1), "Ann", born}, grid[1])
	assert.Equal(t, []any{int64(3), "Cy", nil}, grid[3])
	assert.Equal(t, "people", res.Region.Bounds.Sheet)
	assert.Equal(t, 2, res.Region.Bounds.Row)
}

func TestImportSessionLimitAndSnapshot(t *testing.T) {
	gw := peopleGateway()
	gw.Selects = map[string]*gateway.ResultSet{
		"LIMIT 1, 2": rs([]string{"id", "name", "born"}, []any{int64(2), "Bob", nil}, []any{int64(3), "Cy", nil}),
	}
	env, w := newEnv(t, gw)

	imp, err := NewImportSession(env, "shop", "people", ImportOptions{
		Region:    "staff",
		FirstRow:  2,
		LimitRows: 5,
		Editable:  true,
	})
	require.NoError(t, err)
	res, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Info.RowsToImport)
	assert.Equal(t, 2, res.Rows)

	require.NotNil(t, res.Snapshot)
	assert.Equal(t, "staff_snapshot", res.Snapshot.Name)
	assert.Equal(t, "snap_staff", res.Snapshot.Bounds.Sheet)

	grid, err := w.ReadGrid(res.Region)
	require.NoError(t, err)
	snap, err := w.ReadGrid(res.Snapshot)
	require.NoError(t, err)
	assert.Equal(t, grid, snap)
	assert.Equal(t, []any{int64(2), "Bob", nil}, grid[0])
}

func TestImportSessionErrors(t *testing.T) {
	env, _ := newEnv(t, peopleGateway())

	_, err := NewImportSession(env, "shop", "", ImportOptions{})
	assert.Error(t, err)

	_, err = NewImportSession(Env{}, "shop", "people", ImportOptions{})
	assert.Error(t, err)

	missing := peopleGateway()
	delete(missing.Schema, gateway.InfoTables)
	env, _ = newEnv(t, missing)
	imp, err := NewImportSession(env, "shop", "people", ImportOptions{})
	require.NoError(t, err)
	_, err = imp.Run(context.Background())
	assert.ErrorIs(t, err, gateway.ErrTableNotFound)
}

func TestImportSessionOverlap(t *testing.T) {
	env, w := newEnv(t, peopleGateway())
	_, err := w.CreateNewRegion("other", surface.Bounds{Sheet: "Sheet1", Row: 1, Col: 1})
	require.NoError(t, err)

	imp, err := NewImportSession(env, "shop", "people", ImportOptions{Sheet: "Sheet1", AnchorRow: 1, AnchorCol: 1})
	require.NoError(t, err)
	_, err = imp.Run(context.Background())
	assert.ErrorContains(t, err, "overlaps")
}
