package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetsql/internal/core"
)

func targetTable(t *testing.T, names ...string) *core.Table {
	t.Helper()
	table, err := core.NewTable("shop", "orders", false)
	require.NoError(t, err)
	for _, n := range names {
		require.NoError(t, table.AddColumn(&core.Column{Name: n, Type: core.VarCharType(10), Nullable: true}))
	}
	return table
}

func TestMatchAgainstSchema(t *testing.T) {
	tests := []struct {
		name       string
		source     []string
		target     []string
		sameOrder  bool
		wantCount  int
		wantIndex  []int
		wantIsFull bool
	}{
		{
			name:       "free order case insensitive",
			source:     []string{"Qty", "ID", "note"},
			target:     []string{"id", "qty", "note"},
			wantCount:  3,
			wantIndex:  []int{1, 0, 2},
			wantIsFull: true,
		},
		{
			name:      "same ordinal position",
			source:    []string{"Qty", "ID", "note"},
			target:    []string{"id", "qty", "note"},
			sameOrder: true,
			wantCount: 1,
			wantIndex: []int{Unmapped, Unmapped, 2},
		},
		{
			name:      "target longer than source",
			source:    []string{"id"},
			target:    []string{"id", "total"},
			sameOrder: true,
			wantCount: 1,
			wantIndex: []int{0, Unmapped},
		},
		{
			name:      "nothing in common",
			source:    []string{"a", "b"},
			target:    []string{"x", "y"},
			wantCount: 0,
			wantIndex: []int{Unmapped, Unmapped},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New("m", "conn", "shop", "orders", tt.source)
			got := m.MatchAgainstSchema(targetTable(t, tt.target...), tt.sameOrder)
			assert.Equal(t, tt.wantCount, got)
			assert.Equal(t, tt.wantIndex, m.MappedSourceIndex)
			assert.Equal(t, tt.wantIsFull, m.IsComplete())
			assert.LessOrEqual(t, got, min(len(tt.source), len(tt.target)))
			require.NoError(t, m.Validate())
		})
	}
}

func TestMatchAgainstSchemaClearsPreviousAssignments(t *testing.T) {
	m := New("m", "conn", "shop", "orders", []string{"a", "b"})
	assert.Equal(t, 2, m.MatchAgainstSchema(targetTable(t, "a", "b"), false))

	assert.Equal(t, 0, m.MatchAgainstSchema(targetTable(t, "x", "y", "z"), false))
	assert.Equal(t, []int{Unmapped, Unmapped, Unmapped}, m.MappedSourceIndex)
	assert.Equal(t, []string{"x", "y", "z"}, m.UnmappedColumns())
}

func TestMatchAgainstOtherMapping(t *testing.T) {
	stored := New("stored", "conn", "shop", "orders", []string{"Order No", "Amount"})
	stored.TargetColumns = []string{"id", "total", "note"}
	stored.MappedSourceIndex = []int{0, 1, Unmapped}

	t.Run("reuses source names", func(t *testing.T) {
		m := New("new", "conn", "shop", "orders", []string{"amount", "order no", "extra"})
		m.TargetColumns = []string{"id", "total", "note"}
		got := m.MatchAgainstOtherMapping(stored, true)
		assert.Equal(t, 2, got)
		assert.Equal(t, []int{1, 0, Unmapped}, m.MappedSourceIndex)
		assert.Equal(t, []string{"note"}, m.UnmappedColumns())
	})

	t.Run("schema and table enforced", func(t *testing.T) {
		m := New("new", "conn", "shop", "invoices", []string{"Order No", "Amount"})
		m.TargetColumns = []string{"id", "total"}
		assert.Equal(t, 0, m.MatchAgainstOtherMapping(stored, true))
		assert.Equal(t, 2, m.MatchAgainstOtherMapping(stored, false))
	})

	t.Run("nil mapping", func(t *testing.T) {
		m := New("new", "conn", "shop", "orders", []string{"a"})
		m.TargetColumns = []string{"a"}
		assert.Equal(t, 0, m.MatchAgainstOtherMapping(nil, false))
		assert.Equal(t, []int{Unmapped}, m.MappedSourceIndex)
	})
}

func TestSetAndProject(t *testing.T) {
	m := New("m", "conn", "shop", "orders", []string{"A", "B", "C"})
	m.MatchAgainstSchema(targetTable(t, "c", "x", "a"), false)

	assert.Equal(t, core.Row{3, nil, 1}, m.Project([]any{1, 2, 3}))

	require.NoError(t, m.Set("x", "B"))
	assert.True(t, m.IsComplete())
	assert.Equal(t, core.Row{3, 2, 1}, m.Project([]any{1, 2, 3}))

	require.NoError(t, m.Set("x", ""))
	assert.False(t, m.IsComplete())

	assert.Error(t, m.Set("missing", "A"))
	assert.Error(t, m.Set("x", "missing"))
}

func TestValidate(t *testing.T) {
	m := New("m", "conn", "shop", "orders", []string{"a"})
	m.TargetColumns = []string{"a", "b"}
	m.MappedSourceIndex = []int{0}
	assert.Error(t, m.Validate())

	m.MappedSourceIndex = []int{0, 5}
	assert.Error(t, m.Validate())

	m.MappedSourceIndex = []int{0, Unmapped}
	assert.NoError(t, m.Validate())

	m.Name = " "
	assert.ErrorIs(t, m.Validate(), core.ErrEmptyName)
}

func TestNarrow(t *testing.T) {
	tests := []struct {
		name          string
		source        []string
		target        []string
		wantColumns   []string
		wantPositions []int
	}{
		{
			name:          "unmapped columns dropped",
			source:        []string{"name"},
			target:        []string{"id", "name", "status"},
			wantColumns:   []string{"name"},
			wantPositions: []int{1},
		},
		{
			name:          "table order kept",
			source:        []string{"status", "id"},
			target:        []string{"id", "name", "status"},
			wantColumns:   []string{"id", "status"},
			wantPositions: []int{0, 2},
		},
		{
			name:   "nothing mapped",
			source: []string{"other"},
			target: []string{"id", "name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := targetTable(t, tt.target...)
			m := New("m", "conn", "shop", "orders", tt.source)
			m.MatchAgainstSchema(table, false)

			narrowed, positions := m.Narrow(table)
			var names []string
			for _, c := range narrowed.Columns {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.wantColumns, names)
			assert.Equal(t, tt.wantPositions, positions)
			assert.Len(t, table.Columns, len(tt.target))
			assert.Equal(t, table.QualifiedName(), narrowed.QualifiedName())
		})
	}
}
