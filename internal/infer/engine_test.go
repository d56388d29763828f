package infer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetsql/internal/core"
)

func TestInferHeaderAndData(t *testing.T) {
	grid := GridFromValues([][]any{
		{"id", "name"},
		{1, "Ann"},
		{2, "Bob"},
	})

	res := New(nil).Infer(grid, Options{TableName: "t"})
	require.Len(t, res.HeaderGuesses, 2)
	require.Len(t, res.DataGuesses, 2)

	id := res.HeaderGuesses[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, core.KindInteger, id.Type.Kind)
	assert.Equal(t, "int(10)", id.Type.String())
	assert.True(t, id.Consistent)
	assert.False(t, id.HasBlanks)

	name := res.HeaderGuesses[1]
	assert.Equal(t, "name", name.Name)
	assert.Equal(t, "varchar(10)", name.Type.String())

	// Treating the header as data mixes text into the id column.
	assert.Equal(t, "Column1", res.DataGuesses[0].Name)
	assert.False(t, res.DataGuesses[0].Consistent)
	assert.Equal(t, core.KindChar, res.DataGuesses[0].Type.Kind)
}

func TestInferIntegerColumns(t *testing.T) {
	grid := GridFromValues([][]any{{"n"}, {1}, {"42"}, {int64(-7)}, {3.0}})
	g := New(nil).Infer(grid, Options{}).HeaderGuesses[0]
	assert.Equal(t, BucketInteger, g.Bucket)
	assert.True(t, g.Consistent)

	t.Run("single text cell breaks consistency", func(t *testing.T) {
		grid := GridFromValues([][]any{{"n"}, {1}, {2}, {"n/a"}, {4}})
		g := New(nil).Infer(grid, Options{}).HeaderGuesses[0]
		assert.False(t, g.Consistent)
		assert.Equal(t, core.KindChar, g.Type.Kind)
	})

	t.Run("back and forth is inconsistent", func(t *testing.T) {
		grid := GridFromValues([][]any{{"n"}, {1}, {"a"}, {2}, {"b"}})
		g := New(nil).Infer(grid, Options{}).HeaderGuesses[0]
		assert.False(t, g.Consistent)
	})
}

func TestInferNumericWidening(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   string
	}{
		{"integer and decimal", []any{1, 2.5, 10}, "decimal(3,1)"},
		{"decimal scales", []any{1.25, 100.5}, "decimal(5,2)"},
		{"beyond int32", []any{1, int64(3000000000)}, "decimal(10)"},
		{"exponent strings", []any{"1e10", 2}, "double"},
		{"booleans", []any{true, false}, "tinyint(1)"},
		{"boolean and number", []any{true, 1}, "varchar(10)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := [][]any{{"h"}}
			for _, v := range tt.values {
				values = append(values, []any{v})
			}
			g := New(nil).Infer(GridFromValues(values), Options{}).HeaderGuesses[0]
			assert.Equal(t, tt.want, g.Type.String())
		})
	}
}

func TestInferCharacterLength(t *testing.T) {
	tests := []struct {
		maxLen int
		want   string
	}{
		{1, "varchar(10)"},
		{10, "varchar(10)"},
		{11, "varchar(20)"},
		{23, "varchar(30)"},
		{core.MaxVarCharLength + 1, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			grid := GridFromValues([][]any{{"h"}, {"x"}, {strings.Repeat("a", tt.maxLen)}})
			g := New(nil).Infer(grid, Options{}).HeaderGuesses[0]
			assert.Equal(t, tt.want, g.Type.String())
		})
	}
}

func TestRoundUp10(t *testing.T) {
	for n, want := range map[int]int{0: 10, 1: 10, 9: 10, 10: 10, 11: 20, 23: 30, 100: 100} {
		assert.Equal(t, want, roundUp10(n), "n=%d", n)
	}
}

func TestInferBlankColumns(t *testing.T) {
	grid := Grid{
		{{Text: "a"}, {Text: "b"}},
		{{Value: nil}, {Value: "x"}},
		{{Value: "   "}, {Value: nil}},
	}
	res := New(nil).Infer(grid, Options{})

	empty := res.HeaderGuesses[0]
	assert.True(t, empty.AllBlank)
	assert.Equal(t, "varchar(10)", empty.Type.String())

	partial := res.HeaderGuesses[1]
	assert.True(t, partial.HasBlanks)
	assert.True(t, partial.Consistent, "blanks do not take part in consistency")

	t.Run("empty grid", func(t *testing.T) {
		res := New(nil).Infer(nil, Options{})
		assert.Empty(t, res.HeaderGuesses)
		assert.Zero(t, res.RowCount)
	})

	t.Run("blank text counts toward length", func(t *testing.T) {
		grid := Grid{{{Text: "h"}}, {{Text: "x"}}, {{Text: strings.Repeat(" ", 15)}}}
		g := New(nil).Infer(grid, Options{}).HeaderGuesses[0]
		assert.Equal(t, 15, g.MaxLength)
		assert.Equal(t, "varchar(20)", g.Type.String())
	})
}

func TestInferLeadingZeroStaysText(t *testing.T) {
	grid := GridFromValues([][]any{{"zip"}, {"00501"}, {"10001"}})
	g := New(nil).Infer(grid, Options{}).HeaderGuesses[0]
	assert.Equal(t, core.KindChar, g.Type.Kind)
	assert.False(t, g.Consistent)
}

func TestInferDatesRewriteText(t *testing.T) {
	when := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	grid := Grid{
		{{Text: "created"}},
		{{Value: when, Text: "3/9/24 2:05 PM"}},
		{{Value: "2024-03-10", Text: "2024-03-10"}},
	}
	res := New(nil).Infer(grid, Options{})
	g := res.HeaderGuesses[0]
	assert.Equal(t, "datetime", g.Type.String())
	assert.Equal(t, "2024-03-09 14:05:00", grid[1][0].Text)
	assert.Equal(t, "2024-03-10 00:00:00", grid[2][0].Text)
	assert.Equal(t, "created", grid[0][0].Text, "header text is untouched")

	rows := res.Rows(grid, true)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-09 14:05:00", rows[0][0])
}

func TestInferAutoPrimaryKey(t *testing.T) {
	grid := GridFromValues([][]any{{"name"}, {"Ann"}, {"Bob"}})
	res := New(nil).Infer(grid, Options{TableName: "people", AddPrimaryKey: true})

	require.Len(t, res.HeaderGuesses, 2)
	assert.Equal(t, "people_id", res.HeaderGuesses[0].Name)
	assert.Equal(t, "int(10)", res.HeaderGuesses[0].Type.String())
	assert.Equal(t, "Column1", res.DataGuesses[0].Name)
	assert.Equal(t, "Column2", res.DataGuesses[1].Name)

	table, err := res.Table("", "people", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"people_id", "name"}, table.ColumnNames())
	pk := table.Columns[0]
	assert.True(t, pk.PrimaryKey)
	assert.True(t, pk.AutoIncrement)
	assert.Empty(t, pk.MappedSourceColumn)
	assert.Equal(t, "name", table.Columns[1].MappedSourceColumn)
	assert.True(t, table.IsNew)

	rows := res.Rows(grid, true)
	require.Len(t, rows, 2)
	assert.Equal(t, core.Row{nil, "Ann"}, rows[0])
}

func TestInferDuplicateHeaders(t *testing.T) {
	grid := GridFromValues([][]any{{"a", "A", ""}, {1, 2, 3}})
	res := New(nil).Infer(grid, Options{})
	assert.Equal(t, "a", res.HeaderGuesses[0].Name)
	assert.Equal(t, "A_1", res.HeaderGuesses[1].Name)
	assert.Equal(t, "Column3", res.HeaderGuesses[2].Name)
}

func TestResultTableNullability(t *testing.T) {
	grid := GridFromValues([][]any{{"id", "note"}, {1, nil}, {2, "x"}})
	table, err := New(nil).Infer(grid, Options{}).Table("shop", "t", true)
	require.NoError(t, err)
	assert.False(t, table.FindColumn("id").Nullable)
	assert.True(t, table.FindColumn("note").Nullable)
	assert.Equal(t, "shop", table.SchemaName)
}
