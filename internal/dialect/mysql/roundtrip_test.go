package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetsql/internal/core"
	"sheetsql/internal/infer"
)

func TestCreateTableParsesBack(t *testing.T) {
	d := NewMySQLDialect()

	grid := infer.GridFromValues([][]any{
		{"id", "name", "price", "joined", "active", "notes"},
		{1, "Ann", 10.5, "2020-01-02", true, nil},
		{2, "Bob", 7, "2021-03-04", false, "long note text here"},
	})
	res := infer.New(nil).Infer(grid, infer.Options{TableName: "members", AddPrimaryKey: true})
	table, err := res.Table("", "members", true)
	require.NoError(t, err)
	table.CharacterSet = "utf8mb4"
	table.Collation = "utf8mb4_bin"

	tables := []*core.Table{table, exampleTable(t)}
	for _, original := range tables {
		t.Run(original.Name, func(t *testing.T) {
			sql, err := d.Generator().GenerateCreateTable(original)
			require.NoError(t, err)

			parsed, err := d.Parser().ParseCreateTable(sql)
			require.NoError(t, err, sql)

			require.Equal(t, original.ColumnNames(), parsed.ColumnNames())
			for i, c := range original.Columns {
				p := parsed.Columns[i]
				assert.True(t, c.Type.Equal(p.Type), "column %s: %s != %s", c.Name, c.Type, p.Type)
				assert.Equal(t, c.Nullable, p.Nullable, c.Name)
				assert.Equal(t, c.PrimaryKey, p.PrimaryKey, c.Name)
				assert.Equal(t, c.AutoIncrement, p.AutoIncrement, c.Name)
			}
			assert.Equal(t, original.CharacterSet, parsed.CharacterSet)
			assert.Equal(t, original.Collation, parsed.Collation)
		})
	}
}
