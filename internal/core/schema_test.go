package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, cols ...string) *Table {
	t.Helper()
	table, err := NewTable("shop", "orders", true)
	require.NoError(t, err)
	for _, name := range cols {
		require.NoError(t, table.AddColumn(&Column{Name: name, Type: VarCharType(10), Nullable: true}))
	}
	return table
}

func TestNewTableRejectsEmptyName(t *testing.T) {
	_, err := NewTable("shop", "  ", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestTableFindColumn(t *testing.T) {
	table := newTestTable(t, "id", "Customer")

	t.Run("exact name", func(t *testing.T) {
		c := table.FindColumn("id")
		require.NotNil(t, c)
		assert.Equal(t, "id", c.Name)
	})

	t.Run("case insensitive", func(t *testing.T) {
		c := table.FindColumn("CUSTOMER")
		require.NotNil(t, c)
		assert.Equal(t, "Customer", c.Name)
	})

	t.Run("missing column", func(t *testing.T) {
		assert.Nil(t, table.FindColumn("nope"))
		assert.Equal(t, -1, table.ColumnIndex("nope"))
	})
}

func TestTableAddColumn(t *testing.T) {
	table := newTestTable(t, "id")

	t.Run("empty name fails", func(t *testing.T) {
		err := table.AddColumn(&Column{Name: ""})
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("duplicate name fails case insensitively", func(t *testing.T) {
		err := table.AddColumn(&Column{Name: "ID"})
		assert.ErrorIs(t, err, ErrDuplicateColumn)
	})

	t.Run("primary key column builds primary index", func(t *testing.T) {
		require.NoError(t, table.AddColumn(&Column{Name: "code", Type: IntegerType(10), PrimaryKey: true, Nullable: true}))
		idx := table.PrimaryIndex()
		require.NotNil(t, idx)
		assert.Equal(t, []string{"code"}, idx.Names())
		assert.False(t, table.FindColumn("code").Nullable)
	})
}

func TestTableInsertColumn(t *testing.T) {
	table := newTestTable(t, "a", "b")
	require.NoError(t, table.InsertColumn(0, &Column{Name: "orders_id", Type: IntegerType(10)}))
	assert.Equal(t, []string{"orders_id", "a", "b"}, table.ColumnNames())

	require.NoError(t, table.InsertColumn(10, &Column{Name: "tail", Type: IntegerType(10)}))
	assert.Equal(t, []string{"orders_id", "a", "b", "tail"}, table.ColumnNames())
}

func TestTableSetPrimaryKey(t *testing.T) {
	table := newTestTable(t, "id", "code", "name")

	require.NoError(t, table.SetPrimaryKey("id"))
	assert.True(t, table.FindColumn("id").PrimaryKey)

	require.NoError(t, table.SetPrimaryKey("code", "name"))
	assert.False(t, table.FindColumn("id").PrimaryKey, "previous primary flag must be cleared")
	assert.True(t, table.FindColumn("code").PrimaryKey)
	assert.True(t, table.FindColumn("name").PrimaryKey)

	pks := table.PrimaryKeyColumns()
	require.Len(t, pks, 2)
	assert.Equal(t, "code", pks[0].Name)
	assert.Equal(t, "name", pks[1].Name)

	primaries := 0
	for _, idx := range table.Indexes {
		if idx.Primary {
			primaries++
			assert.True(t, idx.Unique)
		}
	}
	assert.Equal(t, 1, primaries)

	t.Run("unknown column", func(t *testing.T) {
		err := table.SetPrimaryKey("missing")
		assert.ErrorIs(t, err, ErrColumnNotFound)
		assert.True(t, table.FindColumn("code").PrimaryKey, "failed call must not clear the key")
	})

	t.Run("no names removes key", func(t *testing.T) {
		require.NoError(t, table.SetPrimaryKey())
		assert.Nil(t, table.PrimaryIndex())
		assert.Empty(t, table.PrimaryKeyColumns())
	})
}

func TestTableRemoveColumn(t *testing.T) {
	table := newTestTable(t, "id", "email", "name")
	require.NoError(t, table.AddIndex(&Index{Name: "ix_email", Columns: []IndexColumn{{Name: "email"}}}))
	require.NoError(t, table.AddIndex(&Index{Name: "ix_email_name", Columns: []IndexColumn{{Name: "email"}, {Name: "name"}}}))

	require.NoError(t, table.RemoveColumn("EMAIL"))
	assert.Equal(t, []string{"id", "name"}, table.ColumnNames())
	assert.Nil(t, table.FindIndex("ix_email"), "index without columns is dropped")
	idx := table.FindIndex("ix_email_name")
	require.NotNil(t, idx)
	assert.Equal(t, []string{"name"}, idx.Names())

	assert.ErrorIs(t, table.RemoveColumn("email"), ErrColumnNotFound)
}

func TestIndexValidate(t *testing.T) {
	tests := []struct {
		name    string
		index   Index
		wantErr bool
	}{
		{name: "regular", index: Index{Name: "ix", Columns: []IndexColumn{{Name: "a"}}}},
		{name: "no columns", index: Index{Name: "ix"}, wantErr: true},
		{name: "no name", index: Index{Columns: []IndexColumn{{Name: "a"}}}, wantErr: true},
		{name: "primary without name", index: Index{Primary: true, Columns: []IndexColumn{{Name: "a"}}}},
		{name: "fulltext and spatial", index: Index{Name: "ix", FullText: true, Spatial: true, Columns: []IndexColumn{{Name: "a"}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := tt.index
			err := idx.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIndex)
				return
			}
			require.NoError(t, err)
			if idx.Primary {
				assert.True(t, idx.Unique, "primary implies unique")
				assert.Equal(t, PrimaryIndexName, idx.Name)
			}
		})
	}
}

func TestAddPrimaryIndexSetsKeyGroup(t *testing.T) {
	table := newTestTable(t, "a", "b")
	require.NoError(t, table.AddIndex(&Index{Primary: true, Columns: []IndexColumn{{Name: "b"}}}))
	assert.True(t, table.FindColumn("b").PrimaryKey)
	assert.False(t, table.FindColumn("a").PrimaryKey)
}

func TestColumnCharacterSetInvalidatesCollation(t *testing.T) {
	c := &Column{Name: "name", Type: VarCharType(20), CharacterSet: "utf8mb4", Collation: "utf8mb4_bin"}

	c.SetCharacterSet("utf8mb4")
	assert.Equal(t, "utf8mb4_bin", c.Collation, "same set keeps collation")

	c.SetCharacterSet("latin1")
	assert.Empty(t, c.Collation)

	assert.Error(t, c.SetCollation("utf8mb4_bin"))
	require.NoError(t, c.SetCollation("latin1_swedish_ci"))
	assert.Equal(t, "latin1_swedish_ci", c.Collation)
}

func TestTableValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		table := newTestTable(t, "id", "name")
		assert.NoError(t, table.Validate())
	})

	t.Run("duplicate column", func(t *testing.T) {
		table := &Table{Name: "t", Columns: []*Column{{Name: "a"}, {Name: "A"}}}
		assert.ErrorIs(t, table.Validate(), ErrDuplicateColumn)
	})

	t.Run("empty column", func(t *testing.T) {
		table := &Table{Name: "t", Columns: []*Column{{Name: " "}}}
		assert.ErrorIs(t, table.Validate(), ErrEmptyName)
	})

	t.Run("auto increment on text", func(t *testing.T) {
		table := &Table{Name: "t", Columns: []*Column{{Name: "a", Type: TextType(), AutoIncrement: true}}}
		assert.Error(t, table.Validate())
	})

	t.Run("index on missing column", func(t *testing.T) {
		table := &Table{Name: "t", Columns: []*Column{{Name: "a"}}, Indexes: []*Index{{Name: "ix", Columns: []IndexColumn{{Name: "b"}}}}}
		assert.ErrorIs(t, table.Validate(), ErrColumnNotFound)
	})
}

func TestTableQualifiedName(t *testing.T) {
	assert.Equal(t, "shop.orders", (&Table{SchemaName: "shop", Name: "orders"}).QualifiedName())
	assert.Equal(t, "orders", (&Table{Name: "orders"}).QualifiedName())
}
