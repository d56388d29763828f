// Package gateway is the database side of the engine: it runs statements,
// answers schema information queries and classifies connectivity failures so
// sessions can tell a dropped table from a refused connection.
package gateway

import (
	"context"
	"strings"

	"github.com/spf13/cast"

	"sheetsql/internal/core"
)

// SchemaInfoKind selects the catalog rows GetSchemaInformation returns.
type SchemaInfoKind string

const (
	InfoTables            SchemaInfoKind = "Tables"
	InfoViews             SchemaInfoKind = "Views"
	InfoColumns           SchemaInfoKind = "Columns"
	InfoIndexes           SchemaInfoKind = "Indexes"
	InfoIndexColumns      SchemaInfoKind = "IndexColumns"
	InfoForeignKeyColumns SchemaInfoKind = "ForeignKeyColumns"
	InfoCollations        SchemaInfoKind = "Collations"
	InfoCharacterSets     SchemaInfoKind = "CharacterSets"
	InfoEngines           SchemaInfoKind = "Engines"
)

// Gateway is everything the engine needs from a database connection.
type Gateway interface {
	// ConnectionID identifies the server and account, for saved mappings.
	ConnectionID() string
	ExecuteScalar(ctx context.Context, query string, params ...core.Param) (any, error)
	ExecuteNonQuery(ctx context.Context, query string, params ...core.Param) (int64, error)
	GetSchemaInformation(ctx context.Context, kind SchemaInfoKind, schema, object string) (*ResultSet, error)
	GetDataFromSelectQuery(ctx context.Context, query string) (*ResultSet, error)
	// Begin opens a unit of work. Every batch statement gets its own.
	Begin(ctx context.Context) (UnitOfWork, error)
	Close() error
}

// UnitOfWork is a transactional scope around one or more statements.
type UnitOfWork interface {
	ExecuteNonQuery(ctx context.Context, query string, params ...core.Param) (int64, error)
	Commit() error
	Rollback() error
}

// ResultSet is a fully read tabular result. Text columns hold strings,
// binary columns []byte, NULL is nil.
type ResultSet struct {
	Columns []string
	Types   []string
	Rows    [][]any
}

// Len returns the number of rows.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// ColumnIndex finds a column case-insensitively, or returns -1.
func (r *ResultSet) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Value returns a cell by row number and column name. Unknown columns are nil.
func (r *ResultSet) Value(row int, column string) any {
	i := r.ColumnIndex(column)
	if i < 0 || row < 0 || row >= len(r.Rows) || i >= len(r.Rows[row]) {
		return nil
	}
	return r.Rows[row][i]
}

// String returns a cell as text. NULL is "".
func (r *ResultSet) String(row int, column string) string {
	return cast.ToString(r.Value(row, column))
}

// Int returns a cell as an integer, or 0 when it is NULL or not numeric.
func (r *ResultSet) Int(row int, column string) int64 {
	return cast.ToInt64(r.Value(row, column))
}
