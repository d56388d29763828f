// Package dialect provides a unified interface for SQL dialects. Sessions and
// the batch builder only talk to a Generator, so quoting and statement shapes
// live in exactly one place per dialect.
package dialect

import (
	"sheetsql/internal/core"
)

type Type string

const (
	MySQL Type = "mysql"
)

// Generator turns a SchemaModel and row images into SQL text.
//
// The Generate* DML methods embed values as quoted literals and are meant for
// bulk loads. The Parameterized* methods bind values through named parameters
// (@S_<col> for new values, @W_<col> for the correlation image) and are meant
// for row-level synchronization.
type Generator interface {
	GenerateCreateTable(table *core.Table) (string, error)
	GenerateDropTable(table *core.Table) string
	GenerateInsert(table *core.Table, row core.Row) (string, error)
	GenerateMultiInsert(table *core.Table, rows []core.Row) (string, error)
	GenerateUpdate(table *core.Table, original, current core.Row) (string, error)
	GenerateDelete(table *core.Table, original core.Row) (string, error)
	ParameterizedInsert(table *core.Table, row core.Row) (core.Statement, error)
	ParameterizedUpdate(table *core.Table, original, current core.Row) (core.Statement, error)
	ParameterizedDelete(table *core.Table, original core.Row) (core.Statement, error)
	GenerateSelect(table *core.Table, limit, offset int) string
	QuoteIdentifier(name string) string
	QuoteString(value string) string
}

// Parser reads CREATE TABLE text back into a SchemaModel.
type Parser interface {
	ParseCreateTable(sql string) (*core.Table, error)
}

// Dialect ties a generator and a parser for one SQL flavor together.
type Dialect interface {
	Name() Type
	Generator() Generator
	Parser() Parser
}

var registry = map[Type]func() Dialect{}

// RegisterDialect creates a new registry entry for the specified dialect.
func RegisterDialect(d Type, ctor func() Dialect) {
	registry[d] = ctor
}

// GetDialect returns the dialect for the specified type from the registry,
// falling back to MySQL.
func GetDialect(d Type) Dialect {
	if ctor, ok := registry[d]; ok {
		return ctor()
	}
	if ctor, ok := registry[MySQL]; ok {
		return ctor()
	}
	return nil
}
