// Package mysql provides MySQL dialect support: DDL and DML generation with
// identifier and value quoting, and the registry entry tying the generator to
// the CREATE TABLE parser.
package mysql

import (
	"strings"

	"sheetsql/internal/core"
	"sheetsql/internal/dialect"
	"sheetsql/internal/parser/mysql"
)

func init() {
	dialect.RegisterDialect(dialect.MySQL, func() dialect.Dialect {
		return NewMySQLDialect()
	})
}

// Dialect represents the MySQL dialect struct, with generator and parser.
type Dialect struct {
	generator *Generator
	parser    *mysql.Parser
}

// NewMySQLDialect initializes a new MySQL dialect instance.
func NewMySQLDialect() *Dialect {
	return &Dialect{
		generator: NewMySQLGenerator(),
		parser:    mysql.NewParser(),
	}
}

// Name returns the name of the MySQL dialect.
func (d *Dialect) Name() dialect.Type {
	return dialect.MySQL
}

// Generator returns the SQL generator for the MySQL dialect.
func (d *Dialect) Generator() dialect.Generator {
	return d.generator
}

// Parser returns the CREATE TABLE parser for the MySQL dialect.
func (d *Dialect) Parser() dialect.Parser {
	return d.parser
}

// Generator is a stateless struct for generating MySQL statements.
type Generator struct{}

// NewMySQLGenerator initializes a new MySQL generator instance.
func NewMySQLGenerator() *Generator {
	return &Generator{}
}

// QuoteIdentifier wraps a name in backticks, doubling embedded backticks.
// The name is otherwise kept as given, surrounding spaces included.
func (g *Generator) QuoteIdentifier(name string) string {
	name = strings.ReplaceAll(name, "`", "``")
	return "`" + name + "`"
}

// QuoteString single-quotes a value for use as a MySQL string literal.
func (g *Generator) QuoteString(value string) string {
	var b strings.Builder
	b.Grow(len(value) + len(value)/10 + 2)

	b.WriteByte('\'')
	for _, char := range value {
		switch char {
		case '\'':
			b.WriteString("''")
		case '\\':
			b.WriteString(`\\`)
		case '\x00':
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\x1A':
			b.WriteString(`\Z`)
		default:
			b.WriteRune(char)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// QualifiedName returns `schema`.`table`, or just `table` without a schema.
func (g *Generator) QualifiedName(t *core.Table) string {
	if strings.TrimSpace(t.SchemaName) == "" {
		return g.QuoteIdentifier(t.Name)
	}
	return g.QuoteIdentifier(t.SchemaName) + "." + g.QuoteIdentifier(t.Name)
}
