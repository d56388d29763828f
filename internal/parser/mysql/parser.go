// Package mysql reads MySQL CREATE TABLE statements back into the SchemaModel
// using the TiDB SQL parser.
package mysql

import (
	"fmt"
	"regexp"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"sheetsql/internal/core"
)

// Schema is everything a script of CREATE TABLE statements declares.
type Schema struct {
	Tables        []*core.Table
	Relationships []*core.RelationshipEdge
}

// Parser converts SQL text into core tables. It is not safe for concurrent use.
type Parser struct {
	p *parser.Parser
}

// NewParser creates a parser with the default SQL mode.
func NewParser() *Parser {
	return &Parser{
		p: parser.New(),
	}
}

// reDefaultCharset matches "CHARACTER SET=DEFAULT" style table options. MySQL
// accepts them but the TiDB grammar only takes real names, and dropping them
// means the same thing.
var reDefaultCharset = regexp.MustCompile(`(?i),?\s*(?:DEFAULT\s+)?(?:CHARACTER\s+SET|CHARSET|COLLATE)\s*=?\s*DEFAULT\b`)

// Parse reads every CREATE TABLE statement of sql. Other statements are ignored.
func (p *Parser) Parse(sql string) (*Schema, error) {
	stmtNodes, _, err := p.p.Parse(reDefaultCharset.ReplaceAllString(sql, ""), "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse MySQL statements: %w", err)
	}

	schema := &Schema{}
	for _, stmtNode := range stmtNodes {
		createStmt, ok := stmtNode.(*ast.CreateTableStmt)
		if !ok {
			continue
		}
		table, edges, err := p.convertCreateTable(createStmt)
		if err != nil {
			return nil, err
		}
		schema.Tables = append(schema.Tables, table)
		schema.Relationships = append(schema.Relationships, edges...)
	}
	return schema, nil
}

// ParseCreateTable reads a single CREATE TABLE statement.
func (p *Parser) ParseCreateTable(sql string) (*core.Table, error) {
	schema, err := p.Parse(sql)
	if err != nil {
		return nil, err
	}
	if len(schema.Tables) != 1 {
		return nil, fmt.Errorf("expected one CREATE TABLE statement, found %d", len(schema.Tables))
	}
	return schema.Tables[0], nil
}

func (p *Parser) convertCreateTable(stmt *ast.CreateTableStmt) (*core.Table, []*core.RelationshipEdge, error) {
	table, err := core.NewTable(stmt.Table.Schema.O, stmt.Table.Name.O, false)
	if err != nil {
		return nil, nil, err
	}

	if err := p.parseColumns(stmt.Cols, table); err != nil {
		return nil, nil, err
	}
	edges, err := p.parseConstraints(stmt.Constraints, table)
	if err != nil {
		return nil, nil, err
	}
	p.parseTableOptions(stmt.Options, table)

	if err := table.Validate(); err != nil {
		return nil, nil, err
	}
	return table, edges, nil
}
