package mysql

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"

	"sheetsql/internal/core"
)

func (p *Parser) parseTableOptions(opts []*ast.TableOption, table *core.Table) {
	for _, opt := range opts {
		switch opt.Tp {
		case ast.TableOptionComment:
			table.Comment = opt.StrValue
		case ast.TableOptionCharset:
			table.CharacterSet = opt.StrValue
		case ast.TableOptionCollate:
			table.Collation = opt.StrValue
		case ast.TableOptionEngine:
			table.Engine = opt.StrValue
		case ast.TableOptionAutoIncrement:
			table.AutoIncrementStart = opt.UintValue
		case ast.TableOptionNone:
		}
	}
}

func (p *Parser) parseConstraints(constraints []*ast.Constraint, table *core.Table) ([]*core.RelationshipEdge, error) {
	var edges []*core.RelationshipEdge
	for _, constraint := range constraints {
		if constraint == nil {
			continue
		}
		cols := constraintColumns(constraint)

		switch constraint.Tp {
		case ast.ConstraintPrimaryKey:
			if err := table.SetPrimaryKey(indexColumnNames(cols)...); err != nil {
				return nil, err
			}
		case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
			if err := p.addIndex(table, &core.Index{Name: constraint.Name, Columns: cols, Unique: true}); err != nil {
				return nil, err
			}
		case ast.ConstraintIndex, ast.ConstraintKey:
			if err := p.addIndex(table, &core.Index{Name: constraint.Name, Columns: cols}); err != nil {
				return nil, err
			}
		case ast.ConstraintFulltext:
			if err := p.addIndex(table, &core.Index{Name: constraint.Name, Columns: cols, FullText: true}); err != nil {
				return nil, err
			}
		case ast.ConstraintForeignKey:
			fkEdges, err := foreignKeyEdges(table, constraint, cols)
			if err != nil {
				return nil, err
			}
			edges = append(edges, fkEdges...)
		}
	}
	return edges, nil
}

// addIndex names anonymous keys after their first column, as MySQL does.
func (p *Parser) addIndex(table *core.Table, idx *core.Index) error {
	if strings.TrimSpace(idx.Name) == "" && len(idx.Columns) > 0 {
		idx.Name = idx.Columns[0].Name
		for n := 2; table.FindIndex(idx.Name) != nil; n++ {
			idx.Name = fmt.Sprintf("%s_%d", idx.Columns[0].Name, n)
		}
	}
	return table.AddIndex(idx)
}

func constraintColumns(constraint *ast.Constraint) []core.IndexColumn {
	cols := make([]core.IndexColumn, 0, len(constraint.Keys))
	for _, key := range constraint.Keys {
		if key == nil || key.Column == nil {
			continue
		}
		ic := core.IndexColumn{Name: key.Column.Name.O, Order: core.SortAsc}
		if key.Desc {
			ic.Order = core.SortDesc
		}
		cols = append(cols, ic)
	}
	return cols
}

func indexColumnNames(cols []core.IndexColumn) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// foreignKeyEdges turns a (possibly composite) foreign key into one edge per
// column pair.
func foreignKeyEdges(table *core.Table, constraint *ast.Constraint, cols []core.IndexColumn) ([]*core.RelationshipEdge, error) {
	if constraint.Refer == nil || constraint.Refer.Table == nil {
		return nil, nil
	}
	var refCols []string
	for _, spec := range constraint.Refer.IndexPartSpecifications {
		if spec.Column != nil {
			refCols = append(refCols, spec.Column.Name.O)
		}
	}
	if len(refCols) != len(cols) {
		return nil, fmt.Errorf("table %q: foreign key %q has %d columns but references %d", table.Name, constraint.Name, len(cols), len(refCols))
	}

	var name *string
	if n := strings.TrimSpace(constraint.Name); n != "" {
		name = &n
	}
	edges := make([]*core.RelationshipEdge, 0, len(cols))
	for i, c := range cols {
		edge, err := core.NewRelationshipEdge(name, table.Name, c.Name, constraint.Refer.Table.Name.O, refCols[i], core.DirectionNormal)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", table.Name, err)
		}
		edges = append(edges, edge)
	}
	return edges, nil
}
