// Package mapping matches a source column layout (grid headers) against a
// target table's columns and stores mappings so they can be reused against
// structurally similar tables.
package mapping

import (
	"fmt"
	"strings"

	"sheetsql/internal/core"
)

// Unmapped marks a target column without a source column.
const Unmapped = -1

// Mapping is a column correspondence between a source layout and a target
// table. MappedSourceIndex is parallel to TargetColumns.
type Mapping struct {
	Name              string   `toml:"name" json:"name"`
	ConnectionID      string   `toml:"connection_id" json:"connectionId"`
	Schema            string   `toml:"schema" json:"schema"`
	Table             string   `toml:"table" json:"table"`
	SourceColumns     []string `toml:"source_columns" json:"sourceColumns"`
	TargetColumns     []string `toml:"target_columns" json:"targetColumns"`
	MappedSourceIndex []int    `toml:"mapped_source_index" json:"mappedSourceIndex"`
}

// New creates a mapping for the given source layout. Nothing is mapped until
// one of the Match methods runs.
func New(name, connectionID, schema, table string, sourceColumns []string) *Mapping {
	return &Mapping{
		Name:          name,
		ConnectionID:  connectionID,
		Schema:        schema,
		Table:         table,
		SourceColumns: append([]string(nil), sourceColumns...),
	}
}

// reset sizes MappedSourceIndex to the target list and clears it.
func (m *Mapping) reset() {
	m.MappedSourceIndex = make([]int, len(m.TargetColumns))
	for i := range m.MappedSourceIndex {
		m.MappedSourceIndex[i] = Unmapped
	}
}

// MatchAgainstSchema takes the target list from table and maps every target
// column to the source column of the same name, case-insensitively. With
// sameOrdinalPosition the source column must also sit at the same position.
// Previous assignments are always discarded first. It returns the number of
// mapped target columns.
func (m *Mapping) MatchAgainstSchema(table *core.Table, sameOrdinalPosition bool) int {
	m.TargetColumns = table.ColumnNames()
	m.reset()

	matches := 0
	for i, target := range m.TargetColumns {
		idx := Unmapped
		if sameOrdinalPosition {
			if i < len(m.SourceColumns) && strings.EqualFold(m.SourceColumns[i], target) {
				idx = i
			}
		} else {
			idx = indexFold(m.SourceColumns, target)
		}
		if idx != Unmapped {
			m.MappedSourceIndex[i] = idx
			matches++
		}
	}
	return matches
}

// MatchAgainstOtherMapping reuses the assignments of a stored mapping. A
// target column of m is mapped when other maps the same-named target column
// to a source column whose name also exists in m's source layout. With
// enforceSchemaTableEquality nothing matches unless both mappings point at
// the same schema and table. It returns the number of mapped target columns.
func (m *Mapping) MatchAgainstOtherMapping(other *Mapping, enforceSchemaTableEquality bool) int {
	m.reset()
	if other == nil {
		return 0
	}
	if enforceSchemaTableEquality && (!strings.EqualFold(m.Schema, other.Schema) || !strings.EqualFold(m.Table, other.Table)) {
		return 0
	}

	matches := 0
	for i, target := range m.TargetColumns {
		j := indexFold(other.TargetColumns, target)
		if j == Unmapped || j >= len(other.MappedSourceIndex) {
			continue
		}
		src := other.MappedSourceIndex[j]
		if src < 0 || src >= len(other.SourceColumns) {
			continue
		}
		if idx := indexFold(m.SourceColumns, other.SourceColumns[src]); idx != Unmapped {
			m.MappedSourceIndex[i] = idx
			matches++
		}
	}
	return matches
}

// IsComplete reports whether every target column is mapped.
func (m *Mapping) IsComplete() bool {
	if len(m.MappedSourceIndex) != len(m.TargetColumns) {
		return false
	}
	for _, idx := range m.MappedSourceIndex {
		if idx < 0 {
			return false
		}
	}
	return true
}

// UnmappedColumns returns the target columns without a source column.
func (m *Mapping) UnmappedColumns() []string {
	var names []string
	for i, target := range m.TargetColumns {
		if i >= len(m.MappedSourceIndex) || m.MappedSourceIndex[i] < 0 {
			names = append(names, target)
		}
	}
	return names
}

// Set maps a target column to a source column by name. An empty source name
// unmaps the target.
func (m *Mapping) Set(target, source string) error {
	if len(m.MappedSourceIndex) != len(m.TargetColumns) {
		m.reset()
	}
	ti := indexFold(m.TargetColumns, target)
	if ti == Unmapped {
		return fmt.Errorf("mapping %q: unknown target column %q", m.Name, target)
	}
	if source == "" {
		m.MappedSourceIndex[ti] = Unmapped
		return nil
	}
	si := indexFold(m.SourceColumns, source)
	if si == Unmapped {
		return fmt.Errorf("mapping %q: unknown source column %q", m.Name, source)
	}
	m.MappedSourceIndex[ti] = si
	return nil
}

// Validate checks the structural invariant of a stored mapping.
func (m *Mapping) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("mapping %w", core.ErrEmptyName)
	}
	if len(m.MappedSourceIndex) != len(m.TargetColumns) {
		return fmt.Errorf("mapping %q: %d indexes for %d target columns", m.Name, len(m.MappedSourceIndex), len(m.TargetColumns))
	}
	for i, idx := range m.MappedSourceIndex {
		if idx < Unmapped || idx >= len(m.SourceColumns) {
			return fmt.Errorf("mapping %q: target %q maps to invalid source index %d", m.Name, m.TargetColumns[i], idx)
		}
	}
	return nil
}

// Narrow returns a copy of t holding only the columns this mapping fills, in
// table order, and the index of each in TargetColumns, which is where
// Project puts its value. INSERTs through the copy leave
// every unmapped column to its default. Indexes are not carried over.
func (m *Mapping) Narrow(t *core.Table) (*core.Table, []int) {
	narrowed := *t
	narrowed.Columns = nil
	narrowed.Indexes = nil
	var positions []int
	for _, c := range t.Columns {
		j := indexFold(m.TargetColumns, c.Name)
		if j == Unmapped || j >= len(m.MappedSourceIndex) || m.MappedSourceIndex[j] == Unmapped {
			continue
		}
		narrowed.Columns = append(narrowed.Columns, c)
		positions = append(positions, j)
	}
	return &narrowed, positions
}

// Project builds a target row from a source row. Unmapped targets are nil.
func (m *Mapping) Project(source []any) core.Row {
	row := make(core.Row, len(m.TargetColumns))
	for i := range m.TargetColumns {
		if i < len(m.MappedSourceIndex) {
			if idx := m.MappedSourceIndex[i]; idx >= 0 && idx < len(source) {
				row[i] = source[idx]
			}
		}
	}
	return row
}

func indexFold(names []string, name string) int {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return Unmapped
}
