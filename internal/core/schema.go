// Package core contains the in-memory schema model shared by every other
// package: tables, columns, indexes and relationships, together with the row
// mutation and statement types that flow from a spreadsheet grid to MySQL.
package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyName                 = errors.New("name is empty")
	ErrDuplicateColumn           = errors.New("duplicate column name")
	ErrColumnNotFound            = errors.New("column not found")
	ErrInvalidIndex              = errors.New("invalid index")
	ErrEmptyRelationshipEndpoint = errors.New("relationship endpoint is empty")
)

// Table is the SchemaModel root. It is either synthesized from spreadsheet
// data (IsNew) or loaded from database metadata.
type Table struct {
	SchemaName         string    `json:"schemaName,omitempty"`
	Name               string    `json:"name"`
	Columns            []*Column `json:"columns"`
	Indexes            []*Index  `json:"indexes,omitempty"`
	Engine             string    `json:"engine,omitempty"`
	CharacterSet       string    `json:"characterSet,omitempty"`
	Collation          string    `json:"collation,omitempty"`
	Comment            string    `json:"comment,omitempty"`
	AutoIncrementStart uint64    `json:"autoIncrementStart,omitempty"`
	IsNew              bool      `json:"isNew"`
}

// Column represents a single column inside a Table.
type Column struct {
	Name          string      `json:"name"`
	Type          StorageType `json:"type"`
	Nullable      bool        `json:"nullable"`
	AutoIncrement bool        `json:"autoIncrement"`
	PrimaryKey    bool        `json:"primaryKey"`
	UniqueKey     bool        `json:"uniqueKey"`
	CharacterSet  string      `json:"characterSet,omitempty"`
	Collation     string      `json:"collation,omitempty"`
	DefaultValue  *string     `json:"defaultValue,omitempty"`
	Comment       string      `json:"comment,omitempty"`

	// MappedSourceColumn names the grid column the values come from. It is
	// empty for auxiliary columns such as a synthetic primary key.
	MappedSourceColumn string `json:"mappedSourceColumn,omitempty"`
}

// SortOrder is an ENUM with all possible index column sort orders.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// IndexAlgorithm is the USING clause of an index.
type IndexAlgorithm string

const (
	IndexUsingDefault IndexAlgorithm = ""
	IndexUsingBTree   IndexAlgorithm = "BTREE"
	IndexUsingHash    IndexAlgorithm = "HASH"
	IndexUsingRTree   IndexAlgorithm = "RTREE"
)

// IndexColumn is one key part of an index.
type IndexColumn struct {
	Name  string    `json:"name"`
	Order SortOrder `json:"order,omitempty"`
}

// Index contains all index options. A primary index is implicitly unique.
type Index struct {
	Name     string         `json:"name"`
	Columns  []IndexColumn  `json:"columns"`
	Unique   bool           `json:"unique,omitempty"`
	Primary  bool           `json:"primary,omitempty"`
	Using    IndexAlgorithm `json:"using,omitempty"`
	FullText bool           `json:"fullText,omitempty"`
	Spatial  bool           `json:"spatial,omitempty"`
}

// PrimaryIndexName is the name MySQL reports for every primary key.
const PrimaryIndexName = "PRIMARY"

// NewTable creates an empty table. New tables carry no backing database object.
func NewTable(schemaName, name string, isNew bool) (*Table, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("table %w", ErrEmptyName)
	}
	return &Table{SchemaName: schemaName, Name: name, IsNew: isNew}, nil
}

// GetName methods allow these types to be used with generic Named interface.
func (t *Table) GetName() string  { return t.Name }
func (c *Column) GetName() string { return c.Name }
func (i *Index) GetName() string  { return i.Name }

// FindColumn looks for a column by name inside a table.
func (t *Table) FindColumn(name string) *Column {
	if i := t.ColumnIndex(name); i >= 0 {
		return t.Columns[i]
	}
	return nil
}

// ColumnIndex returns the ordinal position of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// FindIndex looks for an index by name inside a table.
func (t *Table) FindIndex(name string) *Index {
	for _, i := range t.Indexes {
		if strings.EqualFold(i.Name, name) {
			return i
		}
	}
	return nil
}

// ColumnNames returns the ordered column names.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// AddColumn appends a column. Names are unique case-insensitively.
func (t *Table) AddColumn(c *Column) error {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("table %q: column %w", t.Name, ErrEmptyName)
	}
	if t.FindColumn(c.Name) != nil {
		return fmt.Errorf("table %q: %w %q", t.Name, ErrDuplicateColumn, c.Name)
	}
	t.Columns = append(t.Columns, c)
	if c.PrimaryKey {
		t.syncPrimaryIndex()
	}
	return nil
}

// InsertColumn places a column at position pos, shifting later columns right.
func (t *Table) InsertColumn(pos int, c *Column) error {
	if err := t.AddColumn(c); err != nil {
		return err
	}
	if pos < 0 || pos >= len(t.Columns)-1 {
		return nil
	}
	last := t.Columns[len(t.Columns)-1]
	copy(t.Columns[pos+1:], t.Columns[pos:len(t.Columns)-1])
	t.Columns[pos] = last
	return nil
}

// RemoveColumn drops a column and every index key part that referenced it.
// Indexes left without columns are dropped too.
func (t *Table) RemoveColumn(name string) error {
	i := t.ColumnIndex(name)
	if i < 0 {
		return fmt.Errorf("table %q: %w %q", t.Name, ErrColumnNotFound, name)
	}
	t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)

	kept := t.Indexes[:0]
	for _, idx := range t.Indexes {
		parts := idx.Columns[:0]
		for _, ic := range idx.Columns {
			if !strings.EqualFold(ic.Name, name) {
				parts = append(parts, ic)
			}
		}
		idx.Columns = parts
		if len(idx.Columns) > 0 {
			kept = append(kept, idx)
		}
	}
	t.Indexes = kept
	return nil
}

// SetPrimaryKey makes the named columns the primary key group. Any previous
// primary flags are cleared first and the primary index is rebuilt. Calling it
// without names removes the primary key.
func (t *Table) SetPrimaryKey(names ...string) error {
	for _, n := range names {
		if t.FindColumn(n) == nil {
			return fmt.Errorf("table %q: %w %q", t.Name, ErrColumnNotFound, n)
		}
	}
	for _, c := range t.Columns {
		c.PrimaryKey = false
	}
	t.dropPrimaryIndex()
	for _, n := range names {
		c := t.FindColumn(n)
		c.PrimaryKey = true
		c.Nullable = false
	}
	if len(names) > 0 {
		idx := &Index{Name: PrimaryIndexName, Primary: true, Unique: true}
		for _, n := range names {
			idx.Columns = append(idx.Columns, IndexColumn{Name: t.FindColumn(n).Name, Order: SortAsc})
		}
		t.Indexes = append([]*Index{idx}, t.Indexes...)
	}
	return nil
}

func (t *Table) dropPrimaryIndex() {
	kept := t.Indexes[:0]
	for _, idx := range t.Indexes {
		if !idx.Primary {
			kept = append(kept, idx)
		}
	}
	t.Indexes = kept
}

func (t *Table) syncPrimaryIndex() {
	var names []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			names = append(names, c.Name)
		}
	}
	_ = t.SetPrimaryKey(names...)
}

// PrimaryIndex returns the primary index of the table, if any.
func (t *Table) PrimaryIndex() *Index {
	for _, idx := range t.Indexes {
		if idx.Primary {
			return idx
		}
	}
	return nil
}

// PrimaryKeyColumns returns the key group in key order. The primary index
// decides the order when present, otherwise the column order does.
func (t *Table) PrimaryKeyColumns() []*Column {
	var cols []*Column
	if idx := t.PrimaryIndex(); idx != nil {
		for _, ic := range idx.Columns {
			if c := t.FindColumn(ic.Name); c != nil {
				cols = append(cols, c)
			}
		}
		return cols
	}
	for _, c := range t.Columns {
		if c.PrimaryKey {
			cols = append(cols, c)
		}
	}
	return cols
}

// AddIndex validates and appends an index. Adding a primary index replaces
// the current key group.
func (t *Table) AddIndex(idx *Index) error {
	if err := idx.Validate(); err != nil {
		return fmt.Errorf("table %q: %w", t.Name, err)
	}
	for _, ic := range idx.Columns {
		if t.FindColumn(ic.Name) == nil {
			return fmt.Errorf("table %q: index %q: %w %q", t.Name, idx.Name, ErrColumnNotFound, ic.Name)
		}
	}
	if idx.Primary {
		return t.SetPrimaryKey(idx.Names()...)
	}
	if t.FindIndex(idx.Name) != nil {
		return fmt.Errorf("table %q: %w: duplicate index name %q", t.Name, ErrInvalidIndex, idx.Name)
	}
	t.Indexes = append(t.Indexes, idx)
	return nil
}

// Validate checks index invariants: a name, at least one column, and
// primary implying unique.
func (i *Index) Validate() error {
	if i == nil {
		return fmt.Errorf("%w: index is nil", ErrInvalidIndex)
	}
	if strings.TrimSpace(i.Name) == "" && !i.Primary {
		return fmt.Errorf("%w: %w", ErrInvalidIndex, ErrEmptyName)
	}
	if len(i.Columns) == 0 {
		return fmt.Errorf("%w: index %q has no columns", ErrInvalidIndex, i.Name)
	}
	if i.Primary {
		i.Unique = true
		if i.Name == "" {
			i.Name = PrimaryIndexName
		}
	}
	if i.FullText && i.Spatial {
		return fmt.Errorf("%w: index %q cannot be both FULLTEXT and SPATIAL", ErrInvalidIndex, i.Name)
	}
	return nil
}

// Names returns the names of the columns in the index.
func (i *Index) Names() []string {
	names := make([]string, len(i.Columns))
	for idx, col := range i.Columns {
		names[idx] = col.Name
	}
	return names
}

// SetCharacterSet changes the column character set. The collation belongs to
// the previous set and is cleared so it must be chosen again.
func (c *Column) SetCharacterSet(charset string) {
	if strings.EqualFold(c.CharacterSet, charset) {
		return
	}
	c.CharacterSet = charset
	c.Collation = ""
}

// SetCollation sets the column collation. When both are known the collation
// must belong to the column's character set.
func (c *Column) SetCollation(collation string) error {
	if collation != "" && c.CharacterSet != "" && !CollationMatchesCharset(collation, c.CharacterSet) {
		return fmt.Errorf("column %q: collation %q does not belong to character set %q", c.Name, collation, c.CharacterSet)
	}
	c.Collation = collation
	return nil
}

// SetCharacterSet changes the table default character set and clears the
// table collation.
func (t *Table) SetCharacterSet(charset string) {
	if strings.EqualFold(t.CharacterSet, charset) {
		return
	}
	t.CharacterSet = charset
	t.Collation = ""
}

// SetCollation sets the table default collation.
func (t *Table) SetCollation(collation string) error {
	if collation != "" && t.CharacterSet != "" && !CollationMatchesCharset(collation, t.CharacterSet) {
		return fmt.Errorf("table %q: collation %q does not belong to character set %q", t.Name, collation, t.CharacterSet)
	}
	t.Collation = collation
	return nil
}

// CollationMatchesCharset relies on the MySQL naming convention of
// collations: <charset>_<suffix>, plus "binary" for the binary set.
func CollationMatchesCharset(collation, charset string) bool {
	collation = strings.ToLower(collation)
	charset = strings.ToLower(charset)
	if charset == "binary" {
		return collation == "binary"
	}
	return strings.HasPrefix(collation, charset+"_")
}

// String returns a string representation of a table.
func (t *Table) String() string {
	return fmt.Sprintf("Table: %s (%d cols, %d indexes)", t.QualifiedName(), len(t.Columns), len(t.Indexes))
}

// QualifiedName returns schema.table, or just the table name without schema.
func (t *Table) QualifiedName() string {
	if t.SchemaName == "" {
		return t.Name
	}
	return t.SchemaName + "." + t.Name
}

// Validate runs the structural checks raised at construction time:
// empty and duplicate column names and index invariants.
func (t *Table) Validate() error {
	if t == nil {
		return errors.New("table is nil")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("table %w", ErrEmptyName)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q: table has no columns", t.Name)
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("table %q: column %w", t.Name, ErrEmptyName)
		}
		lower := strings.ToLower(c.Name)
		if seen[lower] {
			return fmt.Errorf("table %q: %w %q", t.Name, ErrDuplicateColumn, c.Name)
		}
		seen[lower] = true
		if c.AutoIncrement && c.Type.Kind != KindInteger {
			return fmt.Errorf("table %q: column %q: auto_increment requires an integer type", t.Name, c.Name)
		}
	}
	for _, idx := range t.Indexes {
		if err := idx.Validate(); err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
		for _, ic := range idx.Columns {
			if t.FindColumn(ic.Name) == nil {
				return fmt.Errorf("table %q: index %q: %w %q", t.Name, idx.Name, ErrColumnNotFound, ic.Name)
			}
		}
	}
	return nil
}
