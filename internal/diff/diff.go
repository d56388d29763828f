// Package diff compares two definitions of the same table, such as the table
// a region would become and the table it is appended to, and checks whether
// data shaped like one can be stored in the other.
package diff

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"sheetsql/internal/core"
)

const (
	// renameThreshold is the minimum similarity score for a removed and an
	// added column to be reported as one renamed column.
	renameThreshold = 7

	// renameTokenMinLen is the shortest name token ("order" in "order_id"
	// and "order_no") counted as rename evidence.
	renameTokenMinLen = 3
)

// TableDiff lists what differs between an existing table and a proposed
// one. Added means present only in the proposed table.
type TableDiff struct {
	Name            string               `json:"name"`
	Warnings        []string             `json:"warnings,omitempty"`
	AddedColumns    []*core.Column       `json:"addedColumns,omitempty"`
	RemovedColumns  []*core.Column       `json:"removedColumns,omitempty"`
	RenamedColumns  []*ColumnRename      `json:"renamedColumns,omitempty"`
	ModifiedColumns []*ColumnChange      `json:"modifiedColumns,omitempty"`
	AddedIndexes    []*core.Index        `json:"addedIndexes,omitempty"`
	RemovedIndexes  []*core.Index        `json:"removedIndexes,omitempty"`
	ModifiedIndexes []*IndexChange       `json:"modifiedIndexes,omitempty"`
	ModifiedOptions []*TableOptionChange `json:"modifiedOptions,omitempty"`
}

type ColumnChange struct {
	Name     string         `json:"name"`
	Existing *core.Column   `json:"-"`
	Proposed *core.Column   `json:"-"`
	Changes  []*FieldChange `json:"changes"`
}

// ColumnRename pairs a removed and an added column that look like the same
// column under another name.
type ColumnRename struct {
	Existing *core.Column `json:"existing"`
	Proposed *core.Column `json:"proposed"`
	Score    int          `json:"score"`
}

type IndexChange struct {
	Name     string         `json:"name"`
	Existing *core.Index    `json:"-"`
	Proposed *core.Index    `json:"-"`
	Changes  []*FieldChange `json:"changes"`
}

// FieldChange is one attribute whose rendered value differs.
type FieldChange struct {
	Field    string `json:"field"`
	Existing string `json:"existing"`
	Proposed string `json:"proposed"`
}

type TableOptionChange struct {
	Name     string `json:"name"`
	Existing string `json:"existing"`
	Proposed string `json:"proposed"`
}

type Options struct {
	DetectColumnRenames bool
	// IgnoreOptions skips engine, charset, collation and comment, which a
	// table inferred from a grid never carries.
	IgnoreOptions bool
}

// DefaultOptions are the options used to compare against live tables.
func DefaultOptions() Options {
	return Options{DetectColumnRenames: true}
}

// Tables compares the existing table with the proposed one. The result is
// never nil; IsEmpty reports whether anything differs.
func Tables(existing, proposed *core.Table, opts Options) *TableDiff {
	td := &TableDiff{Name: proposed.Name}

	td.compareColumns(existing.Columns, proposed.Columns)
	if opts.DetectColumnRenames {
		td.pairRenames()
	}
	td.compareIndexes(existing.Indexes, proposed.Indexes)
	if !opts.IgnoreOptions {
		td.ModifiedOptions = optionChanges(existing, proposed)
	}

	byName(td.AddedColumns, func(c *core.Column) string { return c.Name })
	byName(td.RemovedColumns, func(c *core.Column) string { return c.Name })
	byName(td.RenamedColumns, func(r *ColumnRename) string { return r.Proposed.Name })
	byName(td.ModifiedColumns, func(c *ColumnChange) string { return c.Name })
	byName(td.AddedIndexes, func(i *core.Index) string { return i.Name })
	byName(td.RemovedIndexes, func(i *core.Index) string { return i.Name })
	byName(td.ModifiedIndexes, func(c *IndexChange) string { return c.Name })
	byName(td.ModifiedOptions, func(c *TableOptionChange) string { return c.Name })
	return td
}

// IsEmpty reports whether the tables match. Warnings alone do not count.
func (td *TableDiff) IsEmpty() bool {
	return len(td.AddedColumns)+len(td.RemovedColumns)+len(td.RenamedColumns)+
		len(td.ModifiedColumns)+len(td.AddedIndexes)+len(td.RemovedIndexes)+
		len(td.ModifiedIndexes)+len(td.ModifiedOptions) == 0
}

func byName[T any](items []T, name func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(strings.ToLower(name(a)), strings.ToLower(name(b)))
	})
}

// attr renders one comparable attribute of a T. Weight counts toward the
// rename similarity score when the values match.
type attr[T any] struct {
	name   string
	weight int
	fold   bool
	value  func(T) string
}

func (a attr[T]) equal(x, y T) bool {
	xv, yv := a.value(x), a.value(y)
	if a.fold {
		return strings.EqualFold(strings.TrimSpace(xv), strings.TrimSpace(yv))
	}
	return xv == yv
}

func fieldChanges[T any](attrs []attr[T], existing, proposed T) []*FieldChange {
	var out []*FieldChange
	for _, a := range attrs {
		if a.name == "" || a.equal(existing, proposed) {
			continue
		}
		out = append(out, &FieldChange{
			Field:    a.name,
			Existing: strings.TrimSpace(a.value(existing)),
			Proposed: strings.TrimSpace(a.value(proposed)),
		})
	}
	return out
}

func optionChanges(existing, proposed *core.Table) []*TableOptionChange {
	var out []*TableOptionChange
	for _, fc := range fieldChanges(tableAttrs, existing, proposed) {
		out = append(out, &TableOptionChange{Name: fc.Field, Existing: fc.Existing, Proposed: fc.Proposed})
	}
	return out
}

var tableAttrs = []attr[*core.Table]{
	{name: "AUTO_INCREMENT", value: func(t *core.Table) string {
		if t.AutoIncrementStart == 0 {
			return ""
		}
		return strconv.FormatUint(t.AutoIncrementStart, 10)
	}},
	{name: "CHARSET", fold: true, value: func(t *core.Table) string { return t.CharacterSet }},
	{name: "COLLATE", fold: true, value: func(t *core.Table) string { return t.Collation }},
	{name: "COMMENT", fold: true, value: func(t *core.Table) string { return t.Comment }},
	{name: "ENGINE", fold: true, value: func(t *core.Table) string { return t.Engine }},
}
