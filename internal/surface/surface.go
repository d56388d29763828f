// Package surface is where grids live outside the database: named
// rectangular regions of a workbook that can be written, read back and
// checked for collisions.
package surface

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Bounds is a rectangle on a sheet. Row and Col are 1-based. Zero Rows or
// Cols mean the rectangle extends to the end of the used range.
type Bounds struct {
	Sheet string `json:"sheet"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
}

// Region is a named rectangle created by CreateNewRegion.
type Region struct {
	Name   string `json:"name"`
	Bounds Bounds `json:"bounds"`
}

// TargetSurface is the grid side of an import or export.
type TargetSurface interface {
	// CreateNewRegion registers a region anchored at the top-left of at. A
	// zero anchor means a new sheet named after the region.
	CreateNewRegion(name string, at Bounds) (*Region, error)
	// WriteGrid writes values from the region's anchor and resizes the
	// region to fit them.
	WriteGrid(r *Region, values [][]any) error
	ReadGrid(r *Region) ([][]any, error)
	// Region looks up a region created earlier, by name.
	Region(name string) (*Region, bool)
	// RegionsIntersect reports whether candidate overlaps a known region.
	RegionsIntersect(candidate Bounds) bool
	// MaxRows is the number of rows a sheet holds.
	MaxRows() int
}

// Intersects reports whether two bounds overlap on the same sheet. Open-ended
// extents count as reaching the sheet limits.
func (b Bounds) Intersects(o Bounds) bool {
	if !strings.EqualFold(b.Sheet, o.Sheet) {
		return false
	}
	bRowEnd, bColEnd := b.end()
	oRowEnd, oColEnd := o.end()
	return b.Row <= oRowEnd && o.Row <= bRowEnd && b.Col <= oColEnd && o.Col <= bColEnd
}

func (b Bounds) end() (int, int) {
	rowEnd, colEnd := excelize.TotalRows, excelize.MaxColumns
	if b.Rows > 0 {
		rowEnd = b.Row + b.Rows - 1
	}
	if b.Cols > 0 {
		colEnd = b.Col + b.Cols - 1
	}
	return rowEnd, colEnd
}

// Ref renders the bounds as a sheet reference, e.g. 'Data'!$A$1:$C$4.
func (b Bounds) Ref() (string, error) {
	rowEnd, colEnd := b.end()
	from, err := excelize.CoordinatesToCellName(b.Col, b.Row, true)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(colEnd, rowEnd, true)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("'%s'!%s:%s", strings.ReplaceAll(b.Sheet, "'", "''"), from, to), nil
}

// ParseRange reads "Sheet!A1:C10", "Sheet!B2" or "A1:C10". A single cell
// is an open-ended anchor.
func ParseRange(ref string) (Bounds, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "=")
	var b Bounds
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		b.Sheet = strings.ReplaceAll(strings.Trim(ref[:i], "'"), "''", "'")
		ref = ref[i+1:]
	}
	ref = strings.ReplaceAll(ref, "$", "")
	if ref == "" {
		return Bounds{}, fmt.Errorf("empty range")
	}

	from, to, isRange := strings.Cut(ref, ":")
	col, row, err := excelize.CellNameToCoordinates(from)
	if err != nil {
		return Bounds{}, fmt.Errorf("range %q: %w", ref, err)
	}
	b.Row, b.Col = row, col
	if !isRange {
		return b, nil
	}

	col2, row2, err := excelize.CellNameToCoordinates(to)
	if err != nil {
		return Bounds{}, fmt.Errorf("range %q: %w", ref, err)
	}
	if row2 < row || col2 < col {
		return Bounds{}, fmt.Errorf("range %q: end before start", ref)
	}
	b.Rows, b.Cols = row2-row+1, col2-col+1
	if row2 == excelize.TotalRows {
		b.Rows = 0
	}
	if col2 == excelize.MaxColumns {
		b.Cols = 0
	}
	return b, nil
}
