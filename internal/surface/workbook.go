package surface

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// definedNamePrefix marks the workbook defined names that persist regions.
const definedNamePrefix = "sheetsql_"

var reDefinedNameUnsafe = regexp.MustCompile(`[^A-Za-z0-9_.]`)

// Workbook is a TargetSurface over an xlsx file.
type Workbook struct {
	f       *excelize.File
	path    string
	regions map[string]*Region
	order   []string
}

// NewWorkbook creates an empty in-memory workbook that will be saved to path.
func NewWorkbook(path string) *Workbook {
	return &Workbook{f: excelize.NewFile(), path: path, regions: map[string]*Region{}}
}

// OpenWorkbook opens an xlsx file and restores the regions saved in it.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	w := &Workbook{f: f, path: path, regions: map[string]*Region{}}
	for _, dn := range f.GetDefinedName() {
		if !strings.HasPrefix(dn.Name, definedNamePrefix) {
			continue
		}
		b, err := ParseRange(dn.RefersTo)
		if err != nil {
			continue
		}
		w.addRegion(&Region{Name: strings.TrimPrefix(dn.Name, definedNamePrefix), Bounds: b})
	}
	return w, nil
}

// Path returns the file the workbook saves to.
func (w *Workbook) Path() string { return w.path }

// Save writes the workbook to its path.
func (w *Workbook) Save() error {
	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook %q: %w", w.path, err)
	}
	return nil
}

// Close releases the workbook's temporary files.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// MaxRows is the row limit of an xlsx sheet.
func (w *Workbook) MaxRows() int { return excelize.TotalRows }

// Sheets lists the sheet names in workbook order.
func (w *Workbook) Sheets() []string { return w.f.GetSheetList() }

// HasSheet reports whether the named sheet exists.
func (w *Workbook) HasSheet(name string) bool {
	for _, s := range w.f.GetSheetList() {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// EnsureSheet creates the sheet if it does not exist yet.
func (w *Workbook) EnsureSheet(name string) {
	if !w.HasSheet(name) {
		w.f.NewSheet(name)
	}
}

// HideSheet hides a sheet from the workbook's tab bar.
func (w *Workbook) HideSheet(name string) error {
	return w.f.SetSheetVisible(name, false)
}

// Regions lists the known regions in creation order.
func (w *Workbook) Regions() []*Region {
	out := make([]*Region, 0, len(w.order))
	for _, key := range w.order {
		out = append(out, w.regions[key])
	}
	return out
}

// Region finds a region by name.
func (w *Workbook) Region(name string) (*Region, bool) {
	r, ok := w.regions[regionKey(name)]
	return r, ok
}

func regionKey(name string) string {
	return strings.ToLower(reDefinedNameUnsafe.ReplaceAllString(name, "_"))
}

func (w *Workbook) addRegion(r *Region) {
	key := regionKey(r.Name)
	if _, ok := w.regions[key]; !ok {
		w.order = append(w.order, key)
	}
	w.regions[key] = r
}

func (w *Workbook) RegionsIntersect(candidate Bounds) bool {
	for _, r := range w.regions {
		if r.Bounds.Intersects(candidate) {
			return true
		}
	}
	return false
}

func (w *Workbook) CreateNewRegion(name string, at Bounds) (*Region, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("region name is empty")
	}
	if _, ok := w.Region(name); ok {
		return nil, fmt.Errorf("region %q already exists", name)
	}
	if at.Sheet == "" {
		at.Sheet = name
	}
	if at.Row < 1 {
		at.Row = 1
	}
	if at.Col < 1 {
		at.Col = 1
	}
	if w.RegionsIntersect(at) {
		return nil, fmt.Errorf("region %q at %s!R%dC%d overlaps an existing region", name, at.Sheet, at.Row, at.Col)
	}

	w.EnsureSheet(at.Sheet)
	r := &Region{Name: name, Bounds: at}
	w.addRegion(r)
	return r, w.persist(r)
}

// persist stores the region as a workbook defined name.
func (w *Workbook) persist(r *Region) error {
	ref, err := r.Bounds.Ref()
	if err != nil {
		return err
	}
	dn := &excelize.DefinedName{Name: definedNamePrefix + reDefinedNameUnsafe.ReplaceAllString(r.Name, "_"), RefersTo: ref}
	_ = w.f.DeleteDefinedName(&excelize.DefinedName{Name: dn.Name})
	if err := w.f.SetDefinedName(dn); err != nil {
		return fmt.Errorf("region %q: %w", r.Name, err)
	}
	return nil
}

func (w *Workbook) WriteGrid(r *Region, values [][]any) error {
	b := r.Bounds
	width := 0
	for i, row := range values {
		cell, err := excelize.CoordinatesToCellName(b.Col, b.Row+i)
		if err != nil {
			return err
		}
		out := make([]any, len(row))
		for j, v := range row {
			out[j] = cellValue(v)
		}
		if err := w.f.SetSheetRow(b.Sheet, cell, &out); err != nil {
			return fmt.Errorf("write %s!%s: %w", b.Sheet, cell, err)
		}
		width = max(width, len(row))
	}
	r.Bounds.Rows = max(len(values), 1)
	r.Bounds.Cols = max(width, 1)
	return w.persist(r)
}

// FormatAsTable turns the region into a structured worksheet table with a
// header row and banded rows.
func (w *Workbook) FormatAsTable(r *Region, style string) error {
	b := r.Bounds
	rowEnd, colEnd := b.end()
	from, err := excelize.CoordinatesToCellName(b.Col, b.Row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(colEnd, rowEnd)
	if err != nil {
		return err
	}
	if style == "" {
		style = "TableStyleMedium2"
	}
	opts, err := json.Marshal(map[string]any{
		"table_name":       "tbl_" + reDefinedNameUnsafe.ReplaceAllString(r.Name, "_"),
		"table_style":      style,
		"show_row_stripes": true,
	})
	if err != nil {
		return err
	}
	if err := w.f.AddTable(b.Sheet, from, to, string(opts)); err != nil {
		return fmt.Errorf("format region %q as table: %w", r.Name, err)
	}
	return nil
}

// cellValue converts values excelize does not render the way a grid should.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case *string:
		if x == nil {
			return nil
		}
		return *x
	default:
		return v
	}
}

func (w *Workbook) ReadGrid(r *Region) ([][]any, error) {
	return w.ReadRange(r.Bounds)
}

// ReadRange reads a rectangle with typed cells: nil for blanks, int64 or
// float64 for numbers, bool, time.Time for date-formatted numbers and
// string otherwise. Trailing blank rows are dropped from open-ended ranges.
func (w *Workbook) ReadRange(b Bounds) ([][]any, error) {
	if !w.HasSheet(b.Sheet) {
		return nil, fmt.Errorf("sheet %q does not exist", b.Sheet)
	}
	formatted, err := w.f.GetRows(b.Sheet)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", b.Sheet, err)
	}
	raw, err := w.f.GetRows(b.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", b.Sheet, err)
	}

	rowEnd := len(formatted)
	if b.Rows > 0 {
		rowEnd = b.Row + b.Rows - 1
	}
	colEnd := 0
	if b.Cols > 0 {
		colEnd = b.Col + b.Cols - 1
	} else {
		for r := b.Row - 1; r < min(rowEnd, len(formatted)); r++ {
			colEnd = max(colEnd, len(formatted[r]))
		}
	}
	if colEnd < b.Col {
		return nil, nil
	}

	var grid [][]any
	for r := b.Row - 1; r < rowEnd; r++ {
		row := make([]any, colEnd-b.Col+1)
		for c := b.Col - 1; c < colEnd; c++ {
			row[c-b.Col+1] = typedCell(at(raw, r, c), at(formatted, r, c))
		}
		grid = append(grid, row)
	}
	if b.Rows == 0 {
		for len(grid) > 0 && blankRow(grid[len(grid)-1]) {
			grid = grid[:len(grid)-1]
		}
	}
	return grid, nil
}

func at(rows [][]string, r, c int) string {
	if r < 0 || r >= len(rows) || c < 0 || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

func blankRow(row []any) bool {
	for _, v := range row {
		if v != nil {
			return false
		}
	}
	return true
}

// typedCell recovers a cell's value from its raw and formatted text.
func typedCell(raw, formatted string) any {
	if raw == "" && formatted == "" {
		return nil
	}
	switch {
	case strings.EqualFold(raw, "TRUE"), strings.EqualFold(formatted, "TRUE") && raw == "1":
		return true
	case strings.EqualFold(raw, "FALSE"), strings.EqualFold(formatted, "FALSE") && raw == "0":
		return false
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || keepsText(raw) {
		return formatted
	}
	if formatted != raw && looksLikeDate(formatted) {
		if t, err := excelize.ExcelDateToTime(f, false); err == nil {
			return t.Round(time.Second)
		}
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 && !strings.ContainsAny(raw, ".eE") {
		return int64(f)
	}
	return f
}

// keepsText holds back numeric-looking text that would lose information as a
// number, such as leading zeros.
func keepsText(raw string) bool {
	s := strings.TrimPrefix(raw, "-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}

var reDateText = regexp.MustCompile(`^\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}|^\d{1,2}:\d{2}|^\d{1,2}-[A-Za-z]{3}`)

// looksLikeDate reports whether a number was displayed through a date or
// time format.
func looksLikeDate(formatted string) bool {
	if reDateText.MatchString(formatted) {
		return true
	}
	if !strings.ContainsAny(formatted, "-/:") {
		return false
	}
	_, err := cast.ToTimeE(formatted)
	return err == nil
}

var _ TargetSurface = (*Workbook)(nil)
