// Package infer proposes MySQL column types for spreadsheet data.
//
// The engine scans a grid column by column and produces two guesses per
// column: one that treats the first row as a header and one that treats every
// row as data. Callers pick one of them when building the new table.
package infer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"sheetsql/internal/core"
	"sheetsql/internal/logging"
)

// DateTimeLayout is the text form date cells are rewritten to when their
// column is proposed as datetime.
const DateTimeLayout = "2006-01-02 15:04:05"

// DefaultCharLength is the width proposed for columns without any value.
const DefaultCharLength = 10

// Cell is one grid value. Value holds the typed value read from the surface
// (nil, string, bool, numbers, time.Time); Text is its formatted form.
type Cell struct {
	Value any
	Text  string
}

// String returns the formatted text, falling back to the value itself.
func (c Cell) String() string {
	if c.Text != "" || c.Value == nil {
		return c.Text
	}
	return cast.ToString(c.Value)
}

// Grid is a rectangular block of cells, row-major.
type Grid [][]Cell

// Width returns the number of columns of the widest row.
func (g Grid) Width() int {
	w := 0
	for _, row := range g {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

func (g Grid) cell(r, c int) Cell {
	if c < len(g[r]) {
		return g[r][c]
	}
	return Cell{}
}

// GridFromValues builds a grid from plain values, e.g. decoded from JSON.
func GridFromValues(values [][]any) Grid {
	g := make(Grid, len(values))
	for r, row := range values {
		g[r] = make([]Cell, len(row))
		for c, v := range row {
			g[r][c] = Cell{Value: v, Text: cast.ToString(v)}
		}
	}
	return g
}

// Guess is the proposal for one column.
type Guess struct {
	Name string
	Type core.StorageType
	// Bucket is the combined type family of all non-blank values.
	Bucket Bucket
	// Consistent is false when a non-blank value falls into a different
	// bucket than the first non-blank value.
	Consistent bool
	// MaxLength is the longest observed text, blanks included.
	MaxLength int
	HasBlanks bool
	// AllBlank marks columns without a single value; they get the default type.
	AllBlank bool
	// SourceIndex is the grid column, or -1 for the synthetic primary key.
	SourceIndex int
}

// Options controls a single inference run.
type Options struct {
	// TableName names the synthetic primary key column "<table>_id".
	TableName string
	// AddPrimaryKey prepends an auto-increment integer key guess.
	AddPrimaryKey bool
}

// Result holds the per-column guesses of both interpretations of the grid.
type Result struct {
	HeaderGuesses []Guess
	DataGuesses   []Guess
	// PrimaryKeyAdded is true when the first guess of each list is synthetic.
	PrimaryKeyAdded bool
	// RowCount is the total number of grid rows, header included.
	RowCount int
}

// Engine runs type inference. It is stateless apart from its logger.
type Engine struct {
	log logrus.FieldLogger
}

// New creates an Engine. A nil logger discards output.
func New(log logrus.FieldLogger) *Engine {
	return &Engine{log: logging.OrDiscard(log)}
}

// Infer scans the grid. It never fails: missing data yields the default
// varchar proposal. Date cells of columns proposed as datetime get their Text
// rewritten to DateTimeLayout.
func (e *Engine) Infer(grid Grid, opts Options) Result {
	res := Result{RowCount: len(grid)}
	width := grid.Width()

	if opts.AddPrimaryKey {
		res.PrimaryKeyAdded = true
		pkType := core.IntegerType(roundUp10(len(strconv.Itoa(len(grid)))))
		tableName := opts.TableName
		if tableName == "" {
			tableName = "table"
		}
		res.HeaderGuesses = append(res.HeaderGuesses, Guess{Name: tableName + "_id", Type: pkType, Bucket: BucketInteger, Consistent: true, SourceIndex: -1})
		res.DataGuesses = append(res.DataGuesses, Guess{Name: "Column1", Type: pkType, Bucket: BucketInteger, Consistent: true, SourceIndex: -1})
	}
	offset := len(res.DataGuesses)

	usedHeaders := make(map[string]int)
	for c := 0; c < width; c++ {
		header := e.scanColumn(grid, c, 1)
		data := e.scanColumn(grid, c, 0)

		header.Name = uniqueName(headerName(grid, c), usedHeaders)
		data.Name = fmt.Sprintf("Column%d", c+1+offset)

		if header.Type.Kind == core.KindDateTime || data.Type.Kind == core.KindDateTime {
			rewriteDates(grid, c, data.Type.Kind == core.KindDateTime)
		}

		res.HeaderGuesses = append(res.HeaderGuesses, header)
		res.DataGuesses = append(res.DataGuesses, data)
	}

	e.log.WithFields(logrus.Fields{
		"rows":    len(grid),
		"columns": width,
	}).Debug("inferred column types")
	return res
}

// scanColumn proposes a type for column c using rows from start onwards.
func (e *Engine) scanColumn(grid Grid, c, start int) Guess {
	g := Guess{Consistent: true, SourceIndex: c, AllBlank: true}
	first := BucketBlank
	combined := BucketBlank
	intDigits, fracs := 0, 0

	for r := start; r < len(grid); r++ {
		cell := grid.cell(r, c)
		if n := utf8.RuneCountInString(cell.String()); n > g.MaxLength {
			g.MaxLength = n
		}

		cl := classify(cell)
		if cl.bucket == BucketBlank {
			g.HasBlanks = true
			continue
		}
		g.AllBlank = false
		if first == BucketBlank {
			first = cl.bucket
			combined = cl.bucket
		} else {
			if cl.bucket != first {
				g.Consistent = false
			}
			combined = widen(combined, cl.bucket)
		}
		intDigits = max(intDigits, cl.intDigits)
		fracs = max(fracs, cl.fracs)
	}

	g.Bucket = combined
	g.Type = proposeType(combined, g.MaxLength, intDigits, fracs)
	return g
}

// widen merges two buckets. Numbers widen integer -> decimal -> double, any
// other mix falls back to text.
func widen(a, b Bucket) Bucket {
	if a == b {
		return a
	}
	if a.numeric() && b.numeric() {
		return max(a, b)
	}
	return BucketText
}

func proposeType(b Bucket, maxLength, intDigits, fracs int) core.StorageType {
	switch b {
	case BucketBlank:
		return core.VarCharType(DefaultCharLength)
	case BucketInteger:
		return core.IntegerType(roundUp10(intDigits))
	case BucketDecimal:
		if intDigits+fracs > maxDecimalPrecision {
			return core.DoubleType()
		}
		return core.DecimalType(max(intDigits+fracs, 1), fracs)
	case BucketDouble:
		return core.DoubleType()
	case BucketBoolean:
		return core.BooleanType()
	case BucketDateTime:
		return core.DateTimeType()
	default:
		return core.VarCharType(roundUp10(maxLength))
	}
}

// roundUp10 is ceil(n/10)*10 with a floor of 10.
func roundUp10(n int) int {
	if n <= 0 {
		return DefaultCharLength
	}
	return (n + 9) / 10 * 10
}

func headerName(grid Grid, c int) string {
	if len(grid) == 0 {
		return fmt.Sprintf("Column%d", c+1)
	}
	name := strings.TrimSpace(grid.cell(0, c).String())
	if name == "" {
		return fmt.Sprintf("Column%d", c+1)
	}
	return name
}

func uniqueName(name string, used map[string]int) string {
	key := strings.ToLower(name)
	if _, seen := used[key]; !seen {
		used[key] = 1
		return name
	}
	for n := used[key]; ; n++ {
		candidate := fmt.Sprintf("%s_%d", name, n)
		if _, taken := used[strings.ToLower(candidate)]; !taken {
			used[key] = n + 1
			used[strings.ToLower(candidate)] = 1
			return candidate
		}
	}
}

// rewriteDates formats every date value of column c with DateTimeLayout. The
// header cell is left alone unless the whole column is data.
func rewriteDates(grid Grid, c int, includeFirst bool) {
	start := 1
	if includeFirst {
		start = 0
	}
	for r := start; r < len(grid); r++ {
		if c >= len(grid[r]) {
			continue
		}
		cl := classify(grid[r][c])
		if cl.bucket == BucketDateTime {
			grid[r][c].Text = cl.when.Format(DateTimeLayout)
		}
	}
}

// Guesses returns the guess list for the chosen interpretation.
func (r Result) Guesses(useHeader bool) []Guess {
	if useHeader {
		return r.HeaderGuesses
	}
	return r.DataGuesses
}

// Table builds a new SchemaModel from the chosen guesses. Grid columns keep a
// back-reference through MappedSourceColumn; the synthetic key does not.
func (r Result) Table(schema, name string, useHeader bool) (*core.Table, error) {
	t, err := core.NewTable(schema, name, true)
	if err != nil {
		return nil, err
	}
	for _, g := range r.Guesses(useHeader) {
		col := &core.Column{
			Name:     g.Name,
			Type:     g.Type,
			Nullable: g.HasBlanks || g.AllBlank,
		}
		if g.SourceIndex < 0 {
			col.AutoIncrement = true
			col.Nullable = false
		} else {
			col.MappedSourceColumn = g.Name
		}
		if err := t.AddColumn(col); err != nil {
			return nil, err
		}
	}
	if r.PrimaryKeyAdded {
		if err := t.SetPrimaryKey(t.Columns[0].Name); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Rows converts the data rows of the grid to value rows aligned with the
// table built by Table. The synthetic key column gets nil so MySQL assigns it.
// Datetime columns carry their canonical text, other columns the typed value.
func (r Result) Rows(grid Grid, useHeader bool) []core.Row {
	guesses := r.Guesses(useHeader)
	start := 0
	if useHeader {
		start = 1
	}
	var rows []core.Row
	for ri := start; ri < len(grid); ri++ {
		row := make(core.Row, len(guesses))
		for i, g := range guesses {
			if g.SourceIndex < 0 {
				continue
			}
			cell := grid.cell(ri, g.SourceIndex)
			switch cl := classify(cell); {
			case cl.bucket == BucketBlank:
				row[i] = nil
			case g.Type.Kind == core.KindDateTime:
				row[i] = cell.Text
			case cell.Value == nil:
				row[i] = cell.Text
			default:
				row[i] = cell.Value
			}
		}
		rows = append(rows, row)
	}
	return rows
}
