package session

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"sheetsql/internal/core"
	"sheetsql/internal/dialect"
	"sheetsql/internal/gateway"
	"sheetsql/internal/surface"
)

// ImportSession copies the rows of a table or view into a surface region.
type ImportSession struct {
	ID      string
	Schema  string
	Table   string
	Options ImportOptions

	env Env
	log logrus.FieldLogger
}

// ImportResult describes what an import wrote.
type ImportResult struct {
	Table    *core.Table
	Region   *surface.Region
	Snapshot *surface.Region
	Info     ImportingRowsInfo
	Rows     int
}

// NewImportSession prepares the import of schema.table.
func NewImportSession(env Env, schema, table string, opts ImportOptions) (*ImportSession, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	if table == "" {
		return nil, fmt.Errorf("import: table %w", core.ErrEmptyName)
	}
	id := newID()
	return &ImportSession{
		ID:      id,
		Schema:  schema,
		Table:   table,
		Options: opts,
		env:     env,
		log:     env.logger("import", id),
	}, nil
}

// Run loads the table definition, reads as many rows as fit below the
// anchor and writes them to the region. An existing region of the same name
// is overwritten.
func (s *ImportSession) Run(ctx context.Context) (*ImportResult, error) {
	t, err := s.env.loader().LoadTable(ctx, s.Schema, s.Table)
	if err != nil {
		return nil, err
	}

	opts := s.Options
	if opts.SurfaceMaxRows <= 0 {
		opts.SurfaceMaxRows = s.env.Surface.MaxRows()
	}
	count, err := countRows(ctx, s.env.Gateway, s.env.Generator, t)
	if err != nil {
		return nil, err
	}
	info := ComputeImportingRowsInfo(count, opts.FirstRow, opts)
	limit := info.RowsLimit
	if opts.LimitRows > 0 {
		limit = min(limit, opts.LimitRows)
	}

	var data [][]any
	if limit > 0 {
		rs, err := s.env.Gateway.GetDataFromSelectQuery(ctx, s.env.Generator.GenerateSelect(t, limit, max(opts.FirstRow, 1)-1))
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", t.QualifiedName(), err)
		}
		data = rs.Rows
	}

	grid := make([][]any, 0, len(data)+1)
	if opts.headerRows() > 0 {
		grid = append(grid, headerValues(t))
	}
	grid = append(grid, data...)

	name := opts.Region
	if name == "" {
		name = t.Name
	}
	region, created, err := s.placeRegion(name, opts)
	if err != nil {
		return nil, err
	}
	if err := rewrite(s.env.Surface, region, grid); err != nil {
		return nil, fmt.Errorf("import %s: %w", t.QualifiedName(), err)
	}
	if created && opts.CreateTable {
		if tf, ok := s.env.Surface.(tableFormatter); ok {
			if err := tf.FormatAsTable(region, ""); err != nil {
				return nil, err
			}
		}
	}

	res := &ImportResult{Table: t, Region: region, Info: info, Rows: len(data)}
	if opts.Editable {
		if res.Snapshot, err = writeSnapshot(s.env.Surface, name, data); err != nil {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"schema":  t.SchemaName,
		"table":   t.Name,
		"rows":    len(data),
		"region":  name,
		"exceeds": info.RowsCountExceedsLimit,
	}).Info("imported table data")
	return res, nil
}

func (s *ImportSession) placeRegion(name string, opts ImportOptions) (*surface.Region, bool, error) {
	if r, ok := s.env.Surface.Region(name); ok {
		return r, false, nil
	}
	r, err := s.env.Surface.CreateNewRegion(name, surface.Bounds{
		Sheet: opts.Sheet,
		Row:   opts.AnchorRow,
		Col:   opts.AnchorCol,
	})
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

func headerValues(t *core.Table) []any {
	out := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

func countRows(ctx context.Context, gw gateway.Gateway, gen dialect.Generator, t *core.Table) (int, error) {
	v, err := gw.ExecuteScalar(ctx, "SELECT COUNT(*) FROM "+qualifiedName(gen, t))
	if err != nil {
		return 0, fmt.Errorf("count rows of %s: %w", t.QualifiedName(), err)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("count rows of %s: %w", t.QualifiedName(), err)
	}
	return n, nil
}

func qualifiedName(gen dialect.Generator, t *core.Table) string {
	if t.SchemaName == "" {
		return gen.QuoteIdentifier(t.Name)
	}
	return gen.QuoteIdentifier(t.SchemaName) + "." + gen.QuoteIdentifier(t.Name)
}

// snapshotNames returns the hidden region and sheet that keep the rows as
// they were imported.
func snapshotNames(region string) (string, string) {
	name := region + "_snapshot"
	sheet := []rune("snap_" + region)
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	return name, string(sheet)
}

func writeSnapshot(s surface.TargetSurface, region string, rows [][]any) (*surface.Region, error) {
	name, sheet := snapshotNames(region)
	r, ok := s.Region(name)
	if !ok {
		var err error
		if r, err = s.CreateNewRegion(name, surface.Bounds{Sheet: sheet, Row: 1, Col: 1}); err != nil {
			return nil, fmt.Errorf("snapshot of %q: %w", region, err)
		}
		if h, ok := s.(sheetHider); ok {
			if err := h.HideSheet(sheet); err != nil {
				return nil, fmt.Errorf("snapshot of %q: %w", region, err)
			}
		}
	}
	if err := rewrite(s, r, rows); err != nil {
		return nil, fmt.Errorf("snapshot of %q: %w", region, err)
	}
	return r, nil
}
