package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"sheetsql/internal/apply"
	"sheetsql/internal/batch"
	"sheetsql/internal/core"
	"sheetsql/internal/surface"
)

// EditSession keeps an imported region in sync with its table. Grid changes
// are found by diffing the region against the snapshot taken at import time,
// or recorded explicitly, and committed as parameterized statements.
type EditSession struct {
	ID string
	// RefreshAfterCommit reloads the region from the table after a commit
	// without failures.
	RefreshAfterCommit bool

	env      Env
	log      logrus.FieldLogger
	table    *core.Table
	region   *surface.Region
	snapshot *surface.Region
	header   bool
	recorded []core.PendingRowMutation
	failed   []core.PendingRowMutation
}

// CommitResult reports a commit.
type CommitResult struct {
	Mutations  []core.PendingRowMutation
	Statements []core.Statement
	Results    []core.StatementResult
	Summary    core.BatchSummary
	// Failed are the mutations that were skipped or whose statement did not
	// succeed, each with Err set.
	Failed []core.PendingRowMutation
}

// StartEdit imports schema.table with headers and a snapshot and opens an
// edit session on the new region.
func StartEdit(ctx context.Context, env Env, schema, table string, opts ImportOptions) (*EditSession, error) {
	opts.IncludeHeaders = true
	opts.Editable = true
	imp, err := NewImportSession(env, schema, table, opts)
	if err != nil {
		return nil, err
	}
	res, err := imp.Run(ctx)
	if err != nil {
		return nil, err
	}
	return newEditSession(env, res.Table, res.Region, res.Snapshot, true), nil
}

// ResumeEdit reopens an edit session on a region imported earlier with a
// snapshot.
func ResumeEdit(ctx context.Context, env Env, schema, table, region string) (*EditSession, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	t, err := env.loader().LoadTable(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	r, ok := env.Surface.Region(region)
	if !ok {
		return nil, fmt.Errorf("edit: region %q does not exist", region)
	}
	snapName, _ := snapshotNames(region)
	snap, ok := env.Surface.Region(snapName)
	if !ok {
		return nil, fmt.Errorf("edit: region %q has no snapshot, import it as editable first", region)
	}
	grid, err := env.Surface.ReadGrid(r)
	if err != nil {
		return nil, err
	}
	header := len(grid) > 0 && isHeaderRow(t, grid[0])
	return newEditSession(env, t, r, snap, header), nil
}

func newEditSession(env Env, t *core.Table, r, snap *surface.Region, header bool) *EditSession {
	id := newID()
	return &EditSession{
		ID:       id,
		env:      env,
		log:      env.logger("edit", id).WithFields(logrus.Fields{"schema": t.SchemaName, "table": t.Name}),
		table:    t,
		region:   r,
		snapshot: snap,
		header:   header,
	}
}

// Table returns the SchemaModel the session edits.
func (s *EditSession) Table() *core.Table { return s.table }

// Region returns the edited region.
func (s *EditSession) Region() *surface.Region { return s.region }

// Record queues mutations captured by the caller. Recorded mutations take
// the place of the snapshot diff on the next commit.
func (s *EditSession) Record(mutations ...core.PendingRowMutation) {
	for _, m := range mutations {
		if m.RowRef == "" {
			m.RowRef = core.RowRef("recorded:" + newID())
		}
		s.recorded = append(s.recorded, m)
	}
}

// Failed returns the mutations the last commit could not apply.
func (s *EditSession) Failed() []core.PendingRowMutation {
	return append([]core.PendingRowMutation(nil), s.failed...)
}

type gridRow struct {
	ref core.RowRef
	row core.Row
}

// Diff compares the region against the snapshot. Rows are matched by primary
// key; tables without one are matched by position. Deletes come first, then
// updates, then inserts.
func (s *EditSession) Diff(ctx context.Context) ([]core.PendingRowMutation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	current, err := s.readCurrent()
	if err != nil {
		return nil, err
	}
	original, err := s.readSnapshot()
	if err != nil {
		return nil, err
	}

	var deletes, updates, inserts []core.PendingRowMutation
	pk := s.primaryKeyIndexes()
	if len(pk) == 0 {
		for i, cur := range current {
			switch {
			case i >= len(original):
				inserts = append(inserts, core.NewInsert(cur.ref, cur.row))
			case !rowsEqual(original[i].row, cur.row):
				updates = append(updates, core.NewUpdate(cur.ref, original[i].row, cur.row))
			}
		}
		for i := len(current); i < len(original); i++ {
			deletes = append(deletes, core.NewDelete(original[i].ref, original[i].row))
		}
	} else {
		byKey := make(map[string]int, len(original))
		for i, o := range original {
			if k, ok := rowKey(o.row, pk); ok {
				byKey[k] = i
			}
		}
		seen := make(map[int]bool, len(original))
		for _, cur := range current {
			k, ok := rowKey(cur.row, pk)
			if i, found := byKey[k]; ok && found && !seen[i] {
				seen[i] = true
				if !rowsEqual(original[i].row, cur.row) {
					updates = append(updates, core.NewUpdate(cur.ref, original[i].row, cur.row))
				}
				continue
			}
			inserts = append(inserts, core.NewInsert(cur.ref, cur.row))
		}
		for i, o := range original {
			if !seen[i] {
				deletes = append(deletes, core.NewDelete(o.ref, o.row))
			}
		}
	}

	mutations := append(append(deletes, updates...), inserts...)
	s.log.WithFields(logrus.Fields{
		"deletes": len(deletes),
		"updates": len(updates),
		"inserts": len(inserts),
	}).Debug("diffed region against snapshot")
	return mutations, nil
}

func (s *EditSession) primaryKeyIndexes() []int {
	var idx []int
	for _, c := range s.table.PrimaryKeyColumns() {
		idx = append(idx, s.table.ColumnIndex(c.Name))
	}
	return idx
}

func (s *EditSession) readCurrent() ([]gridRow, error) {
	open := *s.region
	open.Bounds.Rows = 0
	open.Bounds.Cols = len(s.table.Columns)
	grid, err := s.env.Surface.ReadGrid(&open)
	if err != nil {
		return nil, fmt.Errorf("edit: read region %q: %w", s.region.Name, err)
	}
	offset := 0
	if s.header {
		offset = 1
	}
	return s.rows(grid, offset, s.region.Bounds), nil
}

func (s *EditSession) readSnapshot() ([]gridRow, error) {
	snap := *s.snapshot
	snap.Bounds.Cols = len(s.table.Columns)
	grid, err := s.env.Surface.ReadGrid(&snap)
	if err != nil {
		return nil, fmt.Errorf("edit: read snapshot of %q: %w", s.region.Name, err)
	}
	return s.rows(grid, 0, s.snapshot.Bounds), nil
}

func (s *EditSession) rows(grid [][]any, offset int, b surface.Bounds) []gridRow {
	var out []gridRow
	for i := offset; i < len(grid); i++ {
		if blank(grid[i]) {
			continue
		}
		out = append(out, gridRow{ref: rowRef(b.Sheet, b.Row+i), row: toRow(grid[i], len(s.table.Columns))})
	}
	return out
}

// Commit builds parameterized statements for the recorded mutations, or
// for the snapshot diff when nothing was recorded, and executes them. Failed
// mutations are kept with their error; the snapshot absorbs the rest.
func (s *EditSession) Commit(ctx context.Context) (*CommitResult, error) {
	mutations := s.recorded
	if len(mutations) == 0 {
		var err error
		if mutations, err = s.Diff(ctx); err != nil {
			return nil, err
		}
	}
	res := &CommitResult{Mutations: mutations}
	if len(mutations) == 0 {
		s.failed = nil
		return res, nil
	}

	b := s.env.builder()
	res.Statements = b.BuildParameterizedStatements(s.table, mutations)
	res.Results = s.env.executor().Execute(ctx, res.Statements)
	res.Summary = apply.Summarize(res.Results)

	skipped := make(map[int]batch.Skip)
	for _, sk := range b.Skipped() {
		skipped[sk.Index] = sk
	}
	failedRefs := apply.FailedRowRefs(res.Results)
	var succeeded []core.PendingRowMutation
	for i, m := range mutations {
		if sk, ok := skipped[i]; ok {
			m.Err = sk.Err
			res.Failed = append(res.Failed, m)
			continue
		}
		if msg, ok := failedRefs[m.RowRef]; ok {
			m.Err = errors.New(msg)
			res.Failed = append(res.Failed, m)
			continue
		}
		succeeded = append(succeeded, m)
	}
	s.recorded = nil
	s.failed = res.Failed

	s.log.WithFields(logrus.Fields{
		"rows":       len(mutations),
		"statements": len(res.Statements),
		"inserted":   res.Summary.InsertedCount,
		"updated":    res.Summary.UpdatedCount,
		"deleted":    res.Summary.DeletedCount,
		"failed":     len(res.Failed),
	}).Info("committed edit session changes")

	if len(res.Failed) == 0 && (s.RefreshAfterCommit || s.insertedUnkeyed(succeeded)) {
		return res, s.Refresh(ctx)
	}
	return res, s.absorb(succeeded)
}

// insertedUnkeyed reports whether an insert left its key to the server, so
// the snapshot cannot know the new row's identity.
func (s *EditSession) insertedUnkeyed(ms []core.PendingRowMutation) bool {
	pk := s.primaryKeyIndexes()
	for _, m := range ms {
		if m.Kind != core.MutationInsert || len(pk) == 0 {
			continue
		}
		if _, ok := rowKey(m.CurrentValues, pk); !ok {
			return true
		}
	}
	return false
}

// absorb applies committed mutations to the snapshot.
func (s *EditSession) absorb(ms []core.PendingRowMutation) error {
	if len(ms) == 0 {
		return nil
	}
	original, err := s.readSnapshot()
	if err != nil {
		return err
	}
	rows := make([]core.Row, len(original))
	for i, o := range original {
		rows[i] = o.row
	}
	for _, m := range ms {
		switch m.Kind {
		case core.MutationInsert:
			rows = append(rows, m.CurrentValues)
		case core.MutationUpdate, core.MutationDelete:
			for i, r := range rows {
				if !rowsEqual(r, m.OriginalValues) {
					continue
				}
				if m.Kind == core.MutationUpdate {
					rows[i] = m.CurrentValues
				} else {
					rows = append(rows[:i], rows[i+1:]...)
				}
				break
			}
		}
	}
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = r
	}
	return rewrite(s.env.Surface, s.snapshot, values)
}

// Refresh reloads the region and the snapshot from the table.
func (s *EditSession) Refresh(ctx context.Context) error {
	header := 0
	if s.header {
		header = 1
	}
	limit := max(s.env.Surface.MaxRows()-s.region.Bounds.Row+1-header, 0)
	rs, err := s.env.Gateway.GetDataFromSelectQuery(ctx, s.env.Generator.GenerateSelect(s.table, limit, 0))
	if err != nil {
		return fmt.Errorf("refresh %s: %w", s.table.QualifiedName(), err)
	}
	grid := make([][]any, 0, len(rs.Rows)+1)
	if s.header {
		grid = append(grid, headerValues(s.table))
	}
	grid = append(grid, rs.Rows...)
	if err := rewrite(s.env.Surface, s.region, grid); err != nil {
		return err
	}
	snap, err := writeSnapshot(s.env.Surface, s.region.Name, rs.Rows)
	if err != nil {
		return err
	}
	s.snapshot = snap
	s.log.WithField("rows", len(rs.Rows)).Info("refreshed region from table")
	return nil
}

// rowKey joins the primary key values of row. A nil key part means the row
// has no identity yet.
func rowKey(row core.Row, pk []int) (string, bool) {
	parts := make([]string, len(pk))
	for i, idx := range pk {
		if idx < 0 || idx >= len(row) || row[idx] == nil {
			return "", false
		}
		parts[i] = cellText(row[idx])
	}
	return strings.Join(parts, "\x1f"), true
}

func rowsEqual(a, b core.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !cellsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// cellsEqual compares by rendered text, except that NULL only equals NULL.
func cellsEqual(a, b any) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	ta, aIsTime := a.(time.Time)
	tb, bIsTime := b.(time.Time)
	if aIsTime && bIsTime {
		return ta.Equal(tb)
	}
	return cellText(a) == cellText(b)
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.Format(time.DateTime)
	case []byte:
		return string(x)
	default:
		return cast.ToString(v)
	}
}
