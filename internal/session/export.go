package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"sheetsql/internal/apply"
	"sheetsql/internal/batch"
	"sheetsql/internal/core"
	"sheetsql/internal/diff"
	"sheetsql/internal/infer"
	"sheetsql/internal/mapping"
	"sheetsql/internal/surface"
)

// ErrEmptyRegion is returned when an export finds no cells to read.
var ErrEmptyRegion = errors.New("region holds no data")

// ExportOptions control how a region becomes table rows.
type ExportOptions struct {
	Schema    string
	TableName string
	// UseFirstRowAsHeader takes column names from the first grid row.
	UseFirstRowAsHeader bool
	// AddPrimaryKey prepends an auto-increment <table>_id column to a new
	// table.
	AddPrimaryKey bool
	// RowsPerInsert above one coalesces inserts into multi-row statements.
	RowsPerInsert int
	Engine        string
	CharacterSet  string
	Collation     string
	// AppendToExisting inserts into an existing table through a column
	// mapping instead of creating a new table.
	AppendToExisting bool
	// MappingName selects a saved mapping to reuse and names the mapping
	// saved with SaveMapping.
	MappingName string
	SaveMapping bool
}

// ExportSession turns a surface region into a MySQL table.
type ExportSession struct {
	ID      string
	Options ExportOptions

	env    Env
	log    logrus.FieldLogger
	region *surface.Region
	engine *infer.Engine
}

// ExportResult describes an export run.
type ExportResult struct {
	Table      *core.Table
	Mapping    *mapping.Mapping
	Statements []core.Statement
	Results    []core.StatementResult
	Summary    core.BatchSummary
	Skipped    []batch.Skip
	// Issues are the fit problems found between the region and an existing
	// table in append mode.
	Issues []diff.Issue
}

// Comparison sets the table a region would become beside an existing table.
type Comparison struct {
	Existing *core.Table
	Inferred *core.Table
	Mapping  *mapping.Mapping
	Diff     *diff.TableDiff
	Issues   []diff.Issue
}

// NewExportSession prepares the export of region. The table name defaults to
// the region name. Preview, Inference and DDL work without a gateway.
func NewExportSession(env Env, region *surface.Region, opts ExportOptions) (*ExportSession, error) {
	if err := env.validateOffline(); err != nil {
		return nil, err
	}
	if region == nil {
		return nil, fmt.Errorf("export: no region")
	}
	opts.TableName = strings.TrimSpace(opts.TableName)
	if opts.TableName == "" {
		opts.TableName = strings.TrimSpace(region.Name)
	}
	if opts.TableName == "" {
		return nil, fmt.Errorf("export: table %w", core.ErrEmptyName)
	}
	id := newID()
	return &ExportSession{
		ID:      id,
		Options: opts,
		env:     env,
		log:     env.logger("export", id).WithFields(logrus.Fields{"schema": opts.Schema, "table": opts.TableName}),
		region:  region,
		engine:  infer.New(env.Log),
	}, nil
}

func (s *ExportSession) read() ([][]any, error) {
	values, err := s.env.Surface.ReadGrid(s.region)
	if err != nil {
		return nil, fmt.Errorf("export: read region %q: %w", s.region.Name, err)
	}
	for len(values) > 0 && blank(values[len(values)-1]) {
		values = values[:len(values)-1]
	}
	if len(values) == 0 || (s.Options.UseFirstRowAsHeader && len(values) == 1 && s.Options.AppendToExisting) {
		return nil, fmt.Errorf("export %q: %w", s.region.Name, ErrEmptyRegion)
	}
	return values, nil
}

// Preview infers the table a new-table export would create.
func (s *ExportSession) Preview() (*core.Table, error) {
	values, err := s.read()
	if err != nil {
		return nil, err
	}
	t, _, err := s.inferTable(values)
	return t, err
}

// Inference returns the raw guesses for the region, header and data
// interpretation side by side.
func (s *ExportSession) Inference() (infer.Result, error) {
	values, err := s.read()
	if err != nil {
		return infer.Result{}, err
	}
	return s.engine.Infer(infer.GridFromValues(values), infer.Options{
		TableName:     s.Options.TableName,
		AddPrimaryKey: s.Options.AddPrimaryKey,
	}), nil
}

// DDL returns the CREATE TABLE statement a new-table export would run.
func (s *ExportSession) DDL() (string, error) {
	t, err := s.Preview()
	if err != nil {
		return "", err
	}
	return s.env.Generator.GenerateCreateTable(t)
}

func (s *ExportSession) inferTable(values [][]any) (*core.Table, []core.Row, error) {
	grid := infer.GridFromValues(values)
	res := s.engine.Infer(grid, infer.Options{
		TableName:     s.Options.TableName,
		AddPrimaryKey: s.Options.AddPrimaryKey,
	})
	t, err := res.Table(s.Options.Schema, s.Options.TableName, s.Options.UseFirstRowAsHeader)
	if err != nil {
		return nil, nil, err
	}
	if s.Options.Engine != "" {
		t.Engine = s.Options.Engine
	}
	if s.Options.CharacterSet != "" {
		t.SetCharacterSet(s.Options.CharacterSet)
	}
	if s.Options.Collation != "" {
		if err := t.SetCollation(s.Options.Collation); err != nil {
			return nil, nil, err
		}
	}
	return t, res.Rows(grid, s.Options.UseFirstRowAsHeader), nil
}

// Run creates the table (or resolves the mapping to an existing one) and
// inserts the region's rows. Statement failures are reported in the
// results; an error is returned only when no statement could be built.
func (s *ExportSession) Run(ctx context.Context) (*ExportResult, error) {
	if err := s.env.validate(); err != nil {
		return nil, err
	}
	values, err := s.read()
	if err != nil {
		return nil, err
	}

	res := &ExportResult{}
	var rows []core.Row
	var refs []core.RowRef
	var insertTable *core.Table
	exec := s.env.executor()

	if s.Options.AppendToExisting {
		if res.Table, err = s.env.loader().LoadTable(ctx, s.Options.Schema, s.Options.TableName); err != nil {
			return nil, err
		}
		if res.Mapping, err = s.resolveMapping(res.Table, values, s.Options.SaveMapping); err != nil {
			return nil, err
		}
		res.Issues = s.fitIssues(res.Table, res.Mapping, values)
		for _, is := range res.Issues {
			if is.Severity >= diff.SeverityWarning {
				s.log.WithFields(logrus.Fields{"column": is.Column, "severity": is.Severity.String()}).Warn(is.Description)
			}
		}
		var positions []int
		insertTable, positions = res.Mapping.Narrow(res.Table)
		rows, refs = s.projectRows(res.Mapping, positions, values)
	} else {
		var inferred []core.Row
		if res.Table, inferred, err = s.inferTable(values); err != nil {
			return nil, err
		}
		create, err := s.env.Generator.GenerateCreateTable(res.Table)
		if err != nil {
			return nil, err
		}
		st := core.Statement{Text: create, Kind: core.StatementCreateTable}
		res.Statements = append(res.Statements, st)
		res.Results = exec.Execute(ctx, []core.Statement{st})
		if res.Results[0].Outcome == core.OutcomeError {
			res.Summary = apply.Summarize(res.Results)
			s.log.WithField("error", res.Results[0].ResultText).Warn("create table failed, no rows exported")
			return res, nil
		}
		rows, refs = s.dataRows(inferred, res.Table)
		insertTable = res.Table
	}

	mutations := make([]core.PendingRowMutation, len(rows))
	for i, row := range rows {
		mutations[i] = core.NewInsert(refs[i], row)
	}
	b := s.env.builder()
	inserts := b.BuildBulkStatements(insertTable, mutations, batch.BulkOptions{
		Coalesce:         s.Options.RowsPerInsert > 1,
		RowsPerStatement: s.Options.RowsPerInsert,
	})
	res.Skipped = b.Skipped()

	offset := len(res.Results)
	for _, r := range exec.Execute(ctx, inserts) {
		r.Index += offset
		res.Results = append(res.Results, r)
	}
	res.Statements = append(res.Statements, inserts...)
	res.Summary = apply.Summarize(res.Results)

	s.log.WithFields(logrus.Fields{
		"rows":       len(rows),
		"statements": len(res.Statements),
		"inserted":   res.Summary.InsertedCount,
		"errors":     res.Summary.Errors,
	}).Info("exported region")
	return res, nil
}

// dataRows drops blank grid rows and attaches row references.
func (s *ExportSession) dataRows(rows []core.Row, t *core.Table) ([]core.Row, []core.RowRef) {
	first := s.region.Bounds.Row
	if s.Options.UseFirstRowAsHeader {
		first++
	}
	var out []core.Row
	var refs []core.RowRef
	for i, row := range rows {
		if blankData(t, row) {
			continue
		}
		out = append(out, row)
		refs = append(refs, rowRef(s.region.Bounds.Sheet, first+i))
	}
	return out, refs
}

func blankData(t *core.Table, row core.Row) bool {
	for i, v := range row {
		if t.Columns[i].MappedSourceColumn == "" {
			continue
		}
		if v != nil {
			return false
		}
	}
	return true
}

func (s *ExportSession) sourceColumns(values [][]any) []string {
	width := 0
	for _, row := range values {
		width = max(width, len(row))
	}
	names := make([]string, width)
	for i := range names {
		names[i] = fmt.Sprintf("Column%d", i+1)
		if s.Options.UseFirstRowAsHeader && i < len(values[0]) {
			if h := strings.TrimSpace(cast.ToString(values[0][i])); h != "" {
				names[i] = h
			}
		}
	}
	return names
}

// resolveMapping reuses a saved mapping when one matches and falls back to
// matching grid headers against the table's column names.
func (s *ExportSession) resolveMapping(t *core.Table, values [][]any, save bool) (*mapping.Mapping, error) {
	name := s.Options.MappingName
	if name == "" {
		name = t.QualifiedName()
	}
	connID := s.env.Gateway.ConnectionID()
	m := mapping.New(name, connID, t.SchemaName, t.Name, s.sourceColumns(values))
	m.TargetColumns = t.ColumnNames()

	matched := 0
	if s.env.Mappings != nil {
		for _, saved := range s.env.Mappings.Find(connID, t.SchemaName, t.Name) {
			if s.Options.MappingName != "" && !strings.EqualFold(saved.Name, s.Options.MappingName) {
				continue
			}
			if matched = m.MatchAgainstOtherMapping(saved, true); matched > 0 {
				s.log.WithField("mapping", saved.Name).Debug("reusing saved column mapping")
				break
			}
		}
	}
	if matched == 0 {
		matched = m.MatchAgainstSchema(t, false)
	}
	if matched == 0 {
		return nil, fmt.Errorf("export: no grid column matches a column of %s", t.QualifiedName())
	}
	if unmapped := m.UnmappedColumns(); len(unmapped) > 0 {
		s.log.WithField("columns", unmapped).Info("table columns without a grid column are written as NULL or default")
	}
	if save && s.env.Mappings != nil {
		if err := s.env.Mappings.Save(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Compare loads the target table and reports how the region's inferred
// layout differs from it and whether its values fit the mapped columns.
// Nothing is executed or saved.
func (s *ExportSession) Compare(ctx context.Context) (*Comparison, error) {
	if err := s.env.validate(); err != nil {
		return nil, err
	}
	values, err := s.read()
	if err != nil {
		return nil, err
	}
	c := &Comparison{}
	if c.Existing, err = s.env.loader().LoadTable(ctx, s.Options.Schema, s.Options.TableName); err != nil {
		return nil, err
	}
	if c.Inferred, _, err = s.inferTable(values); err != nil {
		return nil, err
	}
	c.Diff = diff.Tables(c.Existing, c.Inferred, diff.Options{DetectColumnRenames: true, IgnoreOptions: true})
	if c.Mapping, err = s.resolveMapping(c.Existing, values, false); err != nil {
		return nil, err
	}
	c.Issues = s.fitIssues(c.Existing, c.Mapping, values)
	return c, nil
}

// fitIssues describes each mapped grid column by its inferred type and
// checks it against the target column. Lengths are the observed ones, not
// the rounded proposal.
func (s *ExportSession) fitIssues(t *core.Table, m *mapping.Mapping, values [][]any) []diff.Issue {
	guesses := s.engine.Infer(infer.GridFromValues(values), infer.Options{}).Guesses(s.Options.UseFirstRowAsHeader)
	data := &core.Table{Name: s.region.Name}
	for i, tc := range t.Columns {
		src := m.MappedSourceIndex[i]
		if src == mapping.Unmapped || src >= len(guesses) {
			continue
		}
		g := guesses[src]
		st := g.Type
		switch {
		case g.AllBlank:
			st = tc.Type
		case g.Bucket == infer.BucketText || g.Bucket == infer.BucketInteger:
			st.Length = g.MaxLength
		}
		data.Columns = append(data.Columns, &core.Column{Name: tc.Name, Type: st, Nullable: g.HasBlanks || g.AllBlank})
	}
	return diff.NewFitAnalyzer().Analyze(t, data)
}

// projectRows builds rows for the mapped columns at positions. Unmapped
// columns are not written, so MySQL applies their defaults.
func (s *ExportSession) projectRows(m *mapping.Mapping, positions []int, values [][]any) ([]core.Row, []core.RowRef) {
	start := 0
	if s.Options.UseFirstRowAsHeader {
		start = 1
	}
	var rows []core.Row
	var refs []core.RowRef
	for i := start; i < len(values); i++ {
		if blank(values[i]) {
			continue
		}
		full := m.Project(values[i])
		row := make(core.Row, len(positions))
		for k, p := range positions {
			row[k] = full[p]
		}
		rows = append(rows, row)
		refs = append(refs, rowRef(s.region.Bounds.Sheet, s.region.Bounds.Row+i))
	}
	return rows, refs
}
