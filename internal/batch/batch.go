// Package batch turns recorded row mutations into an ordered list of
// executable statements. Statements keep the order the mutations were
// recorded in; the builder does not reorder for dependencies.
package batch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"sheetsql/internal/core"
	"sheetsql/internal/dialect"
	"sheetsql/internal/logging"
)

// Intent selects the quoting strategy of Build.
type Intent string

const (
	// IntentBulk embeds values as literals, for initial table population.
	IntentBulk Intent = "bulk"
	// IntentIncremental binds values through @W_/@S_ parameters, for edit
	// session commits.
	IntentIncremental Intent = "incremental"
)

// BulkOptions controls INSERT coalescing on the bulk path.
type BulkOptions struct {
	// Coalesce merges consecutive inserts that write the same column set
	// into one multi-row INSERT.
	Coalesce bool
	// RowsPerStatement caps the VALUES tuples of a coalesced INSERT.
	// Zero means no cap.
	RowsPerStatement int
}

// Skip records a mutation that produced no statement.
type Skip struct {
	Index  int
	RowRef core.RowRef
	Err    error
}

// Builder builds statements for one table at a time. It is not safe for
// concurrent use; Skipped reports on the most recent build.
type Builder struct {
	gen     dialect.Generator
	log     logrus.FieldLogger
	skipped []Skip
}

// NewBuilder returns a builder emitting SQL through gen.
func NewBuilder(gen dialect.Generator, log logrus.FieldLogger) *Builder {
	return &Builder{gen: gen, log: logging.OrDiscard(log)}
}

// Skipped returns the mutations the last build left out, with the reason.
func (b *Builder) Skipped() []Skip {
	return append([]Skip(nil), b.skipped...)
}

// Build dispatches to the bulk or the parameterized path.
func (b *Builder) Build(t *core.Table, mutations []core.PendingRowMutation, intent Intent, opts BulkOptions) []core.Statement {
	if intent == IntentIncremental {
		return b.BuildParameterizedStatements(t, mutations)
	}
	return b.BuildBulkStatements(t, mutations, opts)
}

func (b *Builder) skip(i int, m core.PendingRowMutation, err error) {
	b.skipped = append(b.skipped, Skip{Index: i, RowRef: m.RowRef, Err: err})
	b.log.WithFields(logrus.Fields{
		"index": i,
		"kind":  m.Kind,
		"row":   m.RowRef,
	}).WithError(err).Warn("skipping malformed row mutation")
}

// checkTable rejects tables that cannot produce valid statements at all.
func checkTable(t *core.Table) error {
	if t == nil {
		return fmt.Errorf("no table")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", t.Name)
	}
	for i, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("table %q: column %d %w", t.Name, i+1, core.ErrEmptyName)
		}
	}
	return nil
}

// BuildBulkStatements renders mutations with literal values. With
// opts.Coalesce, runs of consecutive inserts writing the same columns share
// one multi-row INSERT.
func (b *Builder) BuildBulkStatements(t *core.Table, mutations []core.PendingRowMutation, opts BulkOptions) []core.Statement {
	b.skipped = nil
	if err := checkTable(t); err != nil {
		for i, m := range mutations {
			b.skip(i, m, err)
		}
		return nil
	}

	var (
		out     []core.Statement
		run     []int
		runSign string
	)
	flush := func() {
		if len(run) > 0 {
			out = append(out, b.insertRun(t, mutations, run)...)
		}
		run, runSign = nil, ""
	}

	for i, m := range mutations {
		if err := m.CheckShape(len(t.Columns)); err != nil {
			b.skip(i, m, err)
			continue
		}

		if m.Kind == core.MutationInsert && opts.Coalesce {
			sign := columnSignature(t, m.CurrentValues)
			if sign != runSign || (opts.RowsPerStatement > 0 && len(run) >= opts.RowsPerStatement) {
				flush()
			}
			run = append(run, i)
			runSign = sign
			continue
		}
		flush()

		var (
			text string
			err  error
		)
		switch m.Kind {
		case core.MutationInsert:
			text, err = b.gen.GenerateInsert(t, m.CurrentValues)
		case core.MutationUpdate:
			text, err = b.gen.GenerateUpdate(t, m.OriginalValues, m.CurrentValues)
		case core.MutationDelete:
			text, err = b.gen.GenerateDelete(t, m.OriginalValues)
		}
		if err != nil {
			b.skip(i, m, err)
			continue
		}
		out = append(out, core.Statement{Text: text, Kind: core.KindForMutation(m.Kind), RowRefs: refs(m)})
	}
	flush()
	return out
}

func (b *Builder) insertRun(t *core.Table, mutations []core.PendingRowMutation, run []int) []core.Statement {
	rows := make([]core.Row, len(run))
	st := core.Statement{Kind: core.StatementInsert}
	for j, i := range run {
		rows[j] = mutations[i].CurrentValues
		st.RowRefs = append(st.RowRefs, refs(mutations[i])...)
	}
	text, err := b.gen.GenerateMultiInsert(t, rows)
	if err != nil {
		for _, i := range run {
			b.skip(i, mutations[i], err)
		}
		return nil
	}
	st.Text = text
	return []core.Statement{st}
}

// columnSignature identifies the column set an insert writes: auto-increment
// columns are only written when the row carries a value for them.
func columnSignature(t *core.Table, row core.Row) string {
	var sb strings.Builder
	for i, c := range t.Columns {
		if c.AutoIncrement && row[i] != nil {
			sb.WriteString(strconv.Itoa(i))
			sb.WriteByte(',')
		}
	}
	return sb.String()
}

// BuildParameterizedStatements renders one statement per mutation with
// values bound as named parameters.
func (b *Builder) BuildParameterizedStatements(t *core.Table, mutations []core.PendingRowMutation) []core.Statement {
	b.skipped = nil
	if err := checkTable(t); err != nil {
		for i, m := range mutations {
			b.skip(i, m, err)
		}
		return nil
	}

	var out []core.Statement
	for i, m := range mutations {
		if err := m.CheckShape(len(t.Columns)); err != nil {
			b.skip(i, m, err)
			continue
		}

		var (
			st  core.Statement
			err error
		)
		switch m.Kind {
		case core.MutationInsert:
			st, err = b.gen.ParameterizedInsert(t, m.CurrentValues)
		case core.MutationUpdate:
			st, err = b.gen.ParameterizedUpdate(t, m.OriginalValues, m.CurrentValues)
		case core.MutationDelete:
			st, err = b.gen.ParameterizedDelete(t, m.OriginalValues)
		}
		if err != nil {
			b.skip(i, m, err)
			continue
		}
		st.RowRefs = refs(m)
		out = append(out, st)
	}
	return out
}

func refs(m core.PendingRowMutation) []core.RowRef {
	if m.RowRef == "" {
		return nil
	}
	return []core.RowRef{m.RowRef}
}
