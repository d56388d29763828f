// Package apply executes statement batches against a database gateway. Every
// statement runs in its own unit of work, so a failing statement is recorded
// and the batch moves on; statements that already succeeded stay committed.
package apply

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"sheetsql/internal/core"
	"sheetsql/internal/gateway"
	"sheetsql/internal/logging"
)

// Result texts for outcomes that carry no driver message.
const (
	ConcurrencyWarning = "row changed or deleted by another user"
	NotExecutedPrefix  = "not executed: "
)

// Executor is the BatchExecutor. It is stateless between Execute calls.
type Executor struct {
	gw       gateway.Gateway
	analyzer *StatementAnalyzer
	log      logrus.FieldLogger
}

// NewExecutor returns an executor running statements through gw.
func NewExecutor(gw gateway.Gateway, log logrus.FieldLogger) *Executor {
	return &Executor{
		gw:       gw,
		analyzer: NewStatementAnalyzer(),
		log:      logging.OrDiscard(log),
	}
}

// Analyzer returns the statement analyzer the executor classifies with.
func (e *Executor) Analyzer() *StatementAnalyzer {
	return e.analyzer
}

// Execute runs statements in order and returns one result per statement.
// Failures never abort the batch. Once ctx is done the remaining statements
// are reported as not executed.
func (e *Executor) Execute(ctx context.Context, statements []core.Statement) []core.StatementResult {
	results := make([]core.StatementResult, len(statements))
	for i, st := range statements {
		analysis := e.analyzer.AnalyzeStatement(st.Text)
		kind := st.Kind
		if kind == "" {
			kind = analysis.Kind
		}
		res := core.StatementResult{
			Index:   i + 1,
			Kind:    kind,
			Query:   st.Text,
			RowRefs: st.RowRefs,
		}

		if err := ctx.Err(); err != nil {
			res.Outcome = core.OutcomeError
			res.ResultText = NotExecutedPrefix + err.Error()
			results[i] = res
			continue
		}

		n, err := e.run(ctx, st, analysis.IsTransactionSafe)
		switch {
		case err != nil:
			res.Outcome = core.OutcomeError
			res.ResultText = err.Error()
			e.log.WithFields(logrus.Fields{
				"index": res.Index,
				"kind":  kind,
				"error": err,
			}).Warn("statement failed")
		case n == 0 && (kind == core.StatementUpdate || kind == core.StatementDelete):
			res.Outcome = core.OutcomeWarning
			res.ResultText = ConcurrencyWarning
		default:
			res.Outcome = core.OutcomeSuccess
			res.AffectedRows = n
			res.ResultText = successText(kind, n)
		}
		results[i] = res
	}

	summary := core.Summarize(results)
	e.log.WithFields(logrus.Fields{
		"statements": len(statements),
		"inserted":   summary.InsertedCount,
		"updated":    summary.UpdatedCount,
		"deleted":    summary.DeletedCount,
		"errors":     summary.Errors,
		"warnings":   summary.Warnings,
	}).Info("batch executed")
	return results
}

// run executes one statement. Statements that commit implicitly go straight
// to the gateway; everything else gets its own unit of work.
func (e *Executor) run(ctx context.Context, st core.Statement, transactional bool) (int64, error) {
	if !transactional {
		return e.gw.ExecuteNonQuery(ctx, st.Text, st.Params...)
	}

	uow, err := e.gw.Begin(ctx)
	if err != nil {
		return 0, err
	}
	n, err := uow.ExecuteNonQuery(ctx, st.Text, st.Params...)
	if err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			return 0, fmt.Errorf("%w; rollback also failed: %v", err, rbErr)
		}
		return 0, err
	}
	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return n, nil
}

func successText(kind core.StatementKind, n int64) string {
	switch kind {
	case core.StatementInsert, core.StatementUpdate, core.StatementDelete:
		if n == 1 {
			return "1 row affected"
		}
		return fmt.Sprintf("%d rows affected", n)
	default:
		return "OK"
	}
}

// ExecuteScript splits a SQL script and executes it as a batch.
func (e *Executor) ExecuteScript(ctx context.Context, script string) []core.StatementResult {
	var statements []core.Statement
	for _, text := range e.analyzer.SplitStatements(script) {
		statements = append(statements, core.Statement{Text: text})
	}
	return e.Execute(ctx, statements)
}

// Summarize aggregates results per statement kind.
func Summarize(results []core.StatementResult) core.BatchSummary {
	return core.Summarize(results)
}

// FailedRowRefs maps the row references of statements that did not succeed
// to their result text, so callers can annotate the originating grid rows.
func FailedRowRefs(results []core.StatementResult) map[core.RowRef]string {
	failed := map[core.RowRef]string{}
	for _, r := range results {
		if r.Outcome == core.OutcomeSuccess {
			continue
		}
		for _, ref := range r.RowRefs {
			if ref == "" {
				continue
			}
			if prev, ok := failed[ref]; ok {
				failed[ref] = strings.Join([]string{prev, r.ResultText}, "; ")
				continue
			}
			failed[ref] = r.ResultText
		}
	}
	return failed
}
