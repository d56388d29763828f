package apply

import (
	"context"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetsql/internal/core"
	"sheetsql/internal/gateway/gatewaytest"
)

func mixedBatch() []core.Statement {
	return []core.Statement{
		{Text: "INSERT INTO `t` (`name`) VALUES ('a')", Kind: core.StatementInsert, RowRefs: []core.RowRef{"r1"}},
		{Text: "INSERT INTO `t` (`name`) VALUES ('b')", Kind: core.StatementInsert, RowRefs: []core.RowRef{"r2"}},
		{Text: "INSERT INTO `t` (`name`) VALUES ('dup')", Kind: core.StatementInsert, RowRefs: []core.RowRef{"r3"}},
		{Text: "UPDATE `t` SET `name`='c' WHERE `name`='a'", Kind: core.StatementUpdate, RowRefs: []core.RowRef{"r4"}},
		{Text: "DELETE FROM `t` WHERE `name`='b'", Kind: core.StatementDelete, RowRefs: []core.RowRef{"r5"}},
	}
}

func TestExecuteIsolatesFailures(t *testing.T) {
	gw := gatewaytest.New()
	gw.Failures["'dup'"] = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'dup' for key 'name'"}

	results := NewExecutor(gw, nil).Execute(context.Background(), mixedBatch())
	require.Len(t, results, 5)

	assert.Equal(t, core.OutcomeError, results[2].Outcome)
	assert.Contains(t, results[2].ResultText, "Duplicate entry")
	assert.Zero(t, results[2].AffectedRows)

	for _, i := range []int{0, 1, 3, 4} {
		assert.Equal(t, core.OutcomeSuccess, results[i].Outcome, "statement %d", i)
		assert.Equal(t, int64(1), results[i].AffectedRows, "statement %d", i)
		assert.Equal(t, i+1, results[i].Index)
	}

	summary := Summarize(results)
	assert.Equal(t, int64(2), summary.InsertedCount)
	assert.Equal(t, int64(1), summary.UpdatedCount)
	assert.Equal(t, int64(1), summary.DeletedCount)
	assert.Equal(t, 1, summary.Errors)

	// Earlier statements stay committed, the failing one never commits.
	assert.Len(t, gw.Statements(), 4)
	assert.Equal(t, map[core.RowRef]string{"r3": results[2].ResultText}, FailedRowRefs(results))
}

func TestExecuteInsertCountIndependentOfFailurePosition(t *testing.T) {
	update := core.Statement{Text: "UPDATE `t` SET `name`='x' WHERE `name`='missing'", Kind: core.StatementUpdate}
	others := []core.Statement{
		{Text: "INSERT INTO `t` (`name`) VALUES ('a')", Kind: core.StatementInsert},
		{Text: "INSERT INTO `t` (`name`) VALUES ('b')", Kind: core.StatementInsert},
		{Text: "INSERT INTO `t` (`name`) VALUES ('c')", Kind: core.StatementInsert},
		{Text: "DELETE FROM `t` WHERE `name`='b'", Kind: core.StatementDelete},
	}

	for pos := range 5 {
		batch := append([]core.Statement{}, others[:pos]...)
		batch = append(batch, update)
		batch = append(batch, others[pos:]...)

		gw := gatewaytest.New()
		gw.Failures["UPDATE"] = errors.New("lock wait timeout")

		results := NewExecutor(gw, nil).Execute(context.Background(), batch)
		require.Len(t, results, 5)
		assert.Equal(t, core.OutcomeError, results[pos].Outcome)
		assert.Equal(t, int64(3), Summarize(results).InsertedCount, "failing statement at %d", pos)
		assert.Equal(t, int64(1), Summarize(results).DeletedCount)
	}
}

func TestExecuteZeroRowsIsWarning(t *testing.T) {
	gw := gatewaytest.New()
	gw.Affected["UPDATE"] = 0
	gw.Affected["DELETE"] = 0

	results := NewExecutor(gw, nil).Execute(context.Background(), mixedBatch()[3:])
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, core.OutcomeWarning, r.Outcome)
		assert.Equal(t, ConcurrencyWarning, r.ResultText)
	}
	s := Summarize(results)
	assert.Equal(t, 2, s.Warnings)
	assert.Zero(t, s.UpdatedCount)
	assert.Len(t, FailedRowRefs(results), 2)
}

func TestExecuteClassifiesUnknownKinds(t *testing.T) {
	gw := gatewaytest.New()
	gw.Affected["CREATE"] = 0

	results := NewExecutor(gw, nil).Execute(context.Background(), []core.Statement{
		{Text: "CREATE TABLE `t` (`id` int)"},
		{Text: "INSERT INTO `t` VALUES (1)"},
	})
	require.Len(t, results, 2)
	assert.Equal(t, core.StatementCreateTable, results[0].Kind)
	assert.Equal(t, "OK", results[0].ResultText)
	assert.Equal(t, core.StatementInsert, results[1].Kind)
	assert.Equal(t, "1 row affected", results[1].ResultText)

	// DDL runs outside a unit of work, DML inside one; both end up committed.
	require.Len(t, gw.Execs, 2)
	assert.True(t, gw.Execs[0].Committed)
	assert.True(t, gw.Execs[1].Committed)
}

func TestExecuteBeginFailure(t *testing.T) {
	gw := gatewaytest.New()
	gw.BeginErr = errors.New("no connection")

	results := NewExecutor(gw, nil).Execute(context.Background(), mixedBatch()[:2])
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, core.OutcomeError, r.Outcome)
		assert.Equal(t, "no connection", r.ResultText)
	}
}

func TestExecuteCanceled(t *testing.T) {
	gw := gatewaytest.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewExecutor(gw, nil).Execute(ctx, mixedBatch())
	require.Len(t, results, 5)
	for _, r := range results {
		assert.Equal(t, core.OutcomeError, r.Outcome)
		assert.Equal(t, NotExecutedPrefix+context.Canceled.Error(), r.ResultText)
	}
	assert.Empty(t, gw.Execs)
}

func TestExecuteScript(t *testing.T) {
	gw := gatewaytest.New()
	results := NewExecutor(gw, nil).ExecuteScript(context.Background(), "INSERT INTO t VALUES (1);\nDELETE FROM t WHERE id = 1;")
	require.Len(t, results, 2)
	assert.Equal(t, core.StatementInsert, results[0].Kind)
	assert.Equal(t, core.StatementDelete, results[1].Kind)
}
