package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	results := []StatementResult{
		{Kind: StatementInsert, Outcome: OutcomeSuccess, AffectedRows: 3},
		{Kind: StatementInsert, Outcome: OutcomeSuccess, AffectedRows: 1},
		{Kind: StatementUpdate, Outcome: OutcomeSuccess, AffectedRows: 2},
		{Kind: StatementUpdate, Outcome: OutcomeWarning, AffectedRows: 0},
		{Kind: StatementDelete, Outcome: OutcomeError, AffectedRows: -1},
		{Kind: StatementDelete, Outcome: OutcomeSuccess, AffectedRows: 1},
		{Kind: StatementCreateTable, Outcome: OutcomeSuccess, AffectedRows: 0},
	}

	s := Summarize(results)
	assert.Equal(t, int64(4), s.InsertedCount)
	assert.Equal(t, int64(2), s.UpdatedCount)
	assert.Equal(t, int64(1), s.DeletedCount)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 1, s.Warnings)
	assert.True(t, s.HasErrors())

	assert.False(t, Summarize(nil).HasErrors())
}

func TestKindForMutation(t *testing.T) {
	assert.Equal(t, StatementInsert, KindForMutation(MutationInsert))
	assert.Equal(t, StatementUpdate, KindForMutation(MutationUpdate))
	assert.Equal(t, StatementDelete, KindForMutation(MutationDelete))
	assert.Equal(t, StatementOther, KindForMutation("MERGE"))
}

func TestPendingRowMutationCheckShape(t *testing.T) {
	tests := []struct {
		name    string
		m       PendingRowMutation
		wantErr bool
	}{
		{"insert ok", NewInsert("r1", Row{1, "a"}), false},
		{"insert short", NewInsert("r1", Row{1}), true},
		{"update ok", NewUpdate("r2", Row{1, "a"}, Row{1, "b"}), false},
		{"update missing original", NewUpdate("r2", nil, Row{1, "b"}), true},
		{"delete ok", NewDelete("r3", Row{1, "a"}), false},
		{"delete long", NewDelete("r3", Row{1, "a", "x"}), true},
		{"unknown kind", PendingRowMutation{Kind: "MERGE"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.CheckShape(2)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
