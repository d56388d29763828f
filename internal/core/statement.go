package core

// StatementKind identifies what a generated or executed statement does.
type StatementKind string

const (
	StatementInsert      StatementKind = "INSERT"
	StatementUpdate      StatementKind = "UPDATE"
	StatementDelete      StatementKind = "DELETE"
	StatementCreateTable StatementKind = "CREATE TABLE"
	StatementDDL         StatementKind = "DDL"
	StatementSelect      StatementKind = "SELECT"
	StatementOther       StatementKind = "OTHER"
)

// KindForMutation maps a row mutation to the statement kind it produces.
func KindForMutation(k MutationKind) StatementKind {
	switch k {
	case MutationInsert:
		return StatementInsert
	case MutationUpdate:
		return StatementUpdate
	case MutationDelete:
		return StatementDelete
	default:
		return StatementOther
	}
}

// Param is a named statement parameter, e.g. W_id for "@W_id".
type Param struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Statement is one executable SQL statement. RowRefs point back at the grid
// rows it was generated from; a coalesced INSERT carries several.
type Statement struct {
	Text    string        `json:"text"`
	Kind    StatementKind `json:"kind"`
	RowRefs []RowRef      `json:"rowRefs,omitempty"`
	Params  []Param       `json:"params,omitempty"`
}

// RowRef returns the first originating row reference, or "".
func (s Statement) RowRef() RowRef {
	if len(s.RowRefs) == 0 {
		return ""
	}
	return s.RowRefs[0]
}

// Outcome is the result classification of an executed statement.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeWarning Outcome = "WARNING"
	OutcomeError   Outcome = "ERROR"
)

// StatementResult is one row of the results view: what ran, how it ended and
// how many rows it touched.
type StatementResult struct {
	Index        int           `json:"index"`
	Kind         StatementKind `json:"kind"`
	Outcome      Outcome       `json:"outcome"`
	Query        string        `json:"query"`
	ResultText   string        `json:"resultText"`
	AffectedRows int64         `json:"affectedRows"`
	RowRefs      []RowRef      `json:"rowRefs,omitempty"`
}

// BatchSummary aggregates a result list per statement kind.
type BatchSummary struct {
	InsertedCount int64 `json:"insertedCount"`
	UpdatedCount  int64 `json:"updatedCount"`
	DeletedCount  int64 `json:"deletedCount"`
	Errors        int   `json:"errors"`
	Warnings      int   `json:"warnings"`
}

// Summarize counts affected rows of results with affectedRows > 0, grouped
// by kind, plus the number of errors and warnings.
func Summarize(results []StatementResult) BatchSummary {
	var s BatchSummary
	for _, r := range results {
		switch r.Outcome {
		case OutcomeError:
			s.Errors++
		case OutcomeWarning:
			s.Warnings++
		}
		if r.AffectedRows <= 0 {
			continue
		}
		switch r.Kind {
		case StatementInsert:
			s.InsertedCount += r.AffectedRows
		case StatementUpdate:
			s.UpdatedCount += r.AffectedRows
		case StatementDelete:
			s.DeletedCount += r.AffectedRows
		}
	}
	return s
}

// HasErrors reports whether any statement failed.
func (s BatchSummary) HasErrors() bool {
	return s.Errors > 0
}
