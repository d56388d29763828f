package output

import (
	"encoding/json"

	"sheetsql/internal/core"
)

type jsonFormatter struct{}

type resultsPayload struct {
	Format  string                 `json:"format"`
	Summary core.BatchSummary      `json:"summary"`
	Results []core.StatementResult `json:"results"`
}

type tablePayload struct {
	Format string      `json:"format"`
	Table  *core.Table `json:"table"`
	DDL    string      `json:"ddl,omitempty"`
}

type Payload interface {
	resultsPayload | tablePayload
}

func (jsonFormatter) FormatResults(results []core.StatementResult) (string, error) {
	payload := resultsPayload{
		Format:  string(FormatJSON),
		Summary: core.Summarize(results),
		Results: results,
	}
	if payload.Results == nil {
		payload.Results = []core.StatementResult{}
	}
	return marshalJSON(payload)
}

func (jsonFormatter) FormatTable(t *core.Table, ddl string) (string, error) {
	return marshalJSON(tablePayload{Format: string(FormatJSON), Table: t, DDL: ddl})
}

func marshalJSON[T Payload](payload T) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
