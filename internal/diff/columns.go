package diff

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"sheetsql/internal/core"
)

// columnAttrs drive both the reported column changes and the rename score.
// The unnamed kind entry only scores.
var columnAttrs = []attr[*core.Column]{
	{name: "type", weight: 4, value: func(c *core.Column) string { return c.Type.String() }},
	{weight: 2, value: func(c *core.Column) string { return string(c.Type.Kind) }},
	{name: "nullable", weight: 1, value: func(c *core.Column) string { return strconv.FormatBool(c.Nullable) }},
	{name: "primary_key", weight: 1, value: func(c *core.Column) string { return strconv.FormatBool(c.PrimaryKey) }},
	{name: "unique_key", value: func(c *core.Column) string { return strconv.FormatBool(c.UniqueKey) }},
	{name: "auto_increment", weight: 1, value: func(c *core.Column) string { return strconv.FormatBool(c.AutoIncrement) }},
	{name: "charset", weight: 1, fold: true, value: func(c *core.Column) string { return c.CharacterSet }},
	{name: "collate", weight: 1, fold: true, value: func(c *core.Column) string { return c.Collation }},
	{name: "comment", weight: 1, value: func(c *core.Column) string { return c.Comment }},
	{name: "default", weight: 1, value: func(c *core.Column) string {
		if c.DefaultValue == nil {
			return ""
		}
		return *c.DefaultValue
	}},
}

func (td *TableDiff) compareColumns(existing, proposed []*core.Column) {
	byKey := func(side string, cols []*core.Column) map[string]*core.Column {
		m := make(map[string]*core.Column, len(cols))
		for _, c := range cols {
			key := strings.ToLower(c.Name)
			if prev, ok := m[key]; ok {
				if prev.Name != c.Name {
					td.Warnings = append(td.Warnings, fmt.Sprintf("%s table: case-insensitive name collision: %q vs %q", side, prev.Name, c.Name))
				}
				continue
			}
			m[key] = c
		}
		return m
	}
	have := byKey("existing", existing)
	want := byKey("proposed", proposed)

	for _, p := range proposed {
		e, ok := have[strings.ToLower(p.Name)]
		switch {
		case !ok:
			td.AddedColumns = append(td.AddedColumns, p)
		case e != nil:
			if changes := fieldChanges(columnAttrs, e, p); len(changes) > 0 {
				td.ModifiedColumns = append(td.ModifiedColumns, &ColumnChange{Name: p.Name, Existing: e, Proposed: p, Changes: changes})
			}
			// a colliding duplicate compares only once
			have[strings.ToLower(p.Name)] = nil
		}
	}
	for _, e := range existing {
		if _, ok := want[strings.ToLower(e.Name)]; !ok {
			td.RemovedColumns = append(td.RemovedColumns, e)
		}
	}
}

func similarity(existing, proposed *core.Column) int {
	if strings.EqualFold(existing.Name, proposed.Name) {
		return 0
	}
	score := 0
	for _, a := range columnAttrs {
		if a.equal(existing, proposed) {
			score += a.weight
		}
	}
	return score
}

// pairRenames turns removed and added columns into renames. Candidate pairs
// are taken best score first; a column joins at most one pair.
func (td *TableDiff) pairRenames() {
	type candidate struct {
		removed, added int
		score          int
	}
	var candidates []candidate
	for i, e := range td.RemovedColumns {
		for j, p := range td.AddedColumns {
			if s := similarity(e, p); s >= renameThreshold && renameEvidence(e, p) {
				candidates = append(candidates, candidate{i, j, s})
			}
		}
	}
	if len(candidates) == 0 {
		return
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int { return b.score - a.score })

	takenRemoved := map[int]bool{}
	takenAdded := map[int]bool{}
	for _, c := range candidates {
		if takenRemoved[c.removed] || takenAdded[c.added] {
			continue
		}
		takenRemoved[c.removed], takenAdded[c.added] = true, true
		td.RenamedColumns = append(td.RenamedColumns, &ColumnRename{
			Existing: td.RemovedColumns[c.removed],
			Proposed: td.AddedColumns[c.added],
			Score:    c.score,
		})
	}
	td.RemovedColumns = dropIndexes(td.RemovedColumns, takenRemoved)
	td.AddedColumns = dropIndexes(td.AddedColumns, takenAdded)
}

func dropIndexes(cols []*core.Column, drop map[int]bool) []*core.Column {
	var kept []*core.Column
	for i, c := range cols {
		if !drop[i] {
			kept = append(kept, c)
		}
	}
	return kept
}

// renameEvidence requires a shared name token or an equal, non-empty
// comment.
func renameEvidence(existing, proposed *core.Column) bool {
	if ec := strings.TrimSpace(existing.Comment); ec != "" && strings.EqualFold(ec, strings.TrimSpace(proposed.Comment)) {
		return true
	}
	tokens := nameTokens(existing.Name)
	for _, t := range nameTokens(proposed.Name) {
		if slices.Contains(tokens, t) {
			return true
		}
	}
	return false
}

func nameTokens(name string) []string {
	parts := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return slices.DeleteFunc(parts, func(p string) bool { return len(p) < renameTokenMinLen })
}
