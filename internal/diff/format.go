package diff

import (
	"fmt"
	"slices"
	"strings"

	"sheetsql/internal/core"
)

// String renders the differences as an indented list.
func (td *TableDiff) String() string {
	if td.IsEmpty() {
		return "No differences detected.\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Differences in %s:\n", td.Name)
	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(&sb, "  %s:\n", title)
		for _, l := range lines {
			fmt.Fprintf(&sb, "    %s\n", l)
		}
	}

	var lines []string
	for _, w := range td.Warnings {
		if w = strings.TrimSpace(w); w != "" {
			lines = append(lines, "- "+w)
		}
	}
	section("Warnings", lines)
	section("Options changed", mapLines(td.ModifiedOptions, func(o *TableOptionChange) []string {
		return []string{fmt.Sprintf("- %s: %q -> %q", o.Name, o.Existing, o.Proposed)}
	}))
	section("Added columns", mapLines(td.AddedColumns, columnLine))
	section("Removed columns", mapLines(td.RemovedColumns, columnLine))
	section("Renamed columns", mapLines(td.RenamedColumns, func(r *ColumnRename) []string {
		return []string{fmt.Sprintf("- %s -> %s (score %d)", r.Existing.Name, r.Proposed.Name, r.Score)}
	}))
	section("Modified columns", mapLines(td.ModifiedColumns, func(c *ColumnChange) []string {
		return changeLines(c.Name, c.Changes)
	}))
	section("Added indexes", mapLines(td.AddedIndexes, indexLine))
	section("Removed indexes", mapLines(td.RemovedIndexes, indexLine))
	section("Modified indexes", mapLines(td.ModifiedIndexes, func(c *IndexChange) []string {
		name := c.Name
		if name == "" {
			name = "(unnamed)"
		}
		return changeLines(name, c.Changes)
	}))
	return sb.String()
}

func mapLines[T any](items []T, render func(T) []string) []string {
	var out []string
	for _, it := range items {
		out = append(out, render(it)...)
	}
	return out
}

func columnLine(c *core.Column) []string {
	return []string{fmt.Sprintf("- %s: %s", c.Name, c.Type)}
}

func indexLine(i *core.Index) []string {
	return []string{fmt.Sprintf("- %s %s", i.Name, indexColumnList(i.Columns))}
}

func changeLines(name string, changes []*FieldChange) []string {
	out := []string{"- " + name + ":"}
	for _, fc := range changes {
		out = append(out, fmt.Sprintf("  - %s: %q -> %q", fc.Field, fc.Existing, fc.Proposed))
	}
	return out
}

// FormatIssues renders fit issues one per line, most severe first and by
// column within a severity.
func FormatIssues(issues []Issue) string {
	if len(issues) == 0 {
		return "All columns fit.\n"
	}
	sorted := slices.Clone(issues)
	slices.SortStableFunc(sorted, func(a, b Issue) int {
		if a.Severity != b.Severity {
			return int(b.Severity) - int(a.Severity)
		}
		return strings.Compare(strings.ToLower(a.Column), strings.ToLower(b.Column))
	})
	var sb strings.Builder
	for _, is := range sorted {
		fmt.Fprintf(&sb, "[%s] %s: %s\n", is.Severity, is.Column, is.Description)
	}
	return sb.String()
}
