// Package session drives the three user-facing flows between a MySQL table
// and a spreadsheet surface: importing table data into a region, exporting a
// region as a new or existing table, and editing imported rows in place.
package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"sheetsql/internal/apply"
	"sheetsql/internal/batch"
	"sheetsql/internal/core"
	"sheetsql/internal/dialect"
	"sheetsql/internal/gateway"
	introspect "sheetsql/internal/introspect/mysql"
	"sheetsql/internal/logging"
	"sheetsql/internal/mapping"
	"sheetsql/internal/surface"
)

// Env holds the collaborators a session works with. Mappings is optional.
type Env struct {
	Gateway   gateway.Gateway
	Surface   surface.TargetSurface
	Generator dialect.Generator
	Mappings  mapping.Store
	Log       logrus.FieldLogger
}

func (e Env) validate() error {
	if e.Gateway == nil {
		return fmt.Errorf("session: no database gateway")
	}
	return e.validateOffline()
}

// validateOffline checks what flows that never reach the database need.
func (e Env) validateOffline() error {
	switch {
	case e.Surface == nil:
		return fmt.Errorf("session: no target surface")
	case e.Generator == nil:
		return fmt.Errorf("session: no SQL generator")
	}
	return nil
}

func (e Env) logger(kind, id string) logrus.FieldLogger {
	fields := logrus.Fields{"session": id, "flow": kind}
	if e.Gateway != nil {
		fields["connection"] = e.Gateway.ConnectionID()
	}
	return logging.OrDiscard(e.Log).WithFields(fields)
}

func (e Env) loader() *introspect.Loader {
	return introspect.NewLoader(e.Gateway, e.Log)
}

func (e Env) executor() *apply.Executor {
	return apply.NewExecutor(e.Gateway, e.Log)
}

func (e Env) builder() *batch.Builder {
	return batch.NewBuilder(e.Generator, e.Log)
}

func newID() string {
	return uuid.NewString()
}

// sheetHider is implemented by surfaces that can hide a sheet.
type sheetHider interface {
	HideSheet(name string) error
}

// tableFormatter is implemented by surfaces that can style a region as a
// structured table.
type tableFormatter interface {
	FormatAsTable(r *surface.Region, style string) error
}

// rowRef points at a surface row, e.g. "orders!12".
func rowRef(sheet string, row int) core.RowRef {
	return core.RowRef(fmt.Sprintf("%s!%d", sheet, row))
}

// rewrite replaces the contents of a region, blanking cells the previous
// contents covered but the new grid does not.
func rewrite(s surface.TargetSurface, r *surface.Region, values [][]any) error {
	width := 0
	for _, row := range values {
		width = max(width, len(row))
	}
	height, cols := max(r.Bounds.Rows, len(values)), max(r.Bounds.Cols, width)
	if height > len(values) || cols > width {
		padded := make([][]any, height)
		for i := range padded {
			padded[i] = make([]any, cols)
			if i < len(values) {
				copy(padded[i], values[i])
			}
		}
		if err := s.WriteGrid(r, padded); err != nil {
			return err
		}
	}
	return s.WriteGrid(r, values)
}

// isHeaderRow reports whether row spells out the column names of t.
func isHeaderRow(t *core.Table, row []any) bool {
	if len(row) < len(t.Columns) {
		return false
	}
	for i, c := range t.Columns {
		if !strings.EqualFold(strings.TrimSpace(cast.ToString(row[i])), c.Name) {
			return false
		}
	}
	return true
}

// toRow fits a grid row to the table width.
func toRow(values []any, width int) core.Row {
	row := make(core.Row, width)
	copy(row, values)
	return row
}

func blank(values []any) bool {
	for _, v := range values {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}
