// Package mysql loads SchemaModel tables from MySQL catalog information. It
// only talks to the gateway's schema information queries, so it works with
// any Gateway implementation.
package mysql

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"sheetsql/internal/core"
	"sheetsql/internal/gateway"
	"sheetsql/internal/logging"
)

// Loader builds core.Table values for existing database objects.
type Loader struct {
	gw  gateway.Gateway
	log logrus.FieldLogger
}

// NewLoader returns a loader reading catalog rows through gw.
func NewLoader(gw gateway.Gateway, log logrus.FieldLogger) *Loader {
	return &Loader{gw: gw, log: logging.OrDiscard(log)}
}

// LoadTable reads the table or view schema.object with its columns and
// indexes. A missing object yields gateway.ErrTableNotFound.
func (l *Loader) LoadTable(ctx context.Context, schema, name string) (*core.Table, error) {
	info, err := l.objectInfo(ctx, schema, name)
	if err != nil {
		return nil, err
	}

	t, err := core.NewTable(schema, info.String(0, "table_name"), false)
	if err != nil {
		return nil, err
	}
	introspectTableOptions(info, t)

	if err := l.introspectColumns(ctx, t); err != nil {
		return nil, fmt.Errorf("table %q: columns: %w", name, err)
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("%w: %s.%s has no columns", gateway.ErrTableNotFound, schema, name)
	}
	if err := l.introspectIndexes(ctx, t); err != nil {
		return nil, fmt.Errorf("table %q: indexes: %w", name, err)
	}

	l.log.WithFields(logrus.Fields{
		"schema":  schema,
		"table":   t.Name,
		"columns": len(t.Columns),
		"indexes": len(t.Indexes),
	}).Debug("table loaded")
	return t, nil
}

func (l *Loader) objectInfo(ctx context.Context, schema, name string) (*gateway.ResultSet, error) {
	for _, kind := range []gateway.SchemaInfoKind{gateway.InfoTables, gateway.InfoViews} {
		rs, err := l.gw.GetSchemaInformation(ctx, kind, schema, name)
		if err != nil {
			return nil, err
		}
		if rs.Len() > 0 {
			return rs, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", gateway.ErrTableNotFound, schema, name)
}
