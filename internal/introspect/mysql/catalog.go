package mysql

import (
	"context"

	"sheetsql/internal/gateway"
)

// Choices returned here feed the property editor's choice fields.

// Engines lists the storage engines the server supports.
func (l *Loader) Engines(ctx context.Context) ([]string, error) {
	return l.names(ctx, gateway.InfoEngines, "", "engine")
}

// CharacterSets lists the server character sets.
func (l *Loader) CharacterSets(ctx context.Context) ([]string, error) {
	return l.names(ctx, gateway.InfoCharacterSets, "", "character_set_name")
}

// Collations lists the collations of charset, or all when charset is empty.
func (l *Loader) Collations(ctx context.Context, charset string) ([]string, error) {
	return l.names(ctx, gateway.InfoCollations, charset, "collation_name")
}

func (l *Loader) names(ctx context.Context, kind gateway.SchemaInfoKind, object, column string) ([]string, error) {
	rs, err := l.gw.GetSchemaInformation(ctx, kind, "", object)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, rs.Len())
	for i := range rs.Len() {
		out = append(out, rs.String(i, column))
	}
	return out, nil
}
