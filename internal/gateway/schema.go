package gateway

import "fmt"

// schemaQuery returns the information_schema query for kind. An empty object
// name lists every object of the schema. For Collations the object is an
// optional character set filter.
func schemaQuery(kind SchemaInfoKind, schema, object string) (string, []any, error) {
	var (
		query string
		args  []any
	)

	switch kind {
	case InfoTables, InfoViews:
		tableType := "BASE TABLE"
		if kind == InfoViews {
			tableType = "VIEW"
		}
		query = `
		SELECT t.table_name, t.engine, t.table_collation, c.character_set_name,
			t.table_comment, t.auto_increment, t.table_rows
		FROM information_schema.tables t
		LEFT JOIN information_schema.collation_character_set_applicability c
			ON c.collation_name = t.table_collation
		WHERE t.table_schema = ? AND t.table_type = ?`
		args = []any{schema, tableType}
		if object != "" {
			query += ` AND t.table_name = ?`
			args = append(args, object)
		}
		query += `
		ORDER BY t.table_name`

	case InfoColumns:
		query = `
		SELECT c.column_name, c.ordinal_position, c.column_default, c.is_nullable,
			c.column_type, c.character_set_name, c.collation_name, c.column_key,
			c.extra, c.column_comment
		FROM information_schema.columns c
		WHERE c.table_schema = ?`
		args = []any{schema}
		if object != "" {
			query += ` AND c.table_name = ?`
			args = append(args, object)
		}
		query += `
		ORDER BY c.table_name, c.ordinal_position`

	case InfoIndexes:
		query = `
		SELECT s.table_name, s.index_name, MIN(s.non_unique) AS non_unique, MIN(s.index_type) AS index_type
		FROM information_schema.statistics s
		WHERE s.table_schema = ?`
		args = []any{schema}
		if object != "" {
			query += ` AND s.table_name = ?`
			args = append(args, object)
		}
		query += `
		GROUP BY s.table_name, s.index_name
		ORDER BY s.table_name, s.index_name = 'PRIMARY' DESC, s.index_name`

	case InfoIndexColumns:
		query = `
		SELECT s.table_name, s.index_name, s.seq_in_index, s.column_name, s.collation
		FROM information_schema.statistics s
		WHERE s.table_schema = ?`
		args = []any{schema}
		if object != "" {
			query += ` AND s.table_name = ?`
			args = append(args, object)
		}
		query += `
		ORDER BY s.table_name, s.index_name, s.seq_in_index`

	case InfoForeignKeyColumns:
		query = `
		SELECT k.constraint_name, k.table_name, k.column_name,
			k.referenced_table_name, k.referenced_column_name, k.ordinal_position
		FROM information_schema.key_column_usage k
		WHERE k.table_schema = ? AND k.referenced_table_name IS NOT NULL`
		args = []any{schema}
		if object != "" {
			query += ` AND (k.table_name = ? OR k.referenced_table_name = ?)`
			args = append(args, object, object)
		}
		query += `
		ORDER BY k.table_name, k.constraint_name, k.ordinal_position`

	case InfoCollations:
		query = `
		SELECT collation_name, character_set_name, is_default
		FROM information_schema.collations`
		if object != "" {
			query += `
		WHERE character_set_name = ?`
			args = []any{object}
		}
		query += `
		ORDER BY collation_name`

	case InfoCharacterSets:
		query = `
		SELECT character_set_name, default_collate_name, description, maxlen
		FROM information_schema.character_sets
		ORDER BY character_set_name`

	case InfoEngines:
		query = `
		SELECT engine, support, comment
		FROM information_schema.engines
		WHERE support IN ('YES', 'DEFAULT')
		ORDER BY engine`

	default:
		return "", nil, fmt.Errorf("unknown schema information kind %q", kind)
	}
	return query, args, nil
}
