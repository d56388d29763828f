package gateway

import (
	"database/sql"
	"strconv"
	"strings"
)

// readRows drains rows into a ResultSet and closes them.
func readRows(rows *sql.Rows) (*ResultSet, error) {
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	rs := &ResultSet{
		Columns: make([]string, len(types)),
		Types:   make([]string, len(types)),
	}
	for i, ct := range types {
		rs.Columns[i] = ct.Name()
		rs.Types[i] = strings.ToUpper(ct.DatabaseTypeName())
	}

	for rows.Next() {
		values := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			values[i] = normalizeValue(rs.Types[i], v)
		}
		rs.Rows = append(rs.Rows, values)
	}
	return rs, rows.Err()
}

// normalizeValue turns the driver's text protocol bytes into Go values.
// DECIMAL stays a string so no precision is lost.
func normalizeValue(dbType string, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if isBinaryType(dbType) {
		return b
	}
	s := string(b)
	switch dbType {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT", "YEAR":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case "UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT", "UNSIGNED INT", "UNSIGNED BIGINT":
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return n
		}
	case "FLOAT", "DOUBLE":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func isBinaryType(dbType string) bool {
	switch dbType {
	case "BINARY", "VARBINARY", "TINYBLOB", "BLOB", "MEDIUMBLOB", "LONGBLOB", "BIT", "GEOMETRY":
		return true
	default:
		return false
	}
}
