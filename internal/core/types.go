package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TypeKind is the tagged part of a StorageType. It decides quoting, width
// semantics and which attributes (unsigned, charset) apply.
type TypeKind string

const (
	KindInteger   TypeKind = "integer"
	KindDecimal   TypeKind = "decimal"
	KindDouble    TypeKind = "double"
	KindChar      TypeKind = "char"
	KindText      TypeKind = "text"
	KindBinary    TypeKind = "binary"
	KindDate      TypeKind = "date"
	KindDateTime  TypeKind = "datetime"
	KindTimestamp TypeKind = "timestamp"
	KindTime      TypeKind = "time"
	KindYear      TypeKind = "year"
	KindBoolean   TypeKind = "boolean"
	KindEnum      TypeKind = "enum"
	KindSet       TypeKind = "set"
	KindJSON      TypeKind = "json"
	KindOther     TypeKind = "other"
)

// MaxVarCharLength is the largest character width proposed as varchar before
// a column is promoted to text.
const MaxVarCharLength = 65535

// StorageType is the column type of a SchemaModel column. Name holds the
// canonical lower-case MySQL base type ("int", "varchar", "decimal", ...).
type StorageType struct {
	Kind      TypeKind `json:"kind"`
	Name      string   `json:"name"`
	Length    int      `json:"length,omitempty"`
	Precision int      `json:"precision,omitempty"`
	Scale     int      `json:"scale,omitempty"`
	Unsigned  bool     `json:"unsigned,omitempty"`
	Zerofill  bool     `json:"zerofill,omitempty"`
	Values    []string `json:"values,omitempty"`
}

// IntegerType returns an int column type with the given display width.
func IntegerType(width int) StorageType {
	return StorageType{Kind: KindInteger, Name: "int", Length: width}
}

// DecimalType returns a decimal(precision,scale) column type.
func DecimalType(precision, scale int) StorageType {
	return StorageType{Kind: KindDecimal, Name: "decimal", Precision: precision, Scale: scale}
}

// DoubleType returns a double column type.
func DoubleType() StorageType {
	return StorageType{Kind: KindDouble, Name: "double"}
}

// VarCharType returns a varchar(length) column type, or text when the length
// exceeds MaxVarCharLength.
func VarCharType(length int) StorageType {
	if length > MaxVarCharLength {
		return TextType()
	}
	return StorageType{Kind: KindChar, Name: "varchar", Length: length}
}

// TextType returns a text column type.
func TextType() StorageType {
	return StorageType{Kind: KindText, Name: "text"}
}

// BinaryType returns a varbinary(length) column type.
func BinaryType(length int) StorageType {
	return StorageType{Kind: KindBinary, Name: "varbinary", Length: length}
}

// DateTimeType returns a datetime column type.
func DateTimeType() StorageType {
	return StorageType{Kind: KindDateTime, Name: "datetime"}
}

// BooleanType returns the tinyint(1) representation MySQL uses for booleans.
func BooleanType() StorageType {
	return StorageType{Kind: KindBoolean, Name: "tinyint", Length: 1}
}

type typeAlias struct {
	name string
	kind TypeKind
}

var baseTypes = map[string]typeAlias{
	"tinyint":            {"tinyint", KindInteger},
	"smallint":           {"smallint", KindInteger},
	"mediumint":          {"mediumint", KindInteger},
	"int":                {"int", KindInteger},
	"integer":            {"int", KindInteger},
	"bigint":             {"bigint", KindInteger},
	"decimal":            {"decimal", KindDecimal},
	"dec":                {"decimal", KindDecimal},
	"numeric":            {"decimal", KindDecimal},
	"fixed":              {"decimal", KindDecimal},
	"float":              {"float", KindDouble},
	"double":             {"double", KindDouble},
	"double precision":   {"double", KindDouble},
	"real":               {"double", KindDouble},
	"char":               {"char", KindChar},
	"varchar":            {"varchar", KindChar},
	"character varying":  {"varchar", KindChar},
	"national varchar":   {"varchar", KindChar},
	"nvarchar":           {"varchar", KindChar},
	"tinytext":           {"tinytext", KindText},
	"text":               {"text", KindText},
	"mediumtext":         {"mediumtext", KindText},
	"longtext":           {"longtext", KindText},
	"binary":             {"binary", KindBinary},
	"varbinary":          {"varbinary", KindBinary},
	"tinyblob":           {"tinyblob", KindBinary},
	"blob":               {"blob", KindBinary},
	"mediumblob":         {"mediumblob", KindBinary},
	"longblob":           {"longblob", KindBinary},
	"date":               {"date", KindDate},
	"datetime":           {"datetime", KindDateTime},
	"timestamp":          {"timestamp", KindTimestamp},
	"time":               {"time", KindTime},
	"year":               {"year", KindYear},
	"bool":               {"tinyint", KindBoolean},
	"boolean":            {"tinyint", KindBoolean},
	"bit":                {"bit", KindInteger},
	"enum":               {"enum", KindEnum},
	"set":                {"set", KindSet},
	"json":               {"json", KindJSON},
	"character":          {"char", KindChar},
	"national character": {"char", KindChar},
}

var reTypeString = regexp.MustCompile(`(?is)^\s*([a-z][a-z ]*?)\s*(?:\((.*)\))?\s*((?:\s*(?:unsigned|signed|zerofill|binary))*)\s*$`)

// ParseStorageType parses a MySQL column type as reported by information_schema
// (COLUMN_TYPE) or by a CREATE TABLE statement, e.g. "int(10) unsigned",
// "decimal(12,2)", "enum('a','b')". Unknown base types are kept as KindOther
// with their raw name so they round-trip unchanged.
func ParseStorageType(raw string) (StorageType, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return StorageType{}, fmt.Errorf("empty column type")
	}

	m := reTypeString.FindStringSubmatch(trimmed)
	if m == nil {
		return StorageType{Kind: KindOther, Name: strings.ToLower(trimmed)}, nil
	}

	base := strings.Join(strings.Fields(strings.ToLower(m[1])), " ")
	args := strings.TrimSpace(m[2])
	flags := strings.ToLower(m[3])

	st := StorageType{Kind: KindOther, Name: base}
	if alias, ok := baseTypes[base]; ok {
		st.Kind = alias.kind
		st.Name = alias.name
	}
	st.Unsigned = strings.Contains(flags, "unsigned")
	st.Zerofill = strings.Contains(flags, "zerofill")
	if st.Zerofill {
		st.Unsigned = true
	}

	if base == "bool" || base == "boolean" {
		st.Length = 1
		return st, nil
	}

	switch st.Kind {
	case KindEnum, KindSet:
		st.Values = splitEnumValues(args)
		return st, nil
	case KindDecimal, KindDouble:
		if args == "" {
			return st, nil
		}
		p, s, err := parsePrecisionScale(args)
		if err != nil {
			return StorageType{}, fmt.Errorf("column type %q: %w", raw, err)
		}
		st.Precision, st.Scale = p, s
		return st, nil
	}

	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil {
			return StorageType{}, fmt.Errorf("column type %q: invalid length %q", raw, args)
		}
		st.Length = n
	}
	if st.Name == "tinyint" && st.Length == 1 && !st.Unsigned {
		st.Kind = KindBoolean
	}
	return st, nil
}

func parsePrecisionScale(args string) (int, int, error) {
	parts := strings.Split(args, ",")
	p, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid precision %q", parts[0])
	}
	if len(parts) == 1 {
		return p, 0, nil
	}
	s, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid scale %q", parts[1])
	}
	return p, s, nil
}

func splitEnumValues(args string) []string {
	var values []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(args); i++ {
		ch := args[i]
		switch {
		case ch == '\'' && inQuote && i+1 < len(args) && args[i+1] == '\'':
			cur.WriteByte('\'')
			i++
		case ch == '\'':
			inQuote = !inQuote
			if !inQuote {
				values = append(values, cur.String())
				cur.Reset()
			}
		case inQuote:
			cur.WriteByte(ch)
		}
	}
	return values
}

// String renders the type as it appears in a column definition.
func (t StorageType) String() string {
	var sb strings.Builder
	sb.WriteString(t.Name)

	switch t.Kind {
	case KindDecimal, KindDouble:
		if t.Precision > 0 {
			if t.Scale > 0 {
				fmt.Fprintf(&sb, "(%d,%d)", t.Precision, t.Scale)
			} else {
				fmt.Fprintf(&sb, "(%d)", t.Precision)
			}
		}
	case KindEnum, KindSet:
		sb.WriteByte('(')
		for i, v := range t.Values {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte('\'')
			sb.WriteString(strings.ReplaceAll(v, "'", "''"))
			sb.WriteByte('\'')
		}
		sb.WriteByte(')')
	default:
		if t.Length > 0 && t.acceptsLength() {
			fmt.Fprintf(&sb, "(%d)", t.Length)
		}
	}

	if t.Unsigned && t.IsNumeric() {
		sb.WriteString(" unsigned")
	}
	if t.Zerofill && t.IsNumeric() {
		sb.WriteString(" zerofill")
	}
	return sb.String()
}

func (t StorageType) acceptsLength() bool {
	switch t.Kind {
	case KindInteger, KindBoolean, KindChar, KindBinary, KindYear:
		return !strings.HasSuffix(t.Name, "blob")
	case KindDateTime, KindTimestamp, KindTime:
		return true
	case KindOther:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether values of this type are written as bare numbers.
func (t StorageType) IsNumeric() bool {
	switch t.Kind {
	case KindInteger, KindDecimal, KindDouble, KindBoolean, KindYear:
		return true
	default:
		return false
	}
}

// IsCharacter reports whether character set and collation apply to the type.
func (t StorageType) IsCharacter() bool {
	switch t.Kind {
	case KindChar, KindText, KindEnum, KindSet:
		return true
	default:
		return false
	}
}

// IsDateLike reports whether the type stores dates or times.
func (t StorageType) IsDateLike() bool {
	switch t.Kind {
	case KindDate, KindDateTime, KindTimestamp, KindTime:
		return true
	default:
		return false
	}
}

// RequiresQuotes reports whether literal values of this type must be single
// quoted in generated SQL. Numeric and boolean types are never quoted.
func (t StorageType) RequiresQuotes() bool {
	if t.IsNumeric() {
		return false
	}
	return t.Kind != KindOther || !strings.Contains(t.Name, "int")
}

// Equal compares two types by their canonical attributes.
func (t StorageType) Equal(o StorageType) bool {
	if t.Kind != o.Kind || t.Name != o.Name {
		return false
	}
	if t.Length != o.Length || t.Precision != o.Precision || t.Scale != o.Scale {
		return false
	}
	if t.Unsigned != o.Unsigned || t.Zerofill != o.Zerofill {
		return false
	}
	if len(t.Values) != len(o.Values) {
		return false
	}
	for i := range t.Values {
		if t.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}
