package core

import (
	"fmt"
	"strconv"
	"strings"
)

// EditorKind tells a property editor which control to render for a field.
type EditorKind string

const (
	EditorText     EditorKind = "text"
	EditorNumber   EditorKind = "number"
	EditorCheckbox EditorKind = "checkbox"
	EditorChoice   EditorKind = "choice"
)

// FieldID identifies an editable property of a column or table.
type FieldID string

const (
	FieldName          FieldID = "name"
	FieldType          FieldID = "type"
	FieldNullable      FieldID = "nullable"
	FieldAutoIncrement FieldID = "autoIncrement"
	FieldPrimaryKey    FieldID = "primaryKey"
	FieldUniqueKey     FieldID = "uniqueKey"
	FieldUnsigned      FieldID = "unsigned"
	FieldZerofill      FieldID = "zerofill"
	FieldCharacterSet  FieldID = "characterSet"
	FieldCollation     FieldID = "collation"
	FieldDefaultValue  FieldID = "defaultValue"
	FieldComment       FieldID = "comment"
	FieldEngine        FieldID = "engine"
	FieldAutoIncStart  FieldID = "autoIncrementStart"
)

// FieldDescriptor describes one editable property for the UI layer.
type FieldDescriptor struct {
	ID       FieldID    `json:"id"`
	Label    string     `json:"label"`
	Category string     `json:"category"`
	Editor   EditorKind `json:"editor"`
}

var columnFields = []FieldDescriptor{
	{FieldName, "Column Name", "General", EditorText},
	{FieldType, "Data Type", "General", EditorChoice},
	{FieldPrimaryKey, "Primary Key", "Keys", EditorCheckbox},
	{FieldUniqueKey, "Unique Key", "Keys", EditorCheckbox},
	{FieldNullable, "Allow Null", "Options", EditorCheckbox},
	{FieldAutoIncrement, "Auto Increment", "Options", EditorCheckbox},
	{FieldUnsigned, "Unsigned", "Options", EditorCheckbox},
	{FieldZerofill, "Zero Fill", "Options", EditorCheckbox},
	{FieldDefaultValue, "Default Value", "Options", EditorText},
	{FieldCharacterSet, "Character Set", "Character Set", EditorChoice},
	{FieldCollation, "Collation", "Character Set", EditorChoice},
	{FieldComment, "Comment", "General", EditorText},
}

var tableFields = []FieldDescriptor{
	{FieldName, "Table Name", "General", EditorText},
	{FieldEngine, "Storage Engine", "Options", EditorChoice},
	{FieldCharacterSet, "Character Set", "Character Set", EditorChoice},
	{FieldCollation, "Collation", "Character Set", EditorChoice},
	{FieldAutoIncStart, "Auto Increment Start", "Options", EditorNumber},
	{FieldComment, "Comment", "General", EditorText},
}

// ColumnFields returns the property descriptors of a column, in display order.
func ColumnFields() []FieldDescriptor {
	return append([]FieldDescriptor(nil), columnFields...)
}

// TableFields returns the property descriptors of a table, in display order.
func TableFields() []FieldDescriptor {
	return append([]FieldDescriptor(nil), tableFields...)
}

// GetField returns the text form of a column property.
func (c *Column) GetField(id FieldID) (string, error) {
	switch id {
	case FieldName:
		return c.Name, nil
	case FieldType:
		return c.Type.String(), nil
	case FieldNullable:
		return strconv.FormatBool(c.Nullable), nil
	case FieldAutoIncrement:
		return strconv.FormatBool(c.AutoIncrement), nil
	case FieldPrimaryKey:
		return strconv.FormatBool(c.PrimaryKey), nil
	case FieldUniqueKey:
		return strconv.FormatBool(c.UniqueKey), nil
	case FieldUnsigned:
		return strconv.FormatBool(c.Type.Unsigned), nil
	case FieldZerofill:
		return strconv.FormatBool(c.Type.Zerofill), nil
	case FieldCharacterSet:
		return c.CharacterSet, nil
	case FieldCollation:
		return c.Collation, nil
	case FieldDefaultValue:
		if c.DefaultValue == nil {
			return "", nil
		}
		return *c.DefaultValue, nil
	case FieldComment:
		return c.Comment, nil
	default:
		return "", fmt.Errorf("column has no field %q", id)
	}
}

// SetColumnField edits a column property of t. Primary key changes go
// through the table so the key group and primary index stay in sync.
func (t *Table) SetColumnField(column string, id FieldID, value string) error {
	c := t.FindColumn(column)
	if c == nil {
		return fmt.Errorf("table %q: %w %q", t.Name, ErrColumnNotFound, column)
	}

	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return false, fmt.Errorf("field %q: %w", id, err)
		}
		return b, nil
	}

	switch id {
	case FieldName:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("column %w", ErrEmptyName)
		}
		if other := t.FindColumn(value); other != nil && other != c {
			return fmt.Errorf("table %q: %w %q", t.Name, ErrDuplicateColumn, value)
		}
		for _, idx := range t.Indexes {
			for i := range idx.Columns {
				if strings.EqualFold(idx.Columns[i].Name, c.Name) {
					idx.Columns[i].Name = value
				}
			}
		}
		c.Name = value
	case FieldType:
		st, err := ParseStorageType(value)
		if err != nil {
			return err
		}
		c.Type = st
		if !st.IsCharacter() {
			c.CharacterSet, c.Collation = "", ""
		}
	case FieldPrimaryKey:
		b, err := parseBool()
		if err != nil {
			return err
		}
		var names []string
		for _, pk := range t.PrimaryKeyColumns() {
			if pk != c {
				names = append(names, pk.Name)
			}
		}
		if b {
			names = append(names, c.Name)
		}
		return t.SetPrimaryKey(names...)
	case FieldNullable, FieldAutoIncrement, FieldUniqueKey, FieldUnsigned, FieldZerofill:
		b, err := parseBool()
		if err != nil {
			return err
		}
		t.setColumnFlag(c, id, b)
	case FieldCharacterSet:
		c.SetCharacterSet(value)
	case FieldCollation:
		return c.SetCollation(value)
	case FieldDefaultValue:
		if value == "" {
			c.DefaultValue = nil
		} else {
			v := value
			c.DefaultValue = &v
		}
	case FieldComment:
		c.Comment = value
	default:
		return fmt.Errorf("column has no field %q", id)
	}
	return nil
}

func (t *Table) setColumnFlag(c *Column, id FieldID, b bool) {
	switch id {
	case FieldNullable:
		c.Nullable = b && !c.PrimaryKey
	case FieldAutoIncrement:
		c.AutoIncrement = b
	case FieldUniqueKey:
		c.UniqueKey = b
	case FieldUnsigned:
		c.Type.Unsigned = b
		if !b {
			c.Type.Zerofill = false
		}
	case FieldZerofill:
		c.Type.Zerofill = b
		if b {
			c.Type.Unsigned = true
		}
	}
}

// SetTableField edits a table-level property.
func (t *Table) SetTableField(id FieldID, value string) error {
	switch id {
	case FieldName:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("table %w", ErrEmptyName)
		}
		t.Name = value
	case FieldEngine:
		t.Engine = value
	case FieldCharacterSet:
		t.SetCharacterSet(value)
	case FieldCollation:
		return t.SetCollation(value)
	case FieldAutoIncStart:
		if value == "" {
			t.AutoIncrementStart = 0
			return nil
		}
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("field %q: %w", id, err)
		}
		t.AutoIncrementStart = n
	case FieldComment:
		t.Comment = value
	default:
		return fmt.Errorf("table has no field %q", id)
	}
	return nil
}
