// Package metadata resolves table and column names for entity types.
//
// Resolution follows a precedence chain, applied independently to the table and to each column:
//
//  1. the custom `sql` tag (on a blank `_` field for the table, on each field for columns)
//  2. the standard convention: a TableName() method for the table, the sqlx `db` tag for columns
//  3. the Go type or field name, passed through the resolver's naming strategy
//
// Example:
//
//	type UserInfo struct {
//	    _     struct{} `sql:"table:Base_UserInfo;schema:dbo"`
//	    ID    int64    `sql:"column:Id;key;identity"`
//	    Name  *string  `db:"Name"`
//	    Email string   `sql:"type:nvarchar(100)"`
//	    Level int      `sql:"quote"`
//	}
package metadata

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// DataType is an explicitly declared native parameter type (e.g. nvarchar(50)).
type DataType struct {
	Name string
	Size int
}

// String renders the type the way it was declared.
func (d DataType) String() string {
	if d.Size > 0 {
		return d.Name + "(" + strconv.Itoa(d.Size) + ")"
	}
	return d.Name
}

// ParseDataType parses "name" or "name(size)".
func ParseDataType(s string) (*DataType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty data type")
	}
	open := strings.Index(s, "(")
	if open < 0 {
		return &DataType{Name: s}, nil
	}
	if !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("data type %q: missing closing parenthesis", s)
	}
	size, err := strconv.Atoi(strings.TrimSpace(s[open+1 : len(s)-1]))
	if err != nil {
		return nil, fmt.Errorf("data type %q: invalid size: %w", s, err)
	}
	return &DataType{Name: strings.TrimSpace(s[:open]), Size: size}, nil
}

// ColumnInfo describes one mapped struct field.
type ColumnInfo struct {
	// FieldName is the Go struct field name (e.g. "UserID")
	FieldName string

	// ColumnName is the unquoted database column name
	ColumnName string

	Insertable bool
	Updatable  bool

	// Key marks primary-key membership; Identity and Sequence mark database-generated keys.
	Key      bool
	Identity bool
	Sequence string

	// DataType is the optional declared parameter type.
	DataType *DataType

	// Quote forces identifier quoting regardless of the global format flag.
	Quote bool

	// FieldIndex is the reflect index path of the field (embedded structs are flattened).
	FieldIndex []int

	FieldType reflect.Type
}

// Table describes the table an entity maps to.
type Table struct {
	Name   string
	Schema string
	Quote  bool
}

// QualifiedName returns schema.name, or name when no schema is set.
func (t Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Entity is the cached metadata of one struct type.
type Entity struct {
	Type    reflect.Type
	Table   Table
	Columns []ColumnInfo

	byField map[string]int
}

// Column retrieves the column mapped from fieldName.
func (e *Entity) Column(fieldName string) (ColumnInfo, bool) {
	i, ok := e.byField[fieldName]
	if !ok {
		return ColumnInfo{}, false
	}
	return e.Columns[i], true
}

// Keys returns the primary-key columns in declaration order.
func (e *Entity) Keys() []ColumnInfo {
	keys := make([]ColumnInfo, 0, 1)
	for _, col := range e.Columns {
		if col.Key {
			keys = append(keys, col)
		}
	}
	return keys
}

// Value extracts the field value of col from an entity instance (struct or pointer to struct).
// It returns nil for nil pointers along the embedded path.
func (e *Entity) Value(entity reflect.Value, col ColumnInfo) any {
	for entity.Kind() == reflect.Pointer {
		if entity.IsNil() {
			return nil
		}
		entity = entity.Elem()
	}
	field, err := entity.FieldByIndexErr(col.FieldIndex)
	if err != nil {
		return nil
	}
	return field.Interface()
}

// availableFieldsForError returns a comma-separated list of available field names
// for error messages.
func (e *Entity) availableFieldsForError() string {
	fields := make([]string, 0, len(e.Columns))
	for _, col := range e.Columns {
		fields = append(fields, col.FieldName)
	}
	return strings.Join(fields, ", ")
}
