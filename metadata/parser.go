package metadata

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gaborage/sqlexpr/sqlerr"
)

const (
	customTag   = "sql"
	standardTag = "db"
)

// Tabler is the standard table-name convention: a TableName method on the entity type.
type Tabler interface {
	TableName() string
}

var tablerType = reflect.TypeOf((*Tabler)(nil)).Elem()

// parseEntity extracts table and column metadata from a struct type using reflection.
//
// Returns an error if:
//   - t is not a struct type
//   - any tag contains dangerous SQL characters or an invalid data type
func parseEntity(t reflect.Type, naming Naming) (*Entity, error) {
	if t.Kind() != reflect.Struct {
		return nil, sqlerr.InvalidUsage("metadata.Entity", "expects a struct type, got %s", t.Kind())
	}

	entity := &Entity{
		Type:    t,
		Columns: make([]ColumnInfo, 0, t.NumField()),
		byField: make(map[string]int),
	}

	table, err := parseTable(t, naming)
	if err != nil {
		return nil, err
	}
	entity.Table = table

	if err := collectColumns(entity, t, nil, naming); err != nil {
		return nil, err
	}
	return entity, nil
}

// parseTable applies the table precedence chain.
func parseTable(t reflect.Type, naming Naming) (Table, error) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Name != "_" {
			continue
		}
		tag, ok := field.Tag.Lookup(customTag)
		if !ok {
			continue
		}
		opts := parseOptions(tag)
		table := Table{Name: opts.value("table"), Schema: opts.value("schema"), Quote: opts.has("quote")}
		if err := validateName(table.Name, t.Name(), "table"); err != nil {
			return Table{}, err
		}
		if err := validateName(table.Schema, t.Name(), "schema"); err != nil {
			return Table{}, err
		}
		if table.Name == "" {
			table.Name = naming.table(t.Name())
		}
		return table, nil
	}

	if t.Implements(tablerType) || reflect.PointerTo(t).Implements(tablerType) {
		name := reflect.New(t).Interface().(Tabler).TableName()
		if name != "" {
			if err := validateName(name, t.Name(), "table"); err != nil {
				return Table{}, err
			}
			schema, table := splitSchema(name)
			return Table{Name: table, Schema: schema}, nil
		}
	}

	return Table{Name: naming.table(t.Name())}, nil
}

// collectColumns walks exported fields in declaration order. Untagged embedded structs are flattened.
func collectColumns(entity *Entity, t reflect.Type, index []int, naming Naming) error {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(append([]int(nil), index...), i)

		if !field.IsExported() {
			continue
		}

		custom, hasCustom := field.Tag.Lookup(customTag)
		standard, hasStandard := field.Tag.Lookup(standardTag)
		if custom == "-" || (!hasCustom && standard == "-") {
			continue
		}

		if field.Anonymous && !hasCustom && !hasStandard {
			ft := field.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if err := collectColumns(entity, ft, path, naming); err != nil {
					return err
				}
				continue
			}
		}

		col, err := parseColumn(field, path, naming)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", entity.Type.Name(), field.Name, err)
		}
		if _, dup := entity.byField[col.FieldName]; dup {
			continue
		}
		entity.Columns = append(entity.Columns, col)
		entity.byField[col.FieldName] = len(entity.Columns) - 1
	}
	return nil
}

// parseColumn applies the column precedence chain to a single field.
func parseColumn(field reflect.StructField, path []int, naming Naming) (ColumnInfo, error) {
	col := ColumnInfo{
		FieldName:  field.Name,
		Insertable: true,
		Updatable:  true,
		FieldIndex: path,
		FieldType:  field.Type,
	}

	if tag, ok := field.Tag.Lookup(customTag); ok {
		opts := parseOptions(tag)
		col.ColumnName = opts.value("column")
		col.Key = opts.has("key")
		col.Identity = opts.has("identity")
		col.Sequence = opts.value("sequence")
		col.Quote = opts.has("quote")
		if opts.value("insert") == "false" {
			col.Insertable = false
		}
		if opts.value("update") == "false" {
			col.Updatable = false
		}
		if dt := opts.value("type"); dt != "" {
			parsed, err := ParseDataType(dt)
			if err != nil {
				return ColumnInfo{}, sqlerr.InvalidUsage("metadata.Column", "%v", err)
			}
			col.DataType = parsed
		}
	}

	if col.ColumnName == "" {
		if tag, ok := field.Tag.Lookup(standardTag); ok {
			name, rest, _ := strings.Cut(tag, ",")
			col.ColumnName = strings.TrimSpace(name)
			for _, opt := range strings.Split(rest, ",") {
				if strings.TrimSpace(opt) == "pk" {
					col.Key = true
				}
			}
		}
	}

	if col.ColumnName == "" {
		col.ColumnName = naming.column(field.Name)
	}

	if err := validateName(col.ColumnName, field.Name, "column"); err != nil {
		return ColumnInfo{}, err
	}

	if col.Key {
		col.Updatable = false
		if col.Identity || col.Sequence != "" {
			col.Insertable = false
		}
	}
	return col, nil
}

// tagOptions holds the `key:value;flag` pairs of a custom tag.
type tagOptions map[string]string

func parseOptions(tag string) tagOptions {
	opts := tagOptions{}
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, ":")
		opts[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return opts
}

func (o tagOptions) value(key string) string {
	return o[key]
}

func (o tagOptions) has(key string) bool {
	v, ok := o[key]
	return ok && v != "false"
}

// validateName checks for dangerous characters that could indicate SQL injection attempts.
func validateName(name, owner, kind string) error {
	dangerous := []string{";", "--", "/*", "*/", `"`, "'", "`", "[", "]"}
	for _, d := range dangerous {
		if strings.Contains(name, d) {
			return sqlerr.InvalidUsage("metadata.Entity",
				"invalid %s name %q on %s: contains %q (quoting is applied automatically)", kind, name, owner, d)
		}
	}
	return nil
}

func splitSchema(name string) (schema, table string) {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
