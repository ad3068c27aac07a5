package compiler

import (
	"reflect"
	"strings"

	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/expr"
	"github.com/gaborage/sqlexpr/metadata"
	"github.com/gaborage/sqlexpr/sqlerr"
)

// InsertValues holds the compiled column list and one value group per inserted row.
type InsertValues struct {
	Columns []string
	Rows    [][]string
}

// String renders "(c1,c2) VALUES (v1,v2),(v3,v4)".
func (iv InsertValues) String() string {
	groups := make([]string, len(iv.Rows))
	for i, row := range iv.Rows {
		groups[i] = "(" + strings.Join(row, ",") + ")"
	}
	return "(" + strings.Join(iv.Columns, ",") + ") VALUES " + strings.Join(groups, ",")
}

// Insert compiles the column and value lists of an INSERT. value is an entity
// (struct or pointer), a slice of entities, or an expr.Object.
//
// Single rows skip null members unless null-value assignment is enabled. Batches keep
// every insertable column so the groups line up; their nulls become NULL literals.
// On Oracle, sequence-bound keys insert <sequence>.NEXTVAL.
func (c *Compiler) Insert(value any) (InsertValues, error) {
	const op = "compiler.Insert"
	if e, ok := value.(expr.Expr); ok {
		e = body(e)
		switch v := e.(type) {
		case *expr.Object:
			return c.insertObject(v)
		case *expr.Constant:
			return c.Insert(v.Value)
		}
		return InsertValues{}, sqlerr.UnsupportedExpression(op, describe(e))
	}

	rv, err := entityValue(value, op)
	if err != nil {
		return InsertValues{}, err
	}
	ent, err := c.resolver.Entity(c.root)
	if err != nil {
		return InsertValues{}, err
	}

	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() == 0 {
			return InsertValues{}, sqlerr.InvalidUsage(op, "batch insert requires at least one entity")
		}
		var out InsertValues
		for i := 0; i < rv.Len(); i++ {
			cols, row, err := c.insertRow(ent, rv.Index(i), true)
			if err != nil {
				return InsertValues{}, err
			}
			out.Columns = cols
			out.Rows = append(out.Rows, row)
		}
		return out, nil
	}

	cols, row, err := c.insertRow(ent, rv, c.buf.AllowNullValueAssignment())
	if err != nil {
		return InsertValues{}, err
	}
	if len(cols) == 0 {
		return InsertValues{}, sqlerr.InvalidUsage(op, "entity %s has no insertable values", ent.Type.Name())
	}
	return InsertValues{Columns: cols, Rows: [][]string{row}}, nil
}

func (c *Compiler) insertRow(ent *metadata.Entity, rv reflect.Value, keepNull bool) ([]string, []string, error) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil, sqlerr.InvalidUsage("compiler.Insert", "entity is nil")
		}
		rv = rv.Elem()
	}
	if rv.Type() != ent.Type {
		return nil, nil, sqlerr.InvalidUsage("compiler.Insert", "value of type %s does not match entity %s", rv.Type(), ent.Type)
	}

	var cols, vals []string
	for _, col := range ent.Columns {
		if col.Sequence != "" && c.buf.Dialect() == dialect.Oracle {
			cols = append(cols, c.columnName(col))
			vals = append(vals, c.buf.Quote(col.Sequence)+".NEXTVAL")
			continue
		}
		if !col.Insertable {
			continue
		}
		v := ent.Value(rv, col)
		if expr.IsNull(v) && !keepNull {
			continue
		}
		cols = append(cols, c.columnName(col))
		vals = append(vals, c.buf.BindParameter(v, col.DataType))
	}
	return cols, vals, nil
}

func (c *Compiler) insertObject(o *expr.Object) (InsertValues, error) {
	var cols, vals []string
	for _, b := range o.Bindings {
		col, err := c.resolver.Column(c.root, b.Name)
		if err != nil {
			return InsertValues{}, err
		}
		if !col.Insertable {
			continue
		}
		v, keep, err := c.assignment(col, b.Value)
		if err != nil {
			return InsertValues{}, err
		}
		if !keep {
			continue
		}
		cols = append(cols, c.columnName(col))
		vals = append(vals, v)
	}
	if len(cols) == 0 {
		return InsertValues{}, sqlerr.InvalidUsage("compiler.Insert", "no insertable values")
	}
	return InsertValues{Columns: cols, Rows: [][]string{vals}}, nil
}

// Update compiles the SET list of an UPDATE from an entity or an expr.Object.
// Object values may be expressions over the entity's own columns.
func (c *Compiler) Update(value any) (string, error) {
	const op = "compiler.Update"
	var sets []string

	if e, ok := value.(expr.Expr); ok {
		e = body(e)
		o, ok := e.(*expr.Object)
		if !ok {
			if k, isConst := e.(*expr.Constant); isConst {
				return c.Update(k.Value)
			}
			return "", sqlerr.UnsupportedExpression(op, describe(e))
		}
		for _, b := range o.Bindings {
			col, err := c.resolver.Column(c.root, b.Name)
			if err != nil {
				return "", err
			}
			if !col.Updatable {
				continue
			}
			v, keep, err := c.assignment(col, b.Value)
			if err != nil {
				return "", err
			}
			if keep {
				sets = append(sets, c.columnName(col)+" = "+v)
			}
		}
	} else {
		rv, err := entityValue(value, op)
		if err != nil {
			return "", err
		}
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			return "", sqlerr.InvalidUsage(op, "batch update is not supported")
		}
		ent, err := c.resolver.Entity(c.root)
		if err != nil {
			return "", err
		}
		for _, col := range ent.Columns {
			if !col.Updatable {
				continue
			}
			v := ent.Value(rv, col)
			if expr.IsNull(v) && !c.buf.AllowNullValueAssignment() {
				continue
			}
			sets = append(sets, c.columnName(col)+" = "+c.buf.BindParameter(v, col.DataType))
		}
	}

	if len(sets) == 0 {
		return "", sqlerr.InvalidUsage(op, "no updatable values")
	}
	return strings.Join(sets, ","), nil
}

// assignment renders the value assigned to col. keep is false for null constants
// when null-value assignment is disabled.
func (c *Compiler) assignment(col metadata.ColumnInfo, e expr.Expr) (string, bool, error) {
	if k, ok := e.(*expr.Constant); ok {
		if expr.IsNull(k.Value) && !c.buf.AllowNullValueAssignment() {
			return "", false, nil
		}
		return c.buf.BindParameter(k.Value, col.DataType), true, nil
	}
	v, err := c.value(e)
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *Compiler) columnName(col metadata.ColumnInfo) string {
	if col.Quote {
		c.buf.AddFormatColumn(col.ColumnName)
	}
	return c.buf.Quote(col.ColumnName)
}

// entityValue validates an entity argument and strips pointers from it.
func entityValue(value any, op string) (reflect.Value, error) {
	if expr.IsNull(value) {
		return reflect.Value{}, sqlerr.InvalidUsage(op, "entity is nil")
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct, reflect.Slice, reflect.Array:
		return rv, nil
	}
	return reflect.Value{}, sqlerr.InvalidUsage(op, "expected a struct, pointer to struct or slice, got %s", rv.Type())
}
