// Package compiler translates expression trees into SQL fragments.
//
// Each clause kind has its own entry point. Fragments are returned as strings while
// parameters are bound into the statement buffer in emission order, so the caller
// appends fragments in the same order they were compiled.
package compiler

import (
	"reflect"
	"strings"

	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/expr"
	"github.com/gaborage/sqlexpr/metadata"
	"github.com/gaborage/sqlexpr/sqlerr"
	"github.com/gaborage/sqlexpr/statement"
)

// TableNameFunc rewrites the table name resolved from metadata, e.g. for sharded tables.
type TableNameFunc func(t reflect.Type, table string) string

// Compiler translates expressions for one statement buffer.
type Compiler struct {
	buf       *statement.Buffer
	resolver  *metadata.Resolver
	root      reflect.Type
	tableName TableNameFunc
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithResolver sets the metadata resolver. metadata.Default() is used otherwise.
func WithResolver(r *metadata.Resolver) Option {
	return func(c *Compiler) {
		if r != nil {
			c.resolver = r
		}
	}
}

// WithTableName installs a table-name rewrite.
func WithTableName(fn TableNameFunc) Option {
	return func(c *Compiler) { c.tableName = fn }
}

// New creates a compiler writing into buf. root is the entity type that members
// without an owning parameter refer to.
func New(buf *statement.Buffer, root reflect.Type, opts ...Option) *Compiler {
	for root != nil && root.Kind() == reflect.Pointer {
		root = root.Elem()
	}
	c := &Compiler{buf: buf, resolver: metadata.Default(), root: root}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Buffer returns the statement buffer the compiler writes into.
func (c *Compiler) Buffer() *statement.Buffer { return c.buf }

// Root returns the root entity type.
func (c *Compiler) Root() reflect.Type { return c.root }

// Resolver returns the metadata resolver.
func (c *Compiler) Resolver() *metadata.Resolver { return c.resolver }

// Entity returns the metadata of t.
func (c *Compiler) Entity(t reflect.Type) (*metadata.Entity, error) {
	return c.resolver.Entity(t)
}

// TableName returns the unquoted, schema-qualified table name of t after the rewrite hook.
// Tables flagged for quoting are registered as format columns.
func (c *Compiler) TableName(t reflect.Type) (string, error) {
	e, err := c.resolver.Entity(t)
	if err != nil {
		return "", err
	}
	name := e.Table.QualifiedName()
	if c.tableName != nil {
		name = c.tableName(e.Type, name)
	}
	if e.Table.Quote {
		c.buf.AddFormatColumn(name)
	}
	return name, nil
}

// Table returns the quoted table name of t.
func (c *Compiler) Table(t reflect.Type) (string, error) {
	name, err := c.TableName(t)
	if err != nil {
		return "", err
	}
	return c.buf.Quote(name), nil
}

// Column renders a member as a possibly aliased, possibly quoted column and
// caches the column's declared type.
func (c *Compiler) Column(m *expr.Member) (string, metadata.ColumnInfo, error) {
	t, preferred := c.root, ""
	if m.Owner != nil {
		t, preferred = m.Owner.Type, m.Owner.Name
	}
	if t == nil {
		return "", metadata.ColumnInfo{}, sqlerr.InvalidUsage("compiler.Column", "member %s has no entity type", m.Name)
	}
	col, err := c.resolver.Column(t, m.Name)
	if err != nil {
		return "", metadata.ColumnInfo{}, err
	}
	table, err := c.TableName(t)
	if err != nil {
		return "", metadata.ColumnInfo{}, err
	}
	alias := c.buf.ResolveAlias(table, preferred)
	if col.Quote {
		c.buf.AddFormatColumn(col.ColumnName)
	}
	c.buf.RegisterDataType(alias, col.ColumnName, col.DataType)
	return c.buf.QuoteQualified(alias, col.ColumnName), col, nil
}

func (c *Compiler) rootColumn(field string) (string, metadata.ColumnInfo, error) {
	return c.Column(expr.Field(field))
}

// body unwraps a lambda and folds every parameter-free sub-tree.
func body(e expr.Expr) expr.Expr {
	if l, ok := e.(*expr.Lambda); ok {
		e = l.Body
	}
	if e == nil {
		return nil
	}
	return expr.Fold(e)
}

// Select compiles a projection into a comma-separated field list.
// A nil expression, a bare parameter or a constant projects every column.
func (c *Compiler) Select(e expr.Expr) (string, error) {
	e = body(e)
	var fields []string
	switch v := e.(type) {
	case nil, *expr.Constant:
		fields = []string{"*"}
	case *expr.Param:
		f, err := c.star(v)
		if err != nil {
			return "", err
		}
		fields = []string{f}
	case *expr.Object:
		for _, b := range v.Bindings {
			f, err := c.projection(b.Name, b.Value)
			if err != nil {
				return "", err
			}
			fields = append(fields, f)
		}
	case *expr.NameList:
		for _, name := range v.Names {
			col, _, err := c.rootColumn(name)
			if err != nil {
				return "", err
			}
			fields = append(fields, col)
		}
	default:
		f, err := c.projection("", v)
		if err != nil {
			return "", err
		}
		fields = []string{f}
	}
	for _, f := range fields {
		c.buf.AddSelectField(f)
	}
	return strings.Join(fields, ","), nil
}

func (c *Compiler) star(p *expr.Param) (string, error) {
	if p.Type == nil || c.buf.SingleTable() {
		return "*", nil
	}
	table, err := c.TableName(p.Type)
	if err != nil {
		return "", err
	}
	if alias := c.buf.ResolveAlias(table, p.Name); alias != "" {
		return alias + ".*", nil
	}
	return "*", nil
}

// projection renders one projected value, aliased as name when name differs from the column.
func (c *Compiler) projection(name string, e expr.Expr) (string, error) {
	switch v := e.(type) {
	case *expr.Member:
		col, info, err := c.Column(v)
		if err != nil {
			return "", err
		}
		if name != "" && name != info.ColumnName {
			return col + " AS " + c.buf.Quote(name), nil
		}
		return col, nil
	case *expr.Param:
		return c.star(v)
	case *expr.RawSQL:
		return c.aliased(v.SQL, name), nil
	default:
		sql, err := c.value(e)
		if err != nil {
			return "", err
		}
		return c.aliased(sql, name), nil
	}
}

func (c *Compiler) aliased(sql, name string) string {
	if name == "" {
		return sql
	}
	return sql + " AS " + c.buf.Quote(name)
}

// Aggregate compiles fn(column). COUNT without a column counts rows.
func (c *Compiler) Aggregate(fn string, e expr.Expr) (string, error) {
	fn = strings.ToUpper(fn)
	e = body(e)
	if e == nil {
		if fn != "COUNT" {
			return "", sqlerr.InvalidUsage("compiler.Aggregate", "%s requires a column expression", fn)
		}
		return "COUNT(*)", nil
	}
	if _, ok := e.(*expr.Param); ok && fn == "COUNT" {
		return "COUNT(*)", nil
	}
	arg, err := c.value(e)
	if err != nil {
		return "", err
	}
	return fn + "(" + arg + ")", nil
}

// likeConcat builds a wildcard pattern around a non-constant operand.
func likeConcat(d dialect.Dialect, prefix, operand, suffix string) string {
	parts := make([]string, 0, 3)
	if prefix != "" {
		parts = append(parts, "'"+prefix+"'")
	}
	parts = append(parts, operand)
	if suffix != "" {
		parts = append(parts, "'"+suffix+"'")
	}
	switch d {
	case dialect.SQLServer:
		return strings.Join(parts, " + ")
	case dialect.MySQL:
		return "CONCAT(" + strings.Join(parts, ",") + ")"
	default:
		return strings.Join(parts, " || ")
	}
}
