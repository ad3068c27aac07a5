// Package builder sequences compiled clauses into complete statements.
//
// A Builder is created per statement kind through the package-level entry points:
//
//	u := expr.Of[UserInfo]("u")
//	sql, params, err := builder.Select[UserInfo](expr.Pick(u.Field("Id"), u.Field("Name"))).
//		Where(expr.Gt(u.Field("Id"), 2)).
//		OrderBy(u.Field("Name")).
//		Build()
//
// Errors are sticky: the first failure is kept, later calls are no-ops and Build
// returns it. A Builder is not safe for concurrent use.
package builder

import (
	"reflect"

	"github.com/Masterminds/squirrel"
	"github.com/gaborage/sqlexpr/compiler"
	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/expr"
	"github.com/gaborage/sqlexpr/metadata"
	"github.com/gaborage/sqlexpr/sqlerr"
	"github.com/gaborage/sqlexpr/statement"
)

// Builder builds one statement over the entity type T.
type Builder[T any] struct {
	opts options
	buf  *statement.Buffer
	comp *compiler.Compiler
	root reflect.Type

	// entity is the value passed to Update, used by WithKey without arguments.
	entity any

	hasWhere    bool
	rawAppended bool
	err         error
}

var _ squirrel.Sqlizer = (*Builder[struct{}])(nil)

// New creates an empty builder for T.
func New[T any](opts ...Option) *Builder[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	root := metadata.TypeOf[T]()
	buf := statement.New(o.dialect,
		statement.WithFormat(o.format),
		statement.WithNullValueAssignment(o.allowNull),
		statement.WithReservedWordQuoting(o.quoteReserved))

	b := &Builder[T]{
		opts: o,
		buf:  buf,
		comp: compiler.New(buf, root, compiler.WithResolver(o.resolver), compiler.WithTableName(o.tableName)),
		root: root,
		err:  o.err,
	}
	if b.err == nil && !o.dialect.Valid() {
		b.err = sqlerr.UnsupportedDialect("builder.New", o.dialect)
	}
	return b
}

// Select starts a SELECT over T. A nil projection selects every column.
func Select[T any](sel expr.Expr, opts ...Option) *Builder[T] {
	return New[T](opts...).Select(sel)
}

// Insert starts an INSERT of value: an entity, a slice of entities or an expr.Object.
func Insert[T any](value any, opts ...Option) *Builder[T] {
	return New[T](opts...).Insert(value)
}

// Update starts an UPDATE assigning value: an entity or an expr.Object.
func Update[T any](value any, opts ...Option) *Builder[T] {
	return New[T](opts...).Update(value)
}

// Delete starts a DELETE from T's table.
func Delete[T any](opts ...Option) *Builder[T] {
	return New[T](opts...).Delete()
}

// Count starts SELECT COUNT(..) FROM T. A nil column counts rows.
func Count[T any](column expr.Expr, opts ...Option) *Builder[T] {
	return New[T](opts...).Count(column)
}

// Max starts SELECT MAX(column) FROM T.
func Max[T any](column expr.Expr, opts ...Option) *Builder[T] {
	return New[T](opts...).Max(column)
}

// Min starts SELECT MIN(column) FROM T.
func Min[T any](column expr.Expr, opts ...Option) *Builder[T] {
	return New[T](opts...).Min(column)
}

// Avg starts SELECT AVG(column) FROM T.
func Avg[T any](column expr.Expr, opts ...Option) *Builder[T] {
	return New[T](opts...).Avg(column)
}

// Sum starts SELECT SUM(column) FROM T.
func Sum[T any](column expr.Expr, opts ...Option) *Builder[T] {
	return New[T](opts...).Sum(column)
}

// Dialect returns the dialect the builder renders for.
func (b *Builder[T]) Dialect() dialect.Dialect { return b.opts.dialect }

// Buffer exposes the underlying statement buffer.
func (b *Builder[T]) Buffer() *statement.Buffer { return b.buf }

// Err returns the first error recorded by the builder.
func (b *Builder[T]) Err() error { return b.err }

// Build finalizes the statement. Untyped parameters are re-typed from the column
// metadata they are compared with, then the intercept hook may rewrite the SQL.
func (b *Builder[T]) Build() (string, *statement.Parameters, error) {
	if b.err != nil {
		b.opts.logger.Debug().Err(b.err).Msg("statement build failed")
		return "", nil, b.err
	}

	b.buf.RetypeParameters()
	sql := b.buf.Text()
	params := b.buf.Parameters()
	if b.opts.intercept != nil {
		if rewritten := b.opts.intercept(sql, params); rewritten != "" {
			sql = rewritten
		}
	}

	b.opts.logger.Debug().
		Stringer("dialect", b.opts.dialect).
		Stringer("kind", b.buf.Kind()).
		Str("sql", sql).
		Interface("parameters", params.Map()).
		Msg("statement built")
	return sql, params, nil
}

// SQL returns the built statement text, or "" when the builder failed.
func (b *Builder[T]) SQL() string {
	sql, _, _ := b.Build()
	return sql
}

// Parameters returns the bound parameters in binding order.
func (b *Builder[T]) Parameters() *statement.Parameters {
	return b.buf.Parameters()
}

// ToSql implements squirrel.Sqlizer. Parameter tokens are replaced with "?" so the
// statement nests into squirrel queries, which apply their own placeholder format.
func (b *Builder[T]) ToSql() (string, []any, error) {
	sql, params, err := b.Build()
	if err != nil {
		return "", nil, err
	}
	sql, args := statement.Positional(sql, params)
	return sql, args, nil
}

func (b *Builder[T]) failed() bool { return b.err != nil }

func (b *Builder[T]) fail(err error) *Builder[T] {
	if b.err == nil {
		b.err = err
	}
	return b
}

// reset starts a whole-statement operation of kind k on an empty buffer.
func (b *Builder[T]) reset(k statement.Kind) {
	b.buf.Clear()
	b.buf.SetKind(k)
	b.hasWhere = false
	b.rawAppended = false
	b.entity = nil
}

// rootTable returns the quoted table of T.
func (b *Builder[T]) rootTable() (string, error) {
	return b.comp.Table(b.root)
}
