package builder

import (
	"github.com/gaborage/sqlexpr/expr"
	"github.com/gaborage/sqlexpr/statement"
)

// Insert replaces the statement with "INSERT INTO <table> (<columns>) VALUES (..)".
// A slice of entities produces one value group per element.
func (b *Builder[T]) Insert(value any) *Builder[T] {
	if b.failed() {
		return b
	}
	b.reset(statement.KindInsert)

	values, err := b.comp.Insert(value)
	if err != nil {
		return b.fail(err)
	}
	table, err := b.rootTable()
	if err != nil {
		return b.fail(err)
	}
	b.buf.Append("INSERT INTO ", table, " ", values.String())
	return b
}

// Update replaces the statement with "UPDATE <table> SET ..". When value is an
// entity, WithKey without arguments filters by that entity's key.
func (b *Builder[T]) Update(value any) *Builder[T] {
	if b.failed() {
		return b
	}
	b.reset(statement.KindUpdate)

	sets, err := b.comp.Update(value)
	if err != nil {
		return b.fail(err)
	}
	table, err := b.rootTable()
	if err != nil {
		return b.fail(err)
	}
	b.buf.Append("UPDATE ", table, " SET ", sets)
	if _, isExpr := value.(expr.Expr); !isExpr {
		b.entity = value
	}
	return b
}

// Delete replaces the statement with "DELETE FROM <table>".
func (b *Builder[T]) Delete() *Builder[T] {
	if b.failed() {
		return b
	}
	b.reset(statement.KindDelete)

	table, err := b.rootTable()
	if err != nil {
		return b.fail(err)
	}
	b.buf.Append("DELETE FROM ", table)
	return b
}

// Count replaces the statement with SELECT COUNT(..) FROM <table>.
func (b *Builder[T]) Count(column expr.Expr) *Builder[T] {
	return b.aggregate(expr.MethodCount, column)
}

// Max replaces the statement with SELECT MAX(column) FROM <table>.
func (b *Builder[T]) Max(column expr.Expr) *Builder[T] {
	return b.aggregate(expr.MethodMax, column)
}

// Min replaces the statement with SELECT MIN(column) FROM <table>.
func (b *Builder[T]) Min(column expr.Expr) *Builder[T] {
	return b.aggregate(expr.MethodMin, column)
}

// Avg replaces the statement with SELECT AVG(column) FROM <table>.
func (b *Builder[T]) Avg(column expr.Expr) *Builder[T] {
	return b.aggregate(expr.MethodAvg, column)
}

// Sum replaces the statement with SELECT SUM(column) FROM <table>.
func (b *Builder[T]) Sum(column expr.Expr) *Builder[T] {
	return b.aggregate(expr.MethodSum, column)
}

func (b *Builder[T]) aggregate(fn string, column expr.Expr) *Builder[T] {
	if b.failed() {
		return b
	}
	b.reset(statement.KindAggregate)

	sql, err := b.comp.Aggregate(fn, column)
	if err != nil {
		return b.fail(err)
	}
	table, err := b.rootTable()
	if err != nil {
		return b.fail(err)
	}
	b.buf.Append("SELECT ", sql, " FROM ", table)
	return b
}
