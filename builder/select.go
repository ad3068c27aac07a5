package builder

import (
	"reflect"
	"strconv"

	"github.com/gaborage/sqlexpr/compiler"
	"github.com/gaborage/sqlexpr/expr"
	"github.com/gaborage/sqlexpr/sqlerr"
	"github.com/gaborage/sqlexpr/statement"
)

// JoinKind selects the join operator.
type JoinKind string

const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	JoinRight JoinKind = "RIGHT"
	JoinFull  JoinKind = "FULL"
)

// Select projects sel from T. Projections over several entity types make the statement
// multi-table: every table is aliased by its parameter name and the FROM clause reads
// "FROM <table> AS <alias>". Calling Select on a non-empty builder starts over.
func (b *Builder[T]) Select(sel expr.Expr) *Builder[T] {
	const op = "builder.Select"
	if b.failed() {
		return b
	}
	if b.buf.Len() > 0 {
		b.reset(statement.KindSelect)
	}
	b.buf.SetKind(statement.KindSelect)

	params := lambdaParams(sel)
	if len(distinctTypes(params)) > 1 {
		b.buf.SetSingleTable(false)
		for i, p := range params {
			if err := b.bindAlias(op, p.Type, aliasName(p, i)); err != nil {
				return b.fail(err)
			}
		}
	}

	fields, err := b.comp.Select(sel)
	if err != nil {
		return b.fail(err)
	}
	table, err := b.rootTable()
	if err != nil {
		return b.fail(err)
	}

	b.buf.Append("SELECT ", fields, " FROM ", table)
	if !b.buf.SingleTable() {
		name, _ := b.comp.TableName(b.root)
		if alias := b.buf.ResolveAlias(name); alias != "" {
			b.buf.Append(" AS ", alias)
		}
	}
	b.buf.MarkJoined(b.root)
	return b
}

// InnerJoin appends an INNER JOIN whose target is taken from the parameters of on.
func (b *Builder[T]) InnerJoin(on expr.Expr) *Builder[T] { return b.Join(JoinInner, on) }

// LeftJoin appends a LEFT JOIN.
func (b *Builder[T]) LeftJoin(on expr.Expr) *Builder[T] { return b.Join(JoinLeft, on) }

// RightJoin appends a RIGHT JOIN.
func (b *Builder[T]) RightJoin(on expr.Expr) *Builder[T] { return b.Join(JoinRight, on) }

// FullJoin appends a FULL JOIN.
func (b *Builder[T]) FullJoin(on expr.Expr) *Builder[T] { return b.Join(JoinFull, on) }

// Join appends "<kind> JOIN <table> AS <alias> ON <on>".
//
// The target is the last parameter type of on, other than T, that is not joined yet;
// when all are joined it is the last one. This lets a chain of joins name every
// table in each ON expression without repeating which one is new. A single-table
// statement is switched to aliased form first.
func (b *Builder[T]) Join(kind JoinKind, on expr.Expr) *Builder[T] {
	const op = "builder.Join"
	if b.failed() {
		return b
	}
	if b.buf.Kind() != statement.KindSelect || b.buf.Len() == 0 {
		return b.fail(sqlerr.InvalidUsage(op, "join requires a preceding Select"))
	}

	params := lambdaParams(on)
	var candidates []reflect.Type
	for _, t := range distinctTypes(params) {
		if t != b.root {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return b.fail(sqlerr.InvalidUsage(op, "on expression must reference an entity other than %s", b.root.Name()))
	}
	target := candidates[len(candidates)-1]
	for i := len(candidates) - 1; i >= 0; i-- {
		if !b.buf.IsJoined(candidates[i]) {
			target = candidates[i]
			break
		}
	}

	if b.buf.SingleTable() {
		if err := b.aliasRoot(op, params); err != nil {
			return b.fail(err)
		}
	}
	for i, p := range params {
		if err := b.bindAlias(op, p.Type, aliasName(p, i)); err != nil {
			return b.fail(err)
		}
	}

	cond, err := b.comp.Join(on)
	if err != nil {
		return b.fail(err)
	}
	name, err := b.comp.TableName(target)
	if err != nil {
		return b.fail(err)
	}

	b.buf.Append(" ", string(kind), " JOIN ", b.buf.Quote(name), " AS ", b.buf.ResolveAlias(name), " ON ", cond)
	b.buf.MarkJoined(target)
	return b
}

// aliasRoot rewrites "FROM <table>" to "FROM <table> AS <alias>" and leaves single-table mode.
func (b *Builder[T]) aliasRoot(op string, params []*expr.Param) error {
	alias := statement.DefaultAlias
	for i, p := range params {
		if p.Type == b.root {
			alias = aliasName(p, i)
			break
		}
	}

	name, err := b.comp.TableName(b.root)
	if err != nil {
		return err
	}
	b.buf.SetSingleTable(false)
	if err := b.bindAlias(op, b.root, alias); err != nil {
		return err
	}
	table := b.buf.Quote(name)
	if !b.buf.ReplaceFirst("FROM "+table, "FROM "+table+" AS "+b.buf.ResolveAlias(name)) {
		return sqlerr.InvalidUsage(op, "statement has no FROM %s clause to alias", table)
	}
	return nil
}

// bindAlias binds alias to t's table. A table keeps the first alias it received.
func (b *Builder[T]) bindAlias(op string, t reflect.Type, alias string) error {
	name, err := b.comp.TableName(t)
	if err != nil {
		return err
	}
	if !b.buf.SetAlias(name, alias) && b.buf.ResolveAlias(name) == "" {
		return sqlerr.InvalidUsage(op, "alias %s is already bound to another table", alias)
	}
	return nil
}

// Where filters the statement. The first predicate opens the WHERE clause, later
// ones are joined with AND. A literal true predicate adds nothing.
//
// hasWhere, when given, states whether a WHERE clause already exists and overrides
// the builder's own tracking.
func (b *Builder[T]) Where(pred expr.Expr, hasWhere ...bool) *Builder[T] {
	return b.where("builder.Where", "AND", pred, hasWhere)
}

// AndWhere joins pred with AND, or opens the WHERE clause when there is none.
func (b *Builder[T]) AndWhere(pred expr.Expr, hasWhere ...bool) *Builder[T] {
	return b.where("builder.AndWhere", "AND", pred, hasWhere)
}

// OrWhere joins pred with OR, or opens the WHERE clause when there is none.
func (b *Builder[T]) OrWhere(pred expr.Expr, hasWhere ...bool) *Builder[T] {
	return b.where("builder.OrWhere", "OR", pred, hasWhere)
}

// WhereIf applies Where only when cond is true.
func (b *Builder[T]) WhereIf(cond bool, pred expr.Expr, hasWhere ...bool) *Builder[T] {
	if !cond {
		return b
	}
	return b.Where(pred, hasWhere...)
}

// AndWhereIf applies AndWhere only when cond is true.
func (b *Builder[T]) AndWhereIf(cond bool, pred expr.Expr, hasWhere ...bool) *Builder[T] {
	if !cond {
		return b
	}
	return b.AndWhere(pred, hasWhere...)
}

// OrWhereIf applies OrWhere only when cond is true.
func (b *Builder[T]) OrWhereIf(cond bool, pred expr.Expr, hasWhere ...bool) *Builder[T] {
	if !cond {
		return b
	}
	return b.OrWhere(pred, hasWhere...)
}

func (b *Builder[T]) where(op, connector string, pred expr.Expr, hasWhere []bool) *Builder[T] {
	if b.failed() {
		return b
	}
	if b.buf.Kind() == statement.KindInsert {
		return b.fail(sqlerr.InvalidUsage(op, "INSERT statements take no WHERE clause"))
	}

	// Fold once so closures are evaluated a single time.
	folded := unwrap(pred)
	if folded != nil {
		folded = expr.Fold(folded)
	}
	sql, err := b.comp.Where(folded)
	if err != nil {
		return b.fail(err)
	}
	if sql == "" {
		return b
	}
	b.appendCondition(connector, sql, isLogical(folded), hasWhere)
	return b
}

// appendCondition writes cond after WHERE, or after connector when a WHERE clause
// exists. Compound conditions are parenthesized when joined.
func (b *Builder[T]) appendCondition(connector, cond string, compound bool, hasWhere []bool) {
	if b.whereOpen(hasWhere) {
		if compound {
			cond = "(" + cond + ")"
		}
		b.buf.Append(" ", connector, " ", cond)
	} else {
		b.buf.Append(" WHERE ", cond)
	}
	b.hasWhere = true
}

// whereOpen reports whether a WHERE clause exists. An explicit flag passed to the
// current call wins; raw SQL appended by AppendSQL forces a text scan.
func (b *Builder[T]) whereOpen(hasWhere []bool) bool {
	if len(hasWhere) > 0 {
		return hasWhere[0]
	}
	if b.rawAppended {
		return b.buf.HasWhereClause()
	}
	return b.hasWhere
}

// WithKey filters by primary key. Values are taken from an entity of type T, from the
// entity passed to Update when none are given, or positionally. Positional values
// beyond the key count are ignored.
func (b *Builder[T]) WithKey(values ...any) *Builder[T] {
	const op = "builder.WithKey"
	if b.failed() {
		return b
	}
	switch b.buf.Kind() {
	case statement.KindSelect, statement.KindUpdate, statement.KindDelete:
	default:
		return b.fail(sqlerr.InvalidUsage(op, "only SELECT, UPDATE and DELETE statements accept a key filter, not %s", b.buf.Kind()))
	}

	ent, err := b.comp.Entity(b.root)
	if err != nil {
		return b.fail(err)
	}
	keys := ent.Keys()
	if len(keys) == 0 {
		return b.fail(sqlerr.InvalidUsage(op, "entity %s has no primary key", b.root.Name()))
	}

	source := b.entity
	if len(values) == 1 && b.isEntity(values[0]) {
		source = values[0]
	} else if len(values) > 0 {
		source = nil
	}

	keyValues := make([]any, len(keys))
	switch {
	case source != nil:
		rv := reflect.ValueOf(source)
		for i, key := range keys {
			keyValues[i] = ent.Value(rv, key)
		}
	case len(values) == 0:
		return b.fail(sqlerr.InvalidUsage(op, "key values or an entity are required"))
	case len(values) < len(keys):
		return b.fail(sqlerr.InvalidUsage(op, "entity %s has %d key columns, got %d values", b.root.Name(), len(keys), len(values)))
	default:
		copy(keyValues, values)
	}

	for i, key := range keys {
		if expr.IsNull(keyValues[i]) {
			return b.fail(sqlerr.InvalidUsage(op, "key %s is null", key.FieldName))
		}
		col, info, err := b.comp.Column(expr.Field(key.FieldName))
		if err != nil {
			return b.fail(err)
		}
		v, _ := expr.Normalize(keyValues[i])
		b.appendCondition("AND", col+" = "+b.buf.BindParameter(v, info.DataType), false, nil)
	}
	return b
}

func (b *Builder[T]) isEntity(v any) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t == b.root
}

// GroupBy appends a GROUP BY clause.
func (b *Builder[T]) GroupBy(fields expr.Expr) *Builder[T] {
	if b.failed() {
		return b
	}
	sql, err := b.comp.GroupBy(fields)
	if err != nil {
		return b.fail(err)
	}
	b.buf.Append(" GROUP BY ", sql)
	return b
}

// Having appends a HAVING clause.
func (b *Builder[T]) Having(pred expr.Expr) *Builder[T] {
	if b.failed() {
		return b
	}
	sql, err := b.comp.Having(pred)
	if err != nil {
		return b.fail(err)
	}
	b.buf.Append(" HAVING ", sql)
	return b
}

// OrderBy appends an ORDER BY clause with one direction per field, ascending by default.
func (b *Builder[T]) OrderBy(fields expr.Expr, dirs ...compiler.Direction) *Builder[T] {
	if b.failed() {
		return b
	}
	sql, err := b.comp.OrderBy(fields, dirs...)
	if err != nil {
		return b.fail(err)
	}
	b.buf.Append(" ORDER BY ", sql)
	return b
}

// AppendSQL appends raw text to the statement. WHERE tracking falls back to scanning
// the text afterwards, since the raw tail may have opened a WHERE clause.
func (b *Builder[T]) AppendSQL(sql string) *Builder[T] {
	if b.failed() {
		return b
	}
	b.buf.Append(sql)
	b.rawAppended = true
	return b
}

func unwrap(e expr.Expr) expr.Expr {
	if l, ok := e.(*expr.Lambda); ok {
		return l.Body
	}
	return e
}

func isLogical(e expr.Expr) bool {
	bin, ok := e.(*expr.Binary)
	return ok && bin.Op.Logical()
}

// lambdaParams returns the declared parameters of a lambda, or those referenced by e.
func lambdaParams(e expr.Expr) []*expr.Param {
	if l, ok := e.(*expr.Lambda); ok {
		if len(l.Params) > 0 {
			return l.Params
		}
		return expr.Params(l.Body)
	}
	return expr.Params(e)
}

func distinctTypes(params []*expr.Param) []reflect.Type {
	var out []reflect.Type
	seen := map[reflect.Type]bool{}
	for _, p := range params {
		if p.Type != nil && !seen[p.Type] {
			seen[p.Type] = true
			out = append(out, p.Type)
		}
	}
	return out
}

// aliasName is the parameter name, or t, t1, t2... for unnamed parameters.
func aliasName(p *expr.Param, i int) string {
	if p.Name != "" {
		return p.Name
	}
	if i == 0 {
		return statement.DefaultAlias
	}
	return statement.DefaultAlias + strconv.Itoa(i)
}
