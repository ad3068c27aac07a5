package compiler

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/expr"
	"github.com/gaborage/sqlexpr/sqlerr"
	"github.com/gaborage/sqlexpr/statement"
)

const (
	alwaysTrue  = "1 = 1"
	alwaysFalse = "1 = 0"
)

var comparisonOps = map[expr.Op]string{
	expr.OpEq: "=",
	expr.OpNe: "<>",
	expr.OpGt: ">",
	expr.OpGe: ">=",
	expr.OpLt: "<",
	expr.OpLe: "<=",
}

var arithmeticOps = map[expr.Op]string{
	expr.OpAdd: "+",
	expr.OpSub: "-",
	expr.OpMul: "*",
	expr.OpDiv: "/",
	expr.OpMod: "%",
}

// Where compiles a predicate. A predicate that folds to literal true yields ""
// so the caller can omit the clause; literal false yields an always-false comparison.
func (c *Compiler) Where(e expr.Expr) (string, error) {
	e = body(e)
	if e == nil {
		return "", nil
	}
	if k, ok := e.(*expr.Constant); ok {
		if v, ok := k.Value.(bool); ok && v {
			return "", nil
		}
	}
	return c.predicate(e, "compiler.Where")
}

// Join compiles a join condition.
func (c *Compiler) Join(e expr.Expr) (string, error) {
	e = body(e)
	if e == nil {
		return "", sqlerr.InvalidUsage("compiler.Join", "join condition is required")
	}
	return c.predicate(e, "compiler.Join")
}

// Having compiles a HAVING predicate.
func (c *Compiler) Having(e expr.Expr) (string, error) {
	e = body(e)
	if e == nil {
		return "", sqlerr.InvalidUsage("compiler.Having", "having condition is required")
	}
	return c.predicate(e, "compiler.Having")
}

func (c *Compiler) predicate(e expr.Expr, op string) (string, error) {
	switch v := e.(type) {
	case *expr.Constant:
		b, ok := v.Value.(bool)
		if !ok {
			return "", sqlerr.UnsupportedExpression(op, v.String()+" used as predicate")
		}
		if b {
			return alwaysTrue, nil
		}
		return alwaysFalse, nil
	case *expr.Member:
		col, info, err := c.Column(v)
		if err != nil {
			return "", err
		}
		if info.FieldType == nil || derefKind(info.FieldType) != reflect.Bool {
			return "", sqlerr.UnsupportedExpression(op, v.String()+" is not boolean")
		}
		return col + " = " + c.buf.BindParameter(true, info.DataType), nil
	case *expr.RawSQL:
		return v.SQL, nil
	case *expr.Unary:
		return c.not(v, op)
	case *expr.Binary:
		switch {
		case v.Op.Logical():
			return c.logical(v, op)
		case v.Op.Comparison():
			return c.comparison(v)
		}
	case *expr.Call:
		return c.call(v, op)
	}
	return "", sqlerr.UnsupportedExpression(op, describe(e))
}

func (c *Compiler) not(u *expr.Unary, op string) (string, error) {
	if u.Op != expr.OpNot {
		return "", sqlerr.UnsupportedExpression(op, u.String()+" used as predicate")
	}
	if call, ok := u.Operand.(*expr.Call); ok && call.Method == expr.MethodIsNullOrEmpty {
		col, err := c.unaryArg(call, op)
		if err != nil {
			return "", err
		}
		return "(" + col + " IS NOT NULL AND " + col + " <> '')", nil
	}
	inner, err := c.predicate(u.Operand, op)
	if err != nil {
		return "", err
	}
	return "NOT (" + inner + ")", nil
}

func (c *Compiler) logical(b *expr.Binary, op string) (string, error) {
	keyword := " AND "
	if b.Op == expr.OpOr {
		keyword = " OR "
	}
	left, err := c.logicalOperand(b.Op, b.Left, op)
	if err != nil {
		return "", err
	}
	right, err := c.logicalOperand(b.Op, b.Right, op)
	if err != nil {
		return "", err
	}
	return left + keyword + right, nil
}

// logicalOperand parenthesizes nested AND/OR operands whose operator differs from the parent.
func (c *Compiler) logicalOperand(parent expr.Op, e expr.Expr, op string) (string, error) {
	sql, err := c.predicate(e, op)
	if err != nil {
		return "", err
	}
	if nested, ok := e.(*expr.Binary); ok && nested.Op.Logical() && nested.Op != parent {
		return "(" + sql + ")", nil
	}
	return sql, nil
}

func (c *Compiler) comparison(b *expr.Binary) (string, error) {
	left, right := b.Left, b.Right
	if isNullConstant(left) && !isNullConstant(right) {
		left, right = right, left
	}
	if isNullConstant(right) && (b.Op == expr.OpEq || b.Op == expr.OpNe) {
		l, err := c.value(left)
		if err != nil {
			return "", err
		}
		if b.Op == expr.OpEq {
			return l + " IS NULL", nil
		}
		return l + " IS NOT NULL", nil
	}

	l, err := c.value(left)
	if err != nil {
		return "", err
	}
	r, err := c.value(right)
	if err != nil {
		return "", err
	}
	return l + " " + comparisonOps[b.Op] + " " + r, nil
}

func isNullConstant(e expr.Expr) bool {
	k, ok := e.(*expr.Constant)
	return ok && expr.IsNull(k.Value)
}

// value renders a scalar operand: a column, a bound parameter, arithmetic or an aggregate.
func (c *Compiler) value(e expr.Expr) (string, error) {
	switch v := e.(type) {
	case *expr.Member:
		col, _, err := c.Column(v)
		return col, err
	case *expr.Constant:
		return c.buf.BindParameter(v.Value, nil), nil
	case *expr.RawSQL:
		return v.SQL, nil
	case *expr.Unary:
		if v.Op == expr.OpNegate {
			inner, err := c.operand(v.Operand)
			if err != nil {
				return "", err
			}
			return "-" + inner, nil
		}
	case *expr.Binary:
		if v.Op.Arithmetic() {
			return c.arithmetic(v)
		}
	case *expr.Call:
		switch v.Method {
		case expr.MethodCount, expr.MethodSum, expr.MethodMax, expr.MethodMin, expr.MethodAvg:
			var arg expr.Expr
			if len(v.Args) > 0 {
				arg = v.Args[0]
			}
			return c.Aggregate(v.Method, arg)
		}
	}
	return "", sqlerr.UnsupportedExpression("compiler.value", describe(e))
}

// operand renders a value, parenthesizing nested arithmetic.
func (c *Compiler) operand(e expr.Expr) (string, error) {
	sql, err := c.value(e)
	if err != nil {
		return "", err
	}
	if b, ok := e.(*expr.Binary); ok && b.Op.Arithmetic() {
		return "(" + sql + ")", nil
	}
	return sql, nil
}

func (c *Compiler) arithmetic(b *expr.Binary) (string, error) {
	l, err := c.operand(b.Left)
	if err != nil {
		return "", err
	}
	r, err := c.operand(b.Right)
	if err != nil {
		return "", err
	}
	if b.Op == expr.OpMod && c.buf.Dialect() == dialect.Oracle {
		return "MOD(" + l + "," + r + ")", nil
	}
	return l + " " + arithmeticOps[b.Op] + " " + r, nil
}

func (c *Compiler) call(call *expr.Call, op string) (string, error) {
	switch call.Method {
	case expr.MethodLike:
		return c.like(call, op, "%", "%", "LIKE")
	case expr.MethodNotLike:
		return c.like(call, op, "%", "%", "NOT LIKE")
	case expr.MethodStartsWith:
		return c.like(call, op, "", "%", "LIKE")
	case expr.MethodEndsWith:
		return c.like(call, op, "%", "", "LIKE")
	case expr.MethodContains:
		if len(call.Args) == 2 {
			if isCollectionConstant(call.Args[0]) {
				return c.in(call.Args[1], call.Args[0], false, op)
			}
			if isCollectionConstant(call.Args[1]) {
				return c.in(call.Args[0], call.Args[1], false, op)
			}
		}
		return c.like(call, op, "%", "%", "LIKE")
	case expr.MethodIn, expr.MethodNotIn:
		if len(call.Args) != 2 {
			return "", sqlerr.UnsupportedExpression(op, call.String()+" with "+strconv.Itoa(len(call.Args))+" arguments")
		}
		return c.in(call.Args[0], call.Args[1], call.Method == expr.MethodNotIn, op)
	case expr.MethodIsNullOrEmpty:
		col, err := c.unaryArg(call, op)
		if err != nil {
			return "", err
		}
		return "(" + col + " IS NULL OR " + col + " = '')", nil
	}
	return "", sqlerr.UnsupportedExpression(op, call.String()+" used as predicate")
}

func (c *Compiler) unaryArg(call *expr.Call, op string) (string, error) {
	if len(call.Args) != 1 {
		return "", sqlerr.UnsupportedExpression(op, call.String()+" with "+strconv.Itoa(len(call.Args))+" arguments")
	}
	return c.value(call.Args[0])
}

func (c *Compiler) like(call *expr.Call, op, prefix, suffix, keyword string) (string, error) {
	if len(call.Args) != 2 {
		return "", sqlerr.UnsupportedExpression(op, call.String()+" with "+strconv.Itoa(len(call.Args))+" arguments")
	}
	col, err := c.value(call.Args[0])
	if err != nil {
		return "", err
	}
	if k, ok := call.Args[1].(*expr.Constant); ok {
		v, null := expr.Normalize(k.Value)
		if null {
			return col + " " + keyword + " " + statement.NullLiteral, nil
		}
		s, ok := v.(string)
		if !ok {
			return "", sqlerr.UnsupportedExpression(op, call.String()+" with non-string pattern")
		}
		return col + " " + keyword + " " + c.buf.BindParameter(prefix+s+suffix, nil), nil
	}
	operand, err := c.value(call.Args[1])
	if err != nil {
		return "", err
	}
	return col + " " + keyword + " " + likeConcat(c.buf.Dialect(), prefix, operand, suffix), nil
}

// in renders member IN (...). Collections bind one parameter per element; an empty
// collection can never match, so IN becomes always-false and NOT IN always-true.
func (c *Compiler) in(member, values expr.Expr, negate bool, op string) (string, error) {
	col, err := c.value(member)
	if err != nil {
		return "", err
	}
	keyword := " IN "
	if negate {
		keyword = " NOT IN "
	}
	switch v := values.(type) {
	case *expr.RawSQL:
		return col + keyword + "(" + v.SQL + ")", nil
	case *expr.Constant:
		elems, ok := elements(v.Value)
		if !ok {
			return "", sqlerr.UnsupportedExpression(op, "IN over "+v.String())
		}
		if len(elems) == 0 {
			if negate {
				return alwaysTrue, nil
			}
			return alwaysFalse, nil
		}
		placeholders := make([]string, len(elems))
		for i, el := range elems {
			placeholders[i] = c.buf.BindParameter(el, nil)
		}
		return col + keyword + "(" + strings.Join(placeholders, ",") + ")", nil
	}
	return "", sqlerr.UnsupportedExpression(op, "IN over "+describe(values))
}

func isCollectionConstant(e expr.Expr) bool {
	k, ok := e.(*expr.Constant)
	return ok && expr.IsCollection(k.Value)
}

func elements(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func derefKind(t reflect.Type) reflect.Kind {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind()
}

func describe(e expr.Expr) string {
	if e == nil {
		return "nil expression"
	}
	return e.String()
}
