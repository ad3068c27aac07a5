// Package expr defines the typed expression tree consumed by the SQL compiler.
//
// Go has no expression-tree lambdas, so predicates, projections and assignments are
// built explicitly:
//
//	u := expr.Of[UserInfo]("u")
//	pred := expr.And(expr.Gt(u.Field("Id"), 2), expr.Ne(u.Field("Name"), nil))
//	proj := expr.Pick(u.Field("Id"), u.Field("Name"))
//
// Values captured from the caller (locals, slices, closures) are folded to constants
// before translation; only members of a Param become columns.
package expr

import (
	"fmt"
	"reflect"
	"strings"
)

// Expr is a node of the expression tree.
type Expr interface {
	// String describes the node shape for error messages.
	String() string
	exprNode()
}

// Param is an entity reference. Its Name becomes the table alias in multi-table statements.
type Param struct {
	Name string
	Type reflect.Type
}

// Of declares a parameter of entity type T.
func Of[T any](name string) *Param {
	return &Param{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// Field references a member of the parameter.
func (p *Param) Field(name string) *Member {
	return &Member{Owner: p, Name: name}
}

// Fields references several members of the parameter.
func (p *Param) Fields(names ...string) []*Member {
	members := make([]*Member, len(names))
	for i, n := range names {
		members[i] = p.Field(n)
	}
	return members
}

func (p *Param) String() string {
	if p.Type == nil {
		return "param " + p.Name
	}
	return "param " + p.Name + " " + p.Type.Name()
}

func (*Param) exprNode() {}

// Member is a field access. A nil Owner refers to the statement's root entity.
type Member struct {
	Owner *Param
	Name  string
}

// Field references a member of the root entity.
func Field(name string) *Member {
	return &Member{Name: name}
}

func (m *Member) String() string {
	if m.Owner == nil {
		return "member " + m.Name
	}
	return "member " + m.Owner.Name + "." + m.Name
}

func (*Member) exprNode() {}

// Constant is an already-evaluated value.
type Constant struct {
	Value any
}

// Const wraps a value.
func Const(v any) *Constant {
	return &Constant{Value: v}
}

func (c *Constant) String() string {
	return fmt.Sprintf("constant %v", c.Value)
}

func (*Constant) exprNode() {}

// ClosureExpr defers evaluation of a captured value until compilation.
type ClosureExpr struct {
	Fn func() any
}

// Closure captures fn; it is evaluated once when the expression is folded.
func Closure(fn func() any) *ClosureExpr {
	return &ClosureExpr{Fn: fn}
}

func (*ClosureExpr) String() string { return "closure" }

func (*ClosureExpr) exprNode() {}

// RawSQL is a verbatim SQL fragment.
type RawSQL struct {
	SQL string
}

// Raw wraps a SQL fragment. It is emitted without quoting or parameterization.
func Raw(sql string) *RawSQL {
	return &RawSQL{SQL: sql}
}

func (r *RawSQL) String() string { return "raw " + r.SQL }

func (*RawSQL) exprNode() {}

// NameList is an ordered list of field names of the root entity.
type NameList struct {
	Names []string
}

// Names builds a field-name list for GroupBy and OrderBy.
func Names(names ...string) *NameList {
	return &NameList{Names: names}
}

func (n *NameList) String() string { return "names " + strings.Join(n.Names, ",") }

func (*NameList) exprNode() {}

// Op is a binary operator.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

var opNames = map[Op]string{
	OpEq: "==", OpNe: "!=", OpGt: ">", OpGe: ">=", OpLt: "<", OpLe: "<=",
	OpAnd: "&&", OpOr: "||", OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Logical reports whether o is AND or OR.
func (o Op) Logical() bool { return o == OpAnd || o == OpOr }

// Comparison reports whether o compares its operands.
func (o Op) Comparison() bool { return o >= OpEq && o <= OpLe }

// Arithmetic reports whether o is + - * / %.
func (o Op) Arithmetic() bool { return o >= OpAdd && o <= OpMod }

// Binary is a two-operand node.
type Binary struct {
	Op          Op
	Left, Right Expr
}

func (b *Binary) String() string {
	return "binary " + b.Op.String()
}

func (*Binary) exprNode() {}

// UnaryOp is a one-operand operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNegate
)

// Unary is a one-operand node.
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

func (u *Unary) String() string {
	if u.Op == OpNot {
		return "unary not"
	}
	return "unary negate"
}

func (*Unary) exprNode() {}

// Call is a recognized method call such as Like or In.
type Call struct {
	Method string
	Args   []Expr
}

func (c *Call) String() string { return "call " + c.Method }

func (*Call) exprNode() {}

// Binding is one named member of an Object.
type Binding struct {
	Name  string
	Value Expr
}

// Object is an anonymous-object / object-initializer expression.
type Object struct {
	Bindings []Binding
}

func (o *Object) String() string {
	names := make([]string, len(o.Bindings))
	for i, b := range o.Bindings {
		names[i] = b.Name
	}
	return "object {" + strings.Join(names, ",") + "}"
}

func (*Object) exprNode() {}

// Lambda binds a body to its entity parameters. The first parameter is the root entity.
type Lambda struct {
	Params []*Param
	Body   Expr
}

func (l *Lambda) String() string {
	names := make([]string, len(l.Params))
	for i, p := range l.Params {
		names[i] = p.Name
	}
	body := "nil"
	if l.Body != nil {
		body = l.Body.String()
	}
	return "lambda (" + strings.Join(names, ",") + ") " + body
}

func (*Lambda) exprNode() {}

// L builds a lambda. When params is empty they are collected from the body in order of appearance.
func L(body Expr, params ...*Param) *Lambda {
	if len(params) == 0 {
		params = Params(body)
	}
	return &Lambda{Params: params, Body: body}
}

// Params collects the distinct parameters referenced by e, in order of first appearance.
func Params(e Expr) []*Param {
	var out []*Param
	seen := map[*Param]bool{}
	add := func(p *Param) {
		if p != nil && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	Walk(e, func(n Expr) {
		switch v := n.(type) {
		case *Param:
			add(v)
		case *Member:
			add(v.Owner)
		}
	})
	return out
}

// Walk visits e and its children depth-first, left to right.
func Walk(e Expr, visit func(Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch v := e.(type) {
	case *Binary:
		Walk(v.Left, visit)
		Walk(v.Right, visit)
	case *Unary:
		Walk(v.Operand, visit)
	case *Call:
		for _, a := range v.Args {
			Walk(a, visit)
		}
	case *Object:
		for _, b := range v.Bindings {
			Walk(b.Value, visit)
		}
	case *Lambda:
		Walk(v.Body, visit)
	}
}
