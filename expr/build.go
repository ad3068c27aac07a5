package expr

import "reflect"

// Value wraps v as an expression. Expressions pass through unchanged.
func Value(v any) Expr {
	if e, ok := v.(Expr); ok {
		return e
	}
	if fn, ok := v.(func() any); ok {
		return Closure(fn)
	}
	return Const(v)
}

func binary(op Op, l, r any) *Binary {
	return &Binary{Op: op, Left: Value(l), Right: Value(r)}
}

// Eq builds l == r. A nil right operand compiles to IS NULL.
func Eq(l, r any) *Binary { return binary(OpEq, l, r) }

// Ne builds l != r. A nil right operand compiles to IS NOT NULL.
func Ne(l, r any) *Binary { return binary(OpNe, l, r) }

func Gt(l, r any) *Binary { return binary(OpGt, l, r) }
func Ge(l, r any) *Binary { return binary(OpGe, l, r) }
func Lt(l, r any) *Binary { return binary(OpLt, l, r) }
func Le(l, r any) *Binary { return binary(OpLe, l, r) }

func Add(l, r any) *Binary { return binary(OpAdd, l, r) }
func Sub(l, r any) *Binary { return binary(OpSub, l, r) }
func Mul(l, r any) *Binary { return binary(OpMul, l, r) }
func Div(l, r any) *Binary { return binary(OpDiv, l, r) }
func Mod(l, r any) *Binary { return binary(OpMod, l, r) }

// And joins the operands left to right. A single operand is returned unchanged.
func And(operands ...any) Expr { return chain(OpAnd, operands) }

// Or joins the operands left to right. A single operand is returned unchanged.
func Or(operands ...any) Expr { return chain(OpOr, operands) }

func chain(op Op, operands []any) Expr {
	if len(operands) == 0 {
		return Const(op == OpAnd)
	}
	out := Value(operands[0])
	for _, o := range operands[1:] {
		out = &Binary{Op: op, Left: out, Right: Value(o)}
	}
	return out
}

// Not negates a predicate.
func Not(operand any) *Unary {
	return &Unary{Op: OpNot, Operand: Value(operand)}
}

// Neg negates a numeric operand.
func Neg(operand any) *Unary {
	return &Unary{Op: OpNegate, Operand: Value(operand)}
}

func call(method string, args ...any) *Call {
	c := &Call{Method: method, Args: make([]Expr, len(args))}
	for i, a := range args {
		c.Args[i] = Value(a)
	}
	return c
}

// Recognized call names.
const (
	MethodLike          = "Like"
	MethodNotLike       = "NotLike"
	MethodStartsWith    = "StartsWith"
	MethodEndsWith      = "EndsWith"
	MethodContains      = "Contains"
	MethodIn            = "In"
	MethodNotIn         = "NotIn"
	MethodIsNullOrEmpty = "IsNullOrEmpty"
	MethodCount         = "Count"
	MethodSum           = "Sum"
	MethodMax           = "Max"
	MethodMin           = "Min"
	MethodAvg           = "Avg"
)

// Like matches column LIKE '%v%'.
func Like(column, v any) *Call { return call(MethodLike, column, v) }

// NotLike matches column NOT LIKE '%v%'.
func NotLike(column, v any) *Call { return call(MethodNotLike, column, v) }

// StartsWith matches column LIKE 'v%'.
func StartsWith(column, v any) *Call { return call(MethodStartsWith, column, v) }

// EndsWith matches column LIKE '%v'.
func EndsWith(column, v any) *Call { return call(MethodEndsWith, column, v) }

// Contains is the string form: column LIKE '%v%'.
func Contains(column, v any) *Call { return call(MethodContains, column, v) }

// ContainsIn is the collection form: member IN (collection).
func ContainsIn(collection, member any) *Call { return call(MethodContains, collection, member) }

// In matches column IN (values). A single slice argument is expanded.
func In(column any, values ...any) *Call { return call(MethodIn, column, collection(values)) }

// NotIn matches column NOT IN (values). A single slice argument is expanded.
func NotIn(column any, values ...any) *Call { return call(MethodNotIn, column, collection(values)) }

func collection(values []any) any {
	if len(values) == 1 {
		if _, ok := values[0].(Expr); ok {
			return values[0]
		}
		if IsCollection(values[0]) {
			return values[0]
		}
	}
	return values
}

// IsNullOrEmpty matches a NULL or empty-string column.
func IsNullOrEmpty(column any) *Call { return call(MethodIsNullOrEmpty, column) }

// Count builds COUNT(column), or COUNT(*) without a column.
func Count(column ...any) *Call { return call(MethodCount, column...) }

func Sum(column any) *Call { return call(MethodSum, column) }
func Max(column any) *Call { return call(MethodMax, column) }
func Min(column any) *Call { return call(MethodMin, column) }
func Avg(column any) *Call { return call(MethodAvg, column) }

// Bind names a value in an Object.
func Bind(name string, value any) Binding {
	return Binding{Name: name, Value: Value(value)}
}

// New builds an object-initializer expression.
func New(bindings ...Binding) *Object {
	return &Object{Bindings: bindings}
}

// Pick projects members, each bound under its own field name.
func Pick(members ...*Member) *Object {
	o := &Object{Bindings: make([]Binding, len(members))}
	for i, m := range members {
		o.Bindings[i] = Binding{Name: m.Name, Value: m}
	}
	return o
}

// IsCollection reports whether v is a slice or array other than []byte.
func IsCollection(v any) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	default:
		return false
	}
}
