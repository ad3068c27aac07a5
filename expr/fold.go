package expr

import (
	"cmp"
	"database/sql/driver"
	"math"
	"reflect"
	"strings"
)

// Fold evaluates every sub-tree that does not reference a Param.
// Closures are invoked once; constant operators are computed where possible.
func Fold(e Expr) Expr {
	switch v := e.(type) {
	case *ClosureExpr:
		if v.Fn == nil {
			return Const(nil)
		}
		return Value(v.Fn())
	case *Binary:
		return foldBinary(v)
	case *Unary:
		operand := Fold(v.Operand)
		if c, ok := operand.(*Constant); ok {
			switch x := c.Value.(type) {
			case bool:
				if v.Op == OpNot {
					return Const(!x)
				}
			default:
				if v.Op == OpNegate {
					if n, ok := arith(OpSub, 0, x); ok {
						return Const(n)
					}
				}
			}
		}
		return &Unary{Op: v.Op, Operand: operand}
	case *Call:
		out := &Call{Method: v.Method, Args: make([]Expr, len(v.Args))}
		for i, a := range v.Args {
			out.Args[i] = Fold(a)
		}
		return out
	case *Object:
		out := &Object{Bindings: make([]Binding, len(v.Bindings))}
		for i, b := range v.Bindings {
			out.Bindings[i] = Binding{Name: b.Name, Value: Fold(b.Value)}
		}
		return out
	case *Lambda:
		return &Lambda{Params: v.Params, Body: Fold(v.Body)}
	default:
		return e
	}
}

func foldBinary(b *Binary) Expr {
	l, r := Fold(b.Left), Fold(b.Right)
	lc, lok := l.(*Constant)
	rc, rok := r.(*Constant)

	if b.Op.Logical() {
		if lok {
			if v, ok := lc.Value.(bool); ok {
				return shortCircuit(b.Op, v, r)
			}
		}
		if rok {
			if v, ok := rc.Value.(bool); ok {
				return shortCircuit(b.Op, v, l)
			}
		}
	}

	if lok && rok {
		if b.Op.Arithmetic() {
			if v, ok := arith(b.Op, lc.Value, rc.Value); ok {
				return Const(v)
			}
		}
		if b.Op.Comparison() {
			if v, ok := compare(b.Op, lc.Value, rc.Value); ok {
				return Const(v)
			}
		}
	}
	return &Binary{Op: b.Op, Left: l, Right: r}
}

// shortCircuit keeps a literal true/false when it decides the result and
// otherwise returns the remaining operand.
func shortCircuit(op Op, v bool, other Expr) Expr {
	if op == OpAnd {
		if !v {
			return Const(false)
		}
		return other
	}
	if v {
		return Const(true)
	}
	return other
}

// IsParamFree reports whether e references no Param or Member.
func IsParamFree(e Expr) bool {
	free := true
	Walk(e, func(n Expr) {
		switch n.(type) {
		case *Param, *Member, *RawSQL, *NameList:
			free = false
		}
	})
	return free
}

// IsConstant reports whether e folds to a Constant.
func IsConstant(e Expr) bool {
	_, ok := Fold(e).(*Constant)
	return ok
}

// Normalize dereferences pointers and driver.Valuer values.
// The second result is true when the value is null.
func Normalize(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	if valuer, ok := v.(driver.Valuer); ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, true
		}
		dv, err := valuer.Value()
		if err == nil && dv == nil {
			return nil, true
		}
		return v, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, true
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil, true
		}
	}
	return v, false
}

// IsNull reports whether v is null after normalization.
func IsNull(v any) bool {
	_, null := Normalize(v)
	return null
}

func arith(op Op, a, b any) (any, bool) {
	a, _ = Normalize(a)
	b, _ = Normalize(b)
	if op == OpAdd {
		if as, ok := a.(string); ok {
			if bs, ok := b.(string); ok {
				return as + bs, true
			}
		}
	}
	af, aInt, aok := number(a)
	bf, bInt, bok := number(b)
	if !aok || !bok {
		return nil, false
	}
	if aInt && bInt {
		x, xok := integer(a)
		y, yok := integer(b)
		if !xok || !yok {
			return nil, false
		}
		return intArith(op, x, y)
	}
	if (aInt && !exactFloat(a)) || (bInt && !exactFloat(b)) {
		return nil, false
	}
	switch op {
	case OpAdd:
		return af + bf, true
	case OpSub:
		return af - bf, true
	case OpMul:
		return af * bf, true
	case OpDiv:
		if bf == 0 {
			return nil, false
		}
		return af / bf, true
	}
	return nil, false
}

// intArith refuses results that overflow int64.
func intArith(op Op, x, y int64) (any, bool) {
	switch op {
	case OpAdd:
		if (y > 0 && x > math.MaxInt64-y) || (y < 0 && x < math.MinInt64-y) {
			return nil, false
		}
		return x + y, true
	case OpSub:
		if (y < 0 && x > math.MaxInt64+y) || (y > 0 && x < math.MinInt64+y) {
			return nil, false
		}
		return x - y, true
	case OpMul:
		if x == 0 || y == 0 {
			return int64(0), true
		}
		r := x * y
		if r/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return nil, false
		}
		return r, true
	case OpDiv:
		if y == 0 || (x == math.MinInt64 && y == -1) {
			return nil, false
		}
		return x / y, true
	case OpMod:
		if y == 0 {
			return nil, false
		}
		if y == -1 {
			return int64(0), true
		}
		return x % y, true
	}
	return nil, false
}

func compare(op Op, a, b any) (bool, bool) {
	a, aNull := Normalize(a)
	b, bNull := Normalize(b)
	if aNull || bNull {
		// Null comparisons are left for the compiler (IS NULL / IS NOT NULL).
		return false, false
	}
	var c int
	if af, aInt, ok := number(a); ok {
		bf, bInt, ok := number(b)
		if !ok {
			return false, false
		}
		switch {
		case aInt && bInt:
			c = compareIntegers(a, b)
		case (aInt && !exactFloat(a)) || (bInt && !exactFloat(b)):
			return false, false
		case af < bf:
			c = -1
		case af > bf:
			c = 1
		}
	} else if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return false, false
		}
		c = strings.Compare(as, bs)
	} else if op == OpEq || op == OpNe {
		if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
			return false, false
		}
		if a != b {
			c = 1
		}
	} else {
		return false, false
	}

	switch op {
	case OpEq:
		return c == 0, true
	case OpNe:
		return c != 0, true
	case OpGt:
		return c > 0, true
	case OpGe:
		return c >= 0, true
	case OpLt:
		return c < 0, true
	case OpLe:
		return c <= 0, true
	}
	return false, false
}

// integer reports false for unsigned values above math.MaxInt64.
func integer(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	if rv.CanInt() {
		return rv.Int(), true
	}
	u := rv.Uint()
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

// compareIntegers orders two integral values of any signedness without rounding.
func compareIntegers(a, b any) int {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case ra.CanInt() && rb.CanInt():
		return cmp.Compare(ra.Int(), rb.Int())
	case ra.CanUint() && rb.CanUint():
		return cmp.Compare(ra.Uint(), rb.Uint())
	case ra.CanInt():
		if ra.Int() < 0 {
			return -1
		}
		return cmp.Compare(uint64(ra.Int()), rb.Uint())
	default:
		if rb.Int() < 0 {
			return 1
		}
		return cmp.Compare(ra.Uint(), uint64(rb.Int()))
	}
}

// maxExactInt is the largest magnitude float64 holds for every smaller integer.
const maxExactInt = 1 << 53

// exactFloat reports whether an integral value converts to float64 without rounding.
func exactFloat(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.CanInt() {
		n := rv.Int()
		return n >= -maxExactInt && n <= maxExactInt
	}
	return rv.Uint() <= maxExactInt
}

// number converts numeric kinds to float64, reporting whether the value is integral.
func number(v any) (float64, bool, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true, true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), false, true
	default:
		return 0, false, false
	}
}
