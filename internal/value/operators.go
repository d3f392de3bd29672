package value

import "github.com/hexput/runtime/internal/rterr"

// Add implements `+`: concatenation if either operand is a string
// (spec §3: "+ on any string operand is concatenation after
// string-coercing the other side"), otherwise numeric addition with
// boolean/null coercion.
func Add(a, b Value) (Value, error) {
	if a.Kind == KindString || b.Kind == KindString {
		return String(ToStringValue(a) + ToStringValue(b)), nil
	}
	an, ok := ToNumber(a)
	if !ok {
		return Null, rterr.New(rterr.KindTypeError, "cannot add %s", TypeName(a))
	}
	bn, ok := ToNumber(b)
	if !ok {
		return Null, rterr.New(rterr.KindTypeError, "cannot add %s", TypeName(b))
	}
	return Number(an + bn), nil
}

// Arithmetic implements `-`, `*`, `/`, `%` with boolean/string-to-number
// coercion per spec §3.
func Arithmetic(op string, a, b Value) (Value, error) {
	an, ok := ToNumber(a)
	if !ok {
		return Null, rterr.New(rterr.KindTypeError, "%s is not a number", TypeName(a))
	}
	bn, ok := ToNumber(b)
	if !ok {
		return Null, rterr.New(rterr.KindTypeError, "%s is not a number", TypeName(b))
	}
	switch op {
	case "-":
		return Number(an - bn), nil
	case "*":
		return Number(an * bn), nil
	case "/":
		if bn == 0 {
			return Null, rterr.New(rterr.KindTypeError, "division by zero")
		}
		return Number(an / bn), nil
	case "%":
		if bn == 0 {
			return Null, rterr.New(rterr.KindTypeError, "division by zero")
		}
		return Number(mod(an, bn)), nil
	default:
		return Null, rterr.New(rterr.KindInternalError, "unknown arithmetic operator %q", op)
	}
}

func mod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	return m
}

// Compare implements `<`, `<=`, `>`, `>=`. Spec §4.2: "Comparison
// operators require both operands to be numbers or both strings; mixed
// types are an error."
func Compare(op string, a, b Value) (Value, error) {
	switch {
	case a.Kind == KindNumber && b.Kind == KindNumber:
		return compareOrdered(op, a.Number < b.Number, a.Number <= b.Number, a.Number > b.Number, a.Number >= b.Number)
	case a.Kind == KindString && b.Kind == KindString:
		return compareOrdered(op, a.Str < b.Str, a.Str <= b.Str, a.Str > b.Str, a.Str >= b.Str)
	default:
		return Null, rterr.New(rterr.KindTypeError, "cannot compare %s and %s", TypeName(a), TypeName(b))
	}
}

func compareOrdered(op string, lt, le, gt, ge bool) (Value, error) {
	switch op {
	case "<":
		return Bool(lt), nil
	case "<=":
		return Bool(le), nil
	case ">":
		return Bool(gt), nil
	case ">=":
		return Bool(ge), nil
	default:
		return Null, rterr.New(rterr.KindInternalError, "unknown comparison operator %q", op)
	}
}

// Negate implements unary `-`.
func Negate(a Value) (Value, error) {
	n, ok := ToNumber(a)
	if !ok {
		return Null, rterr.New(rterr.KindTypeError, "cannot negate %s", TypeName(a))
	}
	return Number(-n), nil
}

// Not implements unary `!`.
func Not(a Value) Value {
	return Bool(!Truthy(a))
}
