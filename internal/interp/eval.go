package interp

import (
	"math"

	"github.com/hexput/runtime/internal/langast"
	"github.com/hexput/runtime/internal/rterr"
	"github.com/hexput/runtime/internal/scope"
	"github.com/hexput/runtime/internal/value"
)

// eval evaluates a single expression node, left-to-right for any
// sub-expressions it composes (spec §4.2 "Expressions evaluate
// left-to-right").
func (ip *Interp) eval(expr langast.Expr, sc *scope.Scope) (value.Value, error) {
	switch e := expr.(type) {
	case *langast.NullLiteral:
		return value.Null, nil
	case *langast.BoolLiteral:
		return value.Bool(e.Value), nil
	case *langast.NumberLiteral:
		return value.Number(e.Value), nil
	case *langast.StringLiteral:
		return value.String(e.Value), nil

	case *langast.ArrayLiteral:
		if ip.flags.Disables(langast.KindArrayLiteral) {
			return value.Null, rterr.New(rterr.KindFeatureDisabled, "array literal")
		}
		items := make([]value.Value, len(e.Elements))
		for i, el := range e.Elements {
			v, err := ip.eval(el, sc)
			if err != nil {
				return value.Null, err
			}
			items[i] = v
		}
		return value.Array(items), nil

	case *langast.ObjectLiteral:
		if ip.flags.Disables(langast.KindObjectLiteral) {
			return value.Null, rterr.New(rterr.KindFeatureDisabled, "object literal")
		}
		obj := value.NewObject()
		for _, prop := range e.Properties {
			v, err := ip.eval(prop.Value, sc)
			if err != nil {
				return value.Null, err
			}
			obj.Set(prop.Key, v)
		}
		return value.ObjectValue(obj), nil

	case *langast.Identifier:
		v, ok := sc.Lookup(e.Name)
		if !ok {
			return value.Null, rterr.New(rterr.KindNameError, "%s", e.Name)
		}
		return v, nil

	case *langast.Binary:
		return ip.evalBinary(e, sc)

	case *langast.Unary:
		return ip.evalUnary(e, sc)

	case *langast.KeysOf:
		if ip.flags.Disables(langast.KindKeysOf) {
			return value.Null, rterr.New(rterr.KindFeatureDisabled, "keysOf")
		}
		operand, err := ip.eval(e.Operand, sc)
		if err != nil {
			return value.Null, err
		}
		return keysOf(operand)

	case *langast.MemberAccess:
		if ip.flags.Disables(langast.KindMemberAccess) {
			return value.Null, rterr.New(rterr.KindFeatureDisabled, "member access")
		}
		return ip.evalMember(e, sc)

	case *langast.Call:
		return ip.evalCall(e, sc)

	default:
		return value.Null, rterr.New(rterr.KindInternalError, "unhandled expression kind %T", expr)
	}
}

func (ip *Interp) evalBinary(b *langast.Binary, sc *scope.Scope) (value.Value, error) {
	if ip.flags.DisablesOperator(b.Op) {
		return value.Null, rterr.New(rterr.KindFeatureDisabled, "operator %s", b.Op)
	}

	// && and || short-circuit, so the right operand must not be
	// evaluated (and its flag-gating not triggered) unless needed.
	if b.Op == "&&" || b.Op == "||" {
		left, err := ip.eval(b.Left, sc)
		if err != nil {
			return value.Null, err
		}
		if b.Op == "&&" && !value.Truthy(left) {
			return left, nil
		}
		if b.Op == "||" && value.Truthy(left) {
			return left, nil
		}
		return ip.eval(b.Right, sc)
	}

	left, err := ip.eval(b.Left, sc)
	if err != nil {
		return value.Null, err
	}
	right, err := ip.eval(b.Right, sc)
	if err != nil {
		return value.Null, err
	}

	switch b.Op {
	case "+":
		return value.Add(left, right)
	case "-", "*", "/", "%":
		return value.Arithmetic(b.Op, left, right)
	case "<", "<=", ">", ">=":
		return value.Compare(b.Op, left, right)
	case "==":
		return value.Bool(value.DeepEqual(left, right)), nil
	case "!=":
		return value.Bool(!value.DeepEqual(left, right)), nil
	default:
		return value.Null, rterr.New(rterr.KindInternalError, "unhandled operator %q", b.Op)
	}
}

func (ip *Interp) evalUnary(u *langast.Unary, sc *scope.Scope) (value.Value, error) {
	if ip.flags.DisablesOperator(u.Op) {
		return value.Null, rterr.New(rterr.KindFeatureDisabled, "operator %s", u.Op)
	}
	operand, err := ip.eval(u.Operand, sc)
	if err != nil {
		return value.Null, err
	}
	switch u.Op {
	case "-":
		return value.Negate(operand)
	case "!":
		return value.Not(operand), nil
	default:
		return value.Null, rterr.New(rterr.KindInternalError, "unhandled unary operator %q", u.Op)
	}
}

// memberKeyValue evaluates a MemberAccess's key to a Value: the dot
// form (`obj.k`) treats its Identifier as a string literal; the
// computed form (`obj[k]`) evaluates k as an ordinary expression.
func (ip *Interp) memberKeyValue(m *langast.MemberAccess, sc *scope.Scope) (value.Value, error) {
	if !m.Computed {
		ident := m.Key.(*langast.Identifier)
		return value.String(ident.Name), nil
	}
	return ip.eval(m.Key, sc)
}

func (ip *Interp) evalMember(m *langast.MemberAccess, sc *scope.Scope) (value.Value, error) {
	receiver, err := ip.eval(m.Object, sc)
	if err != nil {
		return value.Null, err
	}
	key, err := ip.memberKeyValue(m, sc)
	if err != nil {
		return value.Null, err
	}

	switch receiver.Kind {
	case value.KindObject:
		v, ok := receiver.Object.Get(value.ToStringValue(key))
		if !ok {
			return value.Null, nil
		}
		return v, nil

	case value.KindArray:
		idx, ok := indexFromKey(key)
		if !ok {
			return value.Null, rterr.New(rterr.KindTypeError, "array index must be a number, got %s", value.TypeName(key))
		}
		if idx < 0 || idx >= len(receiver.Array) {
			return value.Null, nil
		}
		return receiver.Array[idx], nil

	case value.KindString:
		idx, ok := indexFromKey(key)
		if !ok {
			return value.Null, rterr.New(rterr.KindTypeError, "string index must be a number, got %s", value.TypeName(key))
		}
		runes := []rune(receiver.Str)
		if idx < 0 || idx >= len(runes) {
			return value.Null, nil
		}
		return value.String(string(runes[idx])), nil

	case value.KindNull:
		return value.Null, rterr.New(rterr.KindTypeError, "cannot read member of null")

	default:
		return value.Null, rterr.New(rterr.KindTypeError, "cannot read member of %s", value.TypeName(receiver))
	}
}

func indexFromKey(key value.Value) (int, bool) {
	if key.Kind != value.KindNumber {
		return 0, false
	}
	return int(math.Trunc(key.Number)), true
}

func keysOf(v value.Value) (value.Value, error) {
	switch v.Kind {
	case value.KindObject:
		keys := v.Object.Keys()
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			items[i] = value.String(k)
		}
		return value.Array(items), nil
	case value.KindArray:
		items := make([]value.Value, len(v.Array))
		for i := range v.Array {
			items[i] = value.Number(float64(i))
		}
		return value.Array(items), nil
	default:
		return value.Null, rterr.New(rterr.KindTypeError, "keysOf requires an object or array, got %s", value.TypeName(v))
	}
}
