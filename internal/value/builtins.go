package value

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hexput/runtime/internal/rterr"
	"github.com/shopspring/decimal"
)

// Method is a built-in method implementation: receiver plus positional
// arguments in, a Value or error out.
type Method func(receiver Value, args []Value) (Value, error)

// methodTable maps (Kind, method name) -> Method. Built fixed at program
// start (spec §4.1: "fixed at program start and never mutated").
var methodTable = map[Kind]map[string]Method{
	KindString:  stringMethods,
	KindArray:   arrayMethods,
	KindObject:  objectMethods,
	KindNumber:  numberMethods,
	KindBool:    boolMethods,
	KindNull:    nullMethods,
}

// HasMethod reports whether receiver's kind has a built-in named name.
func HasMethod(receiver Value, name string) bool {
	table, ok := methodTable[receiver.Kind]
	if !ok {
		return false
	}
	_, ok = table[name]
	return ok
}

// CallMethod dispatches a built-in method call, per spec §4.1. An unknown
// (kind, name) pair is NoSuchMethod; wrong arity is a TypeError naming
// the method and expected arity.
func CallMethod(receiver Value, name string, args []Value) (Value, error) {
	table, ok := methodTable[receiver.Kind]
	if !ok {
		return Null, rterr.New(rterr.KindNoSuchMethod, "%s has no methods", receiver.Kind)
	}
	m, ok := table[name]
	if !ok {
		return Null, rterr.New(rterr.KindNoSuchMethod, "%s has no method %q", receiver.Kind, name)
	}
	return m(receiver, args)
}

func arity(name string, args []Value, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		want := fmt.Sprintf("%d", min)
		if max != min {
			if max < 0 {
				want = fmt.Sprintf("at least %d", min)
			} else {
				want = fmt.Sprintf("%d-%d", min, max)
			}
		}
		return rterr.New(rterr.KindTypeError, "%s expects %s argument(s), got %d", name, want, len(args))
	}
	return nil
}

func clampIndex(i, length int) int {
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func argInt(v Value, def int) int {
	if v.Kind != KindNumber {
		return def
	}
	return int(v.Number)
}

// --- String methods ---

var stringMethods = map[string]Method{
	"length": func(r Value, args []Value) (Value, error) {
		if err := arity("length", args, 0, 0); err != nil {
			return Null, err
		}
		return Number(float64(len([]rune(r.Str)))), nil
	},
	"len": func(r Value, args []Value) (Value, error) {
		return stringMethods["length"](r, args)
	},
	"isEmpty": func(r Value, args []Value) (Value, error) {
		if err := arity("isEmpty", args, 0, 0); err != nil {
			return Null, err
		}
		return Bool(r.Str == ""), nil
	},
	"substring": func(r Value, args []Value) (Value, error) {
		if err := arity("substring", args, 1, 2); err != nil {
			return Null, err
		}
		runes := []rune(r.Str)
		n := len(runes)
		start := clampIndex(argInt(args[0], 0), n)
		end := n
		if len(args) == 2 {
			end = clampIndex(argInt(args[1], n), n)
		}
		if start > end {
			return String(""), nil
		}
		return String(string(runes[start:end])), nil
	},
	"toLowerCase": func(r Value, args []Value) (Value, error) {
		if err := arity("toLowerCase", args, 0, 0); err != nil {
			return Null, err
		}
		return String(strings.ToLower(r.Str)), nil
	},
	"toUpperCase": func(r Value, args []Value) (Value, error) {
		if err := arity("toUpperCase", args, 0, 0); err != nil {
			return Null, err
		}
		return String(strings.ToUpper(r.Str)), nil
	},
	"trim": func(r Value, args []Value) (Value, error) {
		if err := arity("trim", args, 0, 0); err != nil {
			return Null, err
		}
		return String(strings.TrimFunc(r.Str, unicode.IsSpace)), nil
	},
	"includes": func(r Value, args []Value) (Value, error) {
		if err := arity("includes", args, 1, 1); err != nil {
			return Null, err
		}
		return Bool(strings.Contains(r.Str, args[0].Str)), nil
	},
	"contains": func(r Value, args []Value) (Value, error) {
		return stringMethods["includes"](r, args)
	},
	"startsWith": func(r Value, args []Value) (Value, error) {
		if err := arity("startsWith", args, 1, 1); err != nil {
			return Null, err
		}
		return Bool(strings.HasPrefix(r.Str, args[0].Str)), nil
	},
	"endsWith": func(r Value, args []Value) (Value, error) {
		if err := arity("endsWith", args, 1, 1); err != nil {
			return Null, err
		}
		return Bool(strings.HasSuffix(r.Str, args[0].Str)), nil
	},
	"indexOf": func(r Value, args []Value) (Value, error) {
		if err := arity("indexOf", args, 1, 1); err != nil {
			return Null, err
		}
		byteIdx := strings.Index(r.Str, args[0].Str)
		if byteIdx < 0 {
			return Number(-1), nil
		}
		return Number(float64(len([]rune(r.Str[:byteIdx])))), nil
	},
	"split": func(r Value, args []Value) (Value, error) {
		if err := arity("split", args, 1, 1); err != nil {
			return Null, err
		}
		parts := strings.Split(r.Str, args[0].Str)
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = String(p)
		}
		return Array(out), nil
	},
	"replace": func(r Value, args []Value) (Value, error) {
		if err := arity("replace", args, 2, 2); err != nil {
			return Null, err
		}
		return String(strings.ReplaceAll(r.Str, args[0].Str, args[1].Str)), nil
	},
}

// --- Array methods ---

var arrayMethods = map[string]Method{
	"length": func(r Value, args []Value) (Value, error) {
		if err := arity("length", args, 0, 0); err != nil {
			return Null, err
		}
		return Number(float64(len(r.Array))), nil
	},
	"len": func(r Value, args []Value) (Value, error) {
		return arrayMethods["length"](r, args)
	},
	"isEmpty": func(r Value, args []Value) (Value, error) {
		if err := arity("isEmpty", args, 0, 0); err != nil {
			return Null, err
		}
		return Bool(len(r.Array) == 0), nil
	},
	"join": func(r Value, args []Value) (Value, error) {
		if err := arity("join", args, 1, 1); err != nil {
			return Null, err
		}
		sep := args[0].Str
		parts := make([]string, len(r.Array))
		for i, e := range r.Array {
			parts[i] = ToStringValue(e)
		}
		return String(strings.Join(parts, sep)), nil
	},
	"first": func(r Value, args []Value) (Value, error) {
		if err := arity("first", args, 0, 0); err != nil {
			return Null, err
		}
		if len(r.Array) == 0 {
			return Null, nil
		}
		return r.Array[0], nil
	},
	"last": func(r Value, args []Value) (Value, error) {
		if err := arity("last", args, 0, 0); err != nil {
			return Null, err
		}
		if len(r.Array) == 0 {
			return Null, nil
		}
		return r.Array[len(r.Array)-1], nil
	},
	"includes": func(r Value, args []Value) (Value, error) {
		if err := arity("includes", args, 1, 1); err != nil {
			return Null, err
		}
		for _, e := range r.Array {
			if DeepEqual(e, args[0]) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	},
	"contains": func(r Value, args []Value) (Value, error) {
		return arrayMethods["includes"](r, args)
	},
	"slice": func(r Value, args []Value) (Value, error) {
		if err := arity("slice", args, 1, 2); err != nil {
			return Null, err
		}
		n := len(r.Array)
		start := clampIndex(argInt(args[0], 0), n)
		end := n
		if len(args) == 2 {
			end = clampIndex(argInt(args[1], n), n)
		}
		if start > end {
			return Array(nil), nil
		}
		out := make([]Value, end-start)
		copy(out, r.Array[start:end])
		return Array(out), nil
	},
}

// --- Object methods ---

var objectMethods = map[string]Method{
	"keys": func(r Value, args []Value) (Value, error) {
		if err := arity("keys", args, 0, 0); err != nil {
			return Null, err
		}
		keys := r.Object.Keys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = String(k)
		}
		return Array(out), nil
	},
	"values": func(r Value, args []Value) (Value, error) {
		if err := arity("values", args, 0, 0); err != nil {
			return Null, err
		}
		keys := r.Object.Keys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			v, _ := r.Object.Get(k)
			out[i] = v
		}
		return Array(out), nil
	},
	"entries": func(r Value, args []Value) (Value, error) {
		if err := arity("entries", args, 0, 0); err != nil {
			return Null, err
		}
		keys := r.Object.Keys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			v, _ := r.Object.Get(k)
			out[i] = Array([]Value{String(k), v})
		}
		return Array(out), nil
	},
	"isEmpty": func(r Value, args []Value) (Value, error) {
		if err := arity("isEmpty", args, 0, 0); err != nil {
			return Null, err
		}
		return Bool(r.Object.Len() == 0), nil
	},
	"has": func(r Value, args []Value) (Value, error) {
		if err := arity("has", args, 1, 1); err != nil {
			return Null, err
		}
		return Bool(r.Object.Has(args[0].Str)), nil
	},
}

// --- Number methods ---

var numberMethods = map[string]Method{
	"toString": func(r Value, args []Value) (Value, error) {
		if err := arity("toString", args, 0, 0); err != nil {
			return Null, err
		}
		return String(formatNumber(r.Number)), nil
	},
	"toFixed": func(r Value, args []Value) (Value, error) {
		if err := arity("toFixed", args, 1, 1); err != nil {
			return Null, err
		}
		digits := argInt(args[0], 0)
		if digits < 0 {
			digits = 0
		}
		// Half-away-from-zero rounding (spec §9 Open Question (a)), done
		// with shopspring/decimal rather than hand-rolled float formatting
		// so the rounding mode is exact regardless of float64 binary
		// representation error.
		d := decimal.NewFromFloat(r.Number)
		rounded := d.RoundHalfAwayFromZero(int32(digits))
		return String(rounded.StringFixed(int32(digits))), nil
	},
	"isInteger": func(r Value, args []Value) (Value, error) {
		if err := arity("isInteger", args, 0, 0); err != nil {
			return Null, err
		}
		return Bool(r.Number == float64(int64(r.Number))), nil
	},
	"abs": func(r Value, args []Value) (Value, error) {
		if err := arity("abs", args, 0, 0); err != nil {
			return Null, err
		}
		n := r.Number
		if n < 0 {
			n = -n
		}
		return Number(n), nil
	},
}

// --- Boolean / Null methods ---

var boolMethods = map[string]Method{
	"toString": func(r Value, args []Value) (Value, error) {
		if err := arity("toString", args, 0, 0); err != nil {
			return Null, err
		}
		return String(ToStringValue(r)), nil
	},
}

var nullMethods = map[string]Method{
	"toString": func(r Value, args []Value) (Value, error) {
		if err := arity("toString", args, 0, 0); err != nil {
			return Null, err
		}
		return String("null"), nil
	},
}
