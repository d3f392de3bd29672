// Package value implements the Hexput dynamic value domain: the tagged
// union described in spec §3 plus the built-in method tables of §4.1.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Value is the dynamically-typed value every expression evaluates to.
// Only the field matching Kind is meaningful.
type Value struct {
	Kind     Kind
	Bool     bool
	Number   float64
	Str      string
	Array    []Value
	Object   *Object
	Callback *Callback
}

// ScopeRef is the narrow interface a captured lexical environment must
// satisfy for a Callback to push a child frame at invocation time.
// internal/scope.Scope implements this; defining it here (rather than
// importing internal/scope) keeps value a leaf package with no
// dependency on the interpreter layers above it.
type ScopeRef interface {
	Declare(name string, v Value)
	Assign(name string, v Value) bool
	Lookup(name string) (Value, bool)
}

// Callback is a first-class function: parameter names, its body block,
// and the scope captured at definition time (spec §3 "Scope").
type Callback struct {
	Params []string
	Body   BlockRef
	Scope  ScopeRef
}

// BlockRef is the AST block a callback runs when invoked. It is kept as
// an opaque interface (rather than importing internal/langast directly)
// so that value, langast, and interp can be assembled in either
// dependency direction without a cycle.
type BlockRef interface {
	IsBlock() bool
}

// Null is the canonical null value.
var Null = Value{Kind: KindNull}

func Bool(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value { return Value{Kind: KindNumber, Number: n} }
func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Array(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: KindArray, Array: items}
}
func ObjectValue(o *Object) Value { return Value{Kind: KindObject, Object: o} }
func CallbackValue(c *Callback) Value {
	return Value{Kind: KindCallback, Callback: c}
}

// Object is an insertion-ordered string-keyed map.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set inserts or overwrites a key. Insertion order is preserved across
// overwrites: re-setting an existing key does not move it.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports key membership.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Keys returns keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len reports the number of entries.
func (o *Object) Len() int {
	return len(o.keys)
}

// FromJSON converts an already-decoded JSON value (as produced by
// encoding/json unmarshaling into `any`) into a Value, per spec §4.4
// step 4's canonical mapping: null->Null, bool->Bool, number->Number,
// string->String, array->Array, object->Object. Go's map[string]any has
// no concept of key order, so an object arriving this way is enumerated
// in sorted order for determinism; this path is for values already
// materialized as plain Go data (tests, host-constructed contexts), not
// for data crossing the wire. Wire objects must preserve the sender's
// key order (spec §3 "Object"), so decode those with FromJSONBytes
// instead of unmarshaling into map[string]any first.
func FromJSON(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case string:
		return String(x)
	case []any:
		items := make([]Value, len(x))
		for i, e := range x {
			items[i] = FromJSON(e)
		}
		return Array(items)
	case map[string]any:
		obj := NewObject()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			obj.Set(k, FromJSON(x[k]))
		}
		return ObjectValue(obj)
	default:
		return Null
	}
}

// FromJSONBytes decodes raw JSON bytes into a Value the same way
// FromJSON does, except it walks the input with json.Decoder/json.Token
// instead of unmarshaling through map[string]any first, so object keys
// come out in the order the sender wrote them (spec §3 "Object": keys
// and values arriving over the wire preserve the sender's insertion
// order for `keys`/`values`/`entries` and `loop item in <object>`).
// Empty input decodes to Null, matching an omitted JSON field.
func FromJSONBytes(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Null, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return Null, err
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null, err
				}
				key, _ := keyTok.(string)
				val, err := decodeJSONValue(dec)
				if err != nil {
					return Null, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Null, err
			}
			return ObjectValue(obj), nil
		case '[':
			items := []Value{}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return Null, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Null, err
			}
			return Array(items), nil
		}
		return Null, nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null, err
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case nil:
		return Null, nil
	default:
		return Null, nil
	}
}

// ToJSON converts a Value back into a plain `any` suitable for
// encoding/json marshaling.
func ToJSON(v Value) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Number
	case KindString:
		return v.Str
	case KindArray:
		out := make([]any, len(v.Array))
		for i, e := range v.Array {
			out[i] = ToJSON(e)
		}
		return out
	case KindObject:
		out := make(map[string]any, v.Object.Len())
		for _, k := range v.Object.Keys() {
			val, _ := v.Object.Get(k)
			out[k] = ToJSON(val)
		}
		return out
	case KindCallback:
		return nil
	default:
		return nil
	}
}

// Truthy implements spec §4.2 truthiness: null, false, 0, "", empty
// array, empty object are falsy; everything else is truthy.
func Truthy(v Value) bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Number != 0
	case KindString:
		return v.Str != ""
	case KindArray:
		return len(v.Array) != 0
	case KindObject:
		return v.Object.Len() != 0
	default:
		return true
	}
}

// DeepEqual implements structural equality for `==`/`!=` per spec §3/§4.2.
func DeepEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		// Spec treats equality as structural for same-kind values; mixed
		// kinds are simply unequal rather than a TypeError (unlike the
		// ordering comparisons, which do require matching types).
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		return a.Number == b.Number
	case KindString:
		return a.Str == b.Str
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !DeepEqual(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.Object.Len() != b.Object.Len() {
			return false
		}
		for _, k := range a.Object.Keys() {
			av, _ := a.Object.Get(k)
			bv, ok := b.Object.Get(k)
			if !ok || !DeepEqual(av, bv) {
				return false
			}
		}
		return true
	case KindCallback:
		return a.Callback == b.Callback
	default:
		return false
	}
}

// ToNumber coerces a Value to float64 per spec §3 arithmetic coercion:
// booleans become 0/1, strings parse as a finite decimal (otherwise ok is
// false), null is 0.
func ToNumber(v Value) (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case KindNull:
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToStringValue string-coerces any Value for `+` concatenation and for
// built-ins like array join.
func ToStringValue(v Value) string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.Number)
	case KindString:
		return v.Str
	case KindArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = ToStringValue(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindObject:
		parts := make([]string, 0, v.Object.Len())
		for _, k := range v.Object.Keys() {
			ev, _ := v.Object.Get(k)
			parts = append(parts, k+":"+ToStringValue(ev))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case KindCallback:
		return "<callback>"
	default:
		return ""
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// TypeName returns the human-readable type name used in error messages.
func TypeName(v Value) string {
	return v.Kind.String()
}

// DebugString is used for diagnostics/logging only.
func DebugString(v Value) string {
	return fmt.Sprintf("%s(%s)", v.Kind, ToStringValue(v))
}
