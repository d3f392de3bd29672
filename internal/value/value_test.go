package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null, false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero", Number(0), false},
		{"nonzero", Number(1), true},
		{"empty string", String(""), false},
		{"nonempty string", String("a"), true},
		{"empty array", Array(nil), false},
		{"nonempty array", Array([]Value{Number(1)}), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Truthy(c.v))
		})
	}

	obj := NewObject()
	assert.False(t, Truthy(ObjectValue(obj)))
	obj.Set("k", Number(1))
	assert.True(t, Truthy(ObjectValue(obj)))
}

func TestDeepEqual(t *testing.T) {
	a := Array([]Value{Number(1), String("x")})
	b := Array([]Value{Number(1), String("x")})
	c := Array([]Value{Number(1), String("y")})
	assert.True(t, DeepEqual(a, b))
	assert.False(t, DeepEqual(a, c))
	assert.False(t, DeepEqual(Number(1), String("1")))
}

func TestSubstringClamping(t *testing.T) {
	s := String("abc")
	v, err := CallMethod(s, "substring", []Value{Number(-1), Number(10)})
	require.NoError(t, err)
	assert.Equal(t, "abc", v.Str)

	v, err = CallMethod(s, "substring", []Value{Number(5), Number(2)})
	require.NoError(t, err)
	assert.Equal(t, "", v.Str)
}

func TestArraySliceNegativeIndex(t *testing.T) {
	arr := Array([]Value{Number(1), Number(2), Number(3)})
	v, err := CallMethod(arr, "slice", []Value{Number(-1), Number(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, len(v.Array))
}

func TestToFixedHalfAwayFromZero(t *testing.T) {
	v, err := CallMethod(Number(2.5), "toFixed", []Value{Number(0)})
	require.NoError(t, err)
	assert.Equal(t, "3", v.Str)

	v, err = CallMethod(Number(-2.5), "toFixed", []Value{Number(0)})
	require.NoError(t, err)
	assert.Equal(t, "-3", v.Str)
}

func TestNoSuchMethod(t *testing.T) {
	_, err := CallMethod(Number(1), "nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoSuchMethod")
}

func TestArityError(t *testing.T) {
	_, err := CallMethod(String("abc"), "replace", []Value{String("a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TypeError")
}

func TestAddConcatenation(t *testing.T) {
	v, err := Add(String("x="), Number(5))
	require.NoError(t, err)
	assert.Equal(t, "x=5", v.Str)
}

func TestFromJSONToJSONRoundTrip(t *testing.T) {
	in := map[string]any{"a": 1.0, "b": []any{"x", nil, true}}
	v := FromJSON(in)
	out := ToJSON(v)
	assert.Equal(t, in, out)
}

func TestFromJSONBytesPreservesObjectKeyOrder(t *testing.T) {
	v, err := FromJSONBytes([]byte(`{"z":1,"a":2,"m":{"y":1,"b":2}}`))
	require.NoError(t, err)
	require.Equal(t, KindObject, v.Kind)
	assert.Equal(t, []string{"z", "a", "m"}, v.Object.Keys())

	nested, ok := v.Object.Get("m")
	require.True(t, ok)
	assert.Equal(t, []string{"y", "b"}, nested.Object.Keys())
}

func TestFromJSONBytesArrayAndScalars(t *testing.T) {
	v, err := FromJSONBytes([]byte(`[1,"x",null,true,[2,3]]`))
	require.NoError(t, err)
	require.Equal(t, KindArray, v.Kind)
	require.Len(t, v.Array, 5)
	assert.Equal(t, 1.0, v.Array[0].Number)
	assert.Equal(t, "x", v.Array[1].Str)
	assert.Equal(t, KindNull, v.Array[2].Kind)
	assert.True(t, v.Array[3].Bool)
	assert.Equal(t, KindArray, v.Array[4].Kind)
}

func TestFromJSONBytesEmptyIsNull(t *testing.T) {
	v, err := FromJSONBytes(nil)
	require.NoError(t, err)
	assert.Equal(t, KindNull, v.Kind)
}
