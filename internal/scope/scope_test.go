package scope

import (
	"encoding/json"
	"testing"

	"github.com/hexput/runtime/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareAndLookupInnermost(t *testing.T) {
	root := New()
	root.Declare("x", value.Number(1))
	child := root.Child()
	child.Declare("x", value.Number(2))

	v, ok := child.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 2.0, v.Number)

	v, ok = root.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, v.Number)
}

func TestLookupWalksParentChain(t *testing.T) {
	root := New()
	root.Declare("y", value.String("outer"))
	child := root.Child()
	grandchild := child.Child()

	v, ok := grandchild.Lookup("y")
	require.True(t, ok)
	assert.Equal(t, "outer", v.Str)
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	root := New()
	_, ok := root.Lookup("nope")
	assert.False(t, ok)
}

func TestAssignWritesToNearestDeclaringScope(t *testing.T) {
	root := New()
	root.Declare("counter", value.Number(0))
	child := root.Child()

	found := child.Assign("counter", value.Number(5))
	assert.True(t, found)

	v, _ := root.Lookup("counter")
	assert.Equal(t, 5.0, v.Number)
	assert.False(t, child.Has("counter") && !root.Has("counter"))
}

func TestAssignFallsBackToInnermostWhenUndeclared(t *testing.T) {
	root := New()
	child := root.Child()

	found := child.Assign("fresh", value.Bool(true))
	assert.False(t, found)

	_, rootHas := root.Lookup("fresh")
	assert.False(t, rootHas)

	v, ok := child.Lookup("fresh")
	require.True(t, ok)
	assert.True(t, v.Bool)
}

func TestChildMutationDoesNotLeakToParentOnBlockExit(t *testing.T) {
	root := New()
	root.Declare("shared", value.Number(1))
	child := root.Child()
	child.Declare("local", value.Number(99))

	child = nil // simulate block exit discarding the frame
	_ = child

	_, ok := root.Lookup("local")
	assert.False(t, ok)
}

func TestFromContextSeedsRootScope(t *testing.T) {
	root := FromContext(map[string]any{
		"name":  "alice",
		"count": float64(3),
	})
	v, ok := root.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "alice", v.Str)

	v, ok = root.Lookup("count")
	require.True(t, ok)
	assert.Equal(t, 3.0, v.Number)
}

func TestFromContextJSONPreservesNestedObjectKeyOrder(t *testing.T) {
	root := FromContextJSON(map[string]json.RawMessage{
		"settings": json.RawMessage(`{"z":1,"a":2}`),
	})
	v, ok := root.Lookup("settings")
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a"}, v.Object.Keys())
}
