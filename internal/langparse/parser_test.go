package langparse

import (
	"testing"

	"github.com/hexput/runtime/internal/langast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleArithmetic(t *testing.T) {
	block, err := Parse("let x = 5 + 10; return x;", 0)
	require.NoError(t, err)
	require.Len(t, block.Statements, 2)
	assert.Equal(t, langast.KindVarDecl, block.Statements[0].NodeKind())
	assert.Equal(t, langast.KindReturn, block.Statements[1].NodeKind())
}

func TestParseLoopOverObjectLiteral(t *testing.T) {
	block, err := Parse(`loop k in {a:1,b:2} { continue; }`, 0)
	require.NoError(t, err)
	require.Len(t, block.Statements, 1)
	loop, ok := block.Statements[0].(*langast.Loop)
	require.True(t, ok)
	assert.Equal(t, "k", loop.ItemName)
}

func TestParseFeatureDisabledLoop(t *testing.T) {
	_, err := Parse(`loop k in xs { }`, langast.NoLoops)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FeatureDisabled: loop")
}

func TestParseMemberAndCall(t *testing.T) {
	block, err := Parse(`return xs.join("-");`, 0)
	require.NoError(t, err)
	ret := block.Statements[0].(*langast.Return)
	call, ok := ret.Value.(*langast.Call)
	require.True(t, ok)
	member, ok := call.Callee.(*langast.MemberAccess)
	require.True(t, ok)
	assert.False(t, member.Computed)
}

func TestParseUnterminatedStringIsParseError(t *testing.T) {
	_, err := Parse(`let x = "abc;`, 0)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseIfElseChain(t *testing.T) {
	block, err := Parse(`if (x > 0) { return 1; } else if (x < 0) { return -1; } else { return 0; }`, 0)
	require.NoError(t, err)
	cond := block.Statements[0].(*langast.Conditional)
	require.NotNil(t, cond.Else)
}
