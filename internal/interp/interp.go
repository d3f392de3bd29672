// Package interp is the tree-walking interpreter of spec §4.2: it
// walks the AST produced by internal/langparse, manages lexical scopes
// via internal/scope, dispatches built-in methods via internal/value,
// and suspends on internal/bridge for unresolved identifiers called in
// function position.
package interp

import (
	"github.com/hexput/runtime/internal/bridge"
	"github.com/hexput/runtime/internal/langast"
	"github.com/hexput/runtime/internal/rterr"
	"github.com/hexput/runtime/internal/scope"
	"github.com/hexput/runtime/internal/value"
)

// DefaultMaxDepth bounds callback-invocation recursion (spec §5
// "Resource bounds": "Script recursion depth must be bounded").
const DefaultMaxDepth = 512

// signal is what a statement's evaluation propagates up through
// enclosing blocks: the state machine of spec §4.2 "State machine per
// activation" collapsed to the subset the Go call stack needs help
// with (ordinary completion is just a nil signal with no propagation).
type signal int

const (
	sigNone signal = iota
	sigBreak
	sigContinue
	sigReturn
)

// Interp is a single tree-walking evaluator bound to one execute
// request. Spec §3 "An interpreter run is bounded by one execute
// request" — callers construct a fresh Interp per request rather than
// reusing one across requests.
type Interp struct {
	bridge        *bridge.Bridge
	flags         langast.FeatureFlags
	secretContext any
	maxDepth      int
	depth         int
}

// New builds an Interp. br may be nil if the script is known not to
// reference any remote function (callers that always wire a real
// bridge never need to check). secretContext is attached only to
// outbound bridge calls, never injected into scope (spec §4.4
// "Secret context").
func New(br *bridge.Bridge, flags langast.FeatureFlags, secretContext any, maxDepth int) *Interp {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Interp{bridge: br, flags: flags, secretContext: secretContext, maxDepth: maxDepth}
}

// Execute runs block against initial (the context-seeded root scope)
// and returns the value a top-level `return` yielded, or Null if the
// script completed without one (spec §4.2 "A return at top level
// yields the value to the outer execute response").
func (ip *Interp) Execute(block *langast.Block, initial *scope.Scope) (value.Value, error) {
	v, sig, err := ip.execBlock(block, initial.Child())
	if err != nil {
		return value.Null, err
	}
	if sig == sigReturn {
		return v, nil
	}
	return value.Null, nil
}

// execBlock runs every statement of block in sc directly: sc is
// assumed to already be the scope born for this block's entry (the
// caller creates it), so execBlock itself never pushes another frame.
func (ip *Interp) execBlock(block *langast.Block, sc *scope.Scope) (value.Value, signal, error) {
	var last value.Value
	for _, stmt := range block.Statements {
		v, sig, err := ip.execStmt(stmt, sc)
		if err != nil {
			return value.Null, sigNone, err
		}
		if sig != sigNone {
			return v, sig, nil
		}
		last = v
	}
	return last, sigNone, nil
}

func (ip *Interp) execStmt(stmt langast.Stmt, sc *scope.Scope) (value.Value, signal, error) {
	switch s := stmt.(type) {
	case *langast.ExprStmt:
		v, err := ip.eval(s.Expr, sc)
		return v, sigNone, err

	case *langast.VarDecl:
		if ip.flags.Disables(langast.KindVarDecl) {
			return value.Null, sigNone, rterr.New(rterr.KindFeatureDisabled, "variable declaration")
		}
		v, err := ip.eval(s.Value, sc)
		if err != nil {
			return value.Null, sigNone, err
		}
		sc.Declare(s.Name, v)
		return v, sigNone, nil

	case *langast.Assignment:
		if ip.flags.Disables(langast.KindAssignment) {
			return value.Null, sigNone, rterr.New(rterr.KindFeatureDisabled, "assignment")
		}
		return ip.execAssignment(s, sc)

	case *langast.Conditional:
		if ip.flags.Disables(langast.KindConditional) {
			return value.Null, sigNone, rterr.New(rterr.KindFeatureDisabled, "conditional")
		}
		cond, err := ip.eval(s.Condition, sc)
		if err != nil {
			return value.Null, sigNone, err
		}
		if value.Truthy(cond) {
			return ip.execBlock(s.Then, sc.Child())
		}
		if s.Else != nil {
			return ip.execBlock(s.Else, sc.Child())
		}
		return value.Null, sigNone, nil

	case *langast.Loop:
		if ip.flags.Disables(langast.KindLoop) {
			return value.Null, sigNone, rterr.New(rterr.KindFeatureDisabled, "loop")
		}
		return ip.execLoop(s, sc)

	case *langast.Break:
		if ip.flags.Disables(langast.KindBreak) {
			return value.Null, sigNone, rterr.New(rterr.KindFeatureDisabled, "break")
		}
		return value.Null, sigBreak, nil

	case *langast.Continue:
		if ip.flags.Disables(langast.KindContinue) {
			return value.Null, sigNone, rterr.New(rterr.KindFeatureDisabled, "continue")
		}
		return value.Null, sigContinue, nil

	case *langast.Return:
		if ip.flags.Disables(langast.KindReturn) {
			return value.Null, sigNone, rterr.New(rterr.KindFeatureDisabled, "return")
		}
		if s.Value == nil {
			return value.Null, sigReturn, nil
		}
		v, err := ip.eval(s.Value, sc)
		if err != nil {
			return value.Null, sigNone, err
		}
		return v, sigReturn, nil

	case *langast.CallbackDef:
		if ip.flags.Disables(langast.KindCallbackDef) {
			return value.Null, sigNone, rterr.New(rterr.KindFeatureDisabled, "callback")
		}
		cb := &value.Callback{Params: s.Params, Body: s.Body, Scope: sc}
		sc.Declare(s.Name, value.CallbackValue(cb))
		return value.Null, sigNone, nil

	case *langast.Block:
		return ip.execBlock(s, sc.Child())

	default:
		return value.Null, sigNone, rterr.New(rterr.KindInternalError, "unhandled statement kind %T", stmt)
	}
}

func (ip *Interp) execAssignment(a *langast.Assignment, sc *scope.Scope) (value.Value, signal, error) {
	v, err := ip.eval(a.Value, sc)
	if err != nil {
		return value.Null, sigNone, err
	}
	if a.Target.Member != nil {
		if err := ip.assignMember(a.Target.Member, v, sc); err != nil {
			return value.Null, sigNone, err
		}
		return v, sigNone, nil
	}
	sc.Assign(a.Target.Identifier, v)
	return v, sigNone, nil
}

func (ip *Interp) assignMember(m *langast.MemberAccess, v value.Value, sc *scope.Scope) error {
	receiver, err := ip.eval(m.Object, sc)
	if err != nil {
		return err
	}
	key, err := ip.memberKeyValue(m, sc)
	if err != nil {
		return err
	}
	switch receiver.Kind {
	case value.KindObject:
		receiver.Object.Set(value.ToStringValue(key), v)
		return nil
	case value.KindArray:
		if key.Kind != value.KindNumber {
			return rterr.New(rterr.KindTypeError, "array index must be a number, got %s", value.TypeName(key))
		}
		idx := int(key.Number)
		if idx < 0 || idx >= len(receiver.Array) {
			return rterr.New(rterr.KindTypeError, "array assignment index %d out of range", idx)
		}
		receiver.Array[idx] = v
		return nil
	case value.KindNull:
		return rterr.New(rterr.KindTypeError, "cannot assign member of null")
	default:
		return rterr.New(rterr.KindTypeError, "cannot assign member of %s", value.TypeName(receiver))
	}
}

func (ip *Interp) execLoop(l *langast.Loop, sc *scope.Scope) (value.Value, signal, error) {
	iterable, err := ip.eval(l.Iterable, sc)
	if err != nil {
		return value.Null, sigNone, err
	}

	items, err := iterationItems(iterable)
	if err != nil {
		return value.Null, sigNone, err
	}

	for _, item := range items {
		child := sc.Child()
		child.Declare(l.ItemName, item)
		v, sig, err := ip.execBlock(l.Body, child)
		if err != nil {
			return value.Null, sigNone, err
		}
		switch sig {
		case sigBreak:
			return value.Null, sigNone, nil
		case sigReturn:
			return v, sigReturn, nil
		default: // sigNone or sigContinue both just advance to the next item
		}
	}
	return value.Null, sigNone, nil
}

// iterationItems expands an array, object, or string into the ordered
// sequence `loop item in iterable` binds item to (spec §4.2 "Loops").
func iterationItems(iterable value.Value) ([]value.Value, error) {
	switch iterable.Kind {
	case value.KindArray:
		return iterable.Array, nil
	case value.KindObject:
		keys := iterable.Object.Keys()
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			items[i] = value.String(k)
		}
		return items, nil
	case value.KindString:
		runes := []rune(iterable.Str)
		items := make([]value.Value, len(runes))
		for i, r := range runes {
			items[i] = value.String(string(r))
		}
		return items, nil
	default:
		return nil, rterr.New(rterr.KindTypeError, "cannot iterate over %s", value.TypeName(iterable))
	}
}
