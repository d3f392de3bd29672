package interp

import (
	"github.com/hexput/runtime/internal/langast"
	"github.com/hexput/runtime/internal/rterr"
	"github.com/hexput/runtime/internal/scope"
	"github.com/hexput/runtime/internal/value"
)

// evalCall resolves a call expression in the order spec §4.2 "Calls"
// requires: a locally-bound Callback identifier, then a built-in
// method on a member-call receiver, then a remote function by name.
// Argument expressions are evaluated left-to-right before dispatch,
// regardless of which branch ultimately handles the call.
func (ip *Interp) evalCall(call *langast.Call, sc *scope.Scope) (value.Value, error) {
	args := make([]value.Value, len(call.Args))
	for i, a := range call.Args {
		v, err := ip.eval(a, sc)
		if err != nil {
			return value.Null, err
		}
		args[i] = v
	}

	switch callee := call.Callee.(type) {
	case *langast.Identifier:
		if v, ok := sc.Lookup(callee.Name); ok && v.Kind == value.KindCallback {
			return ip.invokeCallback(v.Callback, args)
		}
		if ip.bridge == nil {
			return value.Null, rterr.New(rterr.KindFunctionNotFound, "%s", callee.Name)
		}
		return ip.bridge.CallRemote(callee.Name, args, ip.secretContext)

	case *langast.MemberAccess:
		receiver, err := ip.eval(callee.Object, sc)
		if err != nil {
			return value.Null, err
		}
		key, err := ip.memberKeyValue(callee, sc)
		if err != nil {
			return value.Null, err
		}
		methodName := value.ToStringValue(key)

		// A callback stored as an object field is still "present and
		// is a Callback" in spirit of rule (1); it is invoked locally
		// the same as a bare identifier bound to a callback.
		if receiver.Kind == value.KindObject {
			if field, ok := receiver.Object.Get(methodName); ok && field.Kind == value.KindCallback {
				return ip.invokeCallback(field.Callback, args)
			}
		}
		if value.HasMethod(receiver, methodName) {
			return value.CallMethod(receiver, methodName, args)
		}
		return value.Null, rterr.New(rterr.KindNoSuchMethod, "%s.%s", value.TypeName(receiver), methodName)

	default:
		calleeVal, err := ip.eval(call.Callee, sc)
		if err != nil {
			return value.Null, err
		}
		if calleeVal.Kind == value.KindCallback {
			return ip.invokeCallback(calleeVal.Callback, args)
		}
		return value.Null, rterr.New(rterr.KindTypeError, "%s is not callable", value.TypeName(calleeVal))
	}
}

// invokeCallback pushes a fresh scope whose parent is the callback's
// captured scope, binds params positionally (missing args bind to
// null, extra args are discarded), and runs the body (spec §4.2
// "Local callback invocation"). Recursion is bounded by maxDepth
// (spec §5 "Resource bounds").
func (ip *Interp) invokeCallback(cb *value.Callback, args []value.Value) (value.Value, error) {
	ip.depth++
	defer func() { ip.depth-- }()
	if ip.depth > ip.maxDepth {
		return value.Null, rterr.New(rterr.KindRecursionTooDeep, "depth exceeds %d", ip.maxDepth)
	}

	parent, ok := cb.Scope.(*scope.Scope)
	if !ok {
		return value.Null, rterr.New(rterr.KindInternalError, "callback scope is not a *scope.Scope")
	}
	body, ok := cb.Body.(*langast.Block)
	if !ok {
		return value.Null, rterr.New(rterr.KindInternalError, "callback body is not a *langast.Block")
	}

	frame := parent.Child()
	for i, name := range cb.Params {
		v := value.Null
		if i < len(args) {
			v = args[i]
		}
		frame.Declare(name, v)
	}

	v, sig, err := ip.execBlock(body, frame)
	if err != nil {
		return value.Null, err
	}
	if sig == sigReturn {
		return v, nil
	}
	return value.Null, nil
}
