// Package scope implements the lexical environments the interpreter
// walks: a mapping from identifier to value plus an optional parent,
// searched on lookup and written on assignment (spec §2 "Scope").
package scope

import (
	"encoding/json"

	"github.com/hexput/runtime/internal/value"
)

// Scope is a single lexical frame. It satisfies value.ScopeRef
// structurally so internal/value never imports this package.
type Scope struct {
	parent *Scope
	vars   map[string]value.Value
}

// New creates a root scope with no parent.
func New() *Scope {
	return &Scope{vars: make(map[string]value.Value)}
}

// Child creates a fresh frame whose parent is s. Block and callback
// entry both call this; the frame is discarded on block exit or
// callback unwind (spec §2 "Lifecycle"). Go's garbage collector
// reclaims frames no longer reachable, including ones that
// participate in a capture cycle (a callback whose captured scope
// transitively references the callback itself), so no arena or
// refcounting scheme is needed for the cyclic-capture case the spec's
// REDESIGN FLAGS raises.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, vars: make(map[string]value.Value)}
}

// Declare always binds name in the innermost (this) scope, shadowing
// any outer binding of the same name.
func (s *Scope) Declare(name string, v value.Value) {
	s.vars[name] = v
}

// Lookup walks the parent chain looking for name, returning
// (value.Value{}, false) if it is bound nowhere.
func (s *Scope) Lookup(name string) (value.Value, bool) {
	for frame := s; frame != nil; frame = frame.parent {
		if v, ok := frame.vars[name]; ok {
			return v, true
		}
	}
	return value.Value{}, false
}

// Assign writes to the nearest enclosing scope that already declares
// name. If no scope in the chain declares it, it falls back to
// declaring it in the innermost (this) scope (spec §2 "Scope":
// "assignment writes to the nearest scope containing the name, falling
// back to the innermost if none contains it"). It reports whether an
// existing binding was found and updated in place, as opposed to being
// newly declared by the fallback.
func (s *Scope) Assign(name string, v value.Value) bool {
	for frame := s; frame != nil; frame = frame.parent {
		if _, ok := frame.vars[name]; ok {
			frame.vars[name] = v
			return true
		}
	}
	s.vars[name] = v
	return false
}

// Has reports whether name is bound anywhere in the chain.
func (s *Scope) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Parent returns the enclosing scope, or nil at the root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// FromContext builds a root scope seeded with the entries of a
// request's `context` object (spec §3 "Contract": "the initial scope
// is seeded with the entries of the request's context object").
func FromContext(ctx map[string]any) *Scope {
	root := New()
	for k, v := range ctx {
		root.Declare(k, value.FromJSON(v))
	}
	return root
}

// FromContextJSON is FromContext's wire-path counterpart: ctx holds each
// top-level context key's still-undecoded JSON bytes (the shape
// encoding/json produces for a map[string]json.RawMessage field), so a
// nested object value is handed to value.FromJSONBytes and keeps the
// sender's key order instead of being flattened through map[string]any
// first. Top-level key order doesn't matter here — each entry becomes
// its own named binding, not an enumerable Object (spec §3 "Contract").
func FromContextJSON(ctx map[string]json.RawMessage) *Scope {
	root := New()
	for k, raw := range ctx {
		v, err := value.FromJSONBytes(raw)
		if err != nil {
			v = value.Null
		}
		root.Declare(k, v)
	}
	return root
}
