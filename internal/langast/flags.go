package langast

// FeatureFlags is the bitmap of disabled language constructs, derived
// from the request's `options` object (spec §6 "Options bitmap"). Each
// bit, when set, means the construct is DISABLED (the option names in
// the wire protocol are all `no_*`, i.e. true means "reject this").
type FeatureFlags uint32

const (
	NoObjectConstructions FeatureFlags = 1 << iota
	NoArrayConstructions
	NoObjectNavigation
	NoVariableDeclaration
	NoLoops
	NoObjectKeys
	NoCallbacks
	NoConditionals
	NoReturnStatements
	NoLoopControl
	NoOperators
	NoEquality
	NoAssignments
)

// Disables reports whether flags disable the construct identified by
// kind. Operator/equality bans are checked separately at evaluation
// time against the specific operator (spec §4.2), not via this table,
// since they are a property of a Binary/Unary node's Op rather than its
// Kind.
func (f FeatureFlags) Disables(kind Kind) bool {
	switch kind {
	case KindObjectLiteral:
		return f&NoObjectConstructions != 0
	case KindArrayLiteral:
		return f&NoArrayConstructions != 0
	case KindMemberAccess:
		return f&NoObjectNavigation != 0
	case KindVarDecl:
		return f&NoVariableDeclaration != 0
	case KindLoop:
		return f&NoLoops != 0
	case KindKeysOf:
		return f&NoObjectKeys != 0
	case KindCallbackDef:
		return f&NoCallbacks != 0
	case KindConditional:
		return f&NoConditionals != 0
	case KindReturn:
		return f&NoReturnStatements != 0
	case KindBreak, KindContinue:
		return f&NoLoopControl != 0
	case KindAssignment:
		return f&NoAssignments != 0
	default:
		return false
	}
}

// DisablesOperator reports whether flags disable a binary/unary operator
// by name. `==`/`!=` are gated by NoEquality; every other operator
// (arithmetic, comparison, logical) is gated by NoOperators.
func (f FeatureFlags) DisablesOperator(op string) bool {
	if op == "==" || op == "!=" {
		return f&NoEquality != 0
	}
	return f&NoOperators != 0
}

// ParseOptions maps the wire `options` object's boolean keys onto a
// FeatureFlags bitmap. Unknown keys are ignored.
func ParseOptions(opts map[string]bool) FeatureFlags {
	var f FeatureFlags
	set := func(key string, bit FeatureFlags) {
		if opts[key] {
			f |= bit
		}
	}
	set("no_object_constructions", NoObjectConstructions)
	set("no_array_constructions", NoArrayConstructions)
	set("no_object_navigation", NoObjectNavigation)
	set("no_variable_declaration", NoVariableDeclaration)
	set("no_loops", NoLoops)
	set("no_object_keys", NoObjectKeys)
	set("no_callbacks", NoCallbacks)
	set("no_conditionals", NoConditionals)
	set("no_return_statements", NoReturnStatements)
	set("no_loop_control", NoLoopControl)
	set("no_operators", NoOperators)
	set("no_equality", NoEquality)
	set("no_assignments", NoAssignments)
	return f
}
