// Package langast defines the AST node shapes the interpreter walks
// (spec §3). The parser (internal/langparse) is the only producer of
// these nodes; the interpreter only consumes them.
package langast

// Kind tags the concrete AST node type. It doubles as the feature-flag
// gating key in spec §4.2 ("The interpreter rejects AST nodes whose
// kinds are disabled").
type Kind string

const (
	KindNullLiteral   Kind = "NullLiteral"
	KindBoolLiteral   Kind = "BoolLiteral"
	KindNumberLiteral Kind = "NumberLiteral"
	KindStringLiteral Kind = "StringLiteral"
	KindArrayLiteral  Kind = "ArrayLiteral"
	KindObjectLiteral Kind = "ObjectLiteral"
	KindIdentifier    Kind = "Identifier"
	KindBinary        Kind = "Binary"
	KindUnary         Kind = "Unary"
	KindMemberAccess  Kind = "MemberAccess"
	KindCall          Kind = "Call"
	KindBlock         Kind = "Block"
	KindVarDecl       Kind = "VarDecl"
	KindAssignment    Kind = "Assignment"
	KindConditional   Kind = "Conditional"
	KindLoop          Kind = "Loop"
	KindBreak         Kind = "Break"
	KindContinue      Kind = "Continue"
	KindReturn        Kind = "Return"
	KindCallbackDef   Kind = "CallbackDef"
	KindKeysOf        Kind = "KeysOf"
	KindExprStmt      Kind = "ExprStmt"
)

// Node is any AST node walked by the interpreter. Pos is the source
// location used in error reporting (spec §8's round-trip property
// ignores these fields for structural comparison).
type Node interface {
	NodeKind() Kind
	Position() Pos
}

// Expr and Stmt are both just Node: the grammar enforces which
// productions are expressions vs. statements, so the interpreter
// doesn't need a second marker method to tell them apart.
type Expr = Node
type Stmt = Node

// Pos is a source location.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) Position() Pos { return p }

// NullLiteral is the `null` literal.
type NullLiteral struct{ Pos }

func (NullLiteral) NodeKind() Kind { return KindNullLiteral }

// BoolLiteral is a `true`/`false` literal.
type BoolLiteral struct {
	Pos
	Value bool
}

func (BoolLiteral) NodeKind() Kind { return KindBoolLiteral }

// NumberLiteral is a numeric literal.
type NumberLiteral struct {
	Pos
	Value float64
}

func (NumberLiteral) NodeKind() Kind { return KindNumberLiteral }

// StringLiteral is a string literal.
type StringLiteral struct {
	Pos
	Value string
}

func (StringLiteral) NodeKind() Kind { return KindStringLiteral }

// ArrayLiteral is `[e1, e2, ...]`.
type ArrayLiteral struct {
	Pos
	Elements []Expr
}

func (ArrayLiteral) NodeKind() Kind { return KindArrayLiteral }

// ObjectProperty is one `key: value` pair in an object literal.
type ObjectProperty struct {
	Key   string
	Value Expr
}

// ObjectLiteral is `{ k: v, ... }`.
type ObjectLiteral struct {
	Pos
	Properties []ObjectProperty
}

func (ObjectLiteral) NodeKind() Kind { return KindObjectLiteral }

// Identifier is a bare name reference.
type Identifier struct {
	Pos
	Name string
}

func (Identifier) NodeKind() Kind { return KindIdentifier }

// Binary is a binary expression: `left op right`.
type Binary struct {
	Pos
	Op    string
	Left  Expr
	Right Expr
}

func (Binary) NodeKind() Kind { return KindBinary }

// Unary is a unary expression: `op operand`.
type Unary struct {
	Pos
	Op      string
	Operand Expr
}

func (Unary) NodeKind() Kind { return KindUnary }

// MemberAccess is `obj.key` (Computed=false) or `obj[key]` (Computed=true).
type MemberAccess struct {
	Pos
	Object   Expr
	Key      Expr // Identifier for dot access, any expr for computed access
	Computed bool
}

func (MemberAccess) NodeKind() Kind { return KindMemberAccess }

// Call is `callee(args...)`.
type Call struct {
	Pos
	Callee Expr
	Args   []Expr
}

func (Call) NodeKind() Kind { return KindCall }

// KeysOf is the `keysOf expr` unary.
type KeysOf struct {
	Pos
	Operand Expr
}

func (KeysOf) NodeKind() Kind { return KindKeysOf }

// Block is a `{ stmt... }` sequence, also used as a callback body.
type Block struct {
	Pos
	Statements []Stmt
}

func (Block) NodeKind() Kind { return KindBlock }
func (Block) IsBlock() bool  { return true } // satisfies value.BlockRef

// VarDecl is `let name = expr;`.
type VarDecl struct {
	Pos
	Name  string
	Value Expr
}

func (VarDecl) NodeKind() Kind { return KindVarDecl }

// AssignTarget is either an identifier or a member-access assignment
// target.
type AssignTarget struct {
	Identifier string        // set when assigning to a bare identifier
	Member     *MemberAccess // set when assigning to obj.key / obj[key]
}

// Assignment is `target = expr;`.
type Assignment struct {
	Pos
	Target AssignTarget
	Value  Expr
}

func (Assignment) NodeKind() Kind { return KindAssignment }

// Conditional is `if (cond) { then } else { otherwise }`.
type Conditional struct {
	Pos
	Condition Expr
	Then      *Block
	Else      *Block // nil if no else-branch
}

func (Conditional) NodeKind() Kind { return KindConditional }

// Loop is `loop item in iterable { body }`.
type Loop struct {
	Pos
	ItemName string
	Iterable Expr
	Body     *Block
}

func (Loop) NodeKind() Kind { return KindLoop }

// Break is `break;` / `end;`.
type Break struct{ Pos }

func (Break) NodeKind() Kind { return KindBreak }

// Continue is `continue;`.
type Continue struct{ Pos }

func (Continue) NodeKind() Kind { return KindContinue }

// Return is `return expr;` (Value is nil for a bare `return;`).
type Return struct {
	Pos
	Value Expr
}

func (Return) NodeKind() Kind { return KindReturn }

// CallbackDef is a named callback/function definition.
type CallbackDef struct {
	Pos
	Name   string
	Params []string
	Body   *Block
}

func (CallbackDef) NodeKind() Kind { return KindCallbackDef }

// ExprStmt wraps an expression used as a statement (e.g. a bare call).
type ExprStmt struct {
	Pos
	Expr Expr
}

func (ExprStmt) NodeKind() Kind { return KindExprStmt }
