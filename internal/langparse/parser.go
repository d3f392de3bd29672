package langparse

import (
	"fmt"

	"github.com/hexput/runtime/internal/langast"
)

// Location is a source position, surfaced on ParseError per spec §4.5.
type Location struct {
	Line   int
	Column int
}

// ParseError is returned unchanged to the client on a parse failure
// (spec §4.5, §7).
type ParseError struct {
	Message  string
	Location Location
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Location.Line, e.Location.Column)
}

type parser struct {
	tokens []token
	pos    int
	flags  langast.FeatureFlags
}

// Parse compiles source into a Block of statements, honoring flags at
// parse time for every gated construct (object/array literals, loops,
// callbacks, conditionals, return, loop-control, variable declarations,
// assignments, member access, keysOf, and disabled operators). The
// interpreter re-checks every flag at evaluation time regardless (spec
// §4.2: "a parsed AST cannot smuggle a disabled construct past
// execution"), so parse-time rejection here is an optimization, not the
// sole enforcement point.
func Parse(source string, flags langast.FeatureFlags) (*langast.Block, error) {
	toks, err := lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: toks, flags: flags}
	block := &langast.Block{}
	for !p.atEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	return block, nil
}

func (p *parser) atEnd() bool {
	return p.cur().kind == tokEOF
}

func (p *parser) cur() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errAt(t token, format string, args ...any) error {
	return &ParseError{Message: fmt.Sprintf(format, args...), Location: Location{Line: t.line, Column: t.col}}
}

func (p *parser) expectPunct(text string) (token, error) {
	t := p.cur()
	if t.kind != tokPunct || t.text != text {
		return t, p.errAt(t, "expected %q, got %q", text, t.text)
	}
	return p.advance(), nil
}

func (p *parser) isPunct(text string) bool {
	t := p.cur()
	return t.kind == tokPunct && t.text == text
}

func (p *parser) isKeyword(text string) bool {
	t := p.cur()
	return t.kind == tokKeyword && t.text == text
}

func pos(t token) langast.Pos {
	return langast.Pos{Line: t.line, Column: t.col}
}

// --- Statements ---

func (p *parser) parseStatement() (langast.Stmt, error) {
	t := p.cur()
	switch {
	case p.isKeyword("let"):
		return p.parseVarDecl()
	case p.isKeyword("if"):
		return p.parseConditional()
	case p.isKeyword("loop"):
		return p.parseLoop()
	case p.isKeyword("break"), p.isKeyword("end"):
		p.advance()
		p.consumeSemicolon()
		if p.flags.Disables(langast.KindBreak) {
			return nil, p.errAt(t, "FeatureDisabled: break")
		}
		return &langast.Break{Pos: pos(t)}, nil
	case p.isKeyword("continue"):
		p.advance()
		p.consumeSemicolon()
		if p.flags.Disables(langast.KindContinue) {
			return nil, p.errAt(t, "FeatureDisabled: continue")
		}
		return &langast.Continue{Pos: pos(t)}, nil
	case p.isKeyword("return"):
		return p.parseReturn()
	case p.isKeyword("function"):
		return p.parseCallbackDef()
	case p.isPunct("{"):
		return p.parseBlock()
	default:
		return p.parseAssignmentOrExprStatement()
	}
}

func (p *parser) consumeSemicolon() {
	if p.isPunct(";") {
		p.advance()
	}
}

func (p *parser) parseBlock() (*langast.Block, error) {
	start, err := p.expectPunct("{")
	if err != nil {
		return nil, err
	}
	block := &langast.Block{Pos: pos(start)}
	for !p.isPunct("}") {
		if p.atEnd() {
			return nil, p.errAt(p.cur(), "unterminated block")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.advance()
	return block, nil
}

func (p *parser) parseVarDecl() (langast.Stmt, error) {
	t := p.advance() // 'let'
	if p.flags.Disables(langast.KindVarDecl) {
		return nil, p.errAt(t, "FeatureDisabled: variable declaration")
	}
	name := p.cur()
	if name.kind != tokIdent {
		return nil, p.errAt(name, "expected identifier after 'let'")
	}
	p.advance()
	if _, err := p.expectPunct("="); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.consumeSemicolon()
	return &langast.VarDecl{Pos: pos(t), Name: name.text, Value: value}, nil
}

func (p *parser) parseConditional() (langast.Stmt, error) {
	t := p.advance() // 'if'
	if p.flags.Disables(langast.KindConditional) {
		return nil, p.errAt(t, "FeatureDisabled: conditional")
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBlock *langast.Block
	if p.isKeyword("else") {
		p.advance()
		if p.isKeyword("if") {
			elseStmt, err := p.parseConditional()
			if err != nil {
				return nil, err
			}
			elseBlock = &langast.Block{Statements: []langast.Stmt{elseStmt}}
		} else {
			elseBlock, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
		}
	}
	return &langast.Conditional{Pos: pos(t), Condition: cond, Then: thenBlock, Else: elseBlock}, nil
}

func (p *parser) parseLoop() (langast.Stmt, error) {
	t := p.advance() // 'loop'
	if p.flags.Disables(langast.KindLoop) {
		return nil, p.errAt(t, "FeatureDisabled: loop")
	}
	item := p.cur()
	if item.kind != tokIdent {
		return nil, p.errAt(item, "expected identifier after 'loop'")
	}
	p.advance()
	if !p.isKeyword("in") {
		return nil, p.errAt(p.cur(), "expected 'in' in loop")
	}
	p.advance()
	iterable, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &langast.Loop{Pos: pos(t), ItemName: item.text, Iterable: iterable, Body: body}, nil
}

func (p *parser) parseReturn() (langast.Stmt, error) {
	t := p.advance() // 'return'
	if p.flags.Disables(langast.KindReturn) {
		return nil, p.errAt(t, "FeatureDisabled: return")
	}
	if p.isPunct(";") {
		p.advance()
		return &langast.Return{Pos: pos(t)}, nil
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.consumeSemicolon()
	return &langast.Return{Pos: pos(t), Value: value}, nil
}

func (p *parser) parseCallbackDef() (langast.Stmt, error) {
	t := p.advance() // 'function'
	if p.flags.Disables(langast.KindCallbackDef) {
		return nil, p.errAt(t, "FeatureDisabled: callback")
	}
	name := p.cur()
	if name.kind != tokIdent {
		return nil, p.errAt(name, "expected function name")
	}
	p.advance()
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var params []string
	for !p.isPunct(")") {
		pt := p.cur()
		if pt.kind != tokIdent {
			return nil, p.errAt(pt, "expected parameter name")
		}
		p.advance()
		params = append(params, pt.text)
		if p.isPunct(",") {
			p.advance()
		}
	}
	p.advance() // ')'
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &langast.CallbackDef{Pos: pos(t), Name: name.text, Params: params, Body: body}, nil
}

func (p *parser) parseAssignmentOrExprStatement() (langast.Stmt, error) {
	t := p.cur()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.isPunct("=") {
		eq := p.advance()
		if p.flags.Disables(langast.KindAssignment) {
			return nil, p.errAt(eq, "FeatureDisabled: assignment")
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.consumeSemicolon()
		target, err := exprToAssignTarget(expr, p, t)
		if err != nil {
			return nil, err
		}
		return &langast.Assignment{Pos: pos(t), Target: target, Value: value}, nil
	}
	p.consumeSemicolon()
	return &langast.ExprStmt{Pos: pos(t), Expr: expr}, nil
}

func exprToAssignTarget(expr langast.Expr, p *parser, t token) (langast.AssignTarget, error) {
	switch e := expr.(type) {
	case *langast.Identifier:
		return langast.AssignTarget{Identifier: e.Name}, nil
	case *langast.MemberAccess:
		return langast.AssignTarget{Member: e}, nil
	default:
		return langast.AssignTarget{}, p.errAt(t, "invalid assignment target")
	}
}

// --- Expressions (precedence climbing) ---

var binaryPrecedence = map[string]int{
	"||": 1, "&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

func (p *parser) parseExpr() (langast.Expr, error) {
	return p.parseBinary(1)
}

func (p *parser) parseBinary(minPrec int) (langast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		if t.kind != tokPunct {
			break
		}
		prec, ok := binaryPrecedence[t.text]
		if !ok || prec < minPrec {
			break
		}
		if p.flags.DisablesOperator(t.text) {
			return nil, p.errAt(t, "FeatureDisabled: operator %s", t.text)
		}
		op := p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &langast.Binary{Pos: pos(op), Op: op.text, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (langast.Expr, error) {
	t := p.cur()
	if t.kind == tokPunct && (t.text == "-" || t.text == "!") {
		if p.flags.DisablesOperator(t.text) {
			return nil, p.errAt(t, "FeatureDisabled: operator %s", t.text)
		}
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &langast.Unary{Pos: pos(t), Op: t.text, Operand: operand}, nil
	}
	if p.isKeyword("keysOf") {
		if p.flags.Disables(langast.KindKeysOf) {
			return nil, p.errAt(t, "FeatureDisabled: keysOf")
		}
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &langast.KeysOf{Pos: pos(t), Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (langast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		if t.kind != tokPunct {
			break
		}
		switch t.text {
		case ".":
			if p.flags.Disables(langast.KindMemberAccess) {
				return nil, p.errAt(t, "FeatureDisabled: member access")
			}
			p.advance()
			name := p.cur()
			if name.kind != tokIdent && name.kind != tokKeyword {
				return nil, p.errAt(name, "expected member name after '.'")
			}
			p.advance()
			key := &langast.Identifier{Pos: pos(name), Name: name.text}
			expr = &langast.MemberAccess{Pos: pos(t), Object: expr, Key: key, Computed: false}
		case "[":
			if p.flags.Disables(langast.KindMemberAccess) {
				return nil, p.errAt(t, "FeatureDisabled: member access")
			}
			p.advance()
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			expr = &langast.MemberAccess{Pos: pos(t), Object: expr, Key: key, Computed: true}
		case "(":
			p.advance()
			var args []langast.Expr
			for !p.isPunct(")") {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.isPunct(",") {
					p.advance()
				}
			}
			p.advance()
			expr = &langast.Call{Pos: pos(t), Callee: expr, Args: args}
		default:
			return expr, nil
		}
	}
	return expr, nil
}

func (p *parser) parsePrimary() (langast.Expr, error) {
	t := p.cur()
	switch {
	case t.kind == tokNumber:
		p.advance()
		return &langast.NumberLiteral{Pos: pos(t), Value: t.num}, nil
	case t.kind == tokString:
		p.advance()
		return &langast.StringLiteral{Pos: pos(t), Value: t.text}, nil
	case t.kind == tokKeyword && t.text == "true":
		p.advance()
		return &langast.BoolLiteral{Pos: pos(t), Value: true}, nil
	case t.kind == tokKeyword && t.text == "false":
		p.advance()
		return &langast.BoolLiteral{Pos: pos(t), Value: false}, nil
	case t.kind == tokKeyword && t.text == "null":
		p.advance()
		return &langast.NullLiteral{Pos: pos(t)}, nil
	case t.kind == tokIdent:
		p.advance()
		return &langast.Identifier{Pos: pos(t), Name: t.text}, nil
	case t.kind == tokPunct && t.text == "(":
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return expr, nil
	case t.kind == tokPunct && t.text == "[":
		return p.parseArrayLiteral()
	case t.kind == tokPunct && t.text == "{":
		return p.parseObjectLiteral()
	default:
		return nil, p.errAt(t, "unexpected token %q", t.text)
	}
}

func (p *parser) parseArrayLiteral() (langast.Expr, error) {
	t := p.advance() // '['
	if p.flags.Disables(langast.KindArrayLiteral) {
		return nil, p.errAt(t, "FeatureDisabled: array literal")
	}
	lit := &langast.ArrayLiteral{Pos: pos(t)}
	for !p.isPunct("]") {
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit.Elements = append(lit.Elements, elem)
		if p.isPunct(",") {
			p.advance()
		}
	}
	p.advance()
	return lit, nil
}

func (p *parser) parseObjectLiteral() (langast.Expr, error) {
	t := p.advance() // '{'
	if p.flags.Disables(langast.KindObjectLiteral) {
		return nil, p.errAt(t, "FeatureDisabled: object literal")
	}
	lit := &langast.ObjectLiteral{Pos: pos(t)}
	for !p.isPunct("}") {
		key := p.cur()
		if key.kind != tokIdent && key.kind != tokString && key.kind != tokKeyword {
			return nil, p.errAt(key, "expected property key")
		}
		p.advance()
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit.Properties = append(lit.Properties, langast.ObjectProperty{Key: key.text, Value: value})
		if p.isPunct(",") {
			p.advance()
		}
	}
	p.advance()
	return lit, nil
}
