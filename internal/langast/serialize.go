package langast

// ToJSON renders n as a plain JSON-able value: a map carrying "kind"
// plus that node's fields, recursively. It is the wire shape for a
// `parse` response's AST result (spec §6) and deliberately omits Pos
// so that re-parsing minified/reformatted source yields a structurally
// identical result (spec §8's round-trip property).
func ToJSON(n Node) any {
	if n == nil {
		return nil
	}
	switch v := n.(type) {
	case *NullLiteral:
		return map[string]any{"kind": string(KindNullLiteral)}
	case *BoolLiteral:
		return map[string]any{"kind": string(KindBoolLiteral), "value": v.Value}
	case *NumberLiteral:
		return map[string]any{"kind": string(KindNumberLiteral), "value": v.Value}
	case *StringLiteral:
		return map[string]any{"kind": string(KindStringLiteral), "value": v.Value}
	case *ArrayLiteral:
		elems := make([]any, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = ToJSON(e)
		}
		return map[string]any{"kind": string(KindArrayLiteral), "elements": elems}
	case *ObjectLiteral:
		props := make([]any, len(v.Properties))
		for i, p := range v.Properties {
			props[i] = map[string]any{"key": p.Key, "value": ToJSON(p.Value)}
		}
		return map[string]any{"kind": string(KindObjectLiteral), "properties": props}
	case *Identifier:
		return map[string]any{"kind": string(KindIdentifier), "name": v.Name}
	case *Binary:
		return map[string]any{"kind": string(KindBinary), "op": v.Op, "left": ToJSON(v.Left), "right": ToJSON(v.Right)}
	case *Unary:
		return map[string]any{"kind": string(KindUnary), "op": v.Op, "operand": ToJSON(v.Operand)}
	case *MemberAccess:
		return map[string]any{"kind": string(KindMemberAccess), "object": ToJSON(v.Object), "key": ToJSON(v.Key), "computed": v.Computed}
	case *Call:
		args := make([]any, len(v.Args))
		for i, a := range v.Args {
			args[i] = ToJSON(a)
		}
		return map[string]any{"kind": string(KindCall), "callee": ToJSON(v.Callee), "arguments": args}
	case *KeysOf:
		return map[string]any{"kind": string(KindKeysOf), "operand": ToJSON(v.Operand)}
	case *Block:
		stmts := make([]any, len(v.Statements))
		for i, s := range v.Statements {
			stmts[i] = ToJSON(s)
		}
		return map[string]any{"kind": string(KindBlock), "statements": stmts}
	case *VarDecl:
		return map[string]any{"kind": string(KindVarDecl), "name": v.Name, "value": ToJSON(v.Value)}
	case *Assignment:
		target := map[string]any{}
		if v.Target.Member != nil {
			target["member"] = ToJSON(v.Target.Member)
		} else {
			target["identifier"] = v.Target.Identifier
		}
		return map[string]any{"kind": string(KindAssignment), "target": target, "value": ToJSON(v.Value)}
	case *Conditional:
		out := map[string]any{"kind": string(KindConditional), "condition": ToJSON(v.Condition), "then": ToJSON(v.Then)}
		if v.Else != nil {
			out["else"] = ToJSON(v.Else)
		}
		return out
	case *Loop:
		return map[string]any{"kind": string(KindLoop), "item": v.ItemName, "iterable": ToJSON(v.Iterable), "body": ToJSON(v.Body)}
	case *Break:
		return map[string]any{"kind": string(KindBreak)}
	case *Continue:
		return map[string]any{"kind": string(KindContinue)}
	case *Return:
		out := map[string]any{"kind": string(KindReturn)}
		if v.Value != nil {
			out["value"] = ToJSON(v.Value)
		}
		return out
	case *CallbackDef:
		return map[string]any{"kind": string(KindCallbackDef), "name": v.Name, "params": v.Params, "body": ToJSON(v.Body)}
	case *ExprStmt:
		return map[string]any{"kind": string(KindExprStmt), "expr": ToJSON(v.Expr)}
	default:
		return map[string]any{"kind": string(n.NodeKind())}
	}
}
