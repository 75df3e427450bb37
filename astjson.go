package main

import (
	"github.com/z80ac/z80ac/ast"
)

// astPrinter turns an AST into nested maps and slices json.Marshal can
// render directly, following the teacher's parser/printer.go astPrinter:
// one Visit method per node producing a map[string]any tagged with its
// node kind.
type astPrinter struct{}

func (p astPrinter) unit(u *ast.Unit) any {
	globals := make([]any, len(u.Globals))
	for i, g := range u.Globals {
		globals[i] = map[string]any{"name": g.Name, "type": g.Type.String(), "line": g.Line}
	}
	routines := make([]any, len(u.Routines))
	for i, r := range u.Routines {
		routines[i] = p.routine(r)
	}
	return map[string]any{"globals": globals, "routines": routines}
}

func (p astPrinter) routine(r *ast.Routine) any {
	params := make([]any, len(r.Params))
	for i, pm := range r.Params {
		params[i] = map[string]any{"name": pm.Name, "type": pm.Type.String()}
	}
	locals := make([]any, len(r.Locals))
	for i, l := range r.Locals {
		locals[i] = map[string]any{"name": l.Name, "type": l.Type.String()}
	}
	body := p.stmts(r.Body)
	return map[string]any{
		"name":       r.Name,
		"isFunc":     r.IsFunc,
		"returnType": r.ReturnType.String(),
		"params":     params,
		"locals":     locals,
		"body":       body,
		"line":       r.Line,
	}
}

func (p astPrinter) stmts(stmts []ast.Stmt) []any {
	out := make([]any, len(stmts))
	for i, s := range stmts {
		out[i] = s.Accept(p)
	}
	return out
}

func (p astPrinter) expr(e ast.Expression) any {
	if e == nil {
		return nil
	}
	return e.Accept(p)
}

func (p astPrinter) VisitAssign(s *ast.Assign) any {
	return map[string]any{"type": "Assign", "name": s.Name, "value": p.expr(s.Value), "line": s.Line()}
}

func (p astPrinter) VisitIndexAssign(s *ast.IndexAssign) any {
	return map[string]any{"type": "IndexAssign", "array": s.Array, "index": p.expr(s.Idx), "value": p.expr(s.Value), "line": s.Line()}
}

func (p astPrinter) VisitIf(s *ast.If) any {
	elseIfs := make([]any, len(s.ElseIfs))
	for i, ei := range s.ElseIfs {
		elseIfs[i] = map[string]any{"cond": p.expr(ei.Cond), "body": p.stmts(ei.Body)}
	}
	return map[string]any{
		"type": "If", "cond": p.expr(s.Cond), "then": p.stmts(s.Then),
		"elseIfs": elseIfs, "else": p.stmts(s.Else), "hasElse": s.HasElse, "line": s.Line(),
	}
}

func (p astPrinter) VisitWhile(s *ast.While) any {
	return map[string]any{"type": "While", "cond": p.expr(s.Cond), "body": p.stmts(s.Body), "line": s.Line()}
}

func (p astPrinter) VisitFor(s *ast.For) any {
	return map[string]any{
		"type": "For", "var": s.Var, "from": p.expr(s.From), "to": p.expr(s.To),
		"step": p.expr(s.Step), "body": p.stmts(s.Body), "line": s.Line(),
	}
}

func (p astPrinter) VisitUntil(s *ast.Until) any {
	return map[string]any{"type": "Until", "cond": p.expr(s.Cond), "body": p.stmts(s.Body), "line": s.Line()}
}

func (p astPrinter) VisitCallStmt(s *ast.CallStmt) any {
	return map[string]any{"type": "CallStmt", "callee": s.Callee, "args": p.exprList(s.Args), "line": s.Line()}
}

func (p astPrinter) VisitReturn(s *ast.Return) any {
	return map[string]any{"type": "Return", "value": p.expr(s.Value), "line": s.Line()}
}

func (p astPrinter) exprList(args []ast.Expression) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = p.expr(a)
	}
	return out
}

func (p astPrinter) VisitIntLiteral(e *ast.IntLiteral) any {
	return map[string]any{"type": "IntLiteral", "value": e.Value}
}

func (p astPrinter) VisitCharLiteral(e *ast.CharLiteral) any {
	return map[string]any{"type": "CharLiteral", "value": e.Value}
}

func (p astPrinter) VisitStringLiteral(e *ast.StringLiteral) any {
	return map[string]any{"type": "StringLiteral", "value": e.Value}
}

func (p astPrinter) VisitIdentifier(e *ast.Identifier) any {
	return map[string]any{"type": "Identifier", "name": e.Name}
}

func (p astPrinter) VisitIndex(e *ast.Index) any {
	return map[string]any{"type": "Index", "array": p.expr(e.Array), "index": p.expr(e.Idx)}
}

func (p astPrinter) VisitBinary(e *ast.Binary) any {
	return map[string]any{"type": "Binary", "op": int(e.Op), "left": p.expr(e.Left), "right": p.expr(e.Right)}
}

func (p astPrinter) VisitUnary(e *ast.Unary) any {
	return map[string]any{"type": "Unary", "op": int(e.Op), "operand": p.expr(e.Operand)}
}

func (p astPrinter) VisitAddrOf(e *ast.AddrOf) any {
	return map[string]any{"type": "AddrOf", "operand": p.expr(e.Operand)}
}

func (p astPrinter) VisitDeref(e *ast.Deref) any {
	return map[string]any{"type": "Deref", "operand": p.expr(e.Operand)}
}

func (p astPrinter) VisitCallExpr(e *ast.CallExpr) any {
	return map[string]any{"type": "CallExpr", "callee": e.Callee, "args": p.exprList(e.Args)}
}
