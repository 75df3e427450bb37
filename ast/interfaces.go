// Package ast defines the abstract syntax tree produced by the parser and
// consumed by symbol resolution and code generation, following the
// visitor design the teacher's ast package uses.
package ast

import "github.com/z80ac/z80ac/types"

// ExpressionVisitor is implemented by anything that operates over
// Expression nodes: the type checker, the code generator, a pretty-printer.
type ExpressionVisitor interface {
	VisitIntLiteral(e *IntLiteral) any
	VisitCharLiteral(e *CharLiteral) any
	VisitStringLiteral(e *StringLiteral) any
	VisitIdentifier(e *Identifier) any
	VisitIndex(e *Index) any
	VisitBinary(e *Binary) any
	VisitUnary(e *Unary) any
	VisitAddrOf(e *AddrOf) any
	VisitDeref(e *Deref) any
	VisitCallExpr(e *CallExpr) any
}

// StmtVisitor is implemented by anything that operates over Stmt nodes.
type StmtVisitor interface {
	VisitAssign(s *Assign) any
	VisitIndexAssign(s *IndexAssign) any
	VisitIf(s *If) any
	VisitWhile(s *While) any
	VisitFor(s *For) any
	VisitUntil(s *Until) any
	VisitCallStmt(s *CallStmt) any
	VisitReturn(s *Return) any
}

// Expression is the base interface for all expression nodes.
type Expression interface {
	Accept(v ExpressionVisitor) any
	// Line returns the source line the expression starts on, for
	// diagnostics and the listing writer.
	Line() int
	// Type returns the expression's resolved type. It is only valid
	// after the type checker has run (invariant I1).
	Type() types.Type
	SetType(t types.Type)
}

// Stmt is the base interface for all statement nodes.
type Stmt interface {
	Accept(v StmtVisitor) any
	Line() int
}

// exprBase factors out the position/type bookkeeping every expression
// node needs, so node types stay focused on their own payload.
type exprBase struct {
	line     int
	resolved types.Type
}

func (e *exprBase) Line() int            { return e.line }
func (e *exprBase) Type() types.Type     { return e.resolved }
func (e *exprBase) SetType(t types.Type) { e.resolved = t }

type stmtBase struct {
	line int
}

func (s *stmtBase) Line() int { return s.line }
