package ast

import "github.com/z80ac/z80ac/token"

// IntLiteral is an integer literal (decimal or $hex), its value already
// parsed by the lexer.
type IntLiteral struct {
	exprBase
	Value int64
}

func NewIntLiteral(value int64, line int) *IntLiteral {
	return &IntLiteral{exprBase: exprBase{line: line}, Value: value}
}

func (e *IntLiteral) Accept(v ExpressionVisitor) any { return v.VisitIntLiteral(e) }

// CharLiteral is a 'c' character literal.
type CharLiteral struct {
	exprBase
	Value byte
}

func NewCharLiteral(value byte, line int) *CharLiteral {
	return &CharLiteral{exprBase: exprBase{line: line}, Value: value}
}

func (e *CharLiteral) Accept(v ExpressionVisitor) any { return v.VisitCharLiteral(e) }

// StringLiteral is a "..." literal; it evaluates to a pointer to an
// interned, 0-terminated byte run in the data pool.
type StringLiteral struct {
	exprBase
	Value string
}

func NewStringLiteral(value string, line int) *StringLiteral {
	return &StringLiteral{exprBase: exprBase{line: line}, Value: value}
}

func (e *StringLiteral) Accept(v ExpressionVisitor) any { return v.VisitStringLiteral(e) }

// Identifier references a declared global, parameter, or local by name.
type Identifier struct {
	exprBase
	Name string
}

func NewIdentifier(name string, line int) *Identifier {
	return &Identifier{exprBase: exprBase{line: line}, Name: name}
}

func (e *Identifier) Accept(v ExpressionVisitor) any { return v.VisitIdentifier(e) }

// Index is an array index expression, e.g. a(i).
type Index struct {
	exprBase
	Array Expression
	Idx   Expression
}

func NewIndex(array, idx Expression, line int) *Index {
	return &Index{exprBase: exprBase{line: line}, Array: array, Idx: idx}
}

func (e *Index) Accept(v ExpressionVisitor) any { return v.VisitIndex(e) }

// BinOp identifies a binary operator.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLe
	OpGe
	OpAnd
	OpOr
	OpXor
	OpBitAnd
	OpBitOr
	OpBitXor
)

// Binary is a binary operator expression.
type Binary struct {
	exprBase
	Op    BinOp
	Left  Expression
	Right Expression
	Tok   token.Token // retained for diagnostics
}

func NewBinary(op BinOp, left, right Expression, tok token.Token) *Binary {
	return &Binary{exprBase: exprBase{line: tok.Line}, Op: op, Left: left, Right: right, Tok: tok}
}

func (e *Binary) Accept(v ExpressionVisitor) any { return v.VisitBinary(e) }

// UnOp identifies a unary operator.
type UnOp int

const (
	OpNeg UnOp = iota
	OpNot
)

// Unary is a unary minus or logical/bitwise NOT expression.
type Unary struct {
	exprBase
	Op      UnOp
	Operand Expression
}

func NewUnary(op UnOp, operand Expression, line int) *Unary {
	return &Unary{exprBase: exprBase{line: line}, Op: op, Operand: operand}
}

func (e *Unary) Accept(v ExpressionVisitor) any { return v.VisitUnary(e) }

// AddrOf is the `@lvalue` address-of expression.
type AddrOf struct {
	exprBase
	Operand Expression
}

func NewAddrOf(operand Expression, line int) *AddrOf {
	return &AddrOf{exprBase: exprBase{line: line}, Operand: operand}
}

func (e *AddrOf) Accept(v ExpressionVisitor) any { return v.VisitAddrOf(e) }

// Deref is the `^ptr` dereference expression.
type Deref struct {
	exprBase
	Operand Expression
}

func NewDeref(operand Expression, line int) *Deref {
	return &Deref{exprBase: exprBase{line: line}, Operand: operand}
}

func (e *Deref) Accept(v ExpressionVisitor) any { return v.VisitDeref(e) }

// CallExpr is a function call used in expression position (its result is
// used, unlike CallStmt).
type CallExpr struct {
	exprBase
	Callee string
	Args   []Expression
}

func NewCallExpr(callee string, args []Expression, line int) *CallExpr {
	return &CallExpr{exprBase: exprBase{line: line}, Callee: callee, Args: args}
}

func (e *CallExpr) Accept(v ExpressionVisitor) any { return v.VisitCallExpr(e) }
