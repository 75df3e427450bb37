package codegen

import (
	"github.com/z80ac/z80ac/ast"
	"github.com/z80ac/z80ac/types"
	"github.com/z80ac/z80ac/z80asm"
)

func (g *Generator) VisitIntLiteral(e *ast.IntLiteral) any {
	if e.Type().Is8Bit() {
		g.emit(z80asm.LDRegImm8(z80asm.A, byte(e.Value)))
	} else {
		g.emit(z80asm.LDPairImm16(z80asm.HL, uint16(e.Value)))
	}
	return nil
}

func (g *Generator) VisitCharLiteral(e *ast.CharLiteral) any {
	g.emit(z80asm.LDRegImm8(z80asm.A, e.Value))
	return nil
}

func (g *Generator) VisitStringLiteral(e *ast.StringLiteral) any {
	idx := g.internString(e.Value)
	site := len(g.code) + 1
	g.emit(z80asm.LDPairImm16(z80asm.HL, 0))
	g.patches = append(g.patches, Patch{Site: site, Kind: PatchString, StrIndex: idx})
	return nil
}

func (g *Generator) VisitIdentifier(e *ast.Identifier) any {
	g.loadVar(g.lookup(e.Name))
	return nil
}

func (g *Generator) VisitIndex(e *ast.Index) any {
	arr := g.lookup(e.Array.(*ast.Identifier).Name)
	g.computeArrayElemAddr(arr, e.Idx)
	g.loadThroughHL(arr.Type.ElemType())
	return nil
}

// loadThroughHL reads a value of type elem from the address in HL,
// leaving it in A (8-bit) or HL (16-bit, per the "Array index 16"
// contract: low byte first, then high byte, then EX DE,HL).
func (g *Generator) loadThroughHL(elem types.Type) {
	if elem.Is8Bit() {
		g.emit(z80asm.LDRegIndHL(z80asm.A))
		return
	}
	g.emit(z80asm.LDRegIndHL(z80asm.E))
	g.emit(z80asm.INCPair(z80asm.HL))
	g.emit(z80asm.LDRegIndHL(z80asm.D))
	g.emit(z80asm.EXDEHL())
}

func (g *Generator) VisitAddrOf(e *ast.AddrOf) any {
	switch op := e.Operand.(type) {
	case *ast.Identifier:
		v := g.lookup(op.Name)
		g.emit(z80asm.LDPairImm16(z80asm.HL, v.Addr))
	case *ast.Index:
		arr := g.lookup(op.Array.(*ast.Identifier).Name)
		g.computeArrayElemAddr(arr, op.Idx)
	}
	return nil
}

func (g *Generator) VisitDeref(e *ast.Deref) any {
	g.genExpr(e.Operand) // pointer value -> HL
	g.loadThroughHL(*e.Operand.Type().Inner)
	return nil
}

func (g *Generator) VisitUnary(e *ast.Unary) any {
	switch e.Op {
	case ast.OpNeg:
		if e.Type().Is8Bit() {
			g.genExpr(e.Operand)
			g.emit(z80asm.NEG())
		} else {
			g.genExprAs16(e.Operand)
			g.negateHL()
		}
	case ast.OpNot:
		if e.Type().Is8Bit() {
			g.genExpr(e.Operand)
			g.emit(z80asm.CPL())
		} else {
			g.genExprAs16(e.Operand)
			g.complementHL()
		}
	}
	return nil
}

// negateHL computes HL = -HL (two's complement: complement then +1,
// INC HL carrying correctly from L into H).
func (g *Generator) negateHL() {
	g.complementHL()
	g.emit(z80asm.INCPair(z80asm.HL))
}

// complementHL computes HL = ^HL byte-wise; the Z80 has no 16-bit CPL.
func (g *Generator) complementHL() {
	g.emit(z80asm.LDRegReg(z80asm.A, z80asm.L))
	g.emit(z80asm.CPL())
	g.emit(z80asm.LDRegReg(z80asm.L, z80asm.A))
	g.emit(z80asm.LDRegReg(z80asm.A, z80asm.H))
	g.emit(z80asm.CPL())
	g.emit(z80asm.LDRegReg(z80asm.H, z80asm.A))
}

func (g *Generator) VisitBinary(e *ast.Binary) any {
	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor, ast.OpAnd, ast.OpOr, ast.OpXor:
		g.genArithBitwise(e)
	case ast.OpMul:
		g.genMul(e)
	case ast.OpDiv:
		g.genDivMod(e, false)
	case ast.OpMod:
		g.genDivMod(e, true)
	default: // comparisons
		g.genCompareFlags(e.Left, e.Right)
		g.emitBoolFromFlags(e.Op)
	}
	return nil
}

// genArithBitwise implements Section 4.4's binary-op emission contract:
// 8-bit operands combine directly through A/B; 16-bit operands go
// through the eval-lhs/PUSH/eval-rhs/EX DE,HL/POP/op sequence, with
// AND/OR/XOR (and their keyword spellings, Open Question decision 6)
// done byte-wise since the Z80 has no 16-bit logical instructions.
func (g *Generator) genArithBitwise(e *ast.Binary) {
	width := types.Widen(e.Left.Type(), e.Right.Type())
	if width.Is8Bit() {
		g.genExpr(e.Right)
		g.emit(z80asm.LDRegReg(z80asm.B, z80asm.A))
		g.genExpr(e.Left)
		switch e.Op {
		case ast.OpAdd:
			g.emit(z80asm.ADDAReg(z80asm.B))
		case ast.OpSub:
			g.emit(z80asm.SUBReg(z80asm.B))
		case ast.OpBitAnd, ast.OpAnd:
			g.emit(z80asm.ANDReg(z80asm.B))
		case ast.OpBitOr, ast.OpOr:
			g.emit(z80asm.ORReg(z80asm.B))
		case ast.OpBitXor, ast.OpXor:
			g.emit(z80asm.XORReg(z80asm.B))
		}
		return
	}

	g.genExprAs16(e.Left)
	g.emit(z80asm.PUSH(z80asm.HL))
	g.genExprAs16(e.Right)
	g.emit(z80asm.EXDEHL())
	g.emit(z80asm.POP(z80asm.HL))
	switch e.Op {
	case ast.OpAdd:
		g.emit(z80asm.ADDHLPair(z80asm.DE))
	case ast.OpSub:
		g.emit(z80asm.ORReg(z80asm.A)) // clear carry before SBC
		g.emit(z80asm.SBCHLPair(z80asm.DE))
	case ast.OpBitAnd, ast.OpAnd:
		g.logic16(z80asm.ANDReg)
	case ast.OpBitOr, ast.OpOr:
		g.logic16(z80asm.ORReg)
	case ast.OpBitXor, ast.OpXor:
		g.logic16(z80asm.XORReg)
	}
}

// logic16 combines HL (lhs) and DE (rhs) byte-wise into HL using op.
func (g *Generator) logic16(op func(z80asm.Reg8) []byte) {
	g.emit(z80asm.LDRegReg(z80asm.A, z80asm.L))
	g.emit(op(z80asm.E))
	g.emit(z80asm.LDRegReg(z80asm.L, z80asm.A))
	g.emit(z80asm.LDRegReg(z80asm.A, z80asm.H))
	g.emit(op(z80asm.D))
	g.emit(z80asm.LDRegReg(z80asm.H, z80asm.A))
}

// genMul and genDivMod always route through the 16-bit runtime helpers
// (Section 4.3 names a runtime division routine for non-constant
// operands; the Z80 has no multiply instruction at any width either, so
// * gets the same treatment). BYTE operands are zero-extended in and the
// result truncated back out.
func (g *Generator) genMul(e *ast.Binary) {
	g.genExprAs16(e.Left)
	g.emit(z80asm.PUSH(z80asm.HL))
	g.genExprAs16(e.Right)
	g.emit(z80asm.EXDEHL())
	g.emit(z80asm.POP(z80asm.HL))
	g.emitCallPlaceholder(runtimeMul)
	if e.Type().Is8Bit() {
		g.emit(z80asm.LDRegReg(z80asm.A, z80asm.L))
	}
}

func (g *Generator) genDivMod(e *ast.Binary, isMod bool) {
	g.genExprAs16(e.Left)
	g.emit(z80asm.PUSH(z80asm.HL))
	g.genExprAs16(e.Right)
	g.emit(z80asm.EXDEHL())
	g.emit(z80asm.POP(z80asm.HL))
	g.emitCallPlaceholder(runtimeDiv)
	if isMod {
		g.emit(z80asm.EXDEHL()) // remainder (DE) -> HL
	}
	if e.Type().Is8Bit() {
		g.emit(z80asm.LDRegReg(z80asm.A, z80asm.L))
	}
}

// genCompareFlags evaluates left and right and leaves Z/C set as if by
// `left - right`: Carry set iff left < right, Zero set iff left == right.
// INT operands get their sign bits flipped first so the Z80's unsigned
// SBC HL,DE can be read as a signed comparison (signed_lt(a,b) ==
// unsigned_lt(a^0x8000, b^0x8000), applied to the high byte only since
// XORing 0x80 into the top byte is the same transform).
func (g *Generator) genCompareFlags(left, right ast.Expression) {
	width := types.Widen(left.Type(), right.Type())
	if width.Is8Bit() {
		g.genExpr(right)
		g.emit(z80asm.LDRegReg(z80asm.B, z80asm.A))
		g.genExpr(left)
		g.emit(z80asm.CPReg(z80asm.B))
		return
	}

	g.genExprAs16(left)
	g.emit(z80asm.PUSH(z80asm.HL))
	g.genExprAs16(right)
	g.emit(z80asm.EXDEHL())
	g.emit(z80asm.POP(z80asm.HL))
	if width.Kind == types.KindInt {
		g.emit(z80asm.LDRegReg(z80asm.A, z80asm.H))
		g.emit(z80asm.XORImm8(0x80))
		g.emit(z80asm.LDRegReg(z80asm.H, z80asm.A))
		g.emit(z80asm.LDRegReg(z80asm.A, z80asm.D))
		g.emit(z80asm.XORImm8(0x80))
		g.emit(z80asm.LDRegReg(z80asm.D, z80asm.A))
	}
	g.emit(z80asm.ORReg(z80asm.A)) // clear carry before SBC
	g.emit(z80asm.SBCHLPair(z80asm.DE))
}

// emitBoolFromFlags materializes a BYTE 0/1 in A from the flags left by
// genCompareFlags, per op.
func (g *Generator) emitBoolFromFlags(op ast.BinOp) {
	switch op {
	case ast.OpEq:
		g.emitBoolSingle(z80asm.NZ)
	case ast.OpNeq:
		g.emitBoolSingle(z80asm.Z)
	case ast.OpLt:
		g.emitBoolSingle(z80asm.NC)
	case ast.OpGe:
		g.emitBoolSingle(z80asm.CY)
	case ast.OpGt:
		g.emitBoolGT()
	case ast.OpLe:
		g.emitBoolLE()
	}
}

func (g *Generator) emitBoolSingle(falseWhen z80asm.Cond) {
	g.emit(z80asm.LDRegImm8(z80asm.A, 0))
	site := g.emitJPCondPlaceholder(falseWhen)
	g.emit(z80asm.INCReg(z80asm.A))
	g.patchJPHere(site)
}

func (g *Generator) emitBoolGT() {
	g.emit(z80asm.LDRegImm8(z80asm.A, 0))
	siteC := g.emitJPCondPlaceholder(z80asm.CY)
	siteZ := g.emitJPCondPlaceholder(z80asm.Z)
	g.emit(z80asm.INCReg(z80asm.A))
	g.patchJPHere(siteC)
	g.patchJPHere(siteZ)
}

func (g *Generator) emitBoolLE() {
	g.emit(z80asm.LDRegImm8(z80asm.A, 0))
	siteC := g.emitJPCondPlaceholder(z80asm.CY)
	siteZ := g.emitJPCondPlaceholder(z80asm.Z)
	endSite := g.emitJPPlaceholder()
	truePos := g.addr()
	g.patchJPTo(siteC, truePos)
	g.patchJPTo(siteZ, truePos)
	g.emit(z80asm.INCReg(z80asm.A))
	g.patchJPHere(endSite)
}

func (g *Generator) VisitCallExpr(e *ast.CallExpr) any {
	g.genCall(e.Callee, e.Args)
	return nil
}

// genCall implements Section 4.4's call contract for user PROC/FUNCs
// (store each argument, in order, to the callee's allocated parameter
// slot, then CALL) and the register-passing convention codegen adopts
// for the six runtime built-ins and the two internal helpers, none of
// which have allocated parameter slots: a built-in takes its single
// argument already sitting in A or HL, matching its own evaluation.
func (g *Generator) genCall(callee string, args []ast.Expression) {
	sig, _ := g.table.LookupRoutine(callee)
	if sig.Builtin {
		if len(args) == 1 {
			g.genExpr(args[0])
			g.coerceAfterEval(args[0].Type(), sig.Params[0])
		}
	} else {
		addrs := g.table.ParamAddrs(callee)
		for i, arg := range args {
			g.genExpr(arg)
			g.coerceAfterEval(arg.Type(), sig.Params[i])
			if sig.Params[i].Is8Bit() {
				g.emit(z80asm.LDAddrFromA(addrs[i]))
			} else {
				g.emit(z80asm.LDAddrFromHL(addrs[i]))
			}
		}
	}
	g.emitCallPlaceholder(callee)
}
