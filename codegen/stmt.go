package codegen

import (
	"github.com/z80ac/z80ac/ast"
	"github.com/z80ac/z80ac/symtab"
	"github.com/z80ac/z80ac/z80asm"
)

func (g *Generator) VisitAssign(s *ast.Assign) any {
	v := g.lookup(s.Name)
	g.genExpr(s.Value)
	g.storeVar(v, s.Value.Type())
	return nil
}

// VisitIndexAssign stores Value through the array element's address.
// The address is computed first and held across the value's evaluation
// on the stack (PUSH/POP), since evaluating Value may itself use HL/DE.
// A 16-bit element store uses EX (SP),HL to swap the saved address back
// into HL while the value lands back on the stack, the inverse of the
// "Array index 16" load contract's LD E,(HL);INC HL;LD D,(HL);EX DE,HL.
func (g *Generator) VisitIndexAssign(s *ast.IndexAssign) any {
	arr := g.lookup(s.Array)
	g.computeArrayElemAddr(arr, s.Idx) // HL = address
	g.emit(z80asm.PUSH(z80asm.HL))
	g.genExpr(s.Value)
	elem := arr.Type.ElemType()
	g.coerceAfterEval(s.Value.Type(), elem)

	if elem.Is8Bit() {
		g.emit(z80asm.POP(z80asm.HL)) // address back into HL; A (value) untouched
		g.emit(z80asm.LDIndHLFromReg(z80asm.A))
		return nil
	}
	g.emit(z80asm.EXSPHL())           // HL = address, stack top = value
	g.emit(z80asm.POP(z80asm.DE))     // DE = value, stack balanced
	g.emit(z80asm.LDIndHLFromReg(z80asm.E))
	g.emit(z80asm.INCPair(z80asm.HL))
	g.emit(z80asm.LDIndHLFromReg(z80asm.D))
	return nil
}

// VisitIf follows Section 4.4's IF emission contract: evaluate Cond into
// A, test it with OR A (Z set iff false), jump to the next ELSEIF/ELSE/FI
// on false, and an unconditional jump out of the whole chain after the
// THEN branch when an ELSEIF or ELSE follows and after every ELSEIF branch
// (the last ELSEIF's jump, with no ELSE, targets the very next byte) --
// patched immediately, per the teacher's
// patchJump idiom, since the target position is known as soon as
// generation reaches it.
func (g *Generator) VisitIf(s *ast.If) any {
	g.genExpr(s.Cond)
	g.emit(z80asm.ORReg(z80asm.A))
	falseSite := g.emitJPCondPlaceholder(z80asm.Z)
	g.genStmts(s.Then)

	var endSites []int
	hasMore := len(s.ElseIfs) > 0 || s.HasElse
	if hasMore {
		endSites = append(endSites, g.emitJPPlaceholder())
	}
	g.patchJPHere(falseSite)

	for _, ei := range s.ElseIfs {
		g.genExpr(ei.Cond)
		g.emit(z80asm.ORReg(z80asm.A))
		nextSite := g.emitJPCondPlaceholder(z80asm.Z)
		g.genStmts(ei.Body)
		endSites = append(endSites, g.emitJPPlaceholder())
		g.patchJPHere(nextSite)
	}
	if s.HasElse {
		g.genStmts(s.Else)
	}
	for _, site := range endSites {
		g.patchJPHere(site)
	}
	return nil
}

// VisitWhile is a pre-test loop: L_top: eval Cond; JP Z,L_end; body;
// JP L_top; L_end:.
func (g *Generator) VisitWhile(s *ast.While) any {
	topAddr := g.addr()
	g.genExpr(s.Cond)
	g.emit(z80asm.ORReg(z80asm.A))
	endSite := g.emitJPCondPlaceholder(z80asm.Z)
	g.genStmts(s.Body)
	g.emit(z80asm.JP(topAddr))
	g.patchJPHere(endSite)
	return nil
}

// VisitUntil is a post-test loop: L_top: body; eval Cond; JP Z,L_top
// (loop continues while Cond is false).
func (g *Generator) VisitUntil(s *ast.Until) any {
	topAddr := g.addr()
	g.genStmts(s.Body)
	g.genExpr(s.Cond)
	g.emit(z80asm.ORReg(z80asm.A))
	g.emit(z80asm.JPCond(z80asm.Z, topAddr))
	return nil
}

// constStepNegative statically classifies a STEP expression's sign where
// possible: nil (omitted) is +1, a bare or negated integer literal is
// whatever its sign says, and anything else isn't knowable at compile
// time. ok is false for that last case.
func constStepNegative(step ast.Expression) (neg bool, ok bool) {
	switch e := step.(type) {
	case nil:
		return false, true
	case *ast.IntLiteral:
		return e.Value < 0, true
	case *ast.Unary:
		if e.Op == ast.OpNeg {
			if lit, isLit := e.Operand.(*ast.IntLiteral); isLit {
				return lit.Value >= 0, true
			}
		}
	}
	return false, false
}

// VisitFor implements a counted loop per spec Boundary Behavior B2: an
// ascending STEP counts i up while i<=To, a descending (negative) STEP
// counts i down while i>=To. genCompareFlags(i, To) always leaves CY set
// iff i<To and Z set iff i==To (as if by i-To), so ascending continues on
// CY-or-Z and descending continues on NC (the complement of CY covers
// both i>To and i==To). Bound and step expressions are re-evaluated on
// every iteration rather than cached, matching the straightforward,
// non-optimizing emission already used for WHILE/IF conditions.
func (g *Generator) VisitFor(s *ast.For) any {
	v := g.lookup(s.Var)
	g.genExpr(s.From)
	g.storeVar(v, s.From.Type())

	if neg, ok := constStepNegative(s.Step); ok {
		g.emitForBody(s, v, neg)
		return nil
	}

	// STEP's sign isn't a compile-time constant: evaluate it once, branch
	// to whichever counting direction it names, and emit each variant's
	// loop once. STEP is assumed not to change sign across iterations of
	// a single loop.
	if v.Type.Is8Bit() {
		g.genExpr(s.Step)
	} else {
		g.genExprAs16(s.Step)
		g.emit(z80asm.LDRegReg(z80asm.A, z80asm.H))
	}
	g.emit(z80asm.ANDImm8(0x80))
	descSite := g.emitJPCondPlaceholder(z80asm.NZ) // high bit set: negative step
	g.emitForBody(s, v, false)
	endSite := g.emitJPPlaceholder()
	g.patchJPHere(descSite)
	g.emitForBody(s, v, true)
	g.patchJPHere(endSite)
	return nil
}

// emitForBody emits one counted-loop variant (ascending when descending is
// false, descending otherwise) assuming From has already been stored into v.
func (g *Generator) emitForBody(s *ast.For, v *symtab.Variable, descending bool) {
	topAddr := g.addr()
	loopVar := ast.NewIdentifier(s.Var, s.Line())
	loopVar.SetType(v.Type)
	g.genCompareFlags(loopVar, s.To)

	var endSite int
	if descending {
		continueSite := g.emitJPCondPlaceholder(z80asm.NC) // i >= to: continue
		endSite = g.emitJPPlaceholder()                     // i < to: exit
		g.patchJPHere(continueSite)
	} else {
		continueSiteC := g.emitJPCondPlaceholder(z80asm.CY) // i < to: continue
		continueSiteZ := g.emitJPCondPlaceholder(z80asm.Z)  // i == to: continue
		endSite = g.emitJPPlaceholder()                      // i > to: exit
		g.patchJPHere(continueSiteC)
		g.patchJPHere(continueSiteZ)
	}

	g.genStmts(s.Body)

	if v.Type.Is8Bit() {
		if s.Step != nil {
			g.genExpr(s.Step)
		} else {
			g.emit(z80asm.LDRegImm8(z80asm.A, 1))
		}
		g.emit(z80asm.LDRegReg(z80asm.B, z80asm.A))
		g.loadVar(v)
		g.emit(z80asm.ADDAReg(z80asm.B))
	} else {
		g.loadVar(v)
		g.emit(z80asm.PUSH(z80asm.HL))
		if s.Step != nil {
			g.genExprAs16(s.Step)
		} else {
			g.emit(z80asm.LDPairImm16(z80asm.HL, 1))
		}
		g.emit(z80asm.EXDEHL())
		g.emit(z80asm.POP(z80asm.HL))
		g.emit(z80asm.ADDHLPair(z80asm.DE))
	}
	g.storeVar(v, v.Type)
	g.emit(z80asm.JP(topAddr))
	g.patchJPHere(endSite)
}

func (g *Generator) VisitCallStmt(s *ast.CallStmt) any {
	g.genCall(s.Callee, s.Args)
	return nil
}

func (g *Generator) VisitReturn(s *ast.Return) any {
	if s.Value != nil {
		g.genExpr(s.Value)
		g.coerceAfterEval(s.Value.Type(), g.currentSig.ReturnType)
	}
	g.emit(z80asm.RET())
	return nil
}
