package symtab

import (
	"github.com/z80ac/z80ac/ast"
	"github.com/z80ac/z80ac/diag"
	"github.com/z80ac/z80ac/types"
)

// Program is the output of resolution: the same *ast.Unit, now with every
// expression carrying a resolved type (invariant I1) and every
// ident(args) call-or-index site disambiguated, plus the symbol table
// that assigned storage to it and a direct pointer at the entry routine.
type Program struct {
	Unit    *ast.Unit
	Table   *Table
	Main    *ast.Routine
	Entries []*ast.Routine // Unit.Routines minus main, in declaration order, for codegen's iteration
}

// resolver implements ast.ExpressionVisitor and ast.StmtVisitor, walking
// one routine body at a time. Diagnostics are raised by panicking with a
// *diag.Error, mirroring the teacher's ASTCompiler (which panics
// SemanticError/DeveloperError from deep inside its Visit methods and
// recovers once at the top of CompileAST) since the visitor interfaces
// have no error return to thread one through by hand.
type resolver struct {
	table          *Table
	warnings       *diag.Warnings
	currentRoutine *RoutineSig
}

// Resolve type-checks and storage-assigns unit against table, which must
// already have the runtime built-ins registered (Section 4.5: "recorded
// ... as built-ins before parsing begins"). It returns the accumulated
// non-fatal warnings even when it also returns a fatal error, since a
// caller may want to report both.
func Resolve(unit *ast.Unit, table *Table) (prog *Program, warnings *diag.Warnings, err error) {
	r := &resolver{table: table, warnings: &diag.Warnings{}}
	warnings = r.warnings

	defer func() {
		if rec := recover(); rec != nil {
			if de, ok := rec.(*diag.Error); ok {
				err = de
				return
			}
			panic(rec)
		}
	}()

	for _, g := range unit.Globals {
		if e := table.DefineGlobal(g); e != nil {
			return nil, warnings, e
		}
	}
	for _, rt := range unit.Routines {
		if e := table.RegisterRoutineSignature(rt); e != nil {
			return nil, warnings, e
		}
	}

	var main *ast.Routine
	for _, rt := range unit.Routines {
		if rt.Name == "main" {
			main = rt
		}
		if rt.IsFunc && !containsReturnWithValue(rt.Body) {
			return nil, warnings, diag.New(diag.KindResolution, rt.Line, 0,
				"FUNC %q must contain at least one RETURN(expr)", rt.Name)
		}
	}
	if main == nil {
		return nil, warnings, diag.New(diag.KindResolution, 0, 0, "no PROC named \"main\" found")
	}
	if main.IsFunc || len(main.Params) != 0 {
		return nil, warnings, diag.New(diag.KindResolution, main.Line, 0,
			"\"main\" must be a parameterless PROC")
	}

	for _, rt := range unit.Routines {
		r.resolveRoutine(rt)
	}

	if e := DetectRecursion(unit.Routines); e != nil {
		return nil, warnings, e
	}

	var entries []*ast.Routine
	for _, rt := range unit.Routines {
		if rt != main {
			entries = append(entries, rt)
		}
	}
	return &Program{Unit: unit, Table: table, Main: main, Entries: entries}, warnings, nil
}

func containsReturnWithValue(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.Return:
			if n.Value != nil {
				return true
			}
		case *ast.If:
			if containsReturnWithValue(n.Then) || containsReturnWithValue(n.Else) {
				return true
			}
			for _, ei := range n.ElseIfs {
				if containsReturnWithValue(ei.Body) {
					return true
				}
			}
		case *ast.While:
			if containsReturnWithValue(n.Body) {
				return true
			}
		case *ast.For:
			if containsReturnWithValue(n.Body) {
				return true
			}
		case *ast.Until:
			if containsReturnWithValue(n.Body) {
				return true
			}
		}
	}
	return false
}

func (r *resolver) resolveRoutine(rt *ast.Routine) {
	sig, _ := r.table.LookupRoutine(rt.Name)
	r.currentRoutine = sig
	if err := r.table.BeginRoutine(rt); err != nil {
		panic(err)
	}
	defer r.table.EndRoutine()
	r.resolveStmts(rt.Body)
}

func (r *resolver) resolveStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		s.Accept(r)
	}
}

func (r *resolver) resolveExpr(e ast.Expression) ast.Expression {
	return e.Accept(r).(ast.Expression)
}

func fail(line int, format string, args ...any) {
	panic(diag.New(diag.KindType, line, 0, format, args...))
}

func failResolution(line int, format string, args ...any) {
	panic(diag.New(diag.KindResolution, line, 0, format, args...))
}

// checkLiteralOverflow enforces Boundary Behavior B1: an integer literal
// that doesn't fit the BYTE slot it's assigned to directly is a fatal
// literal-overflow error, not the ordinary narrowing warning a runtime
// CARD/INT value would get on the same assignment. VisitIntLiteral types
// any literal over 255 as CARD, so by the time AssignableTo sees it, it's
// indistinguishable from a real 16-bit value -- this check runs first,
// against the literal's own AST node, before that happens.
func checkLiteralOverflow(line int, value ast.Expression, target types.Type) {
	lit, ok := value.(*ast.IntLiteral)
	if !ok || target.Kind != types.KindByte {
		return
	}
	if lit.Value > 255 {
		panic(diag.New(diag.KindType, line, 0, "literal %d overflows BYTE (0-255)", lit.Value))
	}
}

// --- ExpressionVisitor ---

func (r *resolver) VisitIntLiteral(e *ast.IntLiteral) any {
	if e.Value <= 255 {
		e.SetType(types.Byte)
	} else {
		e.SetType(types.Card)
	}
	return ast.Expression(e)
}

func (r *resolver) VisitCharLiteral(e *ast.CharLiteral) any {
	e.SetType(types.Char)
	return ast.Expression(e)
}

func (r *resolver) VisitStringLiteral(e *ast.StringLiteral) any {
	e.SetType(types.Pointer(types.Byte))
	return ast.Expression(e)
}

func (r *resolver) VisitIdentifier(e *ast.Identifier) any {
	v, ok := r.table.LookupVariable(e.Name)
	if !ok {
		failResolution(e.Line(), "undefined identifier %q", e.Name)
	}
	e.SetType(v.Type)
	return ast.Expression(e)
}

func (r *resolver) VisitIndex(e *ast.Index) any {
	e.Array = r.resolveExpr(e.Array)
	e.Idx = r.resolveExpr(e.Idx)
	if !e.Array.Type().IsArray() {
		fail(e.Line(), "cannot index a value of type %s", e.Array.Type())
	}
	e.SetType(e.Array.Type().ElemType())
	return ast.Expression(e)
}

func (r *resolver) VisitBinary(e *ast.Binary) any {
	e.Left = r.resolveExpr(e.Left)
	e.Right = r.resolveExpr(e.Right)
	switch e.Op {
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		e.SetType(types.Byte)
	case ast.OpDiv, ast.OpMod:
		if lit, ok := e.Right.(*ast.IntLiteral); ok && lit.Value == 0 {
			fail(e.Line(), "division by zero constant")
		}
		e.SetType(types.Widen(e.Left.Type(), e.Right.Type()))
	default:
		e.SetType(types.Widen(e.Left.Type(), e.Right.Type()))
	}
	return ast.Expression(e)
}

func (r *resolver) VisitUnary(e *ast.Unary) any {
	e.Operand = r.resolveExpr(e.Operand)
	if e.Operand.Type().IsArray() || e.Operand.Type().Kind == types.KindPointer || e.Operand.Type().Kind == types.KindVoid {
		fail(e.Line(), "operator cannot apply to a value of type %s", e.Operand.Type())
	}
	e.SetType(e.Operand.Type())
	return ast.Expression(e)
}

func (r *resolver) VisitAddrOf(e *ast.AddrOf) any {
	e.Operand = r.resolveExpr(e.Operand)
	switch e.Operand.(type) {
	case *ast.Identifier, *ast.Index:
	default:
		fail(e.Line(), "@ requires a variable or array-element operand")
	}
	e.SetType(types.Pointer(e.Operand.Type()))
	return ast.Expression(e)
}

func (r *resolver) VisitDeref(e *ast.Deref) any {
	e.Operand = r.resolveExpr(e.Operand)
	if e.Operand.Type().Kind != types.KindPointer {
		fail(e.Line(), "^ requires a pointer operand, found %s", e.Operand.Type())
	}
	e.SetType(*e.Operand.Type().Inner)
	return ast.Expression(e)
}

// VisitCallExpr resolves the ident(args) ambiguity (see parser's Open
// Question note): e.Callee naming an array rewrites this node into an
// ast.Index; naming a FUNC keeps it as a CallExpr.
func (r *resolver) VisitCallExpr(e *ast.CallExpr) any {
	args := make([]ast.Expression, len(e.Args))
	for i, a := range e.Args {
		args[i] = r.resolveExpr(a)
	}
	e.Args = args

	if v, ok := r.table.LookupVariable(e.Callee); ok {
		if !v.Type.IsArray() {
			fail(e.Line(), "%q is a variable, not a routine", e.Callee)
		}
		if len(args) != 1 {
			fail(e.Line(), "array index takes exactly one subscript, got %d", len(args))
		}
		idx := ast.NewIndex(ast.NewIdentifier(v.Name, e.Line()), args[0], e.Line())
		return idx.Accept(r)
	}

	sig, ok := r.table.LookupRoutine(e.Callee)
	if !ok {
		failResolution(e.Line(), "undefined identifier %q", e.Callee)
	}
	if !sig.IsFunc {
		fail(e.Line(), "%q is a PROC and has no value", e.Callee)
	}
	r.checkArgs(e.Line(), e.Callee, sig, args)
	e.SetType(sig.ReturnType)
	return ast.Expression(e)
}

func (r *resolver) checkArgs(line int, name string, sig *RoutineSig, args []ast.Expression) {
	if len(args) != len(sig.Params) {
		failResolution(line, "%q expects %d argument(s), got %d", name, len(sig.Params), len(args))
	}
	for i, want := range sig.Params {
		checkLiteralOverflow(line, args[i], want)
		ok, truncating := args[i].Type().AssignableTo(want)
		if !ok {
			fail(line, "argument %d of %q: cannot assign %s to %s", i+1, name, args[i].Type(), want)
		}
		if truncating {
			r.warnings.Add(line, "argument %d of %q narrows %s to %s", i+1, name, args[i].Type(), want)
		}
	}
}

// --- StmtVisitor ---

func (r *resolver) VisitAssign(s *ast.Assign) any {
	v, ok := r.table.LookupVariable(s.Name)
	if !ok {
		failResolution(s.Line(), "undefined identifier %q", s.Name)
	}
	if v.Type.IsArray() {
		fail(s.Line(), "%q is an array; assign to an element instead", s.Name)
	}
	s.Value = r.resolveExpr(s.Value)
	checkLiteralOverflow(s.Line(), s.Value, v.Type)
	ok2, truncating := s.Value.Type().AssignableTo(v.Type)
	if !ok2 {
		fail(s.Line(), "cannot assign %s to %s %q", s.Value.Type(), v.Type, s.Name)
	}
	if truncating {
		r.warnings.Add(s.Line(), "assigning %s to %s %q truncates to the low byte", s.Value.Type(), v.Type, s.Name)
	}
	return nil
}

func (r *resolver) VisitIndexAssign(s *ast.IndexAssign) any {
	v, ok := r.table.LookupVariable(s.Array)
	if !ok {
		failResolution(s.Line(), "undefined identifier %q", s.Array)
	}
	if !v.Type.IsArray() {
		fail(s.Line(), "%q is not an array", s.Array)
	}
	s.Idx = r.resolveExpr(s.Idx)
	s.Value = r.resolveExpr(s.Value)
	elem := v.Type.ElemType()
	checkLiteralOverflow(s.Line(), s.Value, elem)
	ok2, truncating := s.Value.Type().AssignableTo(elem)
	if !ok2 {
		fail(s.Line(), "cannot assign %s to %s element of %q", s.Value.Type(), elem, s.Array)
	}
	if truncating {
		r.warnings.Add(s.Line(), "assigning %s to %s element of %q truncates to the low byte", s.Value.Type(), elem, s.Array)
	}
	return nil
}

func (r *resolver) VisitIf(s *ast.If) any {
	s.Cond = r.resolveExpr(s.Cond)
	r.resolveStmts(s.Then)
	for i := range s.ElseIfs {
		s.ElseIfs[i].Cond = r.resolveExpr(s.ElseIfs[i].Cond)
		r.resolveStmts(s.ElseIfs[i].Body)
	}
	if s.HasElse {
		r.resolveStmts(s.Else)
	}
	return nil
}

func (r *resolver) VisitWhile(s *ast.While) any {
	s.Cond = r.resolveExpr(s.Cond)
	r.resolveStmts(s.Body)
	return nil
}

func (r *resolver) VisitFor(s *ast.For) any {
	v, ok := r.table.LookupVariable(s.Var)
	if !ok {
		failResolution(s.Line(), "undefined identifier %q", s.Var)
	}
	if v.Type.IsArray() {
		fail(s.Line(), "%q is an array and cannot be a loop variable", s.Var)
	}
	s.From = r.resolveExpr(s.From)
	checkLiteralOverflow(s.Line(), s.From, v.Type)
	s.To = r.resolveExpr(s.To)
	for _, bound := range []ast.Expression{s.From, s.To} {
		if ok2, _ := bound.Type().AssignableTo(v.Type); !ok2 {
			fail(s.Line(), "FOR bound of type %s is not assignable to loop variable %q (%s)", bound.Type(), s.Var, v.Type)
		}
	}
	if s.Step != nil {
		s.Step = r.resolveExpr(s.Step)
		if ok2, _ := s.Step.Type().AssignableTo(v.Type); !ok2 {
			fail(s.Line(), "STEP value of type %s is not assignable to loop variable %q (%s)", s.Step.Type(), s.Var, v.Type)
		}
	}
	r.resolveStmts(s.Body)
	return nil
}

func (r *resolver) VisitUntil(s *ast.Until) any {
	r.resolveStmts(s.Body)
	s.Cond = r.resolveExpr(s.Cond)
	return nil
}

func (r *resolver) VisitCallStmt(s *ast.CallStmt) any {
	args := make([]ast.Expression, len(s.Args))
	for i, a := range s.Args {
		args[i] = r.resolveExpr(a)
	}
	s.Args = args
	sig, ok := r.table.LookupRoutine(s.Callee)
	if !ok {
		failResolution(s.Line(), "undefined identifier %q", s.Callee)
	}
	r.checkArgs(s.Line(), s.Callee, sig, args)
	return nil
}

func (r *resolver) VisitReturn(s *ast.Return) any {
	if s.Value == nil {
		if r.currentRoutine.IsFunc {
			failResolution(s.Line(), "FUNC %q must RETURN a value", r.currentRoutine.Name)
		}
		return nil
	}
	if !r.currentRoutine.IsFunc {
		fail(s.Line(), "PROC %q cannot RETURN a value", r.currentRoutine.Name)
	}
	s.Value = r.resolveExpr(s.Value)
	checkLiteralOverflow(s.Line(), s.Value, r.currentRoutine.ReturnType)
	ok, truncating := s.Value.Type().AssignableTo(r.currentRoutine.ReturnType)
	if !ok {
		fail(s.Line(), "cannot return %s from FUNC %q declared %s", s.Value.Type(), r.currentRoutine.Name, r.currentRoutine.ReturnType)
	}
	if truncating {
		r.warnings.Add(s.Line(), "returning %s from FUNC %q (%s) truncates to the low byte", s.Value.Type(), r.currentRoutine.Name, r.currentRoutine.ReturnType)
	}
	return nil
}
