package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z80ac/z80ac/ast"
	"github.com/z80ac/z80ac/diag"
	"github.com/z80ac/z80ac/lexer"
	"github.com/z80ac/z80ac/types"
)

func parseSource(t *testing.T, src string) *ast.Unit {
	t.Helper()
	toks, err := lexer.New(src).Scan()
	require.NoError(t, err)
	unit, err := New(toks).ParseUnit()
	require.NoError(t, err)
	return unit
}

func TestParseGlobalVarDecls(t *testing.T) {
	unit := parseSource(t, `
BYTE a, b
CARD total
BYTE ARRAY buf(16)
`)
	require.Len(t, unit.Globals, 4)
	assert.Equal(t, "a", unit.Globals[0].Name)
	assert.Equal(t, types.Byte, unit.Globals[0].Type)
	assert.Equal(t, "b", unit.Globals[1].Name)
	assert.Equal(t, "total", unit.Globals[2].Name)
	assert.Equal(t, types.Card, unit.Globals[2].Type)
	assert.Equal(t, "buf", unit.Globals[3].Name)
	assert.True(t, unit.Globals[3].Type.IsArray())
	assert.Equal(t, 16, unit.Globals[3].Type.Len)
}

func TestParseEmptyMainProc(t *testing.T) {
	unit := parseSource(t, `
PROC main()
RETURN
`)
	require.Len(t, unit.Routines, 1)
	r := unit.Routines[0]
	assert.Equal(t, "main", r.Name)
	assert.False(t, r.IsFunc)
	assert.Equal(t, types.Void, r.ReturnType)
	assert.Empty(t, r.Params)
}

func TestParseProcWithParamsAndLocals(t *testing.T) {
	unit := parseSource(t, `
PROC add(BYTE x, BYTE y)
  CARD sum
  sum = x + y
  Print(sum)
RETURN
`)
	r := unit.Routines[0]
	require.Len(t, r.Params, 2)
	assert.Equal(t, "x", r.Params[0].Name)
	require.Len(t, r.Locals, 1)
	assert.Equal(t, "sum", r.Locals[0].Name)
	require.Len(t, r.Body, 2)
	assign, ok := r.Body[0].(*ast.Assign)
	require.True(t, ok)
	assert.Equal(t, "sum", assign.Name)
	binop, ok := assign.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, binop.Op)
	call, ok := r.Body[1].(*ast.CallStmt)
	require.True(t, ok)
	assert.Equal(t, "Print", call.Callee)
}

func TestParseFunc(t *testing.T) {
	unit := parseSource(t, `
FUNC CARD square(CARD n)
RETURN (n * n)
`)
	r := unit.Routines[0]
	assert.True(t, r.IsFunc)
	assert.Equal(t, types.Card, r.ReturnType)
	ret, ok := r.Body[0].(*ast.Return)
	require.True(t, ok)
	require.NotNil(t, ret.Value)
}

func TestParseIfElseIfElse(t *testing.T) {
	unit := parseSource(t, `
PROC classify(BYTE n)
  IF n = 0 THEN
    Print("zero")
  ELSEIF n < 10 THEN
    Print("small")
  ELSE
    Print("big")
  FI
RETURN
`)
	r := unit.Routines[0]
	ifStmt, ok := r.Body[0].(*ast.If)
	require.True(t, ok)
	assert.Len(t, ifStmt.Then, 1)
	require.Len(t, ifStmt.ElseIfs, 1)
	assert.True(t, ifStmt.HasElse)
	assert.Len(t, ifStmt.Else, 1)
}

func TestParseWhileForUntil(t *testing.T) {
	unit := parseSource(t, `
PROC loops()
  BYTE i
  WHILE i < 10 DO
    i = i + 1
  OD
  FOR i = 0 TO 9 STEP 2 DO
    Print(i)
  OD
  UNTIL i = 0 DO
    i = i - 1
  OD
RETURN
`)
	r := unit.Routines[0]
	require.Len(t, r.Body, 3)
	_, ok := r.Body[0].(*ast.While)
	assert.True(t, ok)
	forStmt, ok := r.Body[1].(*ast.For)
	require.True(t, ok)
	require.NotNil(t, forStmt.Step)
	_, ok = r.Body[2].(*ast.Until)
	assert.True(t, ok)
}

func TestParseArrayIndexAssignAndCallAmbiguity(t *testing.T) {
	unit := parseSource(t, `
PROC work()
  BYTE ARRAY buf(4)
  buf(0) = 1
  Print(buf(0))
RETURN
`)
	r := unit.Routines[0]
	_, ok := r.Body[0].(*ast.IndexAssign)
	assert.True(t, ok)
	call, ok := r.Body[1].(*ast.CallStmt)
	require.True(t, ok)
	require.Len(t, call.Args, 1)
	// buf(0) inside the call argument parses as a CallExpr at this stage;
	// resolution later decides it's really an array index.
	_, isCall := call.Args[0].(*ast.CallExpr)
	assert.True(t, isCall)
}

func TestExpressionPrecedence(t *testing.T) {
	unit := parseSource(t, `
PROC p()
  BYTE r
  r = 1 + 2 * 3 > 4 AND 5
RETURN
`)
	assign := unit.Routines[0].Body[0].(*ast.Assign)
	top, ok := assign.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpAnd, top.Op)
}

func TestParseSyntaxErrorOnMismatchedToken(t *testing.T) {
	toks, err := lexer.New("PROC main( RETURN").Scan()
	require.NoError(t, err)
	_, perr := New(toks).ParseUnit()
	require.Error(t, perr)
	var de *diag.Error
	require.ErrorAs(t, perr, &de)
	assert.Equal(t, diag.KindParse, de.Kind)
}

func TestParseUnaryChain(t *testing.T) {
	unit := parseSource(t, `
PROC p()
  CARD x
  CARD ptr
  x = ^@ptr
RETURN
`)
	assign := unit.Routines[0].Body[0].(*ast.Assign)
	deref, ok := assign.Value.(*ast.Deref)
	require.True(t, ok)
	_, ok = deref.Operand.(*ast.AddrOf)
	assert.True(t, ok)
}
