package codegen_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z80ac/z80ac/codegen"
	"github.com/z80ac/z80ac/lexer"
	"github.com/z80ac/z80ac/parser"
	"github.com/z80ac/z80ac/symtab"
	"github.com/z80ac/z80ac/types"
)

func newBuiltinTable() *symtab.Table {
	table := symtab.New(0x2000)
	table.RegisterBuiltin("PrintB", []types.Type{types.Byte}, types.Void)
	table.RegisterBuiltin("PrintC", []types.Type{types.Card}, types.Void)
	table.RegisterBuiltin("PrintE", nil, types.Void)
	table.RegisterBuiltin("Print", []types.Type{types.Pointer(types.Byte)}, types.Void)
	table.RegisterBuiltin("PutD", []types.Type{types.Byte}, types.Void)
	table.RegisterBuiltin("GetD", nil, types.Byte)
	return table
}

func generate(t *testing.T, src string) *codegen.Result {
	t.Helper()
	toks, err := lexer.New(src).Scan()
	require.NoError(t, err)
	unit, err := parser.New(toks).ParseUnit()
	require.NoError(t, err)
	prog, _, err := symtab.Resolve(unit, newBuiltinTable())
	require.NoError(t, err)
	result, err := codegen.Generate(prog, 0x0100)
	require.NoError(t, err)
	return result
}

func TestGenerateByteLiteralAssign(t *testing.T) {
	result := generate(t, `
BYTE a
PROC main()
  a = 5
RETURN
`)
	// LD A,5 ; LD (addr),A ; RET
	assert.Equal(t, []byte{0x3E, 0x05, 0x32, 0x00, 0x20, 0xC9}, result.Code)
}

func TestGenerateCardLiteralAssignWidensAddress(t *testing.T) {
	result := generate(t, `
CARD c
PROC main()
  c = 300
RETURN
`)
	// LD HL,300 ; LD (addr),HL ; RET
	assert.Equal(t, []byte{0x21, 0x2C, 0x01, 0x22, 0x00, 0x20, 0xC9}, result.Code)
}

func TestGenerateByteAdditionUsesAccumulator(t *testing.T) {
	result := generate(t, `
BYTE a, b, c
PROC main()
  c = a + b
RETURN
`)
	// rhs (b) -> A ; LD B,A ; lhs (a) -> A ; ADD A,B ; store c ; RET
	want := []byte{}
	want = append(want, 0x3A, 0x01, 0x20) // LD A,(b)
	want = append(want, 0x47)             // LD B,A
	want = append(want, 0x3A, 0x00, 0x20) // LD A,(a)
	want = append(want, 0x80|0)           // ADD A,B
	want = append(want, 0x32, 0x02, 0x20) // LD (c),A
	want = append(want, 0xC9)
	assert.Equal(t, want, result.Code)
}

func TestGenerateCardAdditionFollowsPushPopContract(t *testing.T) {
	result := generate(t, `
CARD a, b, c
PROC main()
  c = a + b
RETURN
`)
	want := []byte{}
	want = append(want, 0x2A, 0x00, 0x20) // LD HL,(a)
	want = append(want, 0xE5)             // PUSH HL
	want = append(want, 0x2A, 0x02, 0x20) // LD HL,(b)
	want = append(want, 0xEB)             // EX DE,HL
	want = append(want, 0xE1)             // POP HL
	want = append(want, 0x09)             // ADD HL,DE
	want = append(want, 0x22, 0x04, 0x20) // LD (c),HL
	want = append(want, 0xC9)
	assert.Equal(t, want, result.Code)
}

func TestGenerateCallStoresBuiltinArgInRegister(t *testing.T) {
	result := generate(t, `
BYTE a
PROC main()
  PrintB(a)
RETURN
`)
	require.Len(t, result.Patches, 1)
	assert.Equal(t, codegen.PatchCall, result.Patches[0].Kind)
	assert.Equal(t, "PrintB", result.Patches[0].Name)
	// LD A,(a) ; CALL <patched> ; RET
	assert.Equal(t, []byte{0x3A, 0x00, 0x20, 0xCD, 0x00, 0x00, 0xC9}, result.Code)
}

func TestGenerateCallStoresUserArgsToParamSlots(t *testing.T) {
	result := generate(t, `
PROC add(BYTE x, BYTE y)
RETURN
PROC main()
  add(1, 2)
RETURN
`)
	require.Len(t, result.Patches, 1)
	assert.Equal(t, "add", result.Patches[0].Name)
	// main is generated first: LD A,1 ; LD (x),A ; LD A,2 ; LD (y),A ; CALL add
	assert.Equal(t, byte(0x3E), result.Code[0]) // LD A,1
	assert.Equal(t, byte(0x32), result.Code[2]) // LD (x),A
	assert.Equal(t, byte(0x3E), result.Code[5]) // LD A,2
	assert.Equal(t, byte(0x32), result.Code[7]) // LD (y),A
	assert.Equal(t, byte(0xCD), result.Code[10])
}

func TestGenerateStringLiteralDefersAddressPatch(t *testing.T) {
	result := generate(t, `
PROC main()
  Print("hi")
RETURN
`)
	require.Len(t, result.Strings, 1)
	assert.Equal(t, "hi", result.Strings[0])
	require.Len(t, result.Patches, 2)
	assert.Equal(t, codegen.PatchString, result.Patches[0].Kind)
	assert.Equal(t, codegen.PatchCall, result.Patches[1].Kind)
}

func TestGenerateIfElseBranchesAroundEachOther(t *testing.T) {
	result := generate(t, `
BYTE a
PROC main()
  IF a=1 THEN
    a=2
  ELSE
    a=3
  FI
RETURN
`)
	// The THEN branch's end-jump must land exactly after the ELSE branch
	// (patched to the RET at the very end), and the false-jump out of the
	// condition must land at the start of the ELSE branch.
	require.True(t, len(result.Code) > 0)
	assert.Equal(t, byte(0xC9), result.Code[len(result.Code)-1])
	// Layout from 0x0100: a=1 test and OR A (0-13), JP Z,else (14-16),
	// a=2 (17-21), JP end (22-24), a=3 (25-29), RET (30).
	require.Len(t, result.Code, 31)
	assert.Equal(t, []byte{0xCA, 0x19, 0x01}, result.Code[14:17]) // JP Z,0x0119: start of ELSE
	assert.Equal(t, []byte{0xC3, 0x1E, 0x01}, result.Code[22:25]) // JP 0x011E: the final RET
}

func TestGenerateWhileLoopJumpsBackToTop(t *testing.T) {
	result := generate(t, `
BYTE i
PROC main()
  WHILE i<10 DO
    i=i+1
  OD
RETURN
`)
	assert.Equal(t, byte(0xC9), result.Code[len(result.Code)-1])
	// last 3 bytes before RET are the backward JP to the loop top
	jp := result.Code[len(result.Code)-4 : len(result.Code)-1]
	assert.Equal(t, byte(0xC3), jp[0])
	assert.Equal(t, []byte{0x00, 0x01}, jp[1:]) // loop top is main's first byte, 0x0100
}

func TestGenerateForLoopUsesCompareFlagsAndDefaultStep(t *testing.T) {
	result := generate(t, `
BYTE i
PROC main()
  FOR i=1 TO 5 DO
    PutD(i)
  OD
RETURN
`)
	require.Len(t, result.Patches, 1)
	assert.Equal(t, "PutD", result.Patches[0].Name)
	assert.Equal(t, byte(0xC9), result.Code[len(result.Code)-1])
	// compare i with 5: LD A,5 ; LD B,A ; LD A,(i) ; CP B
	assert.True(t, bytes.Contains(result.Code, []byte{0x3E, 0x05, 0x47, 0x3A, 0x00, 0x20, 0xB8}))
	// omitted STEP adds 1: LD A,1 ; LD B,A ; LD A,(i) ; ADD A,B ; LD (i),A
	assert.True(t, bytes.Contains(result.Code, []byte{0x3E, 0x01, 0x47, 0x3A, 0x00, 0x20, 0x80, 0x32, 0x00, 0x20}))
}

func TestGenerateForLoopNegativeStepCountsDown(t *testing.T) {
	result := generate(t, `
BYTE i
PROC main()
  FOR i=10 TO 1 STEP -1 DO
    PutD(i)
  OD
RETURN
`)
	require.Len(t, result.Patches, 1)
	assert.Equal(t, "PutD", result.Patches[0].Name)
	// A statically-known descending STEP emits a single JP NC (0xD2)
	// continuation test (i>=to), never the ascending CY/Z pair.
	foundNC := false
	for _, b := range result.Code {
		if b == 0xD2 {
			foundNC = true
			break
		}
	}
	assert.True(t, foundNC, "expected a JP NC continuation branch for a descending FOR loop")
}

func TestGenerateFuncReturnsValueInAccumulator(t *testing.T) {
	result := generate(t, `
FUNC BYTE double(BYTE n)
RETURN (n+n)

PROC main()
  BYTE r
  r = double(3)
RETURN
`)
	require.Len(t, result.RoutineAddr, 2)
	addr, ok := result.RoutineAddr["double"]
	require.True(t, ok)
	// double is emitted after main: LD A,(n) ; LD B,A ; LD A,(n) ; ADD A,B ; RET,
	// leaving the result in A for the caller.
	off := int(addr - 0x0100)
	assert.Equal(t, []byte{0x3A, 0x00, 0x20, 0x47, 0x3A, 0x00, 0x20, 0x80, 0xC9}, result.Code[off:])
}

func TestGenerateArrayIndexLoadFollowsEmissionContract(t *testing.T) {
	result := generate(t, `
CARD ARRAY buf(4)
BYTE i
CARD v
PROC main()
  v = buf(i)
RETURN
`)
	// buf (CARD ARRAY(4)) occupies 8 bytes at 0x2000-0x2007; i is at
	// 0x2008, v at 0x2009. i (BYTE) is zero-extended into HL, doubled,
	// added to buf's base, then loaded low/high and EX DE,HL per the
	// "Array index 16" contract.
	want := []byte{}
	want = append(want, 0x3A, 0x08, 0x20) // LD A,(i)
	want = append(want, 0x6F)             // LD L,A
	want = append(want, 0x26, 0x00)       // LD H,0
	want = append(want, 0x29)             // ADD HL,HL
	want = append(want, 0x11, 0x00, 0x20) // LD DE,buf
	want = append(want, 0x19)             // ADD HL,DE
	want = append(want, 0x5E)             // LD E,(HL)
	want = append(want, 0x23)             // INC HL
	want = append(want, 0x56)             // LD D,(HL)
	want = append(want, 0xEB)             // EX DE,HL
	want = append(want, 0x22, 0x09, 0x20) // LD (v),HL
	want = append(want, 0xC9)
	assert.Equal(t, want, result.Code)
}

func TestGenerateSignedComparisonFlipsSignBit(t *testing.T) {
	result := generate(t, `
INT a, b
BYTE r
PROC main()
  r = a<b
RETURN
`)
	// after PUSH/POP setup, both high bytes get XOR 0x80 before SBC HL,DE.
	found := false
	for i := 0; i+1 < len(result.Code); i++ {
		if result.Code[i] == 0xEE && result.Code[i+1] == 0x80 { // XOR 0x80
			found = true
		}
	}
	assert.True(t, found, "expected a sign-bit XOR before the signed comparison")
}

func TestGenerateUnaryNegate16Bit(t *testing.T) {
	result := generate(t, `
INT a, b
PROC main()
  b = -a
RETURN
`)
	// complement L, complement H, INC HL somewhere in the sequence.
	foundIncHL := false
	for _, b := range result.Code {
		if b == 0x23 {
			foundIncHL = true
		}
	}
	assert.True(t, foundIncHL, "expected INC HL completing the two's-complement negate")
}
