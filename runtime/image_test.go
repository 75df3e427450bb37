package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z80ac/z80ac/diag"
	"github.com/z80ac/z80ac/lexer"
	"github.com/z80ac/z80ac/parser"
	"github.com/z80ac/z80ac/runtime"
	"github.com/z80ac/z80ac/symtab"
)

func assemble(t *testing.T, src string, origin, ramBase uint16) *runtime.Image {
	t.Helper()
	toks, err := lexer.New(src).Scan()
	require.NoError(t, err)
	unit, err := parser.New(toks).ParseUnit()
	require.NoError(t, err)
	table := symtab.New(ramBase)
	runtime.RegisterBuiltins(table)
	prog, _, err := symtab.Resolve(unit, table)
	require.NoError(t, err)
	img, err := runtime.Assemble(prog, origin, ramBase)
	require.NoError(t, err)
	return img
}

func TestAssembleHeaderIsJPToTrampoline(t *testing.T) {
	img := assemble(t, `
BYTE a
PROC main()
  a = 1
RETURN
`, 0x0000, 0x2000)

	assert.Equal(t, byte(0xC3), img.Bytes[0])
	trampoline := uint16(img.Bytes[1]) | uint16(img.Bytes[2])<<8
	// The trampoline is CALL main; HALT -- its first byte is CALL's opcode.
	assert.Equal(t, byte(0xCD), img.Bytes[trampoline])
	calledMain := uint16(img.Bytes[trampoline+1]) | uint16(img.Bytes[trampoline+2])<<8
	assert.Equal(t, img.MainAddr, calledMain)
	assert.Equal(t, byte(0x76), img.Bytes[trampoline+3])
}

func TestAssembleResolvesPrintCall(t *testing.T) {
	img := assemble(t, `
CARD c
PROC main()
  c = 42
  PrintC(c)
RETURN
`, 0x0000, 0x2000)
	assert.NotEmpty(t, img.Bytes)
}

func TestAssembleResolvesStringPatch(t *testing.T) {
	img := assemble(t, `
PROC main()
  Print("hi")
RETURN
`, 0x0000, 0x2000)
	assert.Less(t, int(img.DataBase), len(img.Bytes)+int(img.Origin))
	// the pooled string is null-terminated
	offset := int(img.DataBase - img.Origin)
	assert.Equal(t, []byte("hi\x00"), img.Bytes[offset:offset+3])
}

func TestAssembleUsesDivHelperForDivision(t *testing.T) {
	img := assemble(t, `
CARD a, b, c
PROC main()
  c = a / b
RETURN
`, 0x0000, 0x2000)
	assert.NotEmpty(t, img.Bytes)
}

func TestAssembleRejectsRAMOverlap(t *testing.T) {
	_, err := assembleErr(t, `
PROC main()
RETURN
`, 0x1FF0, 0x1FF1)
	require.Error(t, err)
	de, ok := err.(*diag.Error)
	require.True(t, ok, "expected *diag.Error, got %T", err)
	assert.Equal(t, diag.KindLayout, de.Kind)
}

func assembleErr(t *testing.T, src string, origin, ramBase uint16) (*runtime.Image, error) {
	t.Helper()
	toks, err := lexer.New(src).Scan()
	require.NoError(t, err)
	unit, err := parser.New(toks).ParseUnit()
	require.NoError(t, err)
	table := symtab.New(ramBase)
	runtime.RegisterBuiltins(table)
	prog, _, err := symtab.Resolve(unit, table)
	require.NoError(t, err)
	return runtime.Assemble(prog, origin, ramBase)
}
