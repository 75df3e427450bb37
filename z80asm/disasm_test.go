package z80asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisassembleRoundTripsEncodedSequence(t *testing.T) {
	var code []byte
	code = append(code, LDRegImm8(A, 5)...)
	code = append(code, LDAddrFromA(0x2000)...)
	code = append(code, CALL(0x4210)...)
	code = append(code, RET()...)
	code = append(code, HALT()...)

	insns := Disassemble(code, 0x4200)
	require.Len(t, insns, 5)
	assert.Equal(t, "LD A,$05", insns[0].Text)
	assert.Equal(t, uint16(0x4200), insns[0].Addr)
	assert.Equal(t, "LD ($2000),A", insns[1].Text)
	assert.Equal(t, "CALL $4210", insns[2].Text)
	assert.Equal(t, "RET", insns[3].Text)
	assert.Equal(t, "HALT", insns[4].Text)
}

func TestDisassembleCBAndEDPrefixed(t *testing.T) {
	var code []byte
	code = append(code, RLReg(D)...)
	code = append(code, SRLReg(C)...)
	code = append(code, LDAddrFromDE(0x3000)...)
	code = append(code, NEG()...)

	insns := Disassemble(code, 0)
	require.Len(t, insns, 4)
	assert.Equal(t, "RL D", insns[0].Text)
	assert.Equal(t, "SRL C", insns[1].Text)
	assert.Equal(t, "LD ($3000),DE", insns[2].Text)
	assert.Equal(t, "NEG", insns[3].Text)
}

func TestDisassembleUnknownByteFallsBackToDB(t *testing.T) {
	insns := Disassemble([]byte{0xFF}, 0)
	require.Len(t, insns, 1)
	// 0xFF is RST 38h on a real Z80, unrecognized by this subset decoder.
	assert.Equal(t, "DB $FF", insns[0].Text)
}
