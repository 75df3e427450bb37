package z80asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLDRegImm8(t *testing.T) {
	assert.Equal(t, []byte{0x3E, 0x05}, LDRegImm8(A, 5))
	assert.Equal(t, []byte{0x06, 0x05}, LDRegImm8(B, 5))
}

func TestLDPairImm16(t *testing.T) {
	assert.Equal(t, []byte{0x21, 0x34, 0x12}, LDPairImm16(HL, 0x1234))
	assert.Equal(t, []byte{0x11, 0x34, 0x12}, LDPairImm16(DE, 0x1234))
	assert.Equal(t, []byte{0x01, 0x34, 0x12}, LDPairImm16(BC, 0x1234))
	assert.Equal(t, []byte{0x31, 0x34, 0x12}, LDPairImm16(SP, 0x1234))
}

func TestLDAddrRoundTrip(t *testing.T) {
	assert.Equal(t, []byte{0x3A, 0x00, 0x20}, LDAFromAddr(0x2000))
	assert.Equal(t, []byte{0x32, 0x00, 0x20}, LDAddrFromA(0x2000))
	assert.Equal(t, []byte{0x2A, 0x00, 0x20}, LDHLFromAddr(0x2000))
	assert.Equal(t, []byte{0x22, 0x00, 0x20}, LDAddrFromHL(0x2000))
}

func TestArrayIndexingSequence(t *testing.T) {
	// Emission contract for "Array index 16": LD E,(HL); INC HL; LD D,(HL); EX DE,HL
	assert.Equal(t, []byte{0x5E}, LDRegIndHL(E))
	assert.Equal(t, []byte{0x23}, INCPair(HL))
	assert.Equal(t, []byte{0x56}, LDRegIndHL(D))
	assert.Equal(t, []byte{0xEB}, EXDEHL())
}

func TestBinaryOpSequence(t *testing.T) {
	// Emission contract for 16-bit binary ops: eval lhs -> HL; PUSH HL;
	// eval rhs -> HL; EX DE,HL; POP HL; op (ADD HL,DE here).
	assert.Equal(t, []byte{0xE5}, PUSH(HL))
	assert.Equal(t, []byte{0xEB}, EXDEHL())
	assert.Equal(t, []byte{0xE1}, POP(HL))
	assert.Equal(t, []byte{0x19}, ADDHLPair(DE))
	assert.Equal(t, []byte{0xED, 0x52}, SBCHLPair(DE))
}

func TestArithmeticAndLogical(t *testing.T) {
	assert.Equal(t, []byte{0x80 | 7}, ADDAReg(A))
	assert.Equal(t, []byte{0xC6, 0x01}, ADDAImm8(1))
	assert.Equal(t, []byte{0xD6, 0x01}, SUBImm8(1))
	assert.Equal(t, []byte{0xE6, 0x0F}, ANDImm8(0x0F))
	assert.Equal(t, []byte{0xF6, 0x0F}, ORImm8(0x0F))
	assert.Equal(t, []byte{0xEE, 0x0F}, XORImm8(0x0F))
	assert.Equal(t, []byte{0xFE, 0x00}, CPImm8(0))
	assert.Equal(t, []byte{0x2F}, CPL())
	assert.Equal(t, []byte{0xED, 0x44}, NEG())
}

func TestJumpsCallsReturns(t *testing.T) {
	assert.Equal(t, []byte{0xC3, 0x00, 0x00}, JP(0))
	assert.Equal(t, []byte{0xCA, 0x00, 0x00}, JPCond(Z, 0))
	assert.Equal(t, []byte{0xC2, 0x00, 0x00}, JPCond(NZ, 0))
	assert.Equal(t, []byte{0xCD, 0x00, 0x00}, CALL(0))
	assert.Equal(t, []byte{0xC9}, RET())
	assert.Equal(t, []byte{0x28, 0x05}, JRCond(Z, 5))
	assert.Equal(t, []byte{0x20, 0x05}, JRCond(NZ, 5))
}

func TestStackAndMisc(t *testing.T) {
	assert.Equal(t, []byte{0xC5}, PUSH(BC))
	assert.Equal(t, []byte{0xD5}, PUSH(DE))
	assert.Equal(t, []byte{0xF5}, PUSH(AF))
	assert.Equal(t, []byte{0xC1}, POP(BC))
	assert.Equal(t, []byte{0x76}, HALT())
	assert.Equal(t, []byte{0xD3, 0x00}, OUTPortA(0))
	assert.Equal(t, []byte{0xDB, 0x01}, INAPort(1))
}

func TestPatch16OverwritesPlaceholder(t *testing.T) {
	buf := append(CALL(0), HALT()...)
	Patch16(buf, 1, 0x4000)
	assert.Equal(t, []byte{0xCD, 0x00, 0x40, 0x76}, buf)
}

func TestPatchRel8ForwardJump(t *testing.T) {
	buf := JRCond(Z, 0)
	// displacement byte sits at buf offset 1, whose own address is 0x1001;
	// the Z80 measures the jump relative to 0x1002 (one past the
	// displacement byte).
	require.NoError(t, PatchRel8(buf, 1, 0x1001, 0x1010))
	assert.Equal(t, byte(0x1010-0x1002), buf[1])
}

func TestExchangeAndSbcA(t *testing.T) {
	assert.Equal(t, []byte{0xE3}, EXSPHL())
	assert.Equal(t, []byte{0x98 | 4}, SBCAReg(H))
}

func TestPatchRel8OutOfRange(t *testing.T) {
	buf := JR(0)
	err := PatchRel8(buf, 1, 0x1000, 0x1100)
	require.Error(t, err)
}

func TestShiftRotateAndDEAddr(t *testing.T) {
	assert.Equal(t, []byte{0xCB, 0x10 | 2}, RLReg(D))
	assert.Equal(t, []byte{0xCB, 0x18 | 1}, RRReg(C))
	assert.Equal(t, []byte{0xCB, 0x20 | 1}, SLAReg(C))
	assert.Equal(t, []byte{0xCB, 0x38 | 2}, SRLReg(D))
	assert.Equal(t, []byte{0xED, 0x53, 0x00, 0x20}, LDAddrFromDE(0x2000))
	assert.Equal(t, []byte{0xED, 0x5B, 0x00, 0x20}, LDDEFromAddr(0x2000))
}
