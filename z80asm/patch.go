package z80asm

import (
	"encoding/binary"
	"fmt"
)

// Patch16 overwrites the little-endian 16-bit operand at buf[siteOffset:]
// with value. siteOffset is the offset of the operand itself, not the
// opcode byte before it.
func Patch16(buf []byte, siteOffset int, value uint16) {
	binary.LittleEndian.PutUint16(buf[siteOffset:siteOffset+2], value)
}

// PatchRel8 overwrites the signed 8-bit displacement byte at
// buf[siteOffset] for a JR/JRCond/DJNZ instruction. siteAddr is the
// address of the displacement byte itself; the Z80 computes the jump
// target relative to the address of the instruction *following* it, one
// byte past siteAddr.
func PatchRel8(buf []byte, siteOffset int, siteAddr, targetAddr uint16) error {
	disp := int(targetAddr) - int(siteAddr+1)
	if disp < -128 || disp > 127 {
		return fmt.Errorf("z80asm: relative jump from 0x%04X to 0x%04X out of range (%d)", siteAddr, targetAddr, disp)
	}
	buf[siteOffset] = byte(int8(disp))
	return nil
}
