package runtime

import "github.com/z80ac/z80ac/z80asm"

// mulHelper and divHelper must match codegen's own unexported runtimeMul/
// runtimeDiv constants verbatim -- codegen.Patch.Name carries the plain
// string, and this package resolves it purely by string lookup rather than
// sharing a symbol, since an internal helper has no ast.Routine or
// symtab.RoutineSig to export one through.
const (
	mulHelper = "__mul16"
	divHelper = "__div16"
)

// preludeBuilder hand-assembles the fixed runtime blob one instruction at a
// time, following the teacher compiler's patchJump idiom (ASTCompiler,
// compiler/ast_compiler.go): a forward jump is emitted as a placeholder
// whose site is recorded, then patched once the builder reaches the target
// address. Every prelude routine is laid out so it only calls routines
// already emitted before it, so the only forward references are local
// branches within a single routine's own body.
type preludeBuilder struct {
	base uint16
	buf  []byte
}

func (b *preludeBuilder) addr() uint16     { return b.base + uint16(len(b.buf)) }
func (b *preludeBuilder) emit(code []byte) { b.buf = append(b.buf, code...) }

func (b *preludeBuilder) emitJPCondPlaceholder(cc z80asm.Cond) int {
	site := len(b.buf) + 1
	b.emit(z80asm.JPCond(cc, 0))
	return site
}

func (b *preludeBuilder) patchHere(site int) {
	z80asm.Patch16(b.buf, site, b.addr())
}

// buildPrelude hand-assembles Section 4.5's runtime blob -- PutD, GetD,
// PrintE, PrintB, PrintC, Print -- plus the two internal 16-bit helpers
// codegen's genMul/genDivMod emit CALLs to, starting at the absolute
// address base. It returns the blob's bytes and every entry point's
// absolute address, keyed by the name codegen.Patch.Name carries.
//
// The I/O convention (Section 4.5): PutD writes A to port 0x00; GetD polls
// port 0x01 bit 0 until set, then reads port 0x00. PrintE emits CR then LF.
// PrintB/PrintC convert by repeated division against descending powers of
// ten, suppressing leading zeros; the smallest value 0 still prints as a
// single "0" because the ones digit is never suppressed.
func buildPrelude(base uint16) ([]byte, map[string]uint16) {
	b := &preludeBuilder{base: base}
	addr := map[string]uint16{}

	addr["PutD"] = b.addr()
	b.emit(z80asm.OUTPortA(0x00))
	b.emit(z80asm.RET())

	addr["GetD"] = b.addr()
	pollTop := b.addr()
	b.emit(z80asm.INAPort(0x01))
	b.emit(z80asm.ANDImm8(0x01))
	b.emit(z80asm.JPCond(z80asm.Z, pollTop))
	b.emit(z80asm.INAPort(0x00))
	b.emit(z80asm.RET())

	addr["PrintE"] = b.addr()
	b.emit(z80asm.LDRegImm8(z80asm.A, 13))
	b.emit(z80asm.CALL(addr["PutD"]))
	b.emit(z80asm.LDRegImm8(z80asm.A, 10))
	b.emit(z80asm.CALL(addr["PutD"]))
	b.emit(z80asm.RET())

	addr[mulHelper] = b.buildMul16()
	divAddr, _ := b.buildDiv16()
	addr[divHelper] = divAddr

	suppressAddr := b.addr()
	b.emit([]byte{0})
	printDigitAddr := b.buildPrintDigit(addr["PutD"], suppressAddr)
	printDec16Addr := b.buildPrintDec16(divAddr, printDigitAddr, suppressAddr)

	addr["PrintB"] = b.addr()
	b.emit(z80asm.LDRegReg(z80asm.L, z80asm.A))
	b.emit(z80asm.LDRegImm8(z80asm.H, 0))
	b.emit(z80asm.JP(printDec16Addr))

	// PrintC takes its CARD argument already in HL, exactly __printdec16's
	// own entry convention, so it shares the same address rather than
	// wrapping it in another JP.
	addr["PrintC"] = printDec16Addr

	addr["Print"] = b.addr()
	printTop := b.addr()
	b.emit(z80asm.LDRegIndHL(z80asm.A))
	b.emit(z80asm.ORReg(z80asm.A))
	printDoneSite := b.emitJPCondPlaceholder(z80asm.Z)
	b.emit(z80asm.CALL(addr["PutD"]))
	b.emit(z80asm.INCPair(z80asm.HL))
	b.emit(z80asm.JP(printTop))
	b.patchHere(printDoneSite)
	b.emit(z80asm.RET())

	return b.buf, addr
}

// buildMul16 emits __mul16: HL, DE -> HL, a 16x16->16 double-and-add
// multiply. BC holds the multiplicand as it doubles each step; DE shifts
// right one bit per iteration via SRL D/RR E, whose final carry is the bit
// of the original multiplier under test that iteration.
func (b *preludeBuilder) buildMul16() uint16 {
	entry := b.addr()
	b.emit(z80asm.PUSH(z80asm.BC))
	b.emit(z80asm.LDRegReg(z80asm.B, z80asm.H))
	b.emit(z80asm.LDRegReg(z80asm.C, z80asm.L))
	b.emit(z80asm.LDPairImm16(z80asm.HL, 0))

	loopTop := b.addr()
	b.emit(z80asm.LDRegReg(z80asm.A, z80asm.D))
	b.emit(z80asm.ORReg(z80asm.E))
	doneSite := b.emitJPCondPlaceholder(z80asm.Z)
	b.emit(z80asm.SRLReg(z80asm.D))
	b.emit(z80asm.RRReg(z80asm.E))
	skipSite := b.emitJPCondPlaceholder(z80asm.NC)
	b.emit(z80asm.ADDHLPair(z80asm.BC))
	b.patchHere(skipSite)
	b.emit(z80asm.SLAReg(z80asm.C))
	b.emit(z80asm.RLReg(z80asm.B))
	b.emit(z80asm.JP(loopTop))
	b.patchHere(doneSite)
	b.emit(z80asm.POP(z80asm.BC))
	b.emit(z80asm.RET())
	return entry
}

// buildDiv16 emits __div16: HL, DE -> HL (quotient), DE (remainder), a
// restoring binary long division. BC accumulates the remainder as bits
// shift out of HL's top; with BC and HL both committed to the
// remainder/dividend, the divisor itself has nowhere left to live across
// the loop, so it's parked in two scratch bytes, freeing DE each iteration
// for the trial subtraction. The loop counter lives in a third scratch
// byte for the same reason.
func (b *preludeBuilder) buildDiv16() (entry uint16, divScratch uint16) {
	divScratch = b.addr()
	b.emit([]byte{0, 0})
	countScratch := b.addr()
	b.emit([]byte{0})

	entry = b.addr()
	b.emit(z80asm.LDAddrFromDE(divScratch))
	b.emit(z80asm.LDPairImm16(z80asm.BC, 0))
	b.emit(z80asm.LDRegImm8(z80asm.A, 16))
	b.emit(z80asm.LDAddrFromA(countScratch))

	loopTop := b.addr()
	b.emit(z80asm.SLAReg(z80asm.L))
	b.emit(z80asm.RLReg(z80asm.H))
	b.emit(z80asm.RLReg(z80asm.C))
	b.emit(z80asm.RLReg(z80asm.B))

	b.emit(z80asm.LDDEFromAddr(divScratch))
	b.emit(z80asm.LDRegReg(z80asm.A, z80asm.C))
	b.emit(z80asm.SUBReg(z80asm.E))
	b.emit(z80asm.LDRegReg(z80asm.E, z80asm.A))
	b.emit(z80asm.LDRegReg(z80asm.A, z80asm.B))
	b.emit(z80asm.SBCAReg(z80asm.D))
	b.emit(z80asm.LDRegReg(z80asm.D, z80asm.A))
	noSubSite := b.emitJPCondPlaceholder(z80asm.CY)
	b.emit(z80asm.LDRegReg(z80asm.B, z80asm.D))
	b.emit(z80asm.LDRegReg(z80asm.C, z80asm.E))
	b.emit(z80asm.LDRegReg(z80asm.A, z80asm.L))
	b.emit(z80asm.ORImm8(0x01))
	b.emit(z80asm.LDRegReg(z80asm.L, z80asm.A))
	b.patchHere(noSubSite)

	b.emit(z80asm.LDAFromAddr(countScratch))
	b.emit(z80asm.DECReg(z80asm.A))
	b.emit(z80asm.LDAddrFromA(countScratch))
	b.emit(z80asm.JPCond(z80asm.NZ, loopTop))

	b.emit(z80asm.LDRegReg(z80asm.D, z80asm.B))
	b.emit(z80asm.LDRegReg(z80asm.E, z80asm.C))
	b.emit(z80asm.RET())
	return entry, divScratch
}

// buildPrintDigit emits a private helper: D holds a 0-9 digit, C is 1 on
// the final (ones) digit. It prints unless the digit is 0, nothing has
// printed yet (suppressAddr == 0), and it isn't the final digit -- the
// ones digit always prints, so 0 renders as "0" rather than nothing.
// suppressAddr -- not a register -- survives the CALL __div16 every other
// digit requires, which clobbers BC.
func (b *preludeBuilder) buildPrintDigit(putD uint16, suppressAddr uint16) uint16 {
	entry := b.addr()
	b.emit(z80asm.LDRegReg(z80asm.A, z80asm.D))
	b.emit(z80asm.ORReg(z80asm.A))
	showSite1 := b.emitJPCondPlaceholder(z80asm.NZ)
	b.emit(z80asm.LDAFromAddr(suppressAddr))
	b.emit(z80asm.ORReg(z80asm.A))
	showSite2 := b.emitJPCondPlaceholder(z80asm.NZ)
	b.emit(z80asm.LDRegReg(z80asm.A, z80asm.C))
	b.emit(z80asm.ORReg(z80asm.A))
	skipSite := b.emitJPCondPlaceholder(z80asm.Z)

	b.patchHere(showSite1)
	b.patchHere(showSite2)
	b.emit(z80asm.LDRegReg(z80asm.A, z80asm.D))
	b.emit(z80asm.ADDAImm8('0'))
	b.emit(z80asm.CALL(putD))
	b.emit(z80asm.LDRegImm8(z80asm.A, 1))
	b.emit(z80asm.LDAddrFromA(suppressAddr))
	b.patchHere(skipSite)
	b.emit(z80asm.RET())
	return entry
}

// buildPrintDec16 emits __printdec16: HL holds an unsigned 16-bit value;
// prints its decimal form with leading zeros suppressed. Called directly
// by PrintC (HL already holds the CARD argument) and tail-jumped into by
// PrintB after zero-extending its BYTE argument into HL. Each divisor
// below 10000 is applied to the previous step's remainder, so every
// quotient it produces is a single digit 0-9 by construction.
func (b *preludeBuilder) buildPrintDec16(div16, printDigit, suppressAddr uint16) uint16 {
	entry := b.addr()
	b.emit(z80asm.LDRegImm8(z80asm.A, 0))
	b.emit(z80asm.LDAddrFromA(suppressAddr))

	for _, divisor := range []uint16{10000, 1000, 100, 10} {
		b.emit(z80asm.LDPairImm16(z80asm.DE, divisor))
		b.emit(z80asm.CALL(div16))
		b.emit(z80asm.PUSH(z80asm.DE))
		b.emit(z80asm.LDRegReg(z80asm.D, z80asm.L))
		b.emit(z80asm.LDRegImm8(z80asm.C, 0))
		b.emit(z80asm.CALL(printDigit))
		b.emit(z80asm.POP(z80asm.HL))
	}
	b.emit(z80asm.LDRegReg(z80asm.D, z80asm.L))
	b.emit(z80asm.LDRegImm8(z80asm.C, 1))
	b.emit(z80asm.CALL(printDigit))
	b.emit(z80asm.RET())
	return entry
}
