package runtime

import (
	"github.com/z80ac/z80ac/codegen"
	"github.com/z80ac/z80ac/diag"
	"github.com/z80ac/z80ac/symtab"
	"github.com/z80ac/z80ac/z80asm"
)

// headerLen is the fixed `JP entry_point` at origin (Section 4.5, layout
// step 1). trampolineLen is `CALL main; HALT` (step 3).
const (
	headerLen     = 3
	trampolineLen = 4
)

// Image is the finished, loadable byte sequence plus everything a caller
// needs to report on it: where it loads, where execution starts, where
// main ended up, where the RAM region begins, and the listing trace
// (Section 4.6) carried straight through from codegen.Result.
type Image struct {
	Bytes      []byte
	Origin     uint16
	EntryPoint uint16
	MainAddr   uint16
	DataBase   uint16
	Listing    []codegen.Listing
}

// Assemble lays out Section 4.5's image at origin: the initial JP, the
// runtime prelude, the CALL main/HALT trampoline, the generated code, and
// the interned string pool, then resolves every codegen.Patch against
// that final layout. It fails if the assembled image would run into
// ramBase, the base address of the bump-allocated variable region.
func Assemble(prog *symtab.Program, origin, ramBase uint16) (*Image, error) {
	preludeBase := origin + headerLen
	preludeBytes, builtinAddr := buildPrelude(preludeBase)

	trampolineBase := preludeBase + uint16(len(preludeBytes))
	codeBase := trampolineBase + trampolineLen

	result, err := codegen.Generate(prog, codeBase)
	if err != nil {
		return nil, err
	}

	mainAddr := result.RoutineAddr[prog.Main.Name]

	buf := make([]byte, 0, headerLen+len(preludeBytes)+trampolineLen+len(result.Code))
	buf = append(buf, z80asm.JP(trampolineBase)...)
	buf = append(buf, preludeBytes...)
	buf = append(buf, z80asm.CALL(mainAddr)...)
	buf = append(buf, z80asm.HALT()...)

	codeOffset := len(buf)
	buf = append(buf, result.Code...)

	dataBase := origin + uint16(len(buf))
	stringAddr := make([]uint16, len(result.Strings))
	for i, s := range result.Strings {
		stringAddr[i] = origin + uint16(len(buf))
		buf = append(buf, s...)
		buf = append(buf, 0)
	}

	for _, p := range result.Patches {
		var target uint16
		switch p.Kind {
		case codegen.PatchCall:
			if a, ok := builtinAddr[p.Name]; ok {
				target = a
			} else if a, ok := result.RoutineAddr[p.Name]; ok {
				target = a
			} else {
				return nil, diag.NewUnpositioned(diag.KindInternal, "unresolved call target %q", p.Name)
			}
			z80asm.Patch16(buf, codeOffset+p.Site, target)
		case codegen.PatchString:
			target = stringAddr[p.StrIndex]
			z80asm.Patch16(buf, codeOffset+p.Site, target)
		default:
			return nil, diag.NewUnpositioned(diag.KindInternal, "unknown patch kind %d", p.Kind)
		}
	}

	if origin+uint16(len(buf)) > ramBase {
		return nil, diag.NewUnpositioned(diag.KindLayout, "image of %d bytes at origin 0x%04X overruns RAM base 0x%04X", len(buf), origin, ramBase)
	}

	return &Image{
		Bytes:      buf,
		Origin:     origin,
		EntryPoint: origin,
		MainAddr:   mainAddr,
		DataBase:   dataBase,
		Listing:    result.Listing,
	}, nil
}
