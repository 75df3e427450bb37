package runtime

import (
	"github.com/z80ac/z80ac/symtab"
	"github.com/z80ac/z80ac/types"
)

// RegisterBuiltins records Section 4.5's six runtime entry points in table
// as callable routines, before parsing begins, so Action! source calling
// PrintB, PrintC, PrintE, Print, PutD or GetD resolves through the
// ordinary routine-call path (symtab.Table.RegisterBuiltin). Print's
// argument is a pointer to BYTE per the "treat STRING as Pointer(Byte)"
// decision (DESIGN.md open question on Section 6's string literal
// comment). The two internal __mul16/__div16 helpers are deliberately
// absent here -- they have no Action! source, no arity to check, and are
// resolved purely by the image assembler matching codegen's own patch
// names against buildPrelude's address map.
func RegisterBuiltins(table *symtab.Table) {
	table.RegisterBuiltin("PrintB", []types.Type{types.Byte}, types.Void)
	table.RegisterBuiltin("PrintC", []types.Type{types.Card}, types.Void)
	table.RegisterBuiltin("PrintE", nil, types.Void)
	table.RegisterBuiltin("Print", []types.Type{types.Pointer(types.Byte)}, types.Void)
	table.RegisterBuiltin("PutD", []types.Type{types.Byte}, types.Void)
	table.RegisterBuiltin("GetD", nil, types.Byte)
}
