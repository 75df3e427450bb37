// Package codegen walks a resolved symtab.Program and emits raw Z80
// machine code, following the teacher compiler's single-pass
// ASTCompiler.CompileAST (panic/recover diagnostics, an immediate-patch
// jump-fixup idiom for in-routine control flow) adapted from a uniform
// bytecode to the Z80's real variable-length instruction encoding.
package codegen

// PatchKind tags what a deferred Patch resolves once the whole image is
// laid out.
type PatchKind int

const (
	// PatchCall is a CALL whose target is a routine or runtime entry
	// point (including the internal __mul16/__div16 helpers), named by
	// Patch.Name, resolved by the runtime image assembler once it knows
	// every routine's and built-in's final address.
	PatchCall PatchKind = iota
	// PatchString is a 16-bit address operand pointing at a string
	// literal, resolved once the data pool's base address is known.
	PatchString
)

// Patch is one deferred fixup: Site is the offset within Result.Code of
// the 16-bit operand to overwrite.
type Patch struct {
	Site     int
	Kind     PatchKind
	Name     string // PatchCall: routine/built-in name
	StrIndex int    // PatchString: index into Result.Strings
}

// Listing is one source-line emission record for the listing writer
// (Section 4.6): the line that produced [Addr, Addr+Length).
type Listing struct {
	Line   int
	Addr   uint16
	Length int
}

// Result is everything the runtime image assembler needs to turn
// generated code into a loadable image: the code itself, every routine's
// entry address, the deferred patches, the interned string pool, and a
// listing trace.
type Result struct {
	Code        []byte
	RoutineAddr map[string]uint16
	Patches     []Patch
	Strings     []string
	Listing     []Listing
}
