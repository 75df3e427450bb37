package ast

import "github.com/z80ac/z80ac/types"

// VarDecl declares a single variable (or array), global or routine-local.
// The parser splits comma-separated declarations into one VarDecl
// per name so that each carries its own symbol-creation line.
type VarDecl struct {
	Name string
	Type types.Type
	Line int
}

// Param is one entry of a routine's ordered parameter list.
type Param struct {
	Name string
	Type types.Type
}

// Routine is a PROC or FUNC declaration: an ordered parameter list, an
// ordered local-variable list, and a body. ReturnType is types.Void for a
// PROC.
type Routine struct {
	Name       string
	IsFunc     bool
	ReturnType types.Type
	Params     []Param
	Locals     []VarDecl
	Body       []Stmt
	Line       int
}

// Unit is the translation unit: an ordered list of global declarations
// and routine definitions, exactly one of which must be named "main" and
// be a parameterless PROC (Section 3).
type Unit struct {
	Globals  []VarDecl
	Routines []*Routine
}
