// Package symtab resolves identifiers, allocates storage, and type-checks
// a parsed ast.Unit, following the scope-tracking shape of the teacher's
// compiler.ASTCompiler (its locals []Local / scopeDepth bookkeeping)
// generalized to Action!'s flat global/per-routine model.
package symtab

import (
	"github.com/z80ac/z80ac/ast"
	"github.com/z80ac/z80ac/diag"
	"github.com/z80ac/z80ac/types"
)

// Kind classifies where a Variable's storage comes from.
type Kind int

const (
	KindGlobal Kind = iota
	KindParam
	KindLocal
)

// Variable is a resolved, storage-assigned identifier: a global, a
// routine parameter, or a routine local. All three are statically
// allocated RAM cells (Section 4.3: "locals are statically allocated, no
// stack frame"), so they share one representation.
type Variable struct {
	Name string
	Type types.Type
	Addr uint16
	Kind Kind
}

// RoutineSig is a resolved routine signature: arity, parameter types, and
// return type, used to type-check call sites. Decl is nil for the six
// runtime built-ins (Section 4.5), which have no Action! source.
type RoutineSig struct {
	Name       string
	IsFunc     bool
	ReturnType types.Type
	Params     []types.Type
	Builtin    bool
	Decl       *ast.Routine
}

// Table is the compiler's symbol table: a bump-allocated RAM layout plus
// the global and (transiently) current-routine scopes. Two scopes only,
// per Section 4.3 -- Action! has no nested lexical blocks.
type Table struct {
	ramCursor uint16
	ramBase   uint16

	globals     map[string]*Variable
	globalOrder []string

	routines     map[string]*RoutineSig
	routineOrder []string

	scope        map[string]*Variable // current routine's params+locals; nil between routines
	scopeOwner   string
	routineScopes map[string]map[string]*Variable // snapshot of each routine's scope, kept after EndRoutine for codegen
}

// New returns a Table whose bump allocator starts at ramBase.
func New(ramBase uint16) *Table {
	return &Table{
		ramCursor: ramBase,
		ramBase:   ramBase,
		globals:       map[string]*Variable{},
		routines:      map[string]*RoutineSig{},
		routineScopes: map[string]map[string]*Variable{},
	}
}

// RAMBase returns the configured RAM base variables are allocated from.
func (t *Table) RAMBase() uint16 { return t.ramBase }

// RAMCursor returns the next free RAM address -- the high-water mark of
// the bump allocator once every global/param/local has been allocated.
func (t *Table) RAMCursor() uint16 { return t.ramCursor }

func (t *Table) alloc(typ types.Type) uint16 {
	addr := t.ramCursor
	t.ramCursor += uint16(typ.Width())
	return addr
}

// RegisterBuiltin records one of the runtime prelude's fixed entry points
// (Section 4.5) as a callable routine, before parsing begins, so that
// calls to it resolve through the ordinary routine-call path.
func (t *Table) RegisterBuiltin(name string, params []types.Type, ret types.Type) {
	t.routines[name] = &RoutineSig{
		Name:       name,
		IsFunc:     ret.Kind != types.KindVoid,
		ReturnType: ret,
		Params:     params,
		Builtin:    true,
	}
	t.routineOrder = append(t.routineOrder, name)
}

// DefineGlobal allocates storage for one global declaration and records
// it in the global scope.
func (t *Table) DefineGlobal(decl ast.VarDecl) error {
	if _, exists := t.globals[decl.Name]; exists {
		return diag.New(diag.KindResolution, decl.Line, 0, "duplicate global declaration %q", decl.Name)
	}
	if _, exists := t.routines[decl.Name]; exists {
		return diag.New(diag.KindResolution, decl.Line, 0, "%q is already declared as a routine", decl.Name)
	}
	t.globals[decl.Name] = &Variable{Name: decl.Name, Type: decl.Type, Addr: t.alloc(decl.Type), Kind: KindGlobal}
	t.globalOrder = append(t.globalOrder, decl.Name)
	return nil
}

// RegisterRoutineSignature records a PROC/FUNC's signature ahead of body
// resolution, so forward calls (including mutually recursive-looking
// declarations, later rejected by DetectRecursion if truly cyclic)
// resolve during a single top-to-bottom pass.
func (t *Table) RegisterRoutineSignature(r *ast.Routine) error {
	if _, exists := t.routines[r.Name]; exists {
		return diag.New(diag.KindResolution, r.Line, 0, "duplicate routine declaration %q", r.Name)
	}
	if _, exists := t.globals[r.Name]; exists {
		return diag.New(diag.KindResolution, r.Line, 0, "%q is already declared as a variable", r.Name)
	}
	params := make([]types.Type, len(r.Params))
	for i, p := range r.Params {
		params[i] = p.Type
	}
	t.routines[r.Name] = &RoutineSig{
		Name: r.Name, IsFunc: r.IsFunc, ReturnType: r.ReturnType, Params: params, Decl: r,
	}
	t.routineOrder = append(t.routineOrder, r.Name)
	return nil
}

// BeginRoutine opens a fresh param+local scope for r, allocating storage
// for each entry in declaration order. Params are allocated before
// locals, matching their textual order in Section 4.2's grammar.
func (t *Table) BeginRoutine(r *ast.Routine) error {
	t.scope = map[string]*Variable{}
	t.scopeOwner = r.Name
	for _, p := range r.Params {
		if _, exists := t.scope[p.Name]; exists {
			return diag.New(diag.KindResolution, r.Line, 0, "duplicate parameter name %q in %q", p.Name, r.Name)
		}
		t.scope[p.Name] = &Variable{Name: p.Name, Type: p.Type, Addr: t.alloc(p.Type), Kind: KindParam}
	}
	for _, l := range r.Locals {
		if _, exists := t.scope[l.Name]; exists {
			return diag.New(diag.KindResolution, l.Line, 0, "%q shadows a parameter of the same name in %q", l.Name, r.Name)
		}
		t.scope[l.Name] = &Variable{Name: l.Name, Type: l.Type, Addr: t.alloc(l.Type), Kind: KindLocal}
	}
	return nil
}

// EndRoutine closes the current routine's scope, keeping a snapshot of it
// keyed by routine name so codegen can resolve identifiers by routine
// after resolution has finished and scopes have otherwise been torn down.
func (t *Table) EndRoutine() {
	t.routineScopes[t.scopeOwner] = t.scope
	t.scope = nil
	t.scopeOwner = ""
}

// LookupInRoutine resolves a variable the way it resolved inside routine
// routineName's body: its own params/locals first, then globals.
func (t *Table) LookupInRoutine(routineName, varName string) (*Variable, bool) {
	if scope, ok := t.routineScopes[routineName]; ok {
		if v, ok := scope[varName]; ok {
			return v, true
		}
	}
	v, ok := t.globals[varName]
	return v, ok
}

// LookupVariable resolves an identifier, checking the current routine
// scope before falling back to globals (local shadows global, Section 4.3).
func (t *Table) LookupVariable(name string) (*Variable, bool) {
	if t.scope != nil {
		if v, ok := t.scope[name]; ok {
			return v, true
		}
	}
	v, ok := t.globals[name]
	return v, ok
}

// LookupRoutine resolves a routine (or built-in) by name.
func (t *Table) LookupRoutine(name string) (*RoutineSig, bool) {
	r, ok := t.routines[name]
	return r, ok
}

// ParamAddrs returns the RAM addresses allocated to routineName's
// parameters, in declaration order, for the code generator to store
// call arguments into before CALL. Returns nil for a builtin, which has
// no declaration and takes its argument in a register instead.
func (t *Table) ParamAddrs(routineName string) []uint16 {
	sig, ok := t.routines[routineName]
	if !ok || sig.Decl == nil {
		return nil
	}
	scope := t.routineScopes[routineName]
	addrs := make([]uint16, len(sig.Decl.Params))
	for i, p := range sig.Decl.Params {
		addrs[i] = scope[p.Name].Addr
	}
	return addrs
}

// Globals returns every global in declaration order.
func (t *Table) Globals() []*Variable {
	out := make([]*Variable, len(t.globalOrder))
	for i, name := range t.globalOrder {
		out[i] = t.globals[name]
	}
	return out
}
