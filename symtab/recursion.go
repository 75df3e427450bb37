package symtab

import (
	"strings"

	"github.com/z80ac/z80ac/ast"
	"github.com/z80ac/z80ac/diag"
)

// DetectRecursion rejects any routine whose transitive call graph reaches
// itself. Locals (and parameters) are statically allocated with no stack
// frame (Section 4.3), so recursive calls would corrupt a routine's own
// in-flight variables -- this is therefore a compile error, not a runtime
// concern, found by a plain DFS with white/gray/black coloring.
func DetectRecursion(routines []*ast.Routine) error {
	graph := make(map[string][]string, len(routines))
	lines := make(map[string]int, len(routines))
	for _, r := range routines {
		graph[r.Name] = collectCallees(r.Body)
		lines[r.Name] = r.Line
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(routines))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			cycle := append(append([]string{}, path...), name)
			return diag.New(diag.KindResolution, lines[name], 0,
				"recursive call cycle detected: %s", strings.Join(cycle, " -> "))
		}
		color[name] = gray
		path = append(path, name)
		for _, callee := range graph[name] {
			if _, isRoutine := graph[callee]; !isRoutine {
				continue // calls to built-ins can't recurse into user code
			}
			if err := visit(callee); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return nil
	}

	for _, r := range routines {
		if err := visit(r.Name); err != nil {
			return err
		}
	}
	return nil
}

// collectCallees gathers every callee name referenced by a CallStmt or
// CallExpr anywhere in stmts, including inside nested control-flow bodies
// and expression trees. A plain recursive type-switch is enough here --
// this pass only needs call sites, not a full visitor dispatch.
func collectCallees(stmts []ast.Stmt) []string {
	var out []string
	var walkExpr func(e ast.Expression)
	walkExpr = func(e ast.Expression) {
		switch n := e.(type) {
		case *ast.Index:
			walkExpr(n.Array)
			walkExpr(n.Idx)
		case *ast.Binary:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ast.Unary:
			walkExpr(n.Operand)
		case *ast.AddrOf:
			walkExpr(n.Operand)
		case *ast.Deref:
			walkExpr(n.Operand)
		case *ast.CallExpr:
			out = append(out, n.Callee)
			for _, a := range n.Args {
				walkExpr(a)
			}
		}
	}
	var walkStmts func(ss []ast.Stmt)
	walkStmts = func(ss []ast.Stmt) {
		for _, s := range ss {
			switch n := s.(type) {
			case *ast.Assign:
				walkExpr(n.Value)
			case *ast.IndexAssign:
				walkExpr(n.Idx)
				walkExpr(n.Value)
			case *ast.If:
				walkExpr(n.Cond)
				walkStmts(n.Then)
				for _, ei := range n.ElseIfs {
					walkExpr(ei.Cond)
					walkStmts(ei.Body)
				}
				walkStmts(n.Else)
			case *ast.While:
				walkExpr(n.Cond)
				walkStmts(n.Body)
			case *ast.For:
				walkExpr(n.From)
				walkExpr(n.To)
				if n.Step != nil {
					walkExpr(n.Step)
				}
				walkStmts(n.Body)
			case *ast.Until:
				walkExpr(n.Cond)
				walkStmts(n.Body)
			case *ast.CallStmt:
				out = append(out, n.Callee)
				for _, a := range n.Args {
					walkExpr(a)
				}
			case *ast.Return:
				if n.Value != nil {
					walkExpr(n.Value)
				}
			}
		}
	}
	walkStmts(stmts)
	return out
}
