package parser

import "github.com/z80ac/z80ac/diag"

// newSyntaxError builds a fatal parse-time diagnostic: a mismatched token
// naming what was expected against what was actually found, at a source
// position. Routed through diag.Error/KindParse so every compiler phase's
// fatal errors share one shape (see diag/diag.go).
func newSyntaxError(line, column int, format string, args ...any) *diag.Error {
	return diag.New(diag.KindParse, line, column, format, args...)
}
