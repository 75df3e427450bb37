// Package listing turns a code generator's per-statement emission trace
// into Section 4.6's line-oriented listing file: one record per emitted
// statement, pairing the address range it occupies with the source line
// that produced it.
package listing

import (
	"fmt"
	"io"
	"strings"

	"github.com/z80ac/z80ac/codegen"
)

// Record is one listing line: the address the statement's code starts
// at, how many bytes it occupies, and the source line number and text it
// came from.
type Record struct {
	Addr       uint16
	ByteCount  int
	SourceLine int
	SourceText string
}

// Build pairs each codegen.Listing entry with its source line, read out
// of src by line number (1-based, matching ast.Stmt.Line()). A listing
// entry whose line falls outside src (shouldn't happen for a
// successfully compiled program) gets an empty source text rather than
// an error, since the listing is a diagnostic aid, not load-bearing
// output.
func Build(entries []codegen.Listing, src string) []Record {
	lines := strings.Split(src, "\n")
	records := make([]Record, len(entries))
	for i, e := range entries {
		var text string
		if e.Line >= 1 && e.Line <= len(lines) {
			text = strings.TrimRight(lines[e.Line-1], "\r")
		}
		records[i] = Record{
			Addr:       e.Addr,
			ByteCount:  e.Length,
			SourceLine: e.Line,
			SourceText: text,
		}
	}
	return records
}

// Write serializes records to w, one line per record:
// `<hex-address>  <byte-count>  <source-line-number>: <source-text>`.
func Write(w io.Writer, records []Record) error {
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%04X  %d  %d: %s\n", r.Addr, r.ByteCount, r.SourceLine, r.SourceText); err != nil {
			return err
		}
	}
	return nil
}
