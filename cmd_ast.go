package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/z80ac/z80ac/lexer"
	"github.com/z80ac/z80ac/parser"
)

// astCmd dumps the parsed AST for a source file as JSON, grounded on the
// teacher's parser.Print/PrintToFile and its astPrinter visitor that
// builds a JSON-friendly map/slice tree from the same visitor interfaces
// the rest of the pipeline walks.
type astCmd struct {
	output string
}

func (*astCmd) Name() string     { return "ast" }
func (*astCmd) Synopsis() string { return "Dump the parsed AST for a source file as JSON" }
func (*astCmd) Usage() string {
	return `ast [-o <file>] <file>:
  Parse an Action! source file and print its AST as JSON.
`
}

func (cmd *astCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.output, "o", "", "write JSON to this file instead of stdout")
}

func (cmd *astCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "input file not provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		errColor.Fprintf(os.Stderr, "failed to read %s: %v\n", args[0], err)
		return subcommands.ExitFailure
	}

	toks, err := lexer.New(string(data)).Scan()
	if err != nil {
		errColor.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}
	unit, err := parser.New(toks).ParseUnit()
	if err != nil {
		errColor.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	tree := astPrinter{}.unit(unit)
	out, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		errColor.Fprintf(os.Stderr, "failed to marshal AST: %v\n", err)
		return subcommands.ExitFailure
	}

	if cmd.output == "" {
		fmt.Println(string(out))
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(cmd.output, out, 0644); err != nil {
		errColor.Fprintf(os.Stderr, "failed to write %s: %v\n", cmd.output, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
