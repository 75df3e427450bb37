package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/z80ac/z80ac/lexer"
)

// tokensCmd dumps the token stream for a source file as JSON, grounded
// on the teacher's parser.Print/PrintToFile AST-to-JSON dumping (here
// applied one pipeline stage earlier, to the lexer's own output).
type tokensCmd struct {
	output string
}

func (*tokensCmd) Name() string     { return "tokens" }
func (*tokensCmd) Synopsis() string { return "Dump the token stream for a source file as JSON" }
func (*tokensCmd) Usage() string {
	return `tokens [-o <file>] <file>:
  Lex an Action! source file and print its token stream as JSON.
`
}

func (cmd *tokensCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.output, "o", "", "write JSON to this file instead of stdout")
}

func (cmd *tokensCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	out, err := json.MarshalIndent(toks, "", "  ")
	if err != nil {
		errColor.Fprintf(os.Stderr, "failed to marshal tokens: %v\n", err)
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
