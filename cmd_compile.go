package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/google/subcommands"

	"github.com/z80ac/z80ac/config"
	"github.com/z80ac/z80ac/lexer"
	"github.com/z80ac/z80ac/listing"
	"github.com/z80ac/z80ac/parser"
	"github.com/z80ac/z80ac/runtime"
	"github.com/z80ac/z80ac/symtab"
)

// compileCmd implements Section 6's CLI contract: read an Action! source
// file, run it through the whole pipeline, and write the resulting byte
// image (and, if requested, a listing) to disk.
type compileCmd struct {
	input       string
	output      string
	org         string
	ramBase     string
	listingFlag bool
	verbose     bool
	configPath  string
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "Compile an Action! source file to a Z80 byte image" }
func (*compileCmd) Usage() string {
	return `compile -i <file> [-o <file>] [--org <addr>] [-l] [-v]:
  Cross-compile an Action! source file into a raw Z80 machine code image.
`
}

func (cmd *compileCmd) SetFlags(f *flag.FlagSet) {
	for _, name := range []string{"i", "input"} {
		f.StringVar(&cmd.input, name, "", "path to Action! source (required)")
	}
	for _, name := range []string{"o", "output"} {
		f.StringVar(&cmd.output, name, "", "output path (defaults to input with .bin suffix)")
	}
	f.StringVar(&cmd.org, "org", "", "image origin address, decimal or 0x-hex (overrides config)")
	f.StringVar(&cmd.ramBase, "ram-base", "", "RAM base address for variables (overrides config)")
	for _, name := range []string{"l", "listing"} {
		f.BoolVar(&cmd.listingFlag, name, false, "write a .lst listing file")
	}
	for _, name := range []string{"v", "verbose"} {
		f.BoolVar(&cmd.verbose, name, false, "emit progress diagnostics to stderr")
	}
	f.StringVar(&cmd.configPath, "config", "", "path to a z80ac.toml config file")
}

func (cmd *compileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if cmd.input == "" {
		fmt.Fprintln(os.Stderr, "input file not provided (-i/--input)")
		return subcommands.ExitUsageError
	}

	configPath := cmd.configPath
	if configPath == "" {
		configPath = filepath.Join(filepath.Dir(cmd.input), "z80ac.toml")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		errColor.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}
	if !cfg.Color {
		color.NoColor = true
	}
	origin, ramBase := cfg.Origin, cfg.RAMBase
	if cmd.org != "" {
		if origin, err = parseAddr(cmd.org); err != nil {
			errColor.Fprintf(os.Stderr, "%v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if cmd.ramBase != "" {
		if ramBase, err = parseAddr(cmd.ramBase); err != nil {
			errColor.Fprintf(os.Stderr, "%v\n", err)
			return subcommands.ExitUsageError
		}
	}
	writeListing := cmd.listingFlag || cfg.ListingByDefault

	verbosef := func(format string, args ...any) {
		if cmd.verbose {
			infoColor.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	data, err := os.ReadFile(cmd.input)
	if err != nil {
		errColor.Fprintf(os.Stderr, "failed to read %s: %v\n", cmd.input, err)
		return subcommands.ExitFailure
	}
	src := string(data)

	table := symtab.New(ramBase)
	runtime.RegisterBuiltins(table)

	verbosef("lexing %s", cmd.input)
	toks, err := lexer.New(src).Scan()
	if err != nil {
		errColor.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	verbosef("parsing (%d tokens)", len(toks))
	unit, err := parser.New(toks).ParseUnit()
	if err != nil {
		errColor.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	verbosef("resolving symbols")
	prog, warnings, err := symtab.Resolve(unit, table)
	if err != nil {
		errColor.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}
	if warnings != nil {
		for _, w := range warnings.Items() {
			warnColor.Fprintf(os.Stderr, "%v\n", w)
		}
	}

	verbosef("generating code and assembling image at origin 0x%04X", origin)
	img, err := runtime.Assemble(prog, origin, ramBase)
	if err != nil {
		errColor.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}
	verbosef("emitted %d bytes, entry point 0x%04X", len(img.Bytes), img.EntryPoint)

	outPath := cmd.output
	if outPath == "" {
		outPath = strings.TrimSuffix(cmd.input, filepath.Ext(cmd.input)) + ".bin"
	}
	if err := os.WriteFile(outPath, img.Bytes, 0644); err != nil {
		errColor.Fprintf(os.Stderr, "failed to write %s: %v\n", outPath, err)
		return subcommands.ExitFailure
	}
	verbosef("wrote %s", outPath)

	if writeListing {
		stem := strings.TrimSuffix(outPath, filepath.Ext(outPath))
		lstPath := stem + ".lst"
		lf, err := os.Create(lstPath)
		if err != nil {
			errColor.Fprintf(os.Stderr, "failed to write listing %s: %v\n", lstPath, err)
			return subcommands.ExitFailure
		}
		defer lf.Close()
		records := listing.Build(img.Listing, src)
		if err := listing.Write(lf, records); err != nil {
			errColor.Fprintf(os.Stderr, "failed to write listing %s: %v\n", lstPath, err)
			return subcommands.ExitFailure
		}
		verbosef("wrote %s", lstPath)
	}

	return subcommands.ExitSuccess
}
