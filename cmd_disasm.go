package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/z80ac/z80ac/z80asm"
)

// disasmCmd disassembles a previously produced .bin image back to Z80
// mnemonics, grounded on the teacher's emitBytecodeCmd -diassemble flag
// that disassembles bytecode back to readable form.
type disasmCmd struct {
	org string
}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Disassemble a compiled .bin image to Z80 mnemonics" }
func (*disasmCmd) Usage() string {
	return `disasm [--org <addr>] <file.bin>:
  Disassemble a raw Z80 byte image, printing one line per instruction.
`
}

func (cmd *disasmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.org, "org", "0x0000", "address the image's first byte loads at")
}

func (cmd *disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "input .bin file not provided")
		return subcommands.ExitUsageError
	}

	origin, err := parseAddr(cmd.org)
	if err != nil {
		errColor.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		errColor.Fprintf(os.Stderr, "failed to read %s: %v\n", args[0], err)
		return subcommands.ExitFailure
	}

	for _, insn := range z80asm.Disassemble(data, origin) {
		fmt.Printf("%04X  %s\n", insn.Addr, insn.Text)
	}
	return subcommands.ExitSuccess
}
