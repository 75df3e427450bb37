package main

import "github.com/fatih/color"

// Package-level color handles shared by every subcommand, following the
// teacher sibling go-mix's repl.go convention of pre-built *color.Color
// values rather than the package-level color.Red/color.Yellow helpers
// (which always target stdout, not os.Stderr).
var (
	errColor  = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	infoColor = color.New(color.FgCyan)
)
