package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensCmdWritesJSON(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "hello.act")
	require.NoError(t, os.WriteFile(srcPath, []byte("BYTE a\n"), 0644))
	outPath := filepath.Join(dir, "hello.tokens.json")

	cmd := &tokensCmd{}
	fs := flag.NewFlagSet("tokens", flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse([]string{"-o", outPath, srcPath}))
	status := cmd.Execute(context.Background(), fs)
	assert.EqualValues(t, 0, status)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var toks []map[string]any
	require.NoError(t, json.Unmarshal(data, &toks))
	assert.NotEmpty(t, toks)
}

func TestASTCmdWritesJSON(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "hello.act")
	src := "PROC main()\nRETURN\n"
	require.NoError(t, os.WriteFile(srcPath, []byte(src), 0644))
	outPath := filepath.Join(dir, "hello.ast.json")

	cmd := &astCmd{}
	fs := flag.NewFlagSet("ast", flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse([]string{"-o", outPath, srcPath}))
	status := cmd.Execute(context.Background(), fs)
	assert.EqualValues(t, 0, status)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var tree map[string]any
	require.NoError(t, json.Unmarshal(data, &tree))
	assert.Contains(t, tree, "routines")
}
