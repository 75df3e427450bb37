package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z80ac/z80ac/config"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, uint16(0x4200), cfg.Origin)
	assert.Equal(t, uint16(0x2000), cfg.RAMBase)
	assert.False(t, cfg.ListingByDefault)
}

func TestLoadMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "z80ac.toml")
	require.NoError(t, os.WriteFile(path, []byte("origin = 0x8000\nram_base = 0xC000\n"), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x8000), cfg.Origin)
	assert.Equal(t, uint16(0xC000), cfg.RAMBase)
	assert.False(t, cfg.ListingByDefault)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}
