// Package config holds the compiler's layered defaults, grounded on
// lookbusy1344-arm_emulator's config.Config: a TOML-tagged struct with
// its own DefaultConfig constructor, loaded by BurntSushi/toml and
// overridden in layers -- built-in defaults, then an optional z80ac.toml,
// then CLI flags (the CLI layer is applied by the cmd package, not here).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the compiler's project-wide default settings (Section 6's CLI
// contract generalized into a layered config without changing its
// defaults): the image origin, the RAM base for variable storage, whether
// a listing is written even without an explicit -l, and whether output is
// colorized.
type Config struct {
	Origin           uint16 `toml:"origin"`
	RAMBase          uint16 `toml:"ram_base"`
	ListingByDefault bool   `toml:"listing_by_default"`
	Color            bool   `toml:"color"`
}

// Default returns the compiler's built-in defaults: origin 0x4200 and RAM
// base 0x2000, matching Section 6's `--org` default and Section 3's
// storage-allocator default RAM cursor start.
func Default() *Config {
	return &Config{
		Origin:           0x4200,
		RAMBase:          0x2000,
		ListingByDefault: false,
		Color:            true,
	}
}

// Load returns the built-in defaults overridden by path's contents, if
// path names a file that exists. A missing path is not an error -- an
// optional z80ac.toml next to the source, or no --config flag at all,
// both fall back to the built-in defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}
