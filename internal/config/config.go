// Package config layers the server configuration: built-in defaults,
// then .env / environment variables, then an optional TOML file, then
// command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"termibbl/internal"
	"termibbl/internal/game"
	"termibbl/internal/utils"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Conf collects every tunable of the server binary.
type Conf struct {
	Port          uint   `toml:"port"`
	WebPort       uint   `toml:"web_port"`
	ShowPublicIP  bool   `toml:"show_public_ip"`
	RoundDuration uint   `toml:"round_duration"`
	Rounds        uint   `toml:"rounds"`
	Dimensions    string `toml:"dimensions"`
	WordFile      string `toml:"word_file"`
	Debug         bool   `toml:"debug"`
}

// Defaults are the values used when nothing else supplies an option. The
// port has no default; it must be given explicitly.
var Defaults = Conf{
	RoundDuration: 120,
	Rounds:        3,
	Dimensions:    "900x60",
}

// FromEnv overlays environment variables onto c, loading a .env file
// first when one is present in the working directory.
func (c *Conf) FromEnv() {
	_ = godotenv.Load()

	envUint("TERMIBBL_PORT", &c.Port)
	envUint("TERMIBBL_WEB_PORT", &c.WebPort)
	envUint("TERMIBBL_ROUND_DURATION", &c.RoundDuration)
	envUint("TERMIBBL_ROUNDS", &c.Rounds)
	envString("TERMIBBL_DIMENSIONS", &c.Dimensions)
	envString("TERMIBBL_WORD_FILE", &c.WordFile)
	envBool("TERMIBBL_DEBUG", &c.Debug)
}

// LoadFile overlays a TOML file onto c. Unknown keys are rejected so a
// typo does not silently fall back to a default.
func (c *Conf) LoadFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config: %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// Validate checks everything a server start needs.
func (c *Conf) Validate() error {
	if c.Port == 0 {
		return errors.New("config: a listen port is required")
	}
	if c.RoundDuration == 0 {
		return errors.New("config: round duration must be positive")
	}
	if c.Rounds == 0 {
		return errors.New("config: at least one round is required")
	}
	if _, err := internal.ParseDimensions(c.Dimensions); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// GameOpts materialises the per-room game options, reading the word file
// when one is configured.
func (c *Conf) GameOpts() (game.Opts, error) {
	opts := game.DefaultOpts()

	dim, err := internal.ParseDimensions(c.Dimensions)
	if err != nil {
		return opts, fmt.Errorf("config: %w", err)
	}
	opts.Dimensions = dim
	opts.Rounds = int(c.Rounds)
	opts.RoundDuration = time.Duration(c.RoundDuration) * time.Second

	if c.WordFile != "" {
		words, err := utils.ReadWordsFile(c.WordFile)
		if err != nil {
			return opts, fmt.Errorf("config: %w", err)
		}
		opts.Words = words
	}
	return opts, nil
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envUint(key string, dst *uint) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: ignoring %s=%q: %v\n", key, v, err)
		return
	}
	*dst = uint(n)
}

func envBool(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: ignoring %s=%q: %v\n", key, v, err)
		return
	}
	*dst = b
}
