package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"termibbl/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	c := Defaults
	assert.Error(t, c.Validate(), "the port has no default")

	c.Port = 4444
	assert.NoError(t, c.Validate())

	c.Dimensions = "bogus"
	assert.Error(t, c.Validate())

	c = Defaults
	c.Port = 4444
	c.Rounds = 0
	assert.Error(t, c.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = 4567
rounds = 5
dimensions = "120x40"
debug = true
`), 0o644))

	c := Defaults
	require.NoError(t, c.LoadFile(path))

	assert.Equal(t, uint(4567), c.Port)
	assert.Equal(t, uint(5), c.Rounds)
	assert.Equal(t, "120x40", c.Dimensions)
	assert.True(t, c.Debug)
	// untouched keys keep their defaults
	assert.Equal(t, uint(120), c.RoundDuration)
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte("prot = 4567\n"), 0o644))

	c := Defaults
	assert.Error(t, c.LoadFile(path))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TERMIBBL_PORT", "9999")
	t.Setenv("TERMIBBL_ROUNDS", "7")
	t.Setenv("TERMIBBL_DEBUG", "true")
	t.Setenv("TERMIBBL_DIMENSIONS", "80x24")

	c := Defaults
	c.FromEnv()

	assert.Equal(t, uint(9999), c.Port)
	assert.Equal(t, uint(7), c.Rounds)
	assert.True(t, c.Debug)
	assert.Equal(t, "80x24", c.Dimensions)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("TERMIBBL_PORT", "not-a-port")

	c := Defaults
	c.FromEnv()
	assert.Equal(t, uint(0), c.Port)
}

func TestGameOpts(t *testing.T) {
	words := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(words, []byte("apple\nbanana\n"), 0o644))

	c := Defaults
	c.Port = 4444
	c.RoundDuration = 90
	c.Rounds = 2
	c.Dimensions = "100x30"
	c.WordFile = words

	opts, err := c.GameOpts()
	require.NoError(t, err)

	assert.Equal(t, internal.Dimensions{Width: 100, Height: 30}, opts.Dimensions)
	assert.Equal(t, 90*time.Second, opts.RoundDuration)
	assert.Equal(t, 2, opts.Rounds)
	assert.Equal(t, []string{"apple", "banana"}, opts.Words)
}

func TestGameOptsMissingWordFile(t *testing.T) {
	c := Defaults
	c.Port = 4444
	c.WordFile = filepath.Join(t.TempDir(), "nope.txt")

	_, err := c.GameOpts()
	assert.Error(t, err)
}
