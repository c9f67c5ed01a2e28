package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingReturnsBaseUnchanged(t *testing.T) {
	base := Defaults()
	got, err := LoadFile(filepath.Join(t.TempDir(), "nonexistent.yaml"), base)
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestLoadFileEmptyPathReturnsBaseUnchanged(t *testing.T) {
	base := Defaults()
	got, err := LoadFile("", base)
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestLoadFileOverridesBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sane.yaml")
	require.NoError(t, os.WriteFile(path, []byte("address: printserver\nport: 9999\n"), 0o644))

	got, err := LoadFile(path, Defaults())
	require.NoError(t, err)
	assert.Equal(t, "printserver", got.Address)
	assert.Equal(t, 9999, got.Port)
	assert.Equal(t, "info", got.LogLevel) // untouched field keeps the base value
}

func TestLoadFileMalformedYAMLFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sane.yaml")
	require.NoError(t, os.WriteFile(path, []byte("address: [unterminated\n"), 0o644))

	_, err := LoadFile(path, Defaults())
	require.Error(t, err)
}

func TestRegisterFlagsOverridesConfig(t *testing.T) {
	cfg := Defaults()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, &cfg)

	require.NoError(t, fs.Parse([]string{"--address=scanhost", "--timeout=5s"}))
	assert.Equal(t, "scanhost", cfg.Address)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 6566, cfg.Port) // left at its default
}
