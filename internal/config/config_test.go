package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/efs/internal/config"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "efs")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.Disk)
	assert.Nil(t, cfg.Defaults.Type)
	assert.Nil(t, cfg.Defaults.MaxEntries)
	assert.Nil(t, cfg.Defaults.Verbose)
}

func TestLoad_FullConfig(t *testing.T) {
	writeConfig(t, `
[defaults]
disk = "/var/lib/efs/disk.img"
type = "gpt"
max_entries = 4096
verbose = true
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.Disk)
	assert.Equal(t, "/var/lib/efs/disk.img", *cfg.Defaults.Disk)

	require.NotNil(t, cfg.Defaults.Type)
	assert.Equal(t, "gpt", *cfg.Defaults.Type)

	require.NotNil(t, cfg.Defaults.MaxEntries)
	assert.Equal(t, uint32(4096), *cfg.Defaults.MaxEntries)

	require.NotNil(t, cfg.Defaults.Verbose)
	assert.True(t, *cfg.Defaults.Verbose)
}

func TestLoad_PartialConfig(t *testing.T) {
	writeConfig(t, `
[defaults]
type = "mbr"
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Nil(t, cfg.Defaults.Disk)
	assert.Nil(t, cfg.Defaults.MaxEntries)
	require.NotNil(t, cfg.Defaults.Type)
	assert.Equal(t, "mbr", *cfg.Defaults.Type)
}

func TestLoad_InvalidTOML(t *testing.T) {
	writeConfig(t, "invalid [[[")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/efs/config.toml", config.Path())
}
