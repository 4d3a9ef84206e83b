package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SQLDECK_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("SQLDECK_WAREHOUSE_ACCOUNT", "env123.us-east-1")
	t.Setenv("SQLDECK_WAREHOUSE_USERNAME", "envuser")

	initConfig()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "env123.us-east-1", cfg.Warehouse.Account)
	assert.Equal(t, "envuser", cfg.Warehouse.Username)
}

func TestLoadConfigEnvBeatsFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(
		"warehouse:\n  account: file123.us-east-1\n  username: fileuser\n"), 0o600))
	t.Setenv("SQLDECK_CONFIG", configFile)
	t.Setenv("SQLDECK_WAREHOUSE_ACCOUNT", "env123.us-east-1")

	initConfig()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "env123.us-east-1", cfg.Warehouse.Account)
	assert.Equal(t, "fileuser", cfg.Warehouse.Username)
}

func TestLoadConfigMissingAccount(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SQLDECK_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("SQLDECK_WAREHOUSE_ACCOUNT", "")

	initConfig()

	_, err := loadConfig()
	require.Error(t, err)
}
