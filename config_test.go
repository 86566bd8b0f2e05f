package arus

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)
	config := DefaultConfig()

	assert.Equal(EnvDevelopment, config.Env)
	assert.Equal(":3000", config.Addr)
	assert.Equal(5*time.Second, config.ReadTimeout)
	assert.Equal(10*time.Second, config.WriteTimeout)
	assert.Equal(15*time.Second, config.IdleTimeout)
	assert.True(config.Multicore)
	assert.Equal("info", config.LogLevel)
	assert.False(config.Production())
	assert.NoError(config.Validate())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(EnvVar, "")
	path := writeConfig(t, `
env: production
addr: ":8080"
read_timeout: 2s
idle_timeout: 1m
log_level: debug
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", config.Addr)
	assert.Equal(t, 2*time.Second, config.ReadTimeout)
	assert.Equal(t, time.Minute, config.IdleTimeout)
	// Keys missing from the file keep their defaults.
	assert.Equal(t, 10*time.Second, config.WriteTimeout)
	assert.Equal(t, "debug", config.LogLevel)
	assert.True(t, config.Production())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv(EnvVar, "production")
	config, err := LoadConfig(writeConfig(t, "env: development\n"))
	require.NoError(t, err)
	assert.Equal(t, "production", config.Env)
	assert.True(t, config.Production())
}

func TestLoadConfigErrors(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "read_timeout: [oops"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "env: staging\n"))
	assert.ErrorContains(t, err, "unknown env")

	_, err = LoadConfig(writeConfig(t, "write_timeout: -1s\n"))
	assert.ErrorContains(t, err, "must not be negative")
}

func TestConfigProduction(t *testing.T) {
	assert.True(t, Config{Env: "PRODUCTION"}.Production())
	assert.False(t, Config{}.Production())
	assert.NoError(t, Config{Env: "Production"}.Validate())
}
