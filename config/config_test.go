package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-modelstore/cache"
	"github.com/goliatone/go-modelstore/engine"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8, cfg.Repository.Retry.Attempts)
	assert.Equal(t, 80*time.Millisecond, cfg.Repository.Retry.Delay)
	assert.Equal(t, engine.DriverModernc, cfg.Engine.Driver)
	assert.Equal(t, cache.BackendMemory, cfg.Cache.Backend)
}

func TestLoadWithoutFileOrEnvironment(t *testing.T) {
	cfg, err := LoadEnvironment("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	cfg, err := LoadEnvironment(filepath.Join("testdata", "modelstore.yaml"), nil)
	require.NoError(t, err)

	assert.Equal(t, cache.BackendBounded, cfg.Cache.Backend)
	assert.Equal(t, 500, cfg.Cache.Bounded.Capacity)
	assert.Equal(t, 10*time.Minute, cfg.Cache.Bounded.TTL)
	assert.Equal(t, "/var/lib/modelstore/store.db", cfg.Engine.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.BusyTimeout)
	assert.Equal(t, "WAL", cfg.Engine.JournalMode)
	assert.Equal(t, 5, cfg.Repository.Retry.Attempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Repository.Retry.Delay)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadPartialYAMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  path: other.db\n"), 0o644))

	cfg, err := LoadEnvironment(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "other.db", cfg.Engine.Path)
	assert.Equal(t, engine.DriverModernc, cfg.Engine.Driver)
	assert.Equal(t, 8, cfg.Repository.Retry.Attempts)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	cfg, err := LoadEnvironment(filepath.Join("testdata", "modelstore.yaml"), map[string]string{
		"MODELSTORE_ENGINE_PATH":               "env.db",
		"MODELSTORE_CACHE_ENABLED":             "false",
		"MODELSTORE_CACHE_BOUNDED_CAPACITY":    "42",
		"MODELSTORE_REPOSITORY_RETRY_ATTEMPTS": "3",
		"MODELSTORE_REPOSITORY_RETRY_DELAY":    "1s",
		"MODELSTORE_LOG_LEVEL":                 "warn",
		"ENGINE_PATH":                          "ignored.db",
	})
	require.NoError(t, err)

	assert.Equal(t, "env.db", cfg.Engine.Path)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 42, cfg.Cache.Bounded.Capacity)
	assert.Equal(t, 3, cfg.Repository.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.Repository.Retry.Delay)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadEnvironment(filepath.Join("testdata", "missing.yaml"), nil)
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "missing.yaml")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("engine: [unterminated"), 0o644))
	_, err = LoadEnvironment(bad, nil)
	require.Error(t, err)

	_, err = LoadEnvironment("", map[string]string{"MODELSTORE_REPOSITORY_RETRY_ATTEMPTS": "lots"})
	require.Error(t, err)

	_, err = LoadEnvironment("", map[string]string{"MODELSTORE_REPOSITORY_RETRY_ATTEMPTS": "0"})
	require.Error(t, err)

	_, err = LoadEnvironment("", map[string]string{"MODELSTORE_ENGINE_DRIVER": "postgres"})
	require.Error(t, err)

	_, err = LoadEnvironment("", map[string]string{"MODELSTORE_LOG_FORMAT": "xml"})
	require.Error(t, err)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
