package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "http://127.0.0.1:7300", cfg.Bridge.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Bridge.Timeout)
	assert.Zero(t, cfg.Platform.Generation, "an unknown generation must never assume truncation")
	assert.Equal(t, "inline", cfg.Executor.Strategy)
	assert.True(t, cfg.Scratch.SweepOnStart)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: DEBUG
bridge:
  endpoint: http://10.0.0.1:9000
  timeout: 5s
platform:
  generation: 33
executor:
  strategy: pool
  workers: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "http://10.0.0.1:9000", cfg.Bridge.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Bridge.Timeout)
	assert.Equal(t, 33, cfg.Platform.Generation)
	assert.Equal(t, "pool", cfg.Executor.Strategy)
	assert.Equal(t, 8, cfg.Executor.Workers)

	// Untouched sections keep their defaults.
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 64, cfg.Executor.QueueSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SCOPEDFS_BRIDGE_ENDPOINT", "http://env-host:7301")
	t.Setenv("SCOPEDFS_LOGGING_LEVEL", "ERROR")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://env-host:7301", cfg.Bridge.Endpoint)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad strategy", "executor:\n  strategy: fibers\n"},
		{"bad endpoint", "bridge:\n  endpoint: not-a-url\n"},
		{"negative generation", "platform:\n  generation: -1\n"},
		{"bad log level", "logging:\n  level: LOUD\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.Platform.Generation = 30
	require.NoError(t, cfg.WriteFile(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, loaded.Platform.Generation)
	assert.Equal(t, cfg.Bridge.Endpoint, loaded.Bridge.Endpoint)
}

func TestDefaultMatchesLoadedDefaults(t *testing.T) {
	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)
}
