package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_MergesWithDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  baseURL: http://localhost:9000
  retry:
    maxAttempts: 4
    baseDelay: 250ms
    multiplier: 3
cache:
  backend: file
  dir: /tmp/assistant-cache
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 4, cfg.Backend.Retry.MaxAttempts)
	assert.Equal(t, "250ms", cfg.Backend.Retry.BaseDelay)
	assert.Equal(t, 3, cfg.Backend.UploadRetry.MaxAttempts, "untouched sections keep defaults")
	assert.True(t, cfg.Backend.CompatibilityMode)
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, "30s", cfg.Backend.AttemptTimeout)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ASSISTANT_BACKEND_URL", "http://override:8000")
	t.Setenv("ASSISTANT_COMPATIBILITY_MODE", "false")
	t.Setenv("ASSISTANT_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://override:8000", cfg.Backend.BaseURL)
	assert.False(t, cfg.Backend.CompatibilityMode)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Databases.Kafka.Brokers)
	assert.True(t, cfg.Databases.Kafka.Enabled)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
backend:
  attemptTimeout: soon
cache:
  backend: tape
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.attemptTimeout")
	assert.Contains(t, err.Error(), "tape")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 2*time.Second, Duration("2s", time.Minute))
	assert.Equal(t, time.Minute, Duration("", time.Minute))
	assert.Equal(t, time.Minute, Duration("later", time.Minute))
}
