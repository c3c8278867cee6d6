package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpxrk/pactwise-memory/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"PACTWISE_CONFIG_FILE", "PACTWISE_HOST", "PACTWISE_PORT",
		"PACTWISE_STORAGE_ENGINE", "PACTWISE_EMBEDDING_ENABLED",
	} {
		_ = os.Unsetenv(key)
	}

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host,
		"Default host must be 127.0.0.1 for security")
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Engine)
	assert.Equal(t, 5*time.Minute, cfg.Sweep.ExpiryInterval)
	assert.Equal(t, 100, cfg.Sweep.ConsolidationBatch)
	assert.False(t, cfg.Embedding.Enabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PACTWISE_HOST", "0.0.0.0")
	t.Setenv("PACTWISE_PORT", "9090")
	t.Setenv("PACTWISE_DECAY_INTERVAL", "30m")
	t.Setenv("PACTWISE_RATE_LIMIT_RPS", "5.5")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Sweep.DecayInterval)
	assert.Equal(t, 5.5, cfg.Security.RateLimitRPS)
}

func TestLoadConfig_InvalidEnvValueFallsBack(t *testing.T) {
	t.Setenv("PACTWISE_PORT", "not-a-number")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadConfigFile_YAMLValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8088
storage:
  engine: sqlite
  data_path: /tmp/memdata
sweep:
  consolidation_batch: 25
embedding:
  enabled: true
  url: http://localhost:11434/api/embeddings
  model: nomic-embed-text
`), 0o600))

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "/tmp/memdata", cfg.Storage.DataPath)
	assert.Equal(t, 25, cfg.Sweep.ConsolidationBatch)
	assert.True(t, cfg.Embedding.Enabled)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	// Untouched fields keep their defaults.
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoadConfigFile_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8088\n"), 0o600))
	t.Setenv("PACTWISE_PORT", "9999")

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadConfig_RejectsUnknownEngine(t *testing.T) {
	t.Setenv("PACTWISE_STORAGE_ENGINE", "cassandra")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("PACTWISE_STORAGE_ENGINE", "postgres")
	_ = os.Unsetenv("PACTWISE_POSTGRES_DSN")

	_, err := config.LoadConfig()
	assert.Error(t, err)

	t.Setenv("PACTWISE_POSTGRES_DSN", "postgres://localhost/memories?sslmode=disable")
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Engine)
}

func TestLoadConfig_EmbeddingRequiresURL(t *testing.T) {
	t.Setenv("PACTWISE_EMBEDDING_ENABLED", "true")
	_ = os.Unsetenv("PACTWISE_EMBEDDING_URL")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}
