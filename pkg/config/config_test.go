package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "localhost", cfg.Storage.Postgres.Host)
	assert.Equal(t, 5432, cfg.Storage.Postgres.Port)
	assert.Equal(t, "localhost:6379", cfg.Storage.Redis.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Zero(t, cfg.Engine.StepTimeoutMS)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"storage": {"type": "postgresql", "postgres": {"host": "db.internal", "database": "flows"}},
		"logging": {"level": "debug"},
		"server": {"port": 9000},
		"schedules": [{"spec": "*/5 * * * *", "flow": "cleanup"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgresql", cfg.Storage.Type)
	assert.Equal(t, "db.internal", cfg.Storage.Postgres.Host)
	assert.Equal(t, "flows", cfg.Storage.Postgres.Database)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 9000, cfg.Server.Port)
	require.Len(t, cfg.Schedules, 1)
	assert.Equal(t, "cleanup", cfg.Schedules[0].Flow)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.json")
	assert.Error(t, err)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("WORKFLOW_STORAGE_TYPE", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("WORKFLOW_LOG_LEVEL", "error")
	t.Setenv("WORKFLOW_SERVER_PORT", "9999")
	t.Setenv("WORKFLOW_STEP_TIMEOUT_MS", "1500")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Storage.Type)
	assert.Equal(t, "redis.internal:6379", cfg.Storage.Redis.Address)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 1500, cfg.Engine.StepTimeoutMS)
}

func TestEnvironmentIgnoresBadInt(t *testing.T) {
	t.Setenv("WORKFLOW_SERVER_PORT", "not-a-port")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestProviderConfigMapping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Type = "redis"
	cfg.Storage.Redis.KeyPrefix = "wf:"

	pc := cfg.ProviderConfig()
	assert.EqualValues(t, "redis", pc.Type)
	require.NotNil(t, pc.Redis)
	assert.Equal(t, "wf:", pc.Redis.KeyPrefix)
	require.NotNil(t, pc.PostgreSQL)
	assert.Equal(t, "localhost", pc.PostgreSQL.Host)
}
