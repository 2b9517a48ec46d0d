package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, "memory", cfg.CacheType)
	assert.Equal(t, 32, cfg.CacheShards)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.WatchSources)
	assert.Equal(t, 1, cfg.WarmupWorkers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_DIR", "/srv/svg")
	t.Setenv("CACHE", "disabled")
	t.Setenv("WATCH_SOURCES", "true")
	t.Setenv("WARMUP_WORKERS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/srv/svg", cfg.DataDir)
	assert.Equal(t, "disabled", cfg.CacheType)
	assert.True(t, cfg.WatchSources)
	assert.Equal(t, 1, cfg.WarmupWorkers)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("PORT", "eighty")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadShards(t *testing.T) {
	t.Setenv("CACHE_SHARDS", "0")
	_, err := Load()
	assert.Error(t, err)
}
