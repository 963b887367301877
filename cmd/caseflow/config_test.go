package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "caseflow", cfg.Store.Schema)
	assert.EqualValues(t, 10000, cfg.Store.CacheSize)
	assert.Equal(t, 10, cfg.Engine.MaxParallelSteps)
	assert.Equal(t, time.Hour, cfg.Engine.Retention)
	assert.Equal(t, time.Minute, cfg.Engine.CleanupInterval)
	assert.Zero(t, cfg.RateLimit.PerSecond)
	assert.Empty(t, cfg.Telemetry.Endpoint)
}

func TestLoadConfig_File(t *testing.T) {
	cfg, err := LoadConfig("testdata/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.EqualValues(t, 500, cfg.Store.CacheSize)
	assert.Equal(t, 30*time.Second, cfg.Store.CacheTTL)
	assert.Equal(t, 4, cfg.Engine.MaxParallelSteps)
	assert.Equal(t, 2*time.Hour, cfg.Engine.Retention)
	assert.Equal(t, time.Minute, cfg.Engine.CleanupInterval)
	assert.Equal(t, "testdata/templates.yaml", cfg.Templates.Path)
	assert.Equal(t, 20.0, cfg.RateLimit.PerSecond)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CASEFLOW_STORE__DRIVER", "badger")
	t.Setenv("CASEFLOW_ENGINE__MAX_PARALLEL_STEPS", "2")
	t.Setenv("CASEFLOW_RATE_LIMIT__BURST", "7")

	cfg, err := LoadConfig("testdata/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "badger", cfg.Store.Driver)
	assert.Equal(t, 2, cfg.Engine.MaxParallelSteps)
	assert.Equal(t, 7, cfg.RateLimit.Burst)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		errText string
	}{
		{name: "unknown driver", content: "store:\n  driver: mongo\n", errText: `unknown store driver "mongo"`},
		{name: "postgres without dsn", content: "store:\n  driver: postgres\n", errText: "store.dsn is required"},
		{name: "no parallelism", content: "engine:\n  max_parallel_steps: 0\n", errText: "max_parallel_steps must be positive"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "config"+string(rune('a'+i))+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := LoadConfig(path)
			assert.ErrorContains(t, err, tt.errText)
		})
	}

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
