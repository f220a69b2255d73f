package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	yaml := `
layers:
  l1:
    max_size: 5
    algorithm: lfu
  l2:
    ttl: 30m
serialization:
  type: json
  compress: false
invalidation:
  debounce: 250ms
consistency:
  write_through: false
  write_behind: true
  write_behind_delay: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Layers.L1.MaxSize)
	assert.Equal(t, "lfu", cfg.Layers.L1.Algorithm)
	assert.Equal(t, 30*time.Minute, cfg.Layers.L2.TTL)
	assert.Equal(t, "json", cfg.Serialization.Type)
	assert.False(t, cfg.Serialization.Compress)
	assert.Equal(t, 250*time.Millisecond, cfg.Invalidation.Debounce)
	assert.True(t, cfg.Consistency.WriteBehind)
	assert.Equal(t, 2*time.Second, cfg.Consistency.WriteBehindDelay)

	// Untouched keys keep their defaults.
	assert.Equal(t, "arc", cfg.Layers.L2.Algorithm)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CACHE_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("CACHE_SERIALIZATION_TYPE", "json")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "json", cfg.Serialization.Type)
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := Default()
	cfg.Layers.L1.Algorithm = "clock"
	cfg.Layers.L2.MaxSize = 0
	cfg.Invalidation.BatchSize = 0
	cfg.Consistency.WriteThrough = false
	cfg.Consistency.WriteBehind = true
	cfg.Consistency.WriteBehindDelay = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "layers.l1.algorithm")
	assert.ErrorContains(t, err, "layers.l2.max_size")
	assert.ErrorContains(t, err, "invalidation.batch_size")
	assert.ErrorContains(t, err, "write_behind_delay")
}

func TestValidateIgnoresDisabledLayers(t *testing.T) {
	cfg := Default()
	cfg.Layers.L1.Enabled = false
	cfg.Layers.L1.Algorithm = "bogus"
	assert.NoError(t, cfg.Validate())
}
