package measurement

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
tracking_id: UA-123-1
secure: true
host: collect.example.test
timeout: 3s
user_agent: shop/2.1
defaults:
  AnonymizeIp: "1"
  DataSource: backend
stats:
  driver: sqlite
  dsn: ":memory:"
  prefix: shop
  time_zone: Europe/Berlin
  granularities: [1h, 1d]
  setup: true
  buffer:
    enabled: false
    size: 32
    async: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "measurement.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	fc, err := LoadConfigFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "UA-123-1", fc.TrackingID)
	assert.Equal(t, "1", fc.ProtocolVersion)
	assert.True(t, fc.Secure)
	assert.Equal(t, 3*time.Second, fc.Timeout)
	assert.Equal(t, "sqlite", fc.Stats.Driver)
	assert.Equal(t, []string{"1h", "1d"}, fc.Stats.Granularities)
	require.NotNil(t, fc.Stats.Buffer.Enabled)
	assert.False(t, *fc.Stats.Buffer.Enabled)
	assert.Nil(t, fc.Stats.Buffer.Aggregate)

	cfg, err := fc.Config()
	require.NoError(t, err)
	assert.Equal(t, "https://collect.example.test/collect", cfg.Endpoint())
	assert.Equal(t, "shop/2.1", cfg.UserAgent)
	assert.Equal(t, map[FieldKind]any{
		ProtocolVersion: "1",
		TrackingID:      "UA-123-1",
		AnonymizeIP:     "1",
		DataSource:      "backend",
	}, cfg.Defaults)
}

func TestLoadConfigFile_Errors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = LoadConfigFile(writeConfig(t, "tracking_id: [unterminated"))
	assert.Error(t, err)
}

func TestLoadConfigFile_EnvOverrides(t *testing.T) {
	t.Setenv("MEASUREMENT_TRACKING_ID", "UA-999-1")
	t.Setenv("MEASUREMENT_DEBUG", "true")
	t.Setenv("MEASUREMENT_SECURE", "0")
	t.Setenv("MEASUREMENT_TIMEOUT", "250ms")
	t.Setenv("MEASUREMENT_STATS_DSN", "file:stats.db")
	t.Setenv("MEASUREMENT_METRICS_FILE", "/tmp/measurement.prom")

	fc, err := LoadConfigFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "UA-999-1", fc.TrackingID)
	assert.True(t, fc.Debug)
	assert.False(t, fc.Secure)
	assert.Equal(t, 250*time.Millisecond, fc.Timeout)
	assert.Equal(t, "file:stats.db", fc.Stats.DSN)
	assert.Equal(t, "/tmp/measurement.prom", fc.MetricsFile)

	t.Setenv("MEASUREMENT_TIMEOUT", "soon")
	fc, err = LoadConfigFile("")
	require.NoError(t, err)
	assert.Zero(t, fc.Timeout)
	assert.Equal(t, "UA-999-1", fc.TrackingID)
}

func TestFileConfig_ConfigRejectsBadDefaults(t *testing.T) {
	fc := &FileConfig{Defaults: map[string]string{"Nonexistent": "x"}}
	_, err := fc.Config()
	assert.Error(t, err)

	fc = &FileConfig{Defaults: map[string]string{"Product": "x"}}
	_, err = fc.Config()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a single field")
}

func TestStatsFileConfig_StatsConfig(t *testing.T) {
	enabled, aggregate := true, false
	s := StatsFileConfig{
		Prefix:        "shop",
		TimeZone:      "Europe/Berlin",
		Granularities: []string{"1d"},
		Buffer: BufferFileConfig{
			Enabled:   &enabled,
			Duration:  5 * time.Second,
			Size:      10,
			Aggregate: &aggregate,
		},
	}

	driver := newBufferTestDriver()
	cfg := s.StatsConfig(driver)
	assert.Same(t, driver, cfg.Driver.(*bufferTestDriver))
	assert.Equal(t, "shop", cfg.Prefix)
	assert.Equal(t, "Europe/Berlin", cfg.TimeZone)
	assert.Equal(t, []string{"1d"}, cfg.Granularities)
	assert.True(t, cfg.BufferEnabled)
	assert.Equal(t, 5*time.Second, cfg.BufferDuration)
	assert.Equal(t, 10, cfg.BufferSize)
	assert.False(t, cfg.BufferAggregate)
	assert.True(t, cfg.BufferAsync, "unset async keeps the default")

	defaults := StatsFileConfig{}.StatsConfig(driver)
	assert.Equal(t, "measurement", defaults.Prefix)
	assert.Nil(t, defaults.Granularities)
}

func TestOpenStatsDriver(t *testing.T) {
	ctx := context.Background()

	driver, closer, err := OpenStatsDriver(ctx, StatsFileConfig{Driver: "SQLite", DSN: ":memory:", Setup: true})
	require.NoError(t, err)
	assert.Equal(t, "SQLiteDriver", driver.Description())
	require.NoError(t, closer.Close())

	driver, closer, err = OpenStatsDriver(ctx, StatsFileConfig{Driver: "redis", DSN: "redis://localhost:6379/2", Prefix: "shop"})
	require.NoError(t, err)
	assert.Equal(t, "shop", driver.(*RedisDriver).Prefix)
	require.NoError(t, closer.Close())

	_, _, err = OpenStatsDriver(ctx, StatsFileConfig{Driver: "redis", DSN: "not a url"})
	assert.Error(t, err)

	_, _, err = OpenStatsDriver(ctx, StatsFileConfig{})
	assert.EqualError(t, err, "stats driver not configured")

	_, _, err = OpenStatsDriver(ctx, StatsFileConfig{Driver: "cassandra"})
	assert.EqualError(t, err, `unknown stats driver "cassandra"`)
}
