package measurement

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk configuration read by LoadConfigFile. MetricsFile,
// when set, receives Prometheus hit metrics in text format after each send.
type FileConfig struct {
	TrackingID      string            `yaml:"tracking_id"`
	ProtocolVersion string            `yaml:"protocol_version"`
	Secure          bool              `yaml:"secure"`
	Debug           bool              `yaml:"debug"`
	Host            string            `yaml:"host"`
	Path            string            `yaml:"path"`
	UserAgent       string            `yaml:"user_agent"`
	Timeout         time.Duration     `yaml:"timeout"`
	Defaults        map[string]string `yaml:"defaults"`
	Stats           StatsFileConfig   `yaml:"stats"`
	MetricsFile     string            `yaml:"metrics_file"`
}

// StatsFileConfig selects and configures the statistics backend.
type StatsFileConfig struct {
	// Driver is one of sqlite, postgres, mysql, redis, mongo. Empty disables stats.
	Driver        string           `yaml:"driver"`
	DSN           string           `yaml:"dsn"`
	Table         string           `yaml:"table"`
	Database      string           `yaml:"database"`
	Collection    string           `yaml:"collection"`
	Prefix        string           `yaml:"prefix"`
	TimeZone      string           `yaml:"time_zone"`
	Granularities []string         `yaml:"granularities"`
	Setup         bool             `yaml:"setup"`
	Buffer        BufferFileConfig `yaml:"buffer"`
}

// BufferFileConfig mirrors the StatsConfig buffer settings. Nil fields keep
// the defaults.
type BufferFileConfig struct {
	Enabled   *bool         `yaml:"enabled"`
	Duration  time.Duration `yaml:"duration"`
	Size      int           `yaml:"size"`
	Aggregate *bool         `yaml:"aggregate"`
	Async     *bool         `yaml:"async"`
}

// LoadConfigFile reads a YAML configuration file and applies MEASUREMENT_*
// environment overrides.
func LoadConfigFile(path string) (*FileConfig, error) {
	fc := &FileConfig{ProtocolVersion: "1"}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	fc.ApplyEnv()
	return fc, nil
}

// ApplyEnv overrides fields from the environment.
func (fc *FileConfig) ApplyEnv() {
	fc.TrackingID = getEnv("MEASUREMENT_TRACKING_ID", fc.TrackingID)
	fc.Secure = getEnvBool("MEASUREMENT_SECURE", fc.Secure)
	fc.Debug = getEnvBool("MEASUREMENT_DEBUG", fc.Debug)
	fc.Timeout = getEnvDuration("MEASUREMENT_TIMEOUT", fc.Timeout)
	fc.UserAgent = getEnv("MEASUREMENT_USER_AGENT", fc.UserAgent)
	fc.Stats.DSN = getEnv("MEASUREMENT_STATS_DSN", fc.Stats.DSN)
	fc.MetricsFile = getEnv("MEASUREMENT_METRICS_FILE", fc.MetricsFile)
}

// Config converts the file settings into a client Config. Defaults keyed by
// unknown field kinds are rejected.
func (fc *FileConfig) Config() (*Config, error) {
	cfg := DefaultConfig()
	cfg.Secure = fc.Secure
	cfg.Debug = fc.Debug
	cfg.UserAgent = fc.UserAgent
	cfg.Timeout = fc.Timeout
	if fc.Host != "" {
		cfg.Host = fc.Host
	}
	if fc.Path != "" {
		cfg.Path = fc.Path
	}

	cfg.Defaults = map[FieldKind]any{}
	registry := DefaultRegistry()
	for name, value := range fc.Defaults {
		desc, err := registry.Lookup(FieldKind(name))
		if err != nil {
			return nil, fmt.Errorf("config defaults: %w", err)
		}
		if desc.Shape != ShapeSingle {
			return nil, fmt.Errorf("config defaults: %q is not a single field", name)
		}
		cfg.Defaults[desc.Kind] = value
	}
	if fc.ProtocolVersion != "" {
		cfg.Defaults[ProtocolVersion] = fc.ProtocolVersion
	}
	if fc.TrackingID != "" {
		cfg.Defaults[TrackingID] = fc.TrackingID
	}
	return cfg, nil
}

// StatsConfig builds a StatsConfig around driver using the file settings.
func (s StatsFileConfig) StatsConfig(driver StatsDriver) *StatsConfig {
	cfg := DefaultStatsConfig()
	cfg.Driver = driver
	if s.Prefix != "" {
		cfg.Prefix = s.Prefix
	}
	if s.TimeZone != "" {
		cfg.TimeZone = s.TimeZone
	}
	if s.Granularities != nil {
		cfg.Granularities = s.Granularities
	}
	if s.Buffer.Enabled != nil {
		cfg.BufferEnabled = *s.Buffer.Enabled
	}
	if s.Buffer.Duration > 0 {
		cfg.BufferDuration = s.Buffer.Duration
	}
	if s.Buffer.Size > 0 {
		cfg.BufferSize = s.Buffer.Size
	}
	if s.Buffer.Aggregate != nil {
		cfg.BufferAggregate = *s.Buffer.Aggregate
	}
	if s.Buffer.Async != nil {
		cfg.BufferAsync = *s.Buffer.Async
	}
	return cfg
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

// OpenStatsDriver connects to the configured backend. The returned closer
// releases the connection.
func OpenStatsDriver(ctx context.Context, s StatsFileConfig) (StatsDriver, io.Closer, error) {
	switch strings.ToLower(s.Driver) {
	case "sqlite":
		db, err := sql.Open("sqlite", s.DSN)
		if err != nil {
			return nil, nil, err
		}
		driver := NewSQLiteDriver(db, s.Table)
		if s.Setup {
			if err := driver.Setup(); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return driver, db, nil
	case "postgres":
		db, err := sql.Open("pgx", s.DSN)
		if err != nil {
			return nil, nil, err
		}
		driver := NewPostgresDriver(db, s.Table)
		if s.Setup {
			if err := driver.Setup(); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return driver, db, nil
	case "mysql":
		db, err := sql.Open("mysql", s.DSN)
		if err != nil {
			return nil, nil, err
		}
		driver := NewMySQLDriver(db, s.Table)
		if s.Setup {
			if err := driver.Setup(); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return driver, db, nil
	case "redis":
		opts, err := redis.ParseURL(s.DSN)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		return NewRedisDriver(client, s.Prefix), client, nil
	case "mongo", "mongodb":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.DSN))
		if err != nil {
			return nil, nil, err
		}
		database := s.Database
		if database == "" {
			database = "measurement"
		}
		collection := s.Collection
		if collection == "" {
			collection = "measurement_stats"
		}
		driver := NewMongoDriver(client.Database(database).Collection(collection))
		closer := closerFunc(func() error {
			return client.Disconnect(context.Background())
		})
		if s.Setup {
			if err := driver.Setup(ctx); err != nil {
				_ = closer.Close()
				return nil, nil, err
			}
		}
		return driver, closer, nil
	case "":
		return nil, nil, fmt.Errorf("stats driver not configured")
	default:
		return nil, nil, fmt.Errorf("unknown stats driver %q", s.Driver)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
