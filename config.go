package measurement

import (
	"net/http"
	"time"
)

const (
	DefaultHost      = "www.google-analytics.com"
	DefaultPath      = "/collect"
	DefaultDebugPath = "/debug/collect"
)

// Config holds the settings shared by every Analytics built from it.
type Config struct {
	// Secure selects https instead of http.
	Secure bool
	Host   string
	Path   string
	// Debug targets the validation endpoint, which never records hits.
	Debug bool

	UserAgent string
	// Timeout bounds one transport call. Zero means no limit.
	Timeout    time.Duration
	HTTPClient *http.Client
	Transport  Transport

	Logger   Logger
	Recorder Recorder

	// Defaults are applied as singles to every new Analytics.
	Defaults map[FieldKind]any
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Secure: false,
		Host:   DefaultHost,
		Path:   DefaultPath,
		Logger: DiscardLogger,
	}
}

// Endpoint returns the collection URL derived from the scheme flag, host and path.
func (c *Config) Endpoint() string {
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	if c.Debug && path == DefaultPath {
		path = DefaultDebugPath
	}
	return scheme + "://" + host + path
}

func (c *Config) logger() Logger {
	if c == nil || c.Logger == nil {
		return DiscardLogger
	}
	return c.Logger
}
