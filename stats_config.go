package measurement

import (
	"sync"
	"time"
)

// DefaultGranularities are the buckets hits are counted in unless configured.
var DefaultGranularities = []string{"1m", "1h", "1d", "1w", "1mo", "1q", "1y"}

// StatsConfig configures where and how delivery statistics are stored.
type StatsConfig struct {
	Driver          StatsDriver
	TimeZone        string
	BeginningOfWeek time.Weekday
	Granularities   []string
	Separator       string
	Prefix          string

	BufferEnabled   bool
	BufferDuration  time.Duration
	BufferSize      int
	BufferAggregate bool
	BufferAsync     bool

	TimezoneLoadError error

	zoneMu   sync.Mutex
	zoneName string
	zone     *time.Location

	bufferMu sync.Mutex
	storage  StatsWriter
	buffer   *Buffer
}

// DefaultStatsConfig returns the default statistics configuration.
func DefaultStatsConfig() *StatsConfig {
	return &StatsConfig{
		TimeZone:        "GMT",
		BeginningOfWeek: time.Monday,
		Granularities:   nil, // nil means default list
		Separator:       "::",
		Prefix:          "measurement",
		BufferEnabled:   true,
		BufferDuration:  time.Second,
		BufferSize:      256,
		BufferAggregate: true,
		BufferAsync:     true,
	}
}

// Location resolves the configured time zone, defaulting to UTC on error.
// The result is cached per zone name; a load failure is kept in
// TimezoneLoadError.
func (c *StatsConfig) Location() *time.Location {
	if c == nil || c.TimeZone == "" {
		return time.UTC
	}

	c.zoneMu.Lock()
	defer c.zoneMu.Unlock()
	if c.zone != nil && c.zoneName == c.TimeZone {
		return c.zone
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		c.TimezoneLoadError = err
		loc = time.UTC
	} else {
		c.TimezoneLoadError = nil
	}
	c.zoneName = c.TimeZone
	c.zone = loc
	return loc
}

// EffectiveGranularities returns the configured granularities that parse.
// Nil means the default list; an empty slice stays empty.
func (c *StatsConfig) EffectiveGranularities() []Granularity {
	base := DefaultGranularities
	if c != nil && c.Granularities != nil {
		base = c.Granularities
	}

	out := make([]Granularity, 0, len(base))
	seen := map[string]struct{}{}
	for _, name := range base {
		if _, ok := seen[name]; ok {
			continue
		}
		g, err := ParseGranularity(name)
		if err != nil {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, g)
	}
	return out
}

func (c *StatsConfig) separator() string {
	if c == nil || c.Separator == "" {
		return "::"
	}
	return c.Separator
}

func (c *StatsConfig) bufferOptions() BufferOptions {
	return BufferOptions{
		Duration:  c.BufferDuration,
		Size:      c.BufferSize,
		Aggregate: c.BufferAggregate,
		Async:     c.BufferAsync,
	}
}

// Storage returns the write path: the buffer when enabled, else the driver.
func (c *StatsConfig) Storage() StatsWriter {
	if c == nil {
		return nil
	}

	c.bufferMu.Lock()
	defer c.bufferMu.Unlock()

	if !c.BufferEnabled || c.Driver == nil {
		c.shutdownBufferLocked()
		if c.Driver == nil {
			return nil
		}
		return c.Driver
	}

	opts := c.bufferOptions()
	if c.buffer != nil && c.buffer.matches(c.Driver, opts) {
		return c.storage
	}

	c.shutdownBufferLocked()
	c.buffer = NewBuffer(c.Driver, opts)
	c.storage = c.buffer
	return c.storage
}

// FlushBuffer writes pending buffered increments.
func (c *StatsConfig) FlushBuffer() error {
	if c == nil {
		return nil
	}

	c.bufferMu.Lock()
	buffer := c.buffer
	c.bufferMu.Unlock()
	if buffer == nil {
		return nil
	}
	return buffer.Flush()
}

// ShutdownBuffer flushes and stops the buffer worker.
func (c *StatsConfig) ShutdownBuffer() error {
	if c == nil {
		return nil
	}

	c.bufferMu.Lock()
	buffer := c.buffer
	c.buffer = nil
	c.storage = nil
	c.bufferMu.Unlock()
	return buffer.Shutdown()
}

func (c *StatsConfig) shutdownBufferLocked() {
	if c.buffer != nil {
		_ = c.buffer.Shutdown()
	}
	c.buffer = nil
	c.storage = nil
}
