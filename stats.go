package measurement

import (
	"fmt"
	"time"
)

// StatsRecorder counts sends per tracking id in time buckets through a
// StatsDriver. Each record increments, for every configured granularity:
//
//	count, types.<hit type>, outcome.<2xx|3xx|4xx|5xx|error>, bytes, duration
//
// where duration is in milliseconds.
type StatsRecorder struct {
	cfg *StatsConfig
}

// NewStatsRecorder creates a recorder writing through cfg.Storage().
func NewStatsRecorder(cfg *StatsConfig) (*StatsRecorder, error) {
	if cfg == nil || cfg.Driver == nil {
		return nil, fmt.Errorf("stats config and driver required")
	}
	return &StatsRecorder{cfg: cfg}, nil
}

func (s *StatsRecorder) RecordHit(rec HitRecord) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	values := map[string]any{
		"count":    1,
		"types":    map[string]any{rec.HitType: 1},
		"outcome":  map[string]any{rec.Outcome(): 1},
		"bytes":    rec.PayloadBytes,
		"duration": float64(rec.Duration) / float64(time.Millisecond),
	}
	return Track(s.cfg, HitsKey(rec.TrackingID), at, values)
}

// Flush writes buffered counters to the driver.
func (s *StatsRecorder) Flush() error {
	return s.cfg.FlushBuffer()
}

// Close flushes and stops the write buffer.
func (s *StatsRecorder) Close() error {
	return s.cfg.ShutdownBuffer()
}

// Track increments values under key in every configured granularity.
func Track(cfg *StatsConfig, key string, at time.Time, values map[string]any) error {
	if cfg == nil || cfg.Driver == nil {
		return fmt.Errorf("stats config and driver required")
	}

	nocturnal := NewNocturnal(cfg)
	granularities := cfg.EffectiveGranularities()
	keys := make([]BucketKey, 0, len(granularities))
	for _, g := range granularities {
		floored := nocturnal.Floor(at, g)
		keys = append(keys, BucketKey{
			Prefix:      cfg.Prefix,
			Key:         key,
			Granularity: g.Name,
			At:          &floored,
		})
	}
	return cfg.Storage().Inc(keys, values)
}

// Values reads the counters stored under key for every bucket between from
// and to.
func Values(cfg *StatsConfig, key string, from, to time.Time, granularity string, skipBlanks bool) (Timeline, error) {
	if cfg == nil || cfg.Driver == nil {
		return Timeline{}, fmt.Errorf("stats config and driver required")
	}
	g, err := ParseGranularity(granularity)
	if err != nil {
		return Timeline{}, err
	}

	at := NewNocturnal(cfg).Timeline(from, to, g)
	keys := make([]BucketKey, 0, len(at))
	for _, t := range at {
		bucket := t
		keys = append(keys, BucketKey{
			Prefix:      cfg.Prefix,
			Key:         key,
			Granularity: g.Name,
			At:          &bucket,
		})
	}

	values, err := cfg.Driver.Get(keys)
	if err != nil {
		return Timeline{}, err
	}
	result := Timeline{At: at, Values: values}
	if !skipBlanks {
		return result, nil
	}

	clean := Timeline{At: []time.Time{}, Values: []map[string]any{}}
	for i, v := range result.Values {
		if len(v) == 0 {
			continue
		}
		clean.At = append(clean.At, result.At[i])
		clean.Values = append(clean.Values, v)
	}
	return clean, nil
}

// HitStats reads the hit counters recorded for trackingID.
func HitStats(cfg *StatsConfig, trackingID string, from, to time.Time, granularity string) (Timeline, error) {
	return Values(cfg, HitsKey(trackingID), from, to, granularity, false)
}
