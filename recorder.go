package measurement

import (
	"errors"
	"time"
)

// HitRecord describes one transport call made by Send.
type HitRecord struct {
	At           time.Time
	TrackingID   string
	HitType      string
	StatusCode   int
	Err          error
	PayloadBytes int
	Duration     time.Duration
}

// Outcome buckets the record as "2xx", "4xx", "5xx", "3xx" or "error" when
// no response arrived.
func (r HitRecord) Outcome() string {
	switch {
	case r.StatusCode >= 200 && r.StatusCode < 300:
		return "2xx"
	case r.StatusCode >= 300 && r.StatusCode < 400:
		return "3xx"
	case r.StatusCode >= 400 && r.StatusCode < 500:
		return "4xx"
	case r.StatusCode >= 500:
		return "5xx"
	default:
		return "error"
	}
}

// Recorder observes completed sends. It is called once per transport call.
type Recorder interface {
	RecordHit(HitRecord) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(HitRecord) error

func (f RecorderFunc) RecordHit(rec HitRecord) error {
	return f(rec)
}

// MultiRecorder fans a record out to several recorders. Every recorder is
// called; their errors are joined.
type MultiRecorder struct {
	recorders []Recorder
}

// NewMultiRecorder builds a MultiRecorder, skipping nil entries.
func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	m := &MultiRecorder{}
	for _, r := range recorders {
		if r != nil {
			m.recorders = append(m.recorders, r)
		}
	}
	return m
}

func (m *MultiRecorder) RecordHit(rec HitRecord) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.RecordHit(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
