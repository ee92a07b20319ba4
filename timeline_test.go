package measurement

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func sampleTimeline() Timeline {
	at := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	return Timeline{
		At: []time.Time{at, at.Add(time.Hour), at.Add(2 * time.Hour)},
		Values: []map[string]any{
			{"count": 4.0, "duration": 40.0, "outcome": map[string]any{"2xx": 3.0, "error": 1.0}},
			{},
			{"count": 2.0, "duration": 10.0, "outcome": map[string]any{"2xx": 2.0}, "types": map[string]any{"event": 2.0}},
		},
	}
}

func TestTimeline_Paths(t *testing.T) {
	want := []string{"count", "duration", "outcome.2xx", "outcome.error", "types.event"}
	if diff := cmp.Diff(want, sampleTimeline().Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestTimeline_Aggregates(t *testing.T) {
	timeline := sampleTimeline()

	if got := timeline.Sum("count"); got != 6 {
		t.Fatalf("expected sum 6, got %v", got)
	}
	if got := timeline.Sum("outcome.2xx"); got != 5 {
		t.Fatalf("expected 2xx sum 5, got %v", got)
	}
	if got := timeline.Max("count"); got != 4 {
		t.Fatalf("expected max 4, got %v", got)
	}
	if got := timeline.Ratio("duration", "count"); got != 50.0/6.0 {
		t.Fatalf("unexpected ratio %v", got)
	}
	if got := timeline.Ratio("duration", "missing"); got != 0 {
		t.Fatalf("expected zero ratio for empty denominator, got %v", got)
	}
	if diff := cmp.Diff([]float64{10, 0, 5}, timeline.Divide("duration", "count")); diff != "" {
		t.Fatalf("divide mismatch (-want +got):\n%s", diff)
	}
}

func TestTimeline_Empty(t *testing.T) {
	var timeline Timeline
	if timeline.Sum("count") != 0 || timeline.Max("count") != 0 || timeline.Ratio("a", "b") != 0 {
		t.Fatalf("expected zero aggregates for an empty timeline")
	}
	if len(timeline.Paths()) != 0 || len(timeline.Divide("a", "b")) != 0 {
		t.Fatalf("expected empty series")
	}
}
