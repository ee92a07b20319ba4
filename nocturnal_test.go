package measurement

import (
	"testing"
	"time"
)

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Offset != 15 || g.Unit != UnitMinute || g.Name != "15m" {
		t.Fatalf("unexpected granularity: %+v", g)
	}

	g, err = ParseGranularity("1mo")
	if err != nil || g.Unit != UnitMonth {
		t.Fatalf("expected month granularity, got %+v (%v)", g, err)
	}

	for _, bad := range []string{"", "invalid", "m", "15", "0h", "3x"} {
		if _, err := ParseGranularity(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestNocturnalFloorAddTimeline(t *testing.T) {
	loc := time.UTC
	cfg := DefaultStatsConfig()
	cfg.TimeZone = "UTC"
	n := NewNocturnal(cfg)
	quarterHour, _ := ParseGranularity("15m")
	hour, _ := ParseGranularity("1h")

	at := time.Date(2025, 1, 15, 10, 37, 45, 0, loc)
	floored := n.Floor(at, quarterHour)
	expected := time.Date(2025, 1, 15, 10, 30, 0, 0, loc)
	if !floored.Equal(expected) {
		t.Fatalf("expected %v, got %v", expected, floored)
	}

	if added := n.Add(at, hour); added.Hour() != 11 {
		t.Fatalf("expected hour 11, got %d", added.Hour())
	}

	timeline := n.Timeline(
		time.Date(2025, 1, 15, 10, 37, 0, 0, loc),
		time.Date(2025, 1, 15, 11, 5, 0, 0, loc),
		quarterHour,
	)
	expectedTimeline := []time.Time{
		time.Date(2025, 1, 15, 10, 30, 0, 0, loc),
		time.Date(2025, 1, 15, 10, 45, 0, 0, loc),
		time.Date(2025, 1, 15, 11, 0, 0, 0, loc),
	}
	if len(timeline) != len(expectedTimeline) {
		t.Fatalf("unexpected timeline: %+v", timeline)
	}
	for i := range timeline {
		if !timeline[i].Equal(expectedTimeline[i]) {
			t.Fatalf("timeline[%d] = %v, want %v", i, timeline[i], expectedTimeline[i])
		}
	}
}

func TestNocturnalWeekFloor(t *testing.T) {
	loc := time.UTC
	n := Nocturnal{Location: loc, WeekStart: time.Monday}
	week, _ := ParseGranularity("1w")

	// 2025-01-02 is a Thursday, before the first Monday of the year.
	floored := n.Floor(time.Date(2025, 1, 2, 12, 0, 0, 0, loc), week)
	if expected := time.Date(2025, 1, 1, 0, 0, 0, 0, loc); !floored.Equal(expected) {
		t.Fatalf("expected %v, got %v", expected, floored)
	}

	floored = n.Floor(time.Date(2025, 1, 15, 12, 0, 0, 0, loc), week)
	if expected := time.Date(2025, 1, 13, 0, 0, 0, 0, loc); !floored.Equal(expected) {
		t.Fatalf("expected %v, got %v", expected, floored)
	}
}

func TestNocturnalCalendarUnits(t *testing.T) {
	loc := time.UTC
	n := Nocturnal{Location: loc, WeekStart: time.Monday}
	at := time.Date(2025, 8, 17, 10, 0, 0, 0, loc)

	cases := []struct {
		granularity string
		want        time.Time
	}{
		{"1d", time.Date(2025, 8, 17, 0, 0, 0, 0, loc)},
		{"1mo", time.Date(2025, 8, 1, 0, 0, 0, 0, loc)},
		{"1q", time.Date(2025, 7, 1, 0, 0, 0, 0, loc)},
		{"1y", time.Date(2025, 1, 1, 0, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		g, err := ParseGranularity(tc.granularity)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.granularity, err)
		}
		if got := n.Floor(at, g); !got.Equal(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.granularity, tc.want, got)
		}
	}
}

func TestNocturnalAddMonthsClampsDay(t *testing.T) {
	loc := time.UTC
	n := Nocturnal{Location: loc}
	month, _ := ParseGranularity("1mo")
	year, _ := ParseGranularity("1y")

	added := n.Add(time.Date(2025, 1, 31, 10, 0, 0, 0, loc), month)
	if expected := time.Date(2025, 2, 28, 10, 0, 0, 0, loc); !added.Equal(expected) {
		t.Fatalf("expected %v, got %v", expected, added)
	}

	added = n.Add(time.Date(2024, 2, 29, 0, 0, 0, 0, loc), year)
	if expected := time.Date(2025, 2, 28, 0, 0, 0, 0, loc); !added.Equal(expected) {
		t.Fatalf("expected %v, got %v", expected, added)
	}
}

func TestNocturnalUsesConfiguredZone(t *testing.T) {
	cfg := DefaultStatsConfig()
	cfg.TimeZone = "America/New_York"
	n := NewNocturnal(cfg)
	day, _ := ParseGranularity("1d")

	// 03:00 UTC is still the previous day in New York.
	floored := n.Floor(time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC), day)
	if floored.Day() != 9 || floored.Hour() != 0 {
		t.Fatalf("expected midnight of the 9th local time, got %v", floored)
	}
}
