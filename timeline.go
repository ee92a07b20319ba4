package measurement

import (
	"sort"
	"time"
)

// Timeline is a series of bucket starts and the counters stored for each.
type Timeline struct {
	At     []time.Time
	Values []map[string]any
}

// Paths returns the sorted numeric counter paths present in any bucket,
// e.g. "count", "outcome.2xx", "types.event".
func (t Timeline) Paths() []string {
	seen := map[string]struct{}{}
	for _, row := range t.Values {
		collectNumericPaths(row, "", seen)
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func collectNumericPaths(values map[string]any, prefix string, out map[string]struct{}) {
	for key, value := range values {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			collectNumericPaths(nested, path, out)
			continue
		}
		if _, ok := toFloat(value); ok {
			out[path] = struct{}{}
		}
	}
}

// Sum adds the counter at path across all buckets.
func (t Timeline) Sum(path string) float64 {
	sum := 0.0
	for _, row := range t.Values {
		sum += Counter(row, path)
	}
	return sum
}

// Max returns the largest per-bucket value at path, or 0 for an empty timeline.
func (t Timeline) Max(path string) float64 {
	max := 0.0
	for i, row := range t.Values {
		if v := Counter(row, path); i == 0 || v > max {
			max = v
		}
	}
	return max
}

// Ratio divides the totals of two paths, returning 0 when the denominator
// sums to zero. Ratio("duration", "count") is the mean send time in ms.
func (t Timeline) Ratio(numerator, denominator string) float64 {
	den := t.Sum(denominator)
	if den == 0 {
		return 0
	}
	return t.Sum(numerator) / den
}

// Divide returns a per-bucket series of numerator/denominator. Buckets with
// a zero denominator yield 0.
func (t Timeline) Divide(numerator, denominator string) []float64 {
	out := make([]float64, 0, len(t.Values))
	for _, row := range t.Values {
		den := Counter(row, denominator)
		if den == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, Counter(row, numerator)/den)
	}
	return out
}
