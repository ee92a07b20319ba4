package measurement

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// StatsDriver stores hit counters per bucket.
type StatsDriver interface {
	Inc(keys []BucketKey, values map[string]any) error
	Get(keys []BucketKey) ([]map[string]any, error)
	Description() string
}

// StatsWriter is the write side used by StatsRecorder; both drivers and
// Buffer satisfy it.
type StatsWriter interface {
	Inc(keys []BucketKey, values map[string]any) error
}

// incrementCounters adds numeric incoming counters onto existing, both
// already packed into dot keys.
func incrementCounters(existing, incoming map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(existing)+len(incoming))
	for key, value := range existing {
		out[key] = value
	}
	for key, value := range incoming {
		delta, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("increment requires numeric value for key %q", key)
		}
		base, _ := toFloat(out[key])
		out[key] = base + delta
	}
	return out, nil
}

func decodePacked(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var packed map[string]any
	if err := json.Unmarshal(raw, &packed); err != nil {
		return map[string]any{}
	}
	return packed
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func joinedKeys(keys []BucketKey, separator string) []any {
	out := make([]any, 0, len(keys))
	for _, key := range keys {
		out = append(out, key.Join(separator))
	}
	return out
}

func placeholders(n int, format func(i int) string) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, format(i))
	}
	return strings.Join(parts, ", ")
}
