package measurement

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

func toFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Counter reads a numeric counter from a values map returned by HitStats,
// following dot-separated paths such as "types.event". Missing or
// non-numeric values read as zero.
func Counter(values map[string]any, path string) float64 {
	var node any = values
	for _, part := range strings.Split(path, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return 0
		}
		node = m[part]
	}
	f, _ := toFloat(node)
	return f
}
