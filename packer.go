package measurement

import "strings"

// Pack flattens nested counter maps into dot-notated keys, so
// {"types": {"event": 1}} becomes {"types.event": 1}.
func Pack(input map[string]any) map[string]any {
	out := map[string]any{}
	packInto(out, input, "")
	return out
}

func packInto(out, input map[string]any, prefix string) {
	for k, v := range input {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			packInto(out, nested, key)
			continue
		}
		out[key] = v
	}
}

// Unpack expands dot-notated keys back into nested maps.
func Unpack(input map[string]any) map[string]any {
	out := map[string]any{}
	for key, v := range input {
		if key == "" {
			continue
		}
		parts := strings.Split(key, ".")
		node := out
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = v
	}
	return out
}

func cloneCounters(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		if nested, ok := value.(map[string]any); ok {
			out[key] = cloneCounters(nested)
			continue
		}
		out[key] = value
	}
	return out
}

// mergeIncrement adds incoming numeric counters onto current.
func mergeIncrement(current, incoming map[string]any) map[string]any {
	out := cloneCounters(current)
	for key, value := range incoming {
		if nested, ok := value.(map[string]any); ok {
			existing, _ := out[key].(map[string]any)
			out[key] = mergeIncrement(existing, nested)
			continue
		}
		delta, ok := toFloat(value)
		if !ok {
			out[key] = value
			continue
		}
		base, _ := toFloat(out[key])
		out[key] = base + delta
	}
	return out
}
