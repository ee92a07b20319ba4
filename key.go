package measurement

import (
	"strconv"
	"strings"
	"time"
)

// BucketKey identifies one counter bucket: a stats key at a granularity,
// floored to the start of its period.
type BucketKey struct {
	Prefix      string
	Key         string
	Granularity string
	At          *time.Time
}

// Join returns the storage identifier, e.g. "measurement::hits::UA-1-1::1h::1700000000".
func (k BucketKey) Join(separator string) string {
	parts := make([]string, 0, 4)
	if k.Prefix != "" {
		parts = append(parts, k.Prefix)
	}
	if k.Key != "" {
		parts = append(parts, k.Key)
	}
	if k.Granularity != "" {
		parts = append(parts, k.Granularity)
	}
	if k.At != nil {
		parts = append(parts, strconv.FormatInt(k.At.Unix(), 10))
	}
	return strings.Join(parts, separator)
}

// HitsKey returns the stats key under which hits for a tracking id are counted.
func HitsKey(trackingID string) string {
	if trackingID == "" {
		trackingID = "unknown"
	}
	return "hits::" + trackingID
}

func cloneBucketKeys(keys []BucketKey) []BucketKey {
	out := make([]BucketKey, 0, len(keys))
	for _, key := range keys {
		clone := key
		if key.At != nil {
			atCopy := *key.At
			clone.At = &atCopy
		}
		out = append(out, clone)
	}
	return out
}
