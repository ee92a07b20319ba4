package measurement

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisDriver stores hit counters as Redis hashes, one hash per bucket.
type RedisDriver struct {
	Client    redis.UniversalClient
	Prefix    string
	Separator string
}

// NewRedisDriver creates a Redis driver. Prefix replaces the bucket key prefix.
func NewRedisDriver(client redis.UniversalClient, prefix string) *RedisDriver {
	if prefix == "" {
		prefix = "msrmt"
	}
	return &RedisDriver{
		Client:    client,
		Prefix:    prefix,
		Separator: "::",
	}
}

func (d *RedisDriver) Description() string {
	return "RedisDriver"
}

// Inc increments hash fields with HINCRBYFLOAT, pipelined per call.
func (d *RedisDriver) Inc(keys []BucketKey, values map[string]any) error {
	if len(keys) == 0 {
		return nil
	}
	if d.Client == nil {
		return fmt.Errorf("redis driver requires Client")
	}
	packed := Pack(values)
	if len(packed) == 0 {
		return nil
	}

	ctx := context.Background()
	fields := sortedKeys(packed)
	_, err := d.Client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			hash := d.joinedKey(key)
			for _, field := range fields {
				delta, ok := toFloat(packed[field])
				if !ok {
					return fmt.Errorf("increment requires numeric value for key %q", field)
				}
				pipe.HIncrByFloat(ctx, hash, field, delta)
			}
		}
		return nil
	})
	return err
}

// Get fetches counters for keys in order.
func (d *RedisDriver) Get(keys []BucketKey) ([]map[string]any, error) {
	if len(keys) == 0 {
		return []map[string]any{}, nil
	}
	if d.Client == nil {
		return nil, fmt.Errorf("redis driver requires Client")
	}

	ctx := context.Background()
	results := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		raw, err := d.Client.HGetAll(ctx, d.joinedKey(key)).Result()
		if err != nil {
			return nil, err
		}
		packed := make(map[string]any, len(raw))
		for field, value := range raw {
			if number, err := strconv.ParseFloat(value, 64); err == nil {
				packed[field] = number
				continue
			}
			packed[field] = value
		}
		results = append(results, Unpack(packed))
	}
	return results, nil
}

func (d *RedisDriver) joinedKey(key BucketKey) string {
	key.Prefix = d.Prefix
	return key.Join(d.Separator)
}
