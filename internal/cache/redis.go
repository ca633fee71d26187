// Package cache holds the Redis-backed calendar cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pkordes/tour-booking/internal/domain"
)

const keyPrefix = "calendar:"

// RedisCalendarCache stores computed calendar months as JSON strings with
// a TTL. It satisfies service.CalendarCache.
type RedisCalendarCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCalendarCache constructs a RedisCalendarCache.
func NewRedisCalendarCache(client redis.Cmdable, ttl time.Duration) *RedisCalendarCache {
	return &RedisCalendarCache{client: client, ttl: ttl}
}

// Get returns the cached month for key. A missing key is a miss, not an error.
func (c *RedisCalendarCache) Get(ctx context.Context, key string) (map[string]domain.DayAvailability, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache.RedisCalendarCache.Get: %w", err)
	}

	var month map[string]domain.DayAvailability
	if err := json.Unmarshal(raw, &month); err != nil {
		return nil, false, fmt.Errorf("cache.RedisCalendarCache.Get: decode: %w", err)
	}
	return month, true, nil
}

// Set stores month under key for the configured TTL.
func (c *RedisCalendarCache) Set(ctx context.Context, key string, month map[string]domain.DayAvailability) error {
	raw, err := json.Marshal(month)
	if err != nil {
		return fmt.Errorf("cache.RedisCalendarCache.Set: encode: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache.RedisCalendarCache.Set: %w", err)
	}
	return nil
}

// NewClient opens a Redis client for addr and checks it with a short ping.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache.NewClient: ping %s: %w", addr, err)
	}
	return client, nil
}
