// Package cache provides the Redis backed cache used for dashboard statistics
// and for at-most-once markers of the reminder scanner.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/todoboard/backend/internal/services"
)

// RedisCache stores raw values in Redis
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a cache on top of client; every key is prefixed with prefix
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
	}
}

// Get returns the value stored under key or services.ErrCacheMiss
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, services.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from cache: %w", key, err)
	}
	return value, nil
}

// Set stores value under key for ttl
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s to cache: %w", key, err)
	}
	return nil
}

// MarkOnce sets key for ttl unless it already exists.
// It reports whether this call set the marker.
func (c *RedisCache) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set marker %s: %w", key, err)
	}
	return ok, nil
}

// Unmark removes a marker set by MarkOnce
func (c *RedisCache) Unmark(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to clear marker %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection to Redis
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
