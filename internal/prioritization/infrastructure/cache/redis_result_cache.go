// Package cache holds priority results for the status lookup path.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a cached result lives when no TTL is configured.
const DefaultTTL = time.Hour

const keyPrefix = "pr:"

// RedisResultCache implements domain.ResultCache on Redis. Keys are pr:{request_id}.
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisResultCache creates a cache backed by client.
func NewRedisResultCache(client *redis.Client, ttl time.Duration) *RedisResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisResultCache{client: client, ttl: ttl}
}

// Key returns the Redis key holding the result for requestID.
func Key(requestID string) string {
	return keyPrefix + requestID
}

// Get returns the cached result, or nil when there is none.
func (c *RedisResultCache) Get(ctx context.Context, requestID string) (*domain.PriorityResult, error) {
	val, err := c.client.Get(ctx, Key(requestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached result: %w", err)
	}

	var result domain.PriorityResult
	if err := json.Unmarshal(val, &result); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.client.Del(ctx, Key(requestID)).Err()
		return nil, nil
	}
	return &result, nil
}

// Set stores result under its request ID.
func (c *RedisResultCache) Set(ctx context.Context, result domain.PriorityResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return c.client.Set(ctx, Key(result.RequestID), payload, c.ttl).Err()
}

// Delete evicts the cached result for requestID.
func (c *RedisResultCache) Delete(ctx context.Context, requestID string) error {
	return c.client.Del(ctx, Key(requestID)).Err()
}
