package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a per-tenant fixed-window counter in Redis, shared across
// gateway instances. The counter key expires with the window so stale tenants
// cost nothing.
type RedisLimiter struct {
	client redis.UniversalClient
	limit  int
}

// NewRedisLimiter creates a limiter backed by the given Redis client.
func NewRedisLimiter(client redis.UniversalClient, limit int) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit}
}

// NewRedisClient dials Redis from a URL.
func NewRedisClient(url string) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func windowKey(tenantID string) string {
	return "ratelimit:ingest:" + tenantID
}

// Allow counts one request against the tenant's current window.
func (l *RedisLimiter) Allow(ctx context.Context, tenantID string) (bool, error) {
	key := windowKey(tenantID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: incr %s: %w", key, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, Window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit: expire %s: %w", key, err)
		}
	}
	return count <= int64(l.limit), nil
}
