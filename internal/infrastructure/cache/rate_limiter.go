package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRateLimitKeyPrefix namespaces rate limit counters
const DefaultRateLimitKeyPrefix = "ratelimit:"

// RedisRateLimiter is a fixed window counter shared by every API instance
type RedisRateLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	limit     int
	window    time.Duration
}

// NewRedisRateLimiter allows limit requests per key in each window
func NewRedisRateLimiter(client redis.Cmdable, keyPrefix string, limit int, window time.Duration) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = DefaultRateLimitKeyPrefix
	}
	return &RedisRateLimiter{client: client, keyPrefix: keyPrefix, limit: limit, window: window}
}

// Limit returns the number of requests allowed per window
func (l *RedisRateLimiter) Limit() int {
	return l.limit
}

// Allow counts one request under key and reports whether it fits the window
// along with the requests left in it
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	k := l.keyPrefix + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to count request: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to start rate limit window: %w", err)
		}
	}
	remaining := l.limit - int(n)
	if remaining < 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}
