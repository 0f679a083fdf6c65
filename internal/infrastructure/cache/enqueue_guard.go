package cache

import (
	"context"
	"fmt"
	"time"

	appfulfillment "github.com/dropship/backend/internal/application/fulfillment"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultEnqueueKeyPrefix namespaces enqueue guard keys
	DefaultEnqueueKeyPrefix = "fulfillment:enqueue:"

	// DefaultEnqueueGuardTTL bounds how long a trigger is remembered. The
	// database unique index on order_id is the durable guard; the key only
	// needs to outlive a burst of duplicate triggers.
	DefaultEnqueueGuardTTL = 24 * time.Hour
)

// RedisEnqueueGuard deduplicates fulfillment triggers with SET NX
type RedisEnqueueGuard struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

var _ appfulfillment.EnqueueGuard = (*RedisEnqueueGuard)(nil)

// NewRedisEnqueueGuard creates a guard on client. Zero values select the defaults.
func NewRedisEnqueueGuard(client redis.Cmdable, keyPrefix string, ttl time.Duration) *RedisEnqueueGuard {
	if keyPrefix == "" {
		keyPrefix = DefaultEnqueueKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultEnqueueGuardTTL
	}
	return &RedisEnqueueGuard{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// Acquire returns true for the first caller per order within the TTL
func (g *RedisEnqueueGuard) Acquire(ctx context.Context, orderID uuid.UUID) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(orderID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire enqueue guard: %w", err)
	}
	return ok, nil
}

// Release drops the guard so a later trigger for the order can try again
func (g *RedisEnqueueGuard) Release(ctx context.Context, orderID uuid.UUID) error {
	if err := g.client.Del(ctx, g.key(orderID)).Err(); err != nil {
		return fmt.Errorf("failed to release enqueue guard: %w", err)
	}
	return nil
}

func (g *RedisEnqueueGuard) key(orderID uuid.UUID) string {
	return g.keyPrefix + orderID.String()
}
