package cache

import (
	"context"
	"encoding/json"
	"fmt"

	appfulfillment "github.com/dropship/backend/internal/application/fulfillment"
	"github.com/redis/go-redis/v9"
)

// DefaultNotificationChannelPrefix is followed by the tenant id
const DefaultNotificationChannelPrefix = "dropship:notifications:"

// RedisNotifier publishes notifications as JSON on a per-tenant channel.
// Subscribers that are not listening miss the message.
type RedisNotifier struct {
	client        redis.Cmdable
	channelPrefix string
}

var _ appfulfillment.Notifier = (*RedisNotifier)(nil)

// NewRedisNotifier creates a notifier publishing on client
func NewRedisNotifier(client redis.Cmdable, channelPrefix string) *RedisNotifier {
	if channelPrefix == "" {
		channelPrefix = DefaultNotificationChannelPrefix
	}
	return &RedisNotifier{client: client, channelPrefix: channelPrefix}
}

// Channel returns the channel notifications for a tenant are published on
func (n *RedisNotifier) Channel(tenantID string) string {
	return n.channelPrefix + tenantID
}

// Notify publishes the notification
func (n *RedisNotifier) Notify(ctx context.Context, notification appfulfillment.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := n.client.Publish(ctx, n.Channel(notification.TenantID.String()), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}
