// Package notify contains Notifier implementations that need no external service.
package notify

import (
	"context"

	appfulfillment "github.com/dropship/backend/internal/application/fulfillment"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the application log
type LogNotifier struct {
	logger *zap.Logger
}

var _ appfulfillment.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

// Notify logs success notifications at info and failures at warn
func (n *LogNotifier) Notify(_ context.Context, notification appfulfillment.Notification) error {
	fields := []zap.Field{
		zap.String("tenant_id", notification.TenantID.String()),
		zap.String("queue_item_id", notification.QueueItemID.String()),
		zap.String("order_id", notification.OrderID.String()),
		zap.String("title", notification.Title),
	}
	if notification.Level == appfulfillment.NotificationError {
		n.logger.Warn(notification.Message, fields...)
		return nil
	}
	n.logger.Info(notification.Message, fields...)
	return nil
}
