package fulfillment

import (
	"time"

	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/google/uuid"
)

// QueueItemResponse is the operator view of a queue item
type QueueItemResponse struct {
	ID                uuid.UUID              `json:"id"`
	OrderID           uuid.UUID              `json:"order_id"`
	Status            string                 `json:"status"`
	RetryCount        int                    `json:"retry_count"`
	MaxRetries        int                    `json:"max_retries"`
	ErrorMessage      string                 `json:"error_message,omitempty"`
	NextAttemptAt     *time.Time             `json:"next_attempt_at,omitempty"`
	LeaseOwner        string                 `json:"lease_owner,omitempty"`
	LeaseExpiresAt    *time.Time             `json:"lease_expires_at,omitempty"`
	SourceOrderNumber string                 `json:"source_order_number,omitempty"`
	TrackingNumber    string                 `json:"tracking_number,omitempty"`
	TrackingURL       string                 `json:"tracking_url,omitempty"`
	ScreenshotKey     string                 `json:"screenshot_key,omitempty"`
	Items             []fulfillment.LineItem `json:"items"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	ProcessedAt       *time.Time             `json:"processed_at,omitempty"`
}

// ToQueueItemResponse converts a queue item to its response
func ToQueueItemResponse(q *fulfillment.QueueItem) QueueItemResponse {
	return QueueItemResponse{
		ID:                q.ID,
		OrderID:           q.OrderID,
		Status:            string(q.Status),
		RetryCount:        q.RetryCount,
		MaxRetries:        q.MaxRetries,
		ErrorMessage:      q.ErrorMessage,
		NextAttemptAt:     q.NextAttemptAt,
		LeaseOwner:        q.LeaseOwner,
		LeaseExpiresAt:    q.LeaseExpiresAt,
		SourceOrderNumber: q.SourceOrderNumber,
		TrackingNumber:    q.TrackingNumber,
		TrackingURL:       q.TrackingURL,
		ScreenshotKey:     q.ScreenshotKey,
		Items:             q.Payload.Items,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
		ProcessedAt:       q.ProcessedAt,
	}
}

// ListQueueInput filters a queue listing
type ListQueueInput struct {
	Status   string
	OrderID  *uuid.UUID
	Page     int
	PageSize int
}
