package models

import (
	"time"

	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/google/uuid"
)

// FulfillmentQueueModel is the persistence model for a fulfillment queue item.
// Each order has at most one queue row. Version is bumped on every claim so
// that two workers racing for the same row cannot both win on dialects
// without row locks.
type FulfillmentQueueModel struct {
	TenantModel
	OrderID           uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	Payload           fulfillment.Payload `gorm:"type:jsonb;not null"`
	Status            fulfillment.Status  `gorm:"type:varchar(20);not null;default:'pending';index:idx_fulfillment_queue_claim,priority:1"`
	RetryCount        int                 `gorm:"not null;default:0"`
	MaxRetries        int                 `gorm:"not null;default:3"`
	ErrorMessage      string              `gorm:"type:text"`
	NextAttemptAt     *time.Time          `gorm:"index:idx_fulfillment_queue_claim,priority:2"`
	LeaseOwner        string              `gorm:"type:varchar(200)"`
	LeaseExpiresAt    *time.Time
	SourceOrderNumber string `gorm:"type:varchar(100)"`
	TrackingNumber    string `gorm:"type:varchar(100)"`
	TrackingURL       string `gorm:"type:text"`
	ScreenshotKey     string `gorm:"type:varchar(500)"`
	ProcessedAt       *time.Time
	Version           int `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (FulfillmentQueueModel) TableName() string {
	return "fulfillment_queue"
}

// ToDomain converts the persistence model to a domain QueueItem.
func (m *FulfillmentQueueModel) ToDomain() *fulfillment.QueueItem {
	return &fulfillment.QueueItem{
		TenantEntity:      m.ToTenantEntity(),
		OrderID:           m.OrderID,
		Payload:           m.Payload,
		Status:            m.Status,
		RetryCount:        m.RetryCount,
		MaxRetries:        m.MaxRetries,
		ErrorMessage:      m.ErrorMessage,
		NextAttemptAt:     m.NextAttemptAt,
		LeaseOwner:        m.LeaseOwner,
		LeaseExpiresAt:    m.LeaseExpiresAt,
		SourceOrderNumber: m.SourceOrderNumber,
		TrackingNumber:    m.TrackingNumber,
		TrackingURL:       m.TrackingURL,
		ScreenshotKey:     m.ScreenshotKey,
		ProcessedAt:       m.ProcessedAt,
	}
}

// FromDomain populates the persistence model from a domain QueueItem.
// Version is left untouched; it is owned by the repository.
func (m *FulfillmentQueueModel) FromDomain(q *fulfillment.QueueItem) {
	m.FromDomainTenantEntity(q.TenantEntity)
	m.OrderID = q.OrderID
	m.Payload = q.Payload
	m.Status = q.Status
	m.RetryCount = q.RetryCount
	m.MaxRetries = q.MaxRetries
	m.ErrorMessage = q.ErrorMessage
	m.NextAttemptAt = q.NextAttemptAt
	m.LeaseOwner = q.LeaseOwner
	m.LeaseExpiresAt = q.LeaseExpiresAt
	m.SourceOrderNumber = q.SourceOrderNumber
	m.TrackingNumber = q.TrackingNumber
	m.TrackingURL = q.TrackingURL
	m.ScreenshotKey = q.ScreenshotKey
	m.ProcessedAt = q.ProcessedAt
}

// FulfillmentQueueModelFromDomain creates a new persistence model from a domain QueueItem.
func FulfillmentQueueModelFromDomain(q *fulfillment.QueueItem) *FulfillmentQueueModel {
	m := &FulfillmentQueueModel{Version: 1}
	m.FromDomain(q)
	return m
}
