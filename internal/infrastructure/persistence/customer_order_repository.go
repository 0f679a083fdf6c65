package persistence

import (
	"context"
	"time"

	"github.com/dropship/backend/internal/domain/order"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerOrderRepository implements order.Repository using GORM
type GormCustomerOrderRepository struct {
	db *gorm.DB
}

// NewGormCustomerOrderRepository creates a new GormCustomerOrderRepository
func NewGormCustomerOrderRepository(db *gorm.DB) *GormCustomerOrderRepository {
	return &GormCustomerOrderRepository{db: db}
}

var _ order.Repository = (*GormCustomerOrderRepository)(nil)

// Create inserts a new order with its lines
func (r *GormCustomerOrderRepository) Create(ctx context.Context, o *order.CustomerOrder) error {
	return r.db.WithContext(ctx).Create(models.CustomerOrderModelFromDomain(o)).Error
}

// FindByID finds an order by ID within a tenant
func (r *GormCustomerOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*order.CustomerOrder, error) {
	var model models.CustomerOrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Save persists status changes of an order
func (r *GormCustomerOrderRepository) Save(ctx context.Context, o *order.CustomerOrder) error {
	result := r.db.WithContext(ctx).
		Model(&models.CustomerOrderModel{}).
		Where("tenant_id = ? AND id = ?", o.TenantID, o.ID).
		Updates(map[string]any{
			"status":       o.Status,
			"completed_at": o.CompletedAt,
			"updated_at":   o.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RecordFulfillment writes tracking data onto an order
func (r *GormCustomerOrderRepository) RecordFulfillment(ctx context.Context, tenantID, id uuid.UUID, f order.Fulfillment) error {
	fulfilledAt := f.FulfilledAt
	if fulfilledAt == nil {
		now := time.Now()
		fulfilledAt = &now
	}
	result := r.db.WithContext(ctx).
		Model(&models.CustomerOrderModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]any{
			"source_order_number": f.SourceOrderNumber,
			"tracking_number":     f.TrackingNumber,
			"tracking_url":        f.TrackingURL,
			"fulfilled_at":        fulfilledAt,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
