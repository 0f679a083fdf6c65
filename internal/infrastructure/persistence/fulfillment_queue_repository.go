package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFulfillmentQueueRepository implements fulfillment.QueueRepository using GORM.
//
// Claims on PostgreSQL take the candidate row with FOR UPDATE SKIP LOCKED, so
// concurrent workers never block on each other and never see the same row.
// On other dialects the claim falls back to a version check on the update.
type GormFulfillmentQueueRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormFulfillmentQueueRepository creates a new GormFulfillmentQueueRepository
func NewGormFulfillmentQueueRepository(db *gorm.DB) *GormFulfillmentQueueRepository {
	return &GormFulfillmentQueueRepository{db: db, now: time.Now}
}

var _ fulfillment.QueueRepository = (*GormFulfillmentQueueRepository)(nil)

// Create inserts a new item
func (r *GormFulfillmentQueueRepository) Create(ctx context.Context, item *fulfillment.QueueItem) error {
	err := r.db.WithContext(ctx).Create(models.FulfillmentQueueModelFromDomain(item)).Error
	if isUniqueViolation(err) {
		return fulfillment.ErrAlreadyEnqueued
	}
	return err
}

// ClaimNext atomically leases the oldest eligible item to owner
func (r *GormFulfillmentQueueRepository) ClaimNext(ctx context.Context, owner string, leaseTTL time.Duration) (*fulfillment.QueueItem, error) {
	now := r.now()
	var (
		claimed  *fulfillment.QueueItem
		claimErr error
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.
			Where("(status = ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)) OR (status = ? AND lease_expires_at < ?)",
				fulfillment.StatusPending, now, fulfillment.StatusProcessing, now).
			Order("created_at ASC")
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var model models.FulfillmentQueueModel
		if err := query.Take(&model).Error; err != nil {
			return err
		}

		item := model.ToDomain()
		claimErr = item.Claim(owner, leaseTTL, now)
		if claimErr != nil && !errors.Is(claimErr, fulfillment.ErrAttemptsExhausted) {
			return claimErr
		}

		result := tx.Model(&models.FulfillmentQueueModel{}).
			Where("id = ? AND version = ?", model.ID, model.Version).
			Updates(map[string]any{
				"status":           item.Status,
				"retry_count":      item.RetryCount,
				"error_message":    item.ErrorMessage,
				"next_attempt_at":  item.NextAttemptAt,
				"processed_at":     item.ProcessedAt,
				"lease_owner":      item.LeaseOwner,
				"lease_expires_at": item.LeaseExpiresAt,
				"updated_at":       now,
				"version":          gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Another worker claimed it between our read and write.
			return fulfillment.ErrNoWork
		}

		claimed = item
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fulfillment.ErrNoWork
	}
	if err != nil {
		return nil, err
	}
	return claimed, claimErr
}

// SaveOutcome persists a completed or failed attempt while owner holds the lease
func (r *GormFulfillmentQueueRepository) SaveOutcome(ctx context.Context, item *fulfillment.QueueItem, owner string) error {
	result := r.db.WithContext(ctx).
		Model(&models.FulfillmentQueueModel{}).
		Where("id = ? AND status = ? AND lease_owner = ?", item.ID, fulfillment.StatusProcessing, owner).
		Updates(map[string]any{
			"status":              item.Status,
			"retry_count":         item.RetryCount,
			"error_message":       item.ErrorMessage,
			"next_attempt_at":     item.NextAttemptAt,
			"lease_owner":         item.LeaseOwner,
			"lease_expires_at":    item.LeaseExpiresAt,
			"source_order_number": item.SourceOrderNumber,
			"tracking_number":     item.TrackingNumber,
			"tracking_url":        item.TrackingURL,
			"screenshot_key":      item.ScreenshotKey,
			"processed_at":        item.ProcessedAt,
			"updated_at":          item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fulfillment.ErrLeaseLost
	}
	return nil
}

// ExtendLease pushes out the lease expiry of an item owner holds
func (r *GormFulfillmentQueueRepository) ExtendLease(ctx context.Context, id uuid.UUID, owner string, leaseTTL time.Duration) error {
	now := r.now()
	result := r.db.WithContext(ctx).
		Model(&models.FulfillmentQueueModel{}).
		Where("id = ? AND status = ? AND lease_owner = ?", id, fulfillment.StatusProcessing, owner).
		Updates(map[string]any{
			"lease_expires_at": now.Add(leaseTTL),
			"updated_at":       now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fulfillment.ErrLeaseLost
	}
	return nil
}

// Save persists an operator change such as a requeue
func (r *GormFulfillmentQueueRepository) Save(ctx context.Context, item *fulfillment.QueueItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.FulfillmentQueueModel{}).
		Where("tenant_id = ? AND id = ?", item.TenantID, item.ID).
		Updates(map[string]any{
			"status":          item.Status,
			"retry_count":     item.RetryCount,
			"error_message":   item.ErrorMessage,
			"next_attempt_at": item.NextAttemptAt,
			"processed_at":    item.ProcessedAt,
			"updated_at":      item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds an item by ID within a tenant
func (r *GormFulfillmentQueueRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*fulfillment.QueueItem, error) {
	var model models.FulfillmentQueueModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists items for a tenant, oldest first
func (r *GormFulfillmentQueueRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter fulfillment.QueueFilter, page, pageSize int) (*shared.Paginated[fulfillment.QueueItem], error) {
	query := r.db.WithContext(ctx).Model(&models.FulfillmentQueueModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.FulfillmentQueueModel
	if err := paginate(query.Order("created_at ASC"), page, pageSize).Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]fulfillment.QueueItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	page, pageSize = pageBounds(page, pageSize)
	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// CountByStatus counts items across all tenants in the given status
func (r *GormFulfillmentQueueRepository) CountByStatus(ctx context.Context, status fulfillment.Status) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FulfillmentQueueModel{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
