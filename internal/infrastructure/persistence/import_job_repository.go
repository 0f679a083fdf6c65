package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormImportJobRepository implements sourcing.ImportJobRepository using GORM
type GormImportJobRepository struct {
	db *gorm.DB
}

// NewGormImportJobRepository creates a new GormImportJobRepository
func NewGormImportJobRepository(db *gorm.DB) *GormImportJobRepository {
	return &GormImportJobRepository{db: db}
}

var _ sourcing.ImportJobRepository = (*GormImportJobRepository)(nil)

// outcomeColumns maps an item outcome to the counter it bumps
var outcomeColumns = map[sourcing.ItemOutcome]string{
	sourcing.ItemSucceeded: "successful",
	sourcing.ItemFailed:    "failed",
	sourcing.ItemSkipped:   "skipped",
}

// Create inserts a new job
func (r *GormImportJobRepository) Create(ctx context.Context, job *sourcing.ImportJob) error {
	return r.db.WithContext(ctx).Create(models.ImportJobModelFromDomain(job)).Error
}

// IncrementProgress atomically bumps processed and the counter for outcome.
// Concurrent batches on the same job never lose an update because the
// increment happens in SQL.
func (r *GormImportJobRepository) IncrementProgress(ctx context.Context, tenantID, jobID uuid.UUID, outcome sourcing.ItemOutcome) error {
	column, ok := outcomeColumns[outcome]
	if !ok {
		return fmt.Errorf("unknown import outcome %q", outcome)
	}

	result := r.db.WithContext(ctx).
		Model(&models.ImportJobModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, jobID).
		Updates(map[string]any{
			"processed":  gorm.Expr("processed + 1"),
			column:       gorm.Expr(column + " + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Finalize persists the terminal status, counters and error list of a job
func (r *GormImportJobRepository) Finalize(ctx context.Context, job *sourcing.ImportJob) error {
	m := models.ImportJobModelFromDomain(job)
	result := r.db.WithContext(ctx).
		Model(&models.ImportJobModel{}).
		Where("tenant_id = ? AND id = ?", job.TenantID, job.ID).
		Updates(map[string]any{
			"status":       m.Status,
			"processed":    m.Processed,
			"successful":   m.Successful,
			"failed":       m.Failed,
			"skipped":      m.Skipped,
			"errors":       m.Errors,
			"completed_at": m.CompletedAt,
			"updated_at":   m.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a job by ID within a tenant
func (r *GormImportJobRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sourcing.ImportJob, error) {
	var model models.ImportJobModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists jobs for a tenant, newest first
func (r *GormImportJobRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter sourcing.ImportJobFilter, page, pageSize int) (*shared.Paginated[sourcing.ImportJob], error) {
	query := r.db.WithContext(ctx).Model(&models.ImportJobModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.ImportJobModel
	if err := paginate(query.Order("created_at DESC"), page, pageSize).Find(&rows).Error; err != nil {
		return nil, err
	}

	jobs := make([]sourcing.ImportJob, len(rows))
	for i := range rows {
		jobs[i] = *rows[i].ToDomain()
	}
	page, pageSize = pageBounds(page, pageSize)
	result := shared.NewPaginated(jobs, total, page, pageSize)
	return &result, nil
}
