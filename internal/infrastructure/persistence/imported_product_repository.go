package persistence

import (
	"context"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormImportedProductRepository implements sourcing.ImportedProductRepository using GORM
type GormImportedProductRepository struct {
	db *gorm.DB
}

// NewGormImportedProductRepository creates a new GormImportedProductRepository
func NewGormImportedProductRepository(db *gorm.DB) *GormImportedProductRepository {
	return &GormImportedProductRepository{db: db}
}

var _ sourcing.ImportedProductRepository = (*GormImportedProductRepository)(nil)

// ExistsBySourceURL reports whether the tenant already imported sourceURL
func (r *GormImportedProductRepository) ExistsBySourceURL(ctx context.Context, tenantID uuid.UUID, sourceURL string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ImportedProductModel{}).
		Where("tenant_id = ? AND source_url = ?", tenantID, sourceURL).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByID finds an imported product by ID within a tenant
func (r *GormImportedProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sourcing.ImportedProduct, error) {
	var model models.ImportedProductModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists imported products for a tenant, newest first
func (r *GormImportedProductRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter sourcing.ImportedProductFilter, page, pageSize int) (*shared.Paginated[sourcing.ImportedProduct], error) {
	query := r.db.WithContext(ctx).Model(&models.ImportedProductModel{}).Where("tenant_id = ?", tenantID)
	if filter.ApprovalStatus != nil {
		query = query.Where("approval_status = ?", *filter.ApprovalStatus)
	}
	if filter.JobID != nil {
		query = query.Where("job_id = ?", *filter.JobID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.ImportedProductModel
	if err := paginate(query.Order("created_at DESC"), page, pageSize).Find(&rows).Error; err != nil {
		return nil, err
	}

	products := make([]sourcing.ImportedProduct, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	page, pageSize = pageBounds(page, pageSize)
	result := shared.NewPaginated(products, total, page, pageSize)
	return &result, nil
}

// Create inserts a new imported product and, when published is non-nil,
// its catalog product in the same transaction
func (r *GormImportedProductRepository) Create(ctx context.Context, product *sourcing.ImportedProduct, published *catalog.Product) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if published != nil {
			if err := tx.Create(models.CatalogProductModelFromDomain(published)).Error; err != nil {
				return err
			}
		}
		return tx.Create(models.ImportedProductModelFromDomain(product)).Error
	})
	if isUniqueViolation(err) {
		return sourcing.ErrDuplicateSource
	}
	return err
}

// Update persists a review decision. The row is only changed while it is
// still pending, so two reviewers racing on the same product cannot both
// succeed and the loser's catalog product is rolled back.
func (r *GormImportedProductRepository) Update(ctx context.Context, product *sourcing.ImportedProduct, published *catalog.Product) error {
	m := models.ImportedProductModelFromDomain(product)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if published != nil {
			if err := tx.Create(models.CatalogProductModelFromDomain(published)).Error; err != nil {
				return err
			}
		}

		result := tx.Model(&models.ImportedProductModel{}).
			Where("tenant_id = ? AND id = ? AND approval_status = ?", product.TenantID, product.ID, sourcing.ApprovalPending).
			Updates(map[string]any{
				"approval_status":    m.ApprovalStatus,
				"catalog_product_id": m.CatalogProductID,
				"approved_at":        m.ApprovedAt,
				"approved_by":        m.ApprovedBy,
				"rejected_at":        m.RejectedAt,
				"rejected_by":        m.RejectedBy,
				"reject_reason":      m.RejectReason,
				"updated_at":         m.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return sourcing.ErrInvalidApprovalTransition
		}
		return nil
	})
	if isUniqueViolation(err) {
		return sourcing.ErrDuplicateSource
	}
	return err
}
