package persistence

import (
	"context"
	"strings"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCatalogProductRepository implements catalog.ProductRepository using GORM
type GormCatalogProductRepository struct {
	db *gorm.DB
}

// NewGormCatalogProductRepository creates a new GormCatalogProductRepository
func NewGormCatalogProductRepository(db *gorm.DB) *GormCatalogProductRepository {
	return &GormCatalogProductRepository{db: db}
}

var _ catalog.ProductRepository = (*GormCatalogProductRepository)(nil)

// FindByID finds a product by ID within a tenant
func (r *GormCatalogProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var model models.CatalogProductModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds all products with the given IDs within a tenant
func (r *GormCatalogProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}

	var rows []models.CatalogProductModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// FindAll lists products for a tenant
func (r *GormCatalogProductRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[catalog.Product], error) {
	filter = filter.Normalize()
	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.CatalogProductModel{}).Where("tenant_id = ?", tenantID), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, CatalogProductSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var rows []models.CatalogProductModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	result := shared.NewPaginated(products, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Create inserts a new product. A second product with the same source URL
// in a tenant returns shared.ErrAlreadyExists.
func (r *GormCatalogProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	err := r.db.WithContext(ctx).Create(models.CatalogProductModelFromDomain(product)).Error
	if isUniqueViolation(err) {
		return shared.ErrAlreadyExists
	}
	return err
}

func (r *GormCatalogProductRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "source_platform":
			if s, ok := value.(string); ok {
				query = query.Where("LOWER(source_platform) = ?", strings.ToLower(s))
			}
		case "search":
			if s, ok := value.(string); ok && s != "" {
				query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
			}
		}
	}
	return query
}
