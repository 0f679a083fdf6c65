package catalog

import (
	"context"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines the interface for catalog product persistence
type ProductRepository interface {
	// FindByID finds a product by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)

	// FindByIDs finds all products with the given IDs within a tenant.
	// Missing IDs are ignored.
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error)

	// FindAll lists products for a tenant
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[Product], error)

	// Create inserts a new product
	Create(ctx context.Context, product *Product) error
}
