package sourcing

import (
	"context"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ImportJobFilter defines the filters for querying import jobs
type ImportJobFilter struct {
	Status    *ImportStatus
	CreatedBy *uuid.UUID
}

// ImportJobRepository defines the interface for import job persistence
type ImportJobRepository interface {
	// Create inserts a new job
	Create(ctx context.Context, job *ImportJob) error

	// IncrementProgress atomically bumps processed and the counter for outcome
	IncrementProgress(ctx context.Context, tenantID, jobID uuid.UUID, outcome ItemOutcome) error

	// Finalize persists the terminal status, counters and error list of a job
	Finalize(ctx context.Context, job *ImportJob) error

	// FindByID finds a job by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ImportJob, error)

	// FindAll lists jobs for a tenant, newest first
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ImportJobFilter, page, pageSize int) (*shared.Paginated[ImportJob], error)
}

// ImportedProductFilter defines the filters for querying imported products
type ImportedProductFilter struct {
	ApprovalStatus *ApprovalStatus
	JobID          *uuid.UUID
}

// ImportedProductRepository defines the interface for imported product persistence
type ImportedProductRepository interface {
	// ExistsBySourceURL reports whether the tenant already imported sourceURL
	ExistsBySourceURL(ctx context.Context, tenantID uuid.UUID, sourceURL string) (bool, error)

	// FindByID finds an imported product by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ImportedProduct, error)

	// FindAll lists imported products for a tenant
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ImportedProductFilter, page, pageSize int) (*shared.Paginated[ImportedProduct], error)

	// Create inserts a new imported product and, when published is non-nil,
	// its catalog product in the same transaction. Returns ErrDuplicateSource
	// when the tenant already has a row for the source URL.
	Create(ctx context.Context, product *ImportedProduct, published *catalog.Product) error

	// Update persists a review decision and, when published is non-nil,
	// inserts the catalog product in the same transaction. The update only
	// applies while the stored row is still pending.
	Update(ctx context.Context, product *ImportedProduct, published *catalog.Product) error
}
