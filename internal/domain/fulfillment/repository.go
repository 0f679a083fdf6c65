package fulfillment

import (
	"context"
	"time"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// QueueFilter defines the filters for listing queue items
type QueueFilter struct {
	Status  *Status
	OrderID *uuid.UUID
}

// QueueRepository defines the interface for fulfillment queue persistence
type QueueRepository interface {
	// Create inserts a new item. Returns ErrAlreadyEnqueued when the order
	// already has a queue item.
	Create(ctx context.Context, item *QueueItem) error

	// ClaimNext atomically leases the oldest eligible item to owner for
	// leaseTTL. Eligible items are pending ones whose backoff has elapsed and
	// processing ones whose lease expired. Returns ErrNoWork when none.
	// When an expired lease was the item's last attempt, the item is stored
	// failed and returned together with ErrAttemptsExhausted.
	ClaimNext(ctx context.Context, owner string, leaseTTL time.Duration) (*QueueItem, error)

	// SaveOutcome persists a completed or failed attempt. It only applies
	// while owner still holds the lease and returns ErrLeaseLost otherwise.
	SaveOutcome(ctx context.Context, item *QueueItem, owner string) error

	// ExtendLease pushes out the lease expiry of an item owner holds
	ExtendLease(ctx context.Context, id uuid.UUID, owner string, leaseTTL time.Duration) error

	// Save persists an operator change such as a requeue
	Save(ctx context.Context, item *QueueItem) error

	// FindByID finds an item by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*QueueItem, error)

	// FindAll lists items for a tenant, oldest first
	FindAll(ctx context.Context, tenantID uuid.UUID, filter QueueFilter, page, pageSize int) (*shared.Paginated[QueueItem], error)

	// CountByStatus counts items across all tenants in the given status
	CountByStatus(ctx context.Context, status Status) (int64, error)
}
