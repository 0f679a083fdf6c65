package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for customer order persistence
type Repository interface {
	// Create inserts a new order with its lines
	Create(ctx context.Context, order *CustomerOrder) error

	// FindByID finds an order by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CustomerOrder, error)

	// Save persists status changes of an order
	Save(ctx context.Context, order *CustomerOrder) error

	// RecordFulfillment writes tracking data onto an order
	RecordFulfillment(ctx context.Context, tenantID, id uuid.UUID, f Fulfillment) error
}
