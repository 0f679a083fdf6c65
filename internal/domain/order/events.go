package order

import (
	"github.com/dropship/backend/internal/domain/shared"
)

const (
	EventTypeCompleted = "CustomerOrderCompleted"
	AggregateType      = "CustomerOrder"
)

// CompletedEvent is raised when a customer order is completed. It carries
// the order so handlers do not need to reload it.
type CompletedEvent struct {
	shared.BaseDomainEvent
	Order *CustomerOrder `json:"-"`
}

// NewCompletedEvent creates a CompletedEvent
func NewCompletedEvent(o *CustomerOrder) *CompletedEvent {
	return &CompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompleted, AggregateType, o.ID, o.TenantID),
		Order:           o,
	}
}
