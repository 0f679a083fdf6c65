package catalog

import (
	"github.com/dropship/backend/internal/domain/shared"
)

const (
	EventTypeProductCreated = "ProductCreated"

	// AggregateTypeProduct is the aggregate type for products
	AggregateTypeProduct = "Product"
)

// ProductCreatedEvent is raised when a catalog product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	Name           string `json:"name"`
	SourcePlatform string `json:"source_platform,omitempty"`
	SourceURL      string `json:"source_url,omitempty"`
}

// NewProductCreatedEvent creates a ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID, p.TenantID),
		Name:            p.Name,
		SourcePlatform:  p.Source.Platform,
		SourceURL:       p.Source.URL,
	}
}
