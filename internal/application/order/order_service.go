package order

import (
	"context"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/order"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService records customer orders and completes them. Completing an
// order publishes the event that queues it for fulfillment.
type OrderService struct {
	orderRepo   order.Repository
	productRepo catalog.ProductRepository
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.Repository,
	productRepo catalog.ProductRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// Create records a pending customer order priced from the catalog
func (s *OrderService) Create(ctx context.Context, tenantID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	ids := make([]uuid.UUID, 0, len(req.Lines))
	for _, l := range req.Lines {
		ids = append(ids, l.CatalogProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]order.Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		p, ok := byID[l.CatalogProductID]
		if !ok {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Catalog product not found: "+l.CatalogProductID.String())
		}
		if !p.IsActive() {
			return nil, shared.NewDomainError("PRODUCT_INACTIVE", "Catalog product is not on sale: "+p.Name)
		}
		lines = append(lines, order.Line{
			CatalogProductID: p.ID,
			Quantity:         l.Quantity,
			UnitPrice:        p.Price,
		})
	}

	o, err := order.NewCustomerOrder(tenantID, req.OrderNumber, req.ShippingAddress, lines)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.Create(ctx, o); err != nil {
		return nil, err
	}

	resp := ToOrderResponse(o)
	return &resp, nil
}

// Complete marks a pending order completed and publishes the completion
func (s *OrderService) Complete(ctx context.Context, tenantID, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := o.Complete(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		events := o.GetDomainEvents()
		if len(events) > 0 {
			if err := s.eventBus.Publish(ctx, events...); err != nil {
				// The order stays completed. Republish redelivers the event.
				s.logger.Error("Failed to publish order events",
					zap.String("order_id", o.ID.String()),
					zap.Error(err),
				)
			}
		}
		o.ClearDomainEvents()
	}

	s.logger.Info("Customer order completed",
		zap.String("order_id", o.ID.String()),
		zap.String("tenant_id", tenantID.String()),
	)
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Republish redelivers the completion event of a completed order, for
// when the first delivery was lost. Handlers ignore orders they already saw.
func (s *OrderService) Republish(ctx context.Context, tenantID, id uuid.UUID) error {
	o, err := s.orderRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if o.Status != order.StatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed orders can be republished")
	}
	if s.eventBus == nil {
		return nil
	}
	return s.eventBus.Publish(ctx, order.NewCompletedEvent(o))
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}
