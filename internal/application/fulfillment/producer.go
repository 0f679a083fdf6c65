package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/order"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProducerConfig holds queue producer settings
type ProducerConfig struct {
	// Platform is the source platform whose products are fulfilled
	Platform string
	// MaxRetries is the attempt budget of new queue items
	MaxRetries int
}

// DefaultProducerConfig returns the default producer settings
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Platform:   "aliexpress",
		MaxRetries: fulfillment.DefaultMaxRetries,
	}
}

// QueueProducer turns completed customer orders into fulfillment queue
// items. Only lines whose catalog product came from the configured source
// platform are queued.
type QueueProducer struct {
	queue    fulfillment.QueueRepository
	products catalog.ProductRepository
	guard    EnqueueGuard
	config   ProducerConfig
	logger   *zap.Logger
}

// NewQueueProducer creates a new QueueProducer
func NewQueueProducer(
	queue fulfillment.QueueRepository,
	products catalog.ProductRepository,
	config ProducerConfig,
	logger *zap.Logger,
) *QueueProducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueProducer{
		queue:    queue,
		products: products,
		config:   config,
		logger:   logger,
	}
}

// WithGuard sets the fast-path duplicate guard
func (p *QueueProducer) WithGuard(g EnqueueGuard) *QueueProducer {
	p.guard = g
	return p
}

// EventTypes returns the event types this handler is interested in
func (p *QueueProducer) EventTypes() []string {
	return []string{order.EventTypeCompleted}
}

// Handle enqueues the order carried by a completed event. Duplicate
// triggers are ignored.
func (p *QueueProducer) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*order.CompletedEvent)
	if !ok || e.Order == nil {
		p.logger.Warn("Unexpected event for queue producer", zap.String("event_type", event.EventType()))
		return nil
	}

	_, err := p.Enqueue(ctx, e.Order)
	if errors.Is(err, fulfillment.ErrAlreadyEnqueued) {
		return nil
	}
	return err
}

// Enqueue creates the queue item for a completed order. It returns nil,
// nil when no line belongs to the source platform and ErrAlreadyEnqueued
// when the order was queued before.
func (p *QueueProducer) Enqueue(ctx context.Context, o *order.CustomerOrder) (*fulfillment.QueueItem, error) {
	if o.Status != order.StatusCompleted {
		return nil, ErrOrderNotCompleted
	}

	items, err := p.lineItems(ctx, o)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		p.logger.Debug("Order has no source platform products",
			zap.String("order_id", o.ID.String()),
			zap.String("platform", p.config.Platform),
		)
		return nil, nil
	}

	if p.guard != nil {
		acquired, err := p.guard.Acquire(ctx, o.ID)
		switch {
		case err != nil:
			// The unique order_id constraint still rejects duplicates.
			p.logger.Warn("Enqueue guard unavailable", zap.String("order_id", o.ID.String()), zap.Error(err))
		case !acquired:
			p.logger.Info("Order already queued for fulfillment", zap.String("order_id", o.ID.String()))
			return nil, fulfillment.ErrAlreadyEnqueued
		}
	}

	payload := fulfillment.Payload{Items: items, ShippingAddress: o.ShippingAddress}
	item, err := fulfillment.NewQueueItem(o.TenantID, o.ID, payload, p.config.MaxRetries)
	if err != nil {
		p.release(ctx, o.ID)
		return nil, err
	}

	if err := p.queue.Create(ctx, item); err != nil {
		if errors.Is(err, fulfillment.ErrAlreadyEnqueued) {
			p.logger.Info("Order already queued for fulfillment", zap.String("order_id", o.ID.String()))
			return nil, err
		}
		p.release(ctx, o.ID)
		return nil, fmt.Errorf("create queue item: %w", err)
	}

	p.logger.Info("Order queued for fulfillment",
		zap.String("queue_item_id", item.ID.String()),
		zap.String("order_id", o.ID.String()),
		zap.String("tenant_id", o.TenantID.String()),
		zap.Int("line_items", len(items)),
	)
	return item, nil
}

// lineItems maps order lines to source platform line items, merging
// lines of the same product
func (p *QueueProducer) lineItems(ctx context.Context, o *order.CustomerOrder) ([]fulfillment.LineItem, error) {
	products, err := p.products.FindByIDs(ctx, o.TenantID, o.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("load order products: %w", err)
	}

	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, prod := range products {
		byID[prod.ID] = prod
	}

	index := make(map[uuid.UUID]int)
	var items []fulfillment.LineItem
	for _, line := range o.Lines {
		prod, ok := byID[line.CatalogProductID]
		if !ok || !prod.Source.Matches(p.config.Platform) || prod.Source.URL == "" {
			continue
		}
		if i, seen := index[prod.ID]; seen {
			items[i].Quantity += line.Quantity
			continue
		}
		index[prod.ID] = len(items)
		items = append(items, fulfillment.LineItem{
			CatalogProductID: prod.ID,
			SourceProductID:  prod.Source.ProductID,
			SourceURL:        prod.Source.URL,
			Name:             prod.Name,
			Quantity:         line.Quantity,
		})
	}
	return items, nil
}

func (p *QueueProducer) release(ctx context.Context, orderID uuid.UUID) {
	if p.guard == nil {
		return
	}
	if err := p.guard.Release(ctx, orderID); err != nil {
		p.logger.Warn("Failed to release enqueue guard", zap.String("order_id", orderID.String()), zap.Error(err))
	}
}

var _ shared.EventHandler = (*QueueProducer)(nil)
