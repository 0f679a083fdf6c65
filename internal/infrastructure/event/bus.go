package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrHandlerPanicked wraps a panic recovered from an event handler
var ErrHandlerPanicked = errors.New("event handler panicked")

// InMemoryEventBus dispatches domain events to subscribed handlers
// synchronously, in the caller's goroutine. Every handler runs even when an
// earlier one fails; the failures are joined into the returned error so the
// publisher can decide whether to retry.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// Publish delivers events to their handlers in order
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var errs []error
	for _, event := range events {
		if err := b.publishOne(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *InMemoryEventBus) publishOne(ctx context.Context, event shared.DomainEvent) error {
	ctx, span := telemetry.StartSpan(ctx, "event.publish",
		telemetry.WithAttribute("event_type", event.EventType()),
		telemetry.WithAttribute("tenant_id", event.TenantID().String()),
	)
	defer span.End()

	var errs []error
	for _, handler := range b.registry.GetHandlers(event.EventType()) {
		if err := b.dispatch(ctx, handler, event); err != nil {
			b.logger.Error("Event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

// Subscribe registers a handler. Without explicit event types the handler's
// own EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed",
		zap.Strings("event_types", eventTypes),
		zap.Int("handlers", b.registry.Len()),
	)
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanicked, r)
		}
	}()
	return handler.Handle(ctx, event)
}
