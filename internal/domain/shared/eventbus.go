package shared

import "context"

// EventHandler reacts to domain events after the publishing transaction
// committed. Handle runs in the publisher's goroutine, so a slow handler
// delays the API response that raised the event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the events the handler wants when it is subscribed
	// without explicit types. Empty means every event.
	EventTypes() []string
}

// EventPublisher is what application services depend on. A non-nil error
// means at least one handler failed. The state change that raised the
// events is already stored and is never rolled back.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is an EventPublisher that handlers can join at startup
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
}
