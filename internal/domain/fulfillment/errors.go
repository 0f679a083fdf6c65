package fulfillment

import (
	"errors"

	"github.com/dropship/backend/internal/domain/shared"
)

var (
	// ErrNoWork is returned by ClaimNext when no queue item is eligible
	ErrNoWork = errors.New("fulfillment: no eligible queue item")

	// ErrLeaseLost is returned when saving an outcome for an item whose
	// lease was taken over by another worker
	ErrLeaseLost = errors.New("fulfillment: lease lost")

	// ErrAttemptsExhausted is returned with the item when reclaiming an
	// expired lease used up its last attempt. The item is left failed.
	ErrAttemptsExhausted = errors.New("fulfillment: attempts exhausted")

	// ErrAlreadyEnqueued is returned when an order already has a queue item
	ErrAlreadyEnqueued = shared.NewDomainError("ALREADY_ENQUEUED", "Order has already been queued for fulfillment")

	// ErrInvalidTransition is returned for a status change the queue item does not allow
	ErrInvalidTransition = shared.NewDomainError("INVALID_STATE", "Queue item status does not allow this operation")
)
