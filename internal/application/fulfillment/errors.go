package fulfillment

import "errors"

var (
	// ErrWorkerBusy is returned by Poll while a previous poll is still running
	ErrWorkerBusy = errors.New("fulfillment worker is busy")

	// ErrInvalidConfig is returned when worker configuration is invalid
	ErrInvalidConfig = errors.New("invalid fulfillment worker configuration")

	// ErrOrderNotCompleted is returned when enqueueing an order that is not completed
	ErrOrderNotCompleted = errors.New("order is not completed")
)
