package automation

import "errors"

var (
	// ErrSessionClosed is returned by every step after Close
	ErrSessionClosed = errors.New("source site session closed")

	// ErrElementNotFound is returned when a configured selector matches nothing
	ErrElementNotFound = errors.New("element not found")

	// ErrCartNotEmpty is returned when items are still in the cart after clearing
	ErrCartNotEmpty = errors.New("cart could not be emptied")

	// ErrInvalidLineItem is returned for line items that cannot be added to a cart
	ErrInvalidLineItem = errors.New("invalid line item")
)
