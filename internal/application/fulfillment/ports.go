package fulfillment

import (
	"context"

	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// SourceSite drives one storefront session on the source platform. A
// session is used by exactly one order at a time.
type SourceSite interface {
	// ClearCart empties the cart left over from an earlier attempt
	ClearCart(ctx context.Context) error
	// AddToCart opens the product page, waits for it to load, sets the
	// quantity and adds the item to the cart
	AddToCart(ctx context.Context, item fulfillment.LineItem) error
	// OpenCartAndCheckout opens the cart page and starts checkout
	OpenCartAndCheckout(ctx context.Context) error
	// FillShippingAddress fills the address form, firing change events on every field
	FillShippingAddress(ctx context.Context, address valueobject.ShippingAddress) error
	// PlaceOrder submits the order and reads back its identifiers
	PlaceOrder(ctx context.Context) (*fulfillment.Confirmation, error)
	// Screenshot captures the current page as PNG
	Screenshot(ctx context.Context) ([]byte, error)
	// Close releases the session
	Close() error
}

// SiteFactory opens a fresh SourceSite session
type SiteFactory interface {
	Open(ctx context.Context) (SourceSite, error)
}

// NotificationLevel is the severity of a notification
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a message shown to tenant users
type Notification struct {
	TenantID    uuid.UUID         `json:"tenant_id"`
	Level       NotificationLevel `json:"level"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	QueueItemID uuid.UUID         `json:"queue_item_id"`
	OrderID     uuid.UUID         `json:"order_id"`
}

// Notifier delivers notifications. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ScreenshotStore keeps order confirmation screenshots
type ScreenshotStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// EnqueueGuard deduplicates fulfillment triggers per order before they reach the database
type EnqueueGuard interface {
	// Acquire returns true the first time it is called for orderID
	Acquire(ctx context.Context, orderID uuid.UUID) (bool, error)
	// Release forgets orderID so a later trigger may enqueue it
	Release(ctx context.Context, orderID uuid.UUID) error
}
