package fulfillment

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Status represents the state of a fulfillment queue item.
//
//	pending -> processing -> completed
//	                      -> pending (retries remain, after backoff)
//	                      -> failed  (retries exhausted)
//	processing (lease expired) -> processing (reclaimed, attempt counted)
//	                           -> failed     (that was the last attempt)
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

const (
	// DefaultMaxRetries is used when an item is created without a limit
	DefaultMaxRetries = 3
	// MaxErrorMessageLength caps the stored failure message
	MaxErrorMessageLength = 1000
)

// LineItem is one product to buy on the source platform
type LineItem struct {
	CatalogProductID uuid.UUID `json:"catalog_product_id"`
	SourceProductID  string    `json:"source_product_id"`
	SourceURL        string    `json:"source_url"`
	Name             string    `json:"name,omitempty"`
	Quantity         int       `json:"quantity"`
}

// Payload is everything the worker needs to replicate an order
type Payload struct {
	Items           []LineItem                  `json:"items"`
	ShippingAddress valueobject.ShippingAddress `json:"shipping_address"`
}

// Validate checks the payload can be replayed on the source platform
func (p Payload) Validate() error {
	if len(p.Items) == 0 {
		return errors.New("payload has no line items")
	}
	for i, it := range p.Items {
		if it.SourceURL == "" {
			return fmt.Errorf("line item %d has no source url", i+1)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("line item %d quantity must be positive", i+1)
		}
	}
	return p.ShippingAddress.Validate()
}

// Value implements driver.Valuer for JSON column storage
func (p Payload) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSON column storage
func (p *Payload) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*p = Payload{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into Payload", value)
	}
}

// Confirmation is what the source platform returns once an order is placed
type Confirmation struct {
	SourceOrderNumber string `json:"source_order_number"`
	TrackingNumber    string `json:"tracking_number,omitempty"`
	TrackingURL       string `json:"tracking_url,omitempty"`
	ScreenshotKey     string `json:"screenshot_key,omitempty"`
}

// RetryPolicy computes how long a failed item waits before it becomes
// eligible again: BaseDelay * 2^(retry-1), capped at MaxDelay.
type RetryPolicy struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy returns the default backoff schedule
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay: 30 * time.Second,
		MaxDelay:  30 * time.Minute,
	}
}

// Delay returns the wait before attempt number retryCount+1
func (p RetryPolicy) Delay(retryCount int) time.Duration {
	if retryCount < 1 || p.BaseDelay <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 1; i < retryCount; i++ {
		if delay > math.MaxInt64/2 {
			break
		}
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			break
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// QueueItem is a request to replicate one customer order on the source platform
type QueueItem struct {
	shared.TenantEntity
	OrderID           uuid.UUID
	Payload           Payload
	Status            Status
	RetryCount        int
	MaxRetries        int
	ErrorMessage      string
	NextAttemptAt     *time.Time
	LeaseOwner        string
	LeaseExpiresAt    *time.Time
	SourceOrderNumber string
	TrackingNumber    string
	TrackingURL       string
	ScreenshotKey     string
	ProcessedAt       *time.Time
}

// NewQueueItem creates a pending queue item for an order
func NewQueueItem(tenantID, orderID uuid.UUID, payload Payload, maxRetries int) (*QueueItem, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID is required")
	}
	if err := payload.Validate(); err != nil {
		return nil, shared.NewDomainError("INVALID_PAYLOAD", err.Error())
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return &QueueItem{
		TenantEntity: shared.NewTenantEntity(tenantID),
		OrderID:      orderID,
		Payload:      payload,
		Status:       StatusPending,
		MaxRetries:   maxRetries,
	}, nil
}

// IsEligible reports whether the item may be claimed at now
func (q *QueueItem) IsEligible(now time.Time) bool {
	switch q.Status {
	case StatusPending:
		return q.NextAttemptAt == nil || !q.NextAttemptAt.After(now)
	case StatusProcessing:
		return q.LeaseExpiresAt != nil && q.LeaseExpiresAt.Before(now)
	}
	return false
}

// Claim takes a lease on the item for owner until now+ttl. Reclaiming an
// expired lease counts the attempt its previous owner never finished; when
// that was the last one the item fails and ErrAttemptsExhausted is returned.
func (q *QueueItem) Claim(owner string, ttl time.Duration, now time.Time) error {
	if !q.IsEligible(now) {
		return ErrInvalidTransition
	}
	if q.Status == StatusProcessing {
		q.RetryCount++
		q.ErrorMessage = truncateMessage(fmt.Sprintf("lease of %s expired before the attempt finished", q.LeaseOwner))
		if q.RetryCount >= q.MaxRetries {
			q.Status = StatusFailed
			q.NextAttemptAt = nil
			q.ProcessedAt = &now
			q.UpdatedAt = now
			q.releaseLease()
			return ErrAttemptsExhausted
		}
	}
	expires := now.Add(ttl)
	q.Status = StatusProcessing
	q.LeaseOwner = owner
	q.LeaseExpiresAt = &expires
	q.UpdatedAt = now
	return nil
}

// Complete records a successful placement
func (q *QueueItem) Complete(c Confirmation, now time.Time) error {
	if q.Status != StatusProcessing {
		return ErrInvalidTransition
	}
	q.Status = StatusCompleted
	q.SourceOrderNumber = c.SourceOrderNumber
	q.TrackingNumber = c.TrackingNumber
	q.TrackingURL = c.TrackingURL
	q.ScreenshotKey = c.ScreenshotKey
	q.ErrorMessage = ""
	q.NextAttemptAt = nil
	q.ProcessedAt = &now
	q.UpdatedAt = now
	q.releaseLease()
	return nil
}

// Fail records a failed attempt. The item goes back to pending after the
// policy's backoff while retries remain, and stays failed otherwise.
// It returns true when another attempt is scheduled.
func (q *QueueItem) Fail(cause error, policy RetryPolicy, now time.Time) (bool, error) {
	if q.Status != StatusProcessing {
		return false, ErrInvalidTransition
	}

	q.RetryCount++
	q.ErrorMessage = truncateMessage(cause.Error())
	q.UpdatedAt = now
	q.releaseLease()

	if q.RetryCount < q.MaxRetries {
		next := now.Add(policy.Delay(q.RetryCount))
		q.Status = StatusPending
		q.NextAttemptAt = &next
		return true, nil
	}

	q.Status = StatusFailed
	q.NextAttemptAt = nil
	q.ProcessedAt = &now
	return false, nil
}

// Requeue makes a terminally failed item eligible again with a fresh retry budget
func (q *QueueItem) Requeue(now time.Time) error {
	if q.Status != StatusFailed {
		return ErrInvalidTransition
	}
	q.Status = StatusPending
	q.RetryCount = 0
	q.NextAttemptAt = nil
	q.ProcessedAt = nil
	q.UpdatedAt = now
	return nil
}

// RetriesLeft returns how many more attempts the item may get
func (q *QueueItem) RetriesLeft() int {
	if left := q.MaxRetries - q.RetryCount; left > 0 {
		return left
	}
	return 0
}

func (q *QueueItem) releaseLease() {
	q.LeaseOwner = ""
	q.LeaseExpiresAt = nil
}

func truncateMessage(s string) string {
	if utf8.RuneCountInString(s) <= MaxErrorMessageLength {
		return s
	}
	return string([]rune(s)[:MaxErrorMessageLength])
}
