package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle of a customer order
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Line is a single purchased catalog product
type Line struct {
	CatalogProductID uuid.UUID       `json:"catalog_product_id"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
}

// Fulfillment holds the identifiers returned by the source platform once
// the order was replicated there
type Fulfillment struct {
	SourceOrderNumber string     `json:"source_order_number,omitempty"`
	TrackingNumber    string     `json:"tracking_number,omitempty"`
	TrackingURL       string     `json:"tracking_url,omitempty"`
	FulfilledAt       *time.Time `json:"fulfilled_at,omitempty"`
}

// CustomerOrder is a purchase made by one of a tenant's customers
type CustomerOrder struct {
	shared.TenantEntity
	OrderNumber     string
	Status          Status
	ShippingAddress valueobject.ShippingAddress
	Lines           []Line
	Fulfillment     Fulfillment
	CompletedAt     *time.Time
}

// NewCustomerOrder creates a pending order
func NewCustomerOrder(tenantID uuid.UUID, orderNumber string, address valueobject.ShippingAddress, lines []Line) (*CustomerOrder, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Order must have at least one line")
	}
	for i, l := range lines {
		if l.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Line %d quantity must be positive", i+1))
		}
	}
	address = address.Normalize()
	if err := address.Validate(); err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}

	return &CustomerOrder{
		TenantEntity:    shared.NewTenantEntity(tenantID),
		OrderNumber:     orderNumber,
		Status:          StatusPending,
		ShippingAddress: address,
		Lines:           lines,
	}, nil
}

// Complete marks the order as paid and completed
func (o *CustomerOrder) Complete() error {
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete order from state: %s", o.Status))
	}

	now := time.Now()
	o.Status = StatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewCompletedEvent(o))

	return nil
}

// Cancel cancels a pending order
func (o *CustomerOrder) Cancel() error {
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order from state: %s", o.Status))
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}

// RecordFulfillment writes the source platform's tracking data onto the order
func (o *CustomerOrder) RecordFulfillment(f Fulfillment) {
	if f.FulfilledAt == nil {
		now := time.Now()
		f.FulfilledAt = &now
	}
	o.Fulfillment = f
	o.UpdatedAt = time.Now()
}

// ProductIDs returns the distinct catalog product ids on the order
func (o *CustomerOrder) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.Lines))
	ids := make([]uuid.UUID, 0, len(o.Lines))
	for _, l := range o.Lines {
		if _, ok := seen[l.CatalogProductID]; ok {
			continue
		}
		seen[l.CatalogProductID] = struct{}{}
		ids = append(ids, l.CatalogProductID)
	}
	return ids
}

// Total returns the order total
func (o *CustomerOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
