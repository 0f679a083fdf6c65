package order

import (
	"time"

	"github.com/dropship/backend/internal/domain/order"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderLine is one line of a create order request
type CreateOrderLine struct {
	CatalogProductID uuid.UUID `json:"catalog_product_id" binding:"required"`
	Quantity         int       `json:"quantity" binding:"required,min=1,max=999"`
}

// CreateOrderRequest represents a request to record a customer order
type CreateOrderRequest struct {
	OrderNumber     string                      `json:"order_number" binding:"required,max=64"`
	ShippingAddress valueobject.ShippingAddress `json:"shipping_address" binding:"required"`
	Lines           []CreateOrderLine           `json:"lines" binding:"required,min=1,dive"`
}

// OrderResponse represents a customer order in API responses
type OrderResponse struct {
	ID              uuid.UUID                   `json:"id"`
	OrderNumber     string                      `json:"order_number"`
	Status          string                      `json:"status"`
	ShippingAddress valueobject.ShippingAddress `json:"shipping_address"`
	Lines           []order.Line                `json:"lines"`
	Total           decimal.Decimal             `json:"total"`
	Fulfillment     order.Fulfillment           `json:"fulfillment"`
	CreatedAt       time.Time                   `json:"created_at"`
	CompletedAt     *time.Time                  `json:"completed_at,omitempty"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *order.CustomerOrder) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		Lines:           o.Lines,
		Total:           o.Total(),
		Fulfillment:     o.Fulfillment,
		CreatedAt:       o.CreatedAt,
		CompletedAt:     o.CompletedAt,
	}
}
