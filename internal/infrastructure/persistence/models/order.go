package models

import (
	"time"

	"github.com/dropship/backend/internal/domain/order"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
)

// CustomerOrderModel is the persistence model for a customer order.
// Order lines are small and always loaded with the order, so they are kept
// in a JSON column rather than a child table.
type CustomerOrderModel struct {
	TenantModel
	OrderNumber       string                      `gorm:"type:varchar(64);not null;index"`
	Status            order.Status                `gorm:"type:varchar(20);not null;default:'pending';index"`
	ShippingAddress   valueobject.ShippingAddress `gorm:"type:jsonb;not null"`
	Lines             JSON[[]order.Line]          `gorm:"not null"`
	SourceOrderNumber string                      `gorm:"type:varchar(100)"`
	TrackingNumber    string                      `gorm:"type:varchar(100)"`
	TrackingURL       string                      `gorm:"type:text"`
	FulfilledAt       *time.Time
	CompletedAt       *time.Time
}

// TableName returns the table name for GORM
func (CustomerOrderModel) TableName() string {
	return "customer_orders"
}

// ToDomain converts the persistence model to a domain CustomerOrder.
func (m *CustomerOrderModel) ToDomain() *order.CustomerOrder {
	return &order.CustomerOrder{
		TenantEntity:    m.ToTenantEntity(),
		OrderNumber:     m.OrderNumber,
		Status:          m.Status,
		ShippingAddress: m.ShippingAddress,
		Lines:           m.Lines.Data,
		Fulfillment: order.Fulfillment{
			SourceOrderNumber: m.SourceOrderNumber,
			TrackingNumber:    m.TrackingNumber,
			TrackingURL:       m.TrackingURL,
			FulfilledAt:       m.FulfilledAt,
		},
		CompletedAt: m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain CustomerOrder.
func (m *CustomerOrderModel) FromDomain(o *order.CustomerOrder) {
	m.FromDomainTenantEntity(o.TenantEntity)
	m.OrderNumber = o.OrderNumber
	m.Status = o.Status
	m.ShippingAddress = o.ShippingAddress
	m.Lines = NewJSON(o.Lines)
	m.SourceOrderNumber = o.Fulfillment.SourceOrderNumber
	m.TrackingNumber = o.Fulfillment.TrackingNumber
	m.TrackingURL = o.Fulfillment.TrackingURL
	m.FulfilledAt = o.Fulfillment.FulfilledAt
	m.CompletedAt = o.CompletedAt
}

// CustomerOrderModelFromDomain creates a new persistence model from a domain CustomerOrder.
func CustomerOrderModelFromDomain(o *order.CustomerOrder) *CustomerOrderModel {
	m := &CustomerOrderModel{}
	m.FromDomain(o)
	return m
}
