package dto

import "github.com/google/uuid"

// ListQueueRequest filters the fulfillment queue list
type ListQueueRequest struct {
	ListRequest
	Status  string `form:"status" binding:"omitempty,oneof=pending processing completed failed"`
	OrderID string `form:"order_id" binding:"omitempty,uuid"`
}

// OrderUUID returns the order filter, or nil when none was given
func (r ListQueueRequest) OrderUUID() *uuid.UUID {
	id, err := uuid.Parse(r.OrderID)
	if err != nil {
		return nil
	}
	return &id
}
