package handler

import (
	"context"

	fulfillmentapp "github.com/dropship/backend/internal/application/fulfillment"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QueueService exposes the fulfillment queue to operators
type QueueService interface {
	List(ctx context.Context, tenantID uuid.UUID, in fulfillmentapp.ListQueueInput) (*shared.Paginated[fulfillmentapp.QueueItemResponse], error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*fulfillmentapp.QueueItemResponse, error)
	Retry(ctx context.Context, tenantID, id uuid.UUID) (*fulfillmentapp.QueueItemResponse, error)
}

var _ QueueService = (*fulfillmentapp.QueueService)(nil)

// FulfillmentHandler handles fulfillment queue endpoints
type FulfillmentHandler struct {
	BaseHandler
	queue QueueService
}

// NewFulfillmentHandler creates a new FulfillmentHandler
func NewFulfillmentHandler(queue QueueService) *FulfillmentHandler {
	return &FulfillmentHandler{queue: queue}
}

// List godoc
// @Summary      List fulfillment queue items
// @Tags         fulfillment
// @Produce      json
// @Param        status   query string false "pending, processing, completed or failed"
// @Param        order_id query string false "Customer order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]fulfillmentapp.QueueItemResponse}
// @Security     BearerAuth
// @Router       /fulfillment/queue [get]
func (h *FulfillmentHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req dto.ListQueueRequest
	if !h.bindQuery(c, &req) {
		return
	}
	req.Normalize()

	items, err := h.queue.List(c.Request.Context(), tenantID, fulfillmentapp.ListQueueInput{
		Status:   req.Status,
		OrderID:  req.OrderUUID(),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, items.Items, items.Total, items.Page, items.PageSize)
}

// Get godoc
// @Summary      Get a fulfillment queue item
// @Tags         fulfillment
// @Produce      json
// @Param        id path string true "Queue item ID" format(uuid)
// @Success      200 {object} dto.Response{data=fulfillmentapp.QueueItemResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /fulfillment/queue/{id} [get]
func (h *FulfillmentHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "queue item")
	if !ok {
		return
	}

	item, err := h.queue.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// Retry godoc
// @Summary      Requeue a failed fulfillment item
// @Description  Puts a failed item back to pending with a fresh retry budget.
// @Tags         fulfillment
// @Produce      json
// @Param        id path string true "Queue item ID" format(uuid)
// @Success      200 {object} dto.Response{data=fulfillmentapp.QueueItemResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /fulfillment/queue/{id}/retry [post]
func (h *FulfillmentHandler) Retry(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "queue item")
	if !ok {
		return
	}

	item, err := h.queue.Retry(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}
