package handler

import (
	"net/http"
	"testing"

	fulfillmentapp "github.com/dropship/backend/internal/application/fulfillment"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newFulfillmentRouter(t *testing.T) (*gin.Engine, *MockQueueService, uuid.UUID) {
	t.Helper()
	tenantID := uuid.New()
	svc := new(MockQueueService)
	h := NewFulfillmentHandler(svc)

	router := gin.New()
	router.Use(authenticated(tenantID, uuid.New()))
	router.GET("/fulfillment/queue", h.List)
	router.GET("/fulfillment/queue/:id", h.Get)
	router.POST("/fulfillment/queue/:id/retry", h.Retry)

	t.Cleanup(func() { svc.AssertExpectations(t) })
	return router, svc, tenantID
}

func TestFulfillmentHandler_List(t *testing.T) {
	router, svc, tenantID := newFulfillmentRouter(t)
	orderID := uuid.New()

	svc.On("List", mock.Anything, tenantID, fulfillmentapp.ListQueueInput{
		Status:   "failed",
		OrderID:  &orderID,
		Page:     1,
		PageSize: 50,
	}).Return(&shared.Paginated[fulfillmentapp.QueueItemResponse]{
		Items:    []fulfillmentapp.QueueItemResponse{{ID: uuid.New(), OrderID: orderID, Status: "failed", RetryCount: 3}},
		Total:    1,
		Page:     1,
		PageSize: 50,
	}, nil)

	rec := serve(router, http.MethodGet, "/fulfillment/queue?status=failed&page_size=50&order_id="+orderID.String(), nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var items []fulfillmentapp.QueueItemResponse
	resp := decodeResponse(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].RetryCount)
	assert.Equal(t, 50, resp.Meta.PageSize)
}

func TestFulfillmentHandler_List_Validation(t *testing.T) {
	router, _, _ := newFulfillmentRouter(t)

	for _, query := range []string{"?status=lost", "?order_id=42", "?page_size=1000", "?page=abc"} {
		rec := serve(router, http.MethodGet, "/fulfillment/queue"+query, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestFulfillmentHandler_Get(t *testing.T) {
	router, svc, tenantID := newFulfillmentRouter(t)
	id := uuid.New()
	svc.On("Get", mock.Anything, tenantID, id).Return(&fulfillmentapp.QueueItemResponse{
		ID:             id,
		Status:         "completed",
		TrackingNumber: "LP00123456789",
	}, nil)

	rec := serve(router, http.MethodGet, "/fulfillment/queue/"+id.String(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var item fulfillmentapp.QueueItemResponse
	decodeResponse(t, rec, &item)
	assert.Equal(t, "LP00123456789", item.TrackingNumber)
}

func TestFulfillmentHandler_Retry(t *testing.T) {
	router, svc, tenantID := newFulfillmentRouter(t)
	failed, pending := uuid.New(), uuid.New()

	svc.On("Retry", mock.Anything, tenantID, failed).
		Return(&fulfillmentapp.QueueItemResponse{ID: failed, Status: "pending"}, nil)
	svc.On("Retry", mock.Anything, tenantID, pending).
		Return(nil, fulfillment.ErrInvalidTransition)

	rec := serve(router, http.MethodPost, "/fulfillment/queue/"+failed.String()+"/retry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var item fulfillmentapp.QueueItemResponse
	decodeResponse(t, rec, &item)
	assert.Equal(t, "pending", item.Status)

	rejected := serve(router, http.MethodPost, "/fulfillment/queue/"+pending.String()+"/retry", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rejected.Code)
	assert.Contains(t, rejected.Body.String(), "INVALID_STATE")
}
