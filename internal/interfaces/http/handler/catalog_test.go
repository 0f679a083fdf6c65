package handler

import (
	"net/http"
	"testing"

	catalogapp "github.com/dropship/backend/internal/application/catalog"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCatalogRouter(t *testing.T) (*gin.Engine, *MockProductService, uuid.UUID) {
	t.Helper()
	tenantID := uuid.New()
	svc := new(MockProductService)
	h := NewCatalogHandler(svc)

	router := gin.New()
	router.Use(authenticated(tenantID, uuid.New()))
	router.GET("/catalog/products", h.List)
	router.GET("/catalog/products/:id", h.GetByID)
	router.POST("/catalog/products", h.Create)

	t.Cleanup(func() { svc.AssertExpectations(t) })
	return router, svc, tenantID
}

func TestCatalogHandler_Create(t *testing.T) {
	router, svc, tenantID := newCatalogRouter(t)
	id := uuid.New()

	svc.On("Create", mock.Anything, tenantID, mock.MatchedBy(func(req catalogapp.CreateProductRequest) bool {
		return req.Name == "Desk Lamp" && req.Price.Equal(decimal.RequireFromString("19.99"))
	})).Return(&catalogapp.ProductResponse{ID: id, Name: "Desk Lamp", Price: decimal.RequireFromString("19.99")}, nil)

	rec := serve(router, http.MethodPost, "/catalog/products", map[string]any{
		"name":     "Desk Lamp",
		"price":    "19.99",
		"currency": "USD",
		"images":   []string{"https://ae01.alicdn.com/kf/lamp.jpg"},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got catalogapp.ProductResponse
	decodeResponse(t, rec, &got)
	assert.Equal(t, id, got.ID)
}

func TestCatalogHandler_Create_Validation(t *testing.T) {
	router, _, _ := newCatalogRouter(t)

	rec := serve(router, http.MethodPost, "/catalog/products", map[string]any{
		"name":   "Desk Lamp",
		"price":  "19.99",
		"images": []string{"a", "b", "c", "d", "e", "f"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestCatalogHandler_GetByID(t *testing.T) {
	router, svc, tenantID := newCatalogRouter(t)
	id := uuid.New()
	svc.On("GetByID", mock.Anything, tenantID, id).Return(nil, shared.ErrNotFound)

	rec := serve(router, http.MethodGet, "/catalog/products/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogHandler_List(t *testing.T) {
	router, svc, tenantID := newCatalogRouter(t)

	svc.On("List", mock.Anything, tenantID, catalogapp.ProductListFilter{
		Page:     1,
		PageSize: 10,
		Status:   "active",
		Platform: "aliexpress",
	}).Return(&shared.Paginated[catalogapp.ProductResponse]{
		Items:    []catalogapp.ProductResponse{{ID: uuid.New(), Name: "Desk Lamp"}},
		Total:    1,
		Page:     1,
		PageSize: 10,
	}, nil)

	rec := serve(router, http.MethodGet, "/catalog/products?page=1&page_size=10&status=active&platform=aliexpress", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var products []catalogapp.ProductResponse
	decodeResponse(t, rec, &products)
	assert.Len(t, products, 1)
}
