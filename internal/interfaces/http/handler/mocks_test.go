package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	catalogapp "github.com/dropship/backend/internal/application/catalog"
	fulfillmentapp "github.com/dropship/backend/internal/application/fulfillment"
	orderapp "github.com/dropship/backend/internal/application/order"
	sourcingapp "github.com/dropship/backend/internal/application/sourcing"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/dropship/backend/internal/interfaces/http/dto"
	"github.com/dropship/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// authenticated simulates the JWT middleware for tenantID and userID
func authenticated(tenantID, userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("request_id", "req-test")
		c.Set(middleware.JWTTenantIDKey, tenantID.String())
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Next()
	}
}

func serve(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeResponse decodes the envelope, with data decoded into out when given
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	if out != nil {
		var raw struct {
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return resp
}

// MockImportService implements ImportService for testing
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) ImportBatch(ctx context.Context, in sourcingapp.ImportBatchInput) (*sourcingapp.ImportResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sourcingapp.ImportResult), args.Error(1)
}

func (m *MockImportService) GetJob(ctx context.Context, tenantID, id uuid.UUID) (*sourcingapp.ImportJobResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sourcingapp.ImportJobResponse), args.Error(1)
}

func (m *MockImportService) ListJobs(ctx context.Context, tenantID uuid.UUID, filter sourcing.ImportJobFilter, page, pageSize int) (*shared.Paginated[sourcingapp.ImportJobResponse], error) {
	args := m.Called(ctx, tenantID, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[sourcingapp.ImportJobResponse]), args.Error(1)
}

// MockApprovalService implements ApprovalService for testing
type MockApprovalService struct {
	mock.Mock
}

func (m *MockApprovalService) Approve(ctx context.Context, tenantID, id, userID uuid.UUID) (*sourcingapp.ImportedProductResponse, error) {
	args := m.Called(ctx, tenantID, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sourcingapp.ImportedProductResponse), args.Error(1)
}

func (m *MockApprovalService) Reject(ctx context.Context, tenantID, id, userID uuid.UUID, reason string) (*sourcingapp.ImportedProductResponse, error) {
	args := m.Called(ctx, tenantID, id, userID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sourcingapp.ImportedProductResponse), args.Error(1)
}

func (m *MockApprovalService) BulkApprove(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, userID uuid.UUID) []sourcingapp.BulkApproveOutcome {
	args := m.Called(ctx, tenantID, ids, userID)
	return args.Get(0).([]sourcingapp.BulkApproveOutcome)
}

func (m *MockApprovalService) Get(ctx context.Context, tenantID, id uuid.UUID) (*sourcingapp.ImportedProductResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sourcingapp.ImportedProductResponse), args.Error(1)
}

func (m *MockApprovalService) List(ctx context.Context, tenantID uuid.UUID, filter sourcing.ImportedProductFilter, page, pageSize int) (*shared.Paginated[sourcingapp.ImportedProductResponse], error) {
	args := m.Called(ctx, tenantID, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[sourcingapp.ImportedProductResponse]), args.Error(1)
}

// MockPageExtractor implements sourcing.PageExtractor for testing
type MockPageExtractor struct {
	mock.Mock
}

func (m *MockPageExtractor) Extract(ctx context.Context, pageURL string, hints sourcing.Hints) (*sourcing.ExtractResult, error) {
	args := m.Called(ctx, pageURL, hints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sourcing.ExtractResult), args.Error(1)
}

// MockOrderService implements OrderService for testing
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Create(ctx context.Context, tenantID uuid.UUID, req orderapp.CreateOrderRequest) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderResponse), args.Error(1)
}

func (m *MockOrderService) Complete(ctx context.Context, tenantID, id uuid.UUID) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderResponse), args.Error(1)
}

func (m *MockOrderService) Republish(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockOrderService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderResponse), args.Error(1)
}

// MockQueueService implements QueueService for testing
type MockQueueService struct {
	mock.Mock
}

func (m *MockQueueService) List(ctx context.Context, tenantID uuid.UUID, in fulfillmentapp.ListQueueInput) (*shared.Paginated[fulfillmentapp.QueueItemResponse], error) {
	args := m.Called(ctx, tenantID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[fulfillmentapp.QueueItemResponse]), args.Error(1)
}

func (m *MockQueueService) Get(ctx context.Context, tenantID, id uuid.UUID) (*fulfillmentapp.QueueItemResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillmentapp.QueueItemResponse), args.Error(1)
}

func (m *MockQueueService) Retry(ctx context.Context, tenantID, id uuid.UUID) (*fulfillmentapp.QueueItemResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillmentapp.QueueItemResponse), args.Error(1)
}

// MockProductService implements ProductService for testing
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, tenantID uuid.UUID, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, tenantID uuid.UUID, filter catalogapp.ProductListFilter) (*shared.Paginated[catalogapp.ProductResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[catalogapp.ProductResponse]), args.Error(1)
}
