package order

import (
	"context"
	"errors"
	"testing"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/order"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.CustomerOrder) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*order.CustomerOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.CustomerOrder), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.CustomerOrder) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) RecordFulfillment(ctx context.Context, tenantID, id uuid.UUID, f order.Fulfillment) error {
	args := m.Called(ctx, tenantID, id, f)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[catalog.Product], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(*shared.Paginated[catalog.Product]), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type recordingPublisher struct {
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return p.err
}

func address() valueobject.ShippingAddress {
	return valueobject.ShippingAddress{
		FullName:   "Grace Hopper",
		Line1:      "1 Navy Yard",
		City:       "Arlington",
		PostalCode: "22202",
		Country:    "US",
	}
}

func TestOrderService_Create(t *testing.T) {
	orders := new(MockOrderRepository)
	products := new(MockProductRepository)
	svc := NewOrderService(orders, products, nil, zap.NewNop())
	tenantID := uuid.New()

	mug, err := catalog.NewProduct(tenantID, "Mug", decimal.NewFromFloat(12.5), "USD")
	require.NoError(t, err)
	products.On("FindByIDs", mock.Anything, tenantID, []uuid.UUID{mug.ID}).Return([]catalog.Product{*mug}, nil)
	orders.On("Create", mock.Anything, mock.AnythingOfType("*order.CustomerOrder")).Return(nil)

	resp, err := svc.Create(context.Background(), tenantID, CreateOrderRequest{
		OrderNumber:     "SO-42",
		ShippingAddress: address(),
		Lines:           []CreateOrderLine{{CatalogProductID: mug.ID, Quantity: 2}},
	})

	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "25", resp.Total.String())
	orders.AssertExpectations(t)
}

func TestOrderService_CreateUnknownProduct(t *testing.T) {
	products := new(MockProductRepository)
	svc := NewOrderService(new(MockOrderRepository), products, nil, zap.NewNop())
	tenantID, missing := uuid.New(), uuid.New()
	products.On("FindByIDs", mock.Anything, tenantID, []uuid.UUID{missing}).Return([]catalog.Product{}, nil)

	_, err := svc.Create(context.Background(), tenantID, CreateOrderRequest{
		OrderNumber:     "SO-1",
		ShippingAddress: address(),
		Lines:           []CreateOrderLine{{CatalogProductID: missing, Quantity: 1}},
	})

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_PRODUCT", de.Code)
}

func TestOrderService_CompletePublishesEvent(t *testing.T) {
	orders := new(MockOrderRepository)
	bus := &recordingPublisher{}
	svc := NewOrderService(orders, new(MockProductRepository), bus, zap.NewNop())
	tenantID := uuid.New()

	o, err := order.NewCustomerOrder(tenantID, "SO-7", address(), []order.Line{{CatalogProductID: uuid.New(), Quantity: 1}})
	require.NoError(t, err)
	orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)
	orders.On("Save", mock.Anything, o).Return(nil)

	resp, err := svc.Complete(context.Background(), tenantID, o.ID)

	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	require.Len(t, bus.events, 1)
	assert.Equal(t, order.EventTypeCompleted, bus.events[0].EventType())
	assert.Empty(t, o.GetDomainEvents())

	_, err = svc.Complete(context.Background(), tenantID, o.ID)
	assert.Error(t, err, "completing twice is rejected")
	assert.Len(t, bus.events, 1)
}

func TestOrderService_CompleteSurvivesPublishFailure(t *testing.T) {
	orders := new(MockOrderRepository)
	bus := &recordingPublisher{err: errors.New("handler failed")}
	svc := NewOrderService(orders, new(MockProductRepository), bus, zap.NewNop())
	tenantID := uuid.New()

	o, err := order.NewCustomerOrder(tenantID, "SO-8", address(), []order.Line{{CatalogProductID: uuid.New(), Quantity: 1}})
	require.NoError(t, err)
	orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)
	orders.On("Save", mock.Anything, o).Return(nil)

	resp, err := svc.Complete(context.Background(), tenantID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
}

func TestOrderService_Republish(t *testing.T) {
	orders := new(MockOrderRepository)
	bus := &recordingPublisher{}
	svc := NewOrderService(orders, new(MockProductRepository), bus, zap.NewNop())
	tenantID := uuid.New()

	o, err := order.NewCustomerOrder(tenantID, "SO-9", address(), []order.Line{{CatalogProductID: uuid.New(), Quantity: 1}})
	require.NoError(t, err)
	orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)

	assert.Error(t, svc.Republish(context.Background(), tenantID, o.ID), "pending orders are not republished")

	require.NoError(t, o.Complete())
	require.NoError(t, svc.Republish(context.Background(), tenantID, o.ID))
	require.Len(t, bus.events, 1)

	ev, ok := bus.events[0].(*order.CompletedEvent)
	require.True(t, ok)
	assert.Same(t, o, ev.Order)
}
