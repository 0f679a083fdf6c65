package fulfillment

import (
	"context"
	"errors"
	"testing"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSourcedProduct(t *testing.T, tenantID uuid.UUID, platform, productID string) catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(tenantID, "Product "+productID, decimal.NewFromFloat(19.99), "USD")
	require.NoError(t, err)
	if platform != "" {
		p.SetSource(catalog.Provenance{
			Platform:  platform,
			ProductID: productID,
			URL:       "https://www.aliexpress.com/item/" + productID + ".html",
		})
	}
	return *p
}

func completedOrder(t *testing.T, tenantID uuid.UUID, lines ...order.Line) *order.CustomerOrder {
	t.Helper()
	o, err := order.NewCustomerOrder(tenantID, "SO-1001", testAddress(), lines)
	require.NoError(t, err)
	require.NoError(t, o.Complete())
	return o
}

func line(p catalog.Product, qty int) order.Line {
	return order.Line{CatalogProductID: p.ID, Quantity: qty, UnitPrice: p.Price}
}

type producerFixture struct {
	tenantID uuid.UUID
	queue    *memQueue
	products *fakeProducts
	guard    *memGuard
	producer *QueueProducer
}

func newProducerFixture(t *testing.T) *producerFixture {
	t.Helper()
	f := &producerFixture{
		tenantID: uuid.New(),
		queue:    newMemQueue(newTestClock().Now),
		products: &fakeProducts{},
		guard:    newMemGuard(),
	}
	f.producer = NewQueueProducer(f.queue, f.products, DefaultProducerConfig(), zap.NewNop()).WithGuard(f.guard)
	return f
}

func TestQueueProducer_EnqueuesSourceLines(t *testing.T) {
	f := newProducerFixture(t)
	ali := newSourcedProduct(t, f.tenantID, "AliExpress", "1005001")
	other := newSourcedProduct(t, f.tenantID, "temu", "6001")
	own := newSourcedProduct(t, f.tenantID, "", "own")
	f.products.products = []catalog.Product{ali, other, own}

	o := completedOrder(t, f.tenantID, line(ali, 2), line(other, 1), line(own, 4), line(ali, 1))

	item, err := f.producer.Enqueue(context.Background(), o)

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, o.ID, item.OrderID)
	assert.Equal(t, f.tenantID, item.TenantID)
	assert.Equal(t, fulfillment.StatusPending, item.Status)
	assert.Equal(t, fulfillment.DefaultMaxRetries, item.MaxRetries)
	require.Len(t, item.Payload.Items, 1)
	assert.Equal(t, "1005001", item.Payload.Items[0].SourceProductID)
	assert.Equal(t, 3, item.Payload.Items[0].Quantity)
	assert.Equal(t, o.ShippingAddress, item.Payload.ShippingAddress)
}

func TestQueueProducer_NoSourceProducts(t *testing.T) {
	f := newProducerFixture(t)
	own := newSourcedProduct(t, f.tenantID, "", "own")
	f.products.products = []catalog.Product{own}

	item, err := f.producer.Enqueue(context.Background(), completedOrder(t, f.tenantID, line(own, 1)))

	require.NoError(t, err)
	assert.Nil(t, item)
	n, _ := f.queue.CountByStatus(context.Background(), fulfillment.StatusPending)
	assert.Zero(t, n)
}

func TestQueueProducer_DuplicateTriggerIsNoop(t *testing.T) {
	f := newProducerFixture(t)
	ali := newSourcedProduct(t, f.tenantID, "aliexpress", "1005001")
	f.products.products = []catalog.Product{ali}
	o := completedOrder(t, f.tenantID, line(ali, 1))

	_, err := f.producer.Enqueue(context.Background(), o)
	require.NoError(t, err)

	_, err = f.producer.Enqueue(context.Background(), o)
	assert.ErrorIs(t, err, fulfillment.ErrAlreadyEnqueued)

	assert.NoError(t, f.producer.Handle(context.Background(), order.NewCompletedEvent(o)))

	n, _ := f.queue.CountByStatus(context.Background(), fulfillment.StatusPending)
	assert.Equal(t, int64(1), n)
}

func TestQueueProducer_DatabaseConstraintCatchesDuplicates(t *testing.T) {
	f := newProducerFixture(t)
	f.guard.err = errors.New("redis: connection refused")
	ali := newSourcedProduct(t, f.tenantID, "aliexpress", "1005001")
	f.products.products = []catalog.Product{ali}
	o := completedOrder(t, f.tenantID, line(ali, 1))

	_, err := f.producer.Enqueue(context.Background(), o)
	require.NoError(t, err)

	_, err = f.producer.Enqueue(context.Background(), o)
	assert.ErrorIs(t, err, fulfillment.ErrAlreadyEnqueued)
}

func TestQueueProducer_ReleasesGuardWhenCreateFails(t *testing.T) {
	f := newProducerFixture(t)
	ali := newSourcedProduct(t, f.tenantID, "aliexpress", "1005001")
	f.products.products = []catalog.Product{ali}
	o := completedOrder(t, f.tenantID, line(ali, 1))
	o.ShippingAddress.City = ""

	_, err := f.producer.Enqueue(context.Background(), o)

	require.Error(t, err)
	assert.Equal(t, []uuid.UUID{o.ID}, f.guard.released)
}

func TestQueueProducer_RejectsPendingOrder(t *testing.T) {
	f := newProducerFixture(t)
	ali := newSourcedProduct(t, f.tenantID, "aliexpress", "1005001")
	o, err := order.NewCustomerOrder(f.tenantID, "SO-1", testAddress(), []order.Line{line(ali, 1)})
	require.NoError(t, err)

	_, err = f.producer.Enqueue(context.Background(), o)
	assert.ErrorIs(t, err, ErrOrderNotCompleted)
}

func TestQueueProducer_ProductLookupFailure(t *testing.T) {
	f := newProducerFixture(t)
	ali := newSourcedProduct(t, f.tenantID, "aliexpress", "1005001")
	f.products.err = errors.New("db down")

	err := f.producer.Handle(context.Background(), order.NewCompletedEvent(completedOrder(t, f.tenantID, line(ali, 1))))
	assert.Error(t, err)
}

func TestQueueProducer_EventTypes(t *testing.T) {
	p := NewQueueProducer(nil, nil, DefaultProducerConfig(), nil)
	assert.Equal(t, []string{order.EventTypeCompleted}, p.EventTypes())
}
