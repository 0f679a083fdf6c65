package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/order"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/dropship/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shippingAddress() valueobject.ShippingAddress {
	return valueobject.ShippingAddress{
		FullName:   "Grace Hopper",
		Phone:      "+1 202 555 0100",
		Line1:      "1 Navy Yard",
		City:       "Arlington",
		State:      "VA",
		PostalCode: "22202",
		Country:    "US",
	}
}

// enqueueOrders stores n completed orders and one queue item each
func enqueueOrders(t *testing.T, db *TestDB, tenantID uuid.UUID, n int) []*fulfillment.QueueItem {
	t.Helper()
	ctx := context.Background()
	orders := persistence.NewGormCustomerOrderRepository(db.DB)
	queue := persistence.NewGormFulfillmentQueueRepository(db.DB)

	items := make([]*fulfillment.QueueItem, 0, n)
	for i := range n {
		productID := uuid.New()
		o, err := order.NewCustomerOrder(tenantID, fmt.Sprintf("SO-%04d", i), shippingAddress(), []order.Line{{
			CatalogProductID: productID,
			Quantity:         1,
			UnitPrice:        decimal.RequireFromString("19.99"),
		}})
		require.NoError(t, err)
		require.NoError(t, orders.Create(ctx, o))

		item, err := fulfillment.NewQueueItem(tenantID, o.ID, fulfillment.Payload{
			Items: []fulfillment.LineItem{{
				CatalogProductID: productID,
				SourceProductID:  "1005001",
				SourceURL:        "https://www.aliexpress.com/item/1005001.html",
				Name:             "Desk lamp",
				Quantity:         1,
			}},
			ShippingAddress: shippingAddress(),
		}, 3)
		require.NoError(t, err)
		item.CreatedAt = time.Now().Add(time.Duration(i-n) * time.Minute)
		require.NoError(t, queue.Create(ctx, item))
		items = append(items, item)
	}
	return items
}

func TestFulfillmentQueue_EnqueueOncePerOrder(t *testing.T) {
	db := NewTestDB(t)
	queue := persistence.NewGormFulfillmentQueueRepository(db.DB)
	tenantID := uuid.New()

	item := enqueueOrders(t, db, tenantID, 1)[0]

	dup, err := fulfillment.NewQueueItem(tenantID, item.OrderID, item.Payload, 3)
	require.NoError(t, err)
	assert.ErrorIs(t, queue.Create(context.Background(), dup), fulfillment.ErrAlreadyEnqueued)
}

func TestFulfillmentQueue_ConcurrentClaims(t *testing.T) {
	db := NewTestDB(t)
	queue := persistence.NewGormFulfillmentQueueRepository(db.DB)
	const items, workers = 12, 4

	enqueueOrders(t, db, uuid.New(), items)

	var (
		mu      sync.Mutex
		claimed = make(map[uuid.UUID]string)
		wg      sync.WaitGroup
	)
	for w := range workers {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			for {
				item, err := queue.ClaimNext(context.Background(), owner, 5*time.Minute)
				if err != nil {
					return
				}
				mu.Lock()
				if prev, ok := claimed[item.ID]; ok {
					t.Errorf("item %s claimed by %s and %s", item.ID, prev, owner)
				}
				claimed[item.ID] = owner
				mu.Unlock()
			}
		}(fmt.Sprintf("worker-%d", w))
	}
	wg.Wait()

	assert.Len(t, claimed, items)
	processing, err := queue.CountByStatus(context.Background(), fulfillment.StatusProcessing)
	require.NoError(t, err)
	assert.EqualValues(t, items, processing)
}

func TestFulfillmentQueue_LeaseLifecycle(t *testing.T) {
	db := NewTestDB(t)
	queue := persistence.NewGormFulfillmentQueueRepository(db.DB)
	orders := persistence.NewGormCustomerOrderRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	enqueueOrders(t, db, tenantID, 1)

	item, err := queue.ClaimNext(ctx, "worker-a", 50*time.Millisecond)
	require.NoError(t, err)

	t.Run("leased item is not claimable", func(t *testing.T) {
		_, err := queue.ClaimNext(ctx, "worker-b", time.Minute)
		assert.ErrorIs(t, err, fulfillment.ErrNoWork)
	})

	var stolen *fulfillment.QueueItem
	t.Run("expired lease is reclaimed", func(t *testing.T) {
		time.Sleep(100 * time.Millisecond)
		stolen, err = queue.ClaimNext(ctx, "worker-b", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, item.ID, stolen.ID)
		assert.Equal(t, "worker-b", stolen.LeaseOwner)
	})

	t.Run("previous owner loses the outcome", func(t *testing.T) {
		require.NoError(t, item.Complete(fulfillment.Confirmation{SourceOrderNumber: "AE-1"}, time.Now()))
		assert.ErrorIs(t, queue.SaveOutcome(ctx, item, "worker-a"), fulfillment.ErrLeaseLost)
		assert.ErrorIs(t, queue.ExtendLease(ctx, item.ID, "worker-a", time.Minute), fulfillment.ErrLeaseLost)
	})

	t.Run("current owner completes", func(t *testing.T) {
		require.NoError(t, queue.ExtendLease(ctx, stolen.ID, "worker-b", time.Minute))
		require.NoError(t, stolen.Complete(fulfillment.Confirmation{
			SourceOrderNumber: "AE-2",
			TrackingNumber:    "LP00123",
		}, time.Now()))
		require.NoError(t, queue.SaveOutcome(ctx, stolen, "worker-b"))
		require.NoError(t, orders.RecordFulfillment(ctx, tenantID, stolen.OrderID, order.Fulfillment{
			SourceOrderNumber: "AE-2",
			TrackingNumber:    "LP00123",
		}))

		stored, err := queue.FindByID(ctx, tenantID, stolen.ID)
		require.NoError(t, err)
		assert.Equal(t, fulfillment.StatusCompleted, stored.Status)
		assert.Equal(t, "AE-2", stored.SourceOrderNumber)
		assert.Empty(t, stored.LeaseOwner)

		o, err := orders.FindByID(ctx, tenantID, stolen.OrderID)
		require.NoError(t, err)
		assert.Equal(t, "LP00123", o.Fulfillment.TrackingNumber)
	})

	t.Run("other tenants cannot read the item", func(t *testing.T) {
		_, err := queue.FindByID(ctx, uuid.New(), stolen.ID)
		assert.Error(t, err)
	})
}
