package fulfillment

import (
	"context"
	"errors"
	"runtime/pprof"
	"sort"
	"sync"
	"time"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/order"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memQueue is an in-memory QueueRepository with the same claim semantics
// as the database one
type memQueue struct {
	mu     sync.Mutex
	items  []*fulfillment.QueueItem
	now    func() time.Time
	claims int
}

func newMemQueue(now func() time.Time) *memQueue {
	return &memQueue{now: now}
}

func (q *memQueue) Create(ctx context.Context, item *fulfillment.QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, it := range q.items {
		if it.OrderID == item.OrderID {
			return fulfillment.ErrAlreadyEnqueued
		}
	}
	c := *item
	q.items = append(q.items, &c)
	return nil
}

func (q *memQueue) ClaimNext(ctx context.Context, owner string, leaseTTL time.Duration) (*fulfillment.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.claims++
	now := q.now()
	for _, it := range q.items {
		if !it.IsEligible(now) {
			continue
		}
		err := it.Claim(owner, leaseTTL, now)
		if err != nil && !errors.Is(err, fulfillment.ErrAttemptsExhausted) {
			return nil, err
		}
		c := *it
		return &c, err
	}
	return nil, fulfillment.ErrNoWork
}

func (q *memQueue) SaveOutcome(ctx context.Context, item *fulfillment.QueueItem, owner string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.items {
		if it.ID != item.ID {
			continue
		}
		if it.Status != fulfillment.StatusProcessing || it.LeaseOwner != owner {
			return fulfillment.ErrLeaseLost
		}
		c := *item
		q.items[i] = &c
		return nil
	}
	return shared.ErrNotFound
}

func (q *memQueue) ExtendLease(ctx context.Context, id uuid.UUID, owner string, leaseTTL time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, it := range q.items {
		if it.ID == id && it.LeaseOwner == owner {
			exp := q.now().Add(leaseTTL)
			it.LeaseExpiresAt = &exp
			return nil
		}
	}
	return fulfillment.ErrLeaseLost
}

func (q *memQueue) Save(ctx context.Context, item *fulfillment.QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.items {
		if it.ID == item.ID {
			c := *item
			q.items[i] = &c
			return nil
		}
	}
	return shared.ErrNotFound
}

func (q *memQueue) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*fulfillment.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, it := range q.items {
		if it.ID == id && it.TenantID == tenantID {
			c := *it
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (q *memQueue) FindAll(ctx context.Context, tenantID uuid.UUID, filter fulfillment.QueueFilter, page, pageSize int) (*shared.Paginated[fulfillment.QueueItem], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []fulfillment.QueueItem
	for _, it := range q.items {
		if it.TenantID != tenantID {
			continue
		}
		if filter.Status != nil && it.Status != *filter.Status {
			continue
		}
		if filter.OrderID != nil && it.OrderID != *filter.OrderID {
			continue
		}
		out = append(out, *it)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	p := shared.NewPaginated(out, int64(len(out)), page, pageSize)
	return &p, nil
}

func (q *memQueue) CountByStatus(ctx context.Context, status fulfillment.Status) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var n int64
	for _, it := range q.items {
		if it.Status == status {
			n++
		}
	}
	return n, nil
}

func (q *memQueue) get(id uuid.UUID) fulfillment.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, it := range q.items {
		if it.ID == id {
			return *it
		}
	}
	return fulfillment.QueueItem{}
}

func (q *memQueue) claimCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.claims
}

// fakeSite records what a placement did to the storefront
type fakeSite struct {
	mu          sync.Mutex
	cart        []fulfillment.LineItem
	address     valueobject.ShippingAddress
	calls       []string
	addCalls    int
	failAddCall map[int]error
	placeErr    error
	orderNumber string
	closed      int
	// placeLabels are the pprof labels seen by PlaceOrder
	placeLabels map[string]string

	entered chan struct{}
	release chan struct{}
}

func newFakeSite() *fakeSite {
	return &fakeSite{orderNumber: "8100123456789", failAddCall: map[int]error{}}
}

func (s *fakeSite) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeSite) ClearCart(ctx context.Context) error {
	s.record("clear_cart")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	return nil
}

func (s *fakeSite) AddToCart(ctx context.Context, item fulfillment.LineItem) error {
	s.record("add:" + item.SourceProductID)
	if s.entered != nil {
		select {
		case s.entered <- struct{}{}:
		default:
		}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	call := s.addCalls
	s.addCalls++
	if err, ok := s.failAddCall[call]; ok {
		return err
	}
	s.cart = append(s.cart, item)
	return nil
}

func (s *fakeSite) OpenCartAndCheckout(ctx context.Context) error {
	s.record("open_cart")
	return nil
}

func (s *fakeSite) FillShippingAddress(ctx context.Context, address valueobject.ShippingAddress) error {
	s.record("fill_address")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = address
	return nil
}

func (s *fakeSite) PlaceOrder(ctx context.Context) (*fulfillment.Confirmation, error) {
	s.record("place_order")
	labels := map[string]string{}
	pprof.ForLabels(ctx, func(key, value string) bool {
		labels[key] = value
		return true
	})
	s.mu.Lock()
	s.placeLabels = labels
	s.mu.Unlock()
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &fulfillment.Confirmation{
		SourceOrderNumber: s.orderNumber,
		TrackingNumber:    "LP00112233",
		TrackingURL:       "https://track.example.com/LP00112233",
	}, nil
}

func (s *fakeSite) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("png"), nil
}

func (s *fakeSite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSite) cartItems() []fulfillment.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fulfillment.LineItem(nil), s.cart...)
}

func (s *fakeSite) callLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type fakeSites struct {
	site    *fakeSite
	openErr error
}

func (f *fakeSites) Open(ctx context.Context) (SourceSite, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.site, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}

type memScreenshots struct {
	mu   sync.Mutex
	keys []string
}

func (m *memScreenshots) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return nil
}

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

type fakeProducts struct {
	products []catalog.Product
	err      error
}

func (f *fakeProducts) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id && f.products[i].TenantID == tenantID {
			return &f.products[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeProducts) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []catalog.Product
	for _, p := range f.products {
		if p.TenantID == tenantID && want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[catalog.Product], error) {
	p := shared.NewPaginated(f.products, int64(len(f.products)), 1, len(f.products))
	return &p, nil
}

func (f *fakeProducts) Create(ctx context.Context, p *catalog.Product) error {
	f.products = append(f.products, *p)
	return nil
}

type memGuard struct {
	mu       sync.Mutex
	held     map[uuid.UUID]bool
	err      error
	released []uuid.UUID
}

func newMemGuard() *memGuard {
	return &memGuard{held: map[uuid.UUID]bool{}}
}

func (g *memGuard) Acquire(ctx context.Context, orderID uuid.UUID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.held[orderID] {
		return false, nil
	}
	g.held[orderID] = true
	return true, nil
}

func (g *memGuard) Release(ctx context.Context, orderID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, orderID)
	g.released = append(g.released, orderID)
	return nil
}

var errSiteDown = errors.New("connection reset by peer")

func testAddress() valueobject.ShippingAddress {
	return valueobject.ShippingAddress{
		FullName:   "Ada Lovelace",
		Phone:      "+44 20 7946 0000",
		Line1:      "12 St James's Square",
		City:       "London",
		PostalCode: "SW1Y 4JH",
		Country:    "GB",
	}
}

func testPayload(n int) fulfillment.Payload {
	items := make([]fulfillment.LineItem, n)
	for i := range items {
		id := uuid.New()
		items[i] = fulfillment.LineItem{
			CatalogProductID: id,
			SourceProductID:  "100500" + string(rune('1'+i)),
			SourceURL:        "https://www.aliexpress.com/item/100500" + string(rune('1'+i)) + ".html",
			Quantity:         i + 1,
		}
	}
	return fulfillment.Payload{Items: items, ShippingAddress: testAddress()}
}
