package sourcing

import (
	"context"
	"errors"
	"sync"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockImportJobRepository is a mock implementation of sourcing.ImportJobRepository
type MockImportJobRepository struct {
	mock.Mock
}

func (m *MockImportJobRepository) Create(ctx context.Context, job *sourcing.ImportJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockImportJobRepository) IncrementProgress(ctx context.Context, tenantID, jobID uuid.UUID, outcome sourcing.ItemOutcome) error {
	args := m.Called(ctx, tenantID, jobID, outcome)
	return args.Error(0)
}

func (m *MockImportJobRepository) Finalize(ctx context.Context, job *sourcing.ImportJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockImportJobRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sourcing.ImportJob, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sourcing.ImportJob), args.Error(1)
}

func (m *MockImportJobRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter sourcing.ImportJobFilter, page, pageSize int) (*shared.Paginated[sourcing.ImportJob], error) {
	args := m.Called(ctx, tenantID, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[sourcing.ImportJob]), args.Error(1)
}

// MockImportedProductRepository is a mock implementation of sourcing.ImportedProductRepository
type MockImportedProductRepository struct {
	mock.Mock
}

func (m *MockImportedProductRepository) ExistsBySourceURL(ctx context.Context, tenantID uuid.UUID, sourceURL string) (bool, error) {
	args := m.Called(ctx, tenantID, sourceURL)
	return args.Bool(0), args.Error(1)
}

func (m *MockImportedProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sourcing.ImportedProduct, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sourcing.ImportedProduct), args.Error(1)
}

func (m *MockImportedProductRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter sourcing.ImportedProductFilter, page, pageSize int) (*shared.Paginated[sourcing.ImportedProduct], error) {
	args := m.Called(ctx, tenantID, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[sourcing.ImportedProduct]), args.Error(1)
}

func (m *MockImportedProductRepository) Create(ctx context.Context, product *sourcing.ImportedProduct, published *catalog.Product) error {
	args := m.Called(ctx, product, published)
	return args.Error(0)
}

func (m *MockImportedProductRepository) Update(ctx context.Context, product *sourcing.ImportedProduct, published *catalog.Product) error {
	args := m.Called(ctx, product, published)
	return args.Error(0)
}

// memoryImportedProducts is an in-memory sourcing.ImportedProductRepository
// that enforces the per-tenant source URL uniqueness and can be told to fail
// writes for specific URLs.
type memoryImportedProducts struct {
	mu        sync.Mutex
	rows      map[string]*sourcing.ImportedProduct
	catalog   []*catalog.Product
	failWrite map[string]error
}

func newMemoryImportedProducts() *memoryImportedProducts {
	return &memoryImportedProducts{
		rows:      make(map[string]*sourcing.ImportedProduct),
		failWrite: make(map[string]error),
	}
}

func memKey(tenantID uuid.UUID, url string) string {
	return tenantID.String() + "|" + url
}

func (r *memoryImportedProducts) ExistsBySourceURL(_ context.Context, tenantID uuid.UUID, sourceURL string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[memKey(tenantID, sourceURL)]
	return ok, nil
}

func (r *memoryImportedProducts) FindByID(_ context.Context, tenantID, id uuid.UUID) (*sourcing.ImportedProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.ID == id && p.TenantID == tenantID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryImportedProducts) FindAll(_ context.Context, tenantID uuid.UUID, _ sourcing.ImportedProductFilter, page, pageSize int) (*shared.Paginated[sourcing.ImportedProduct], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]sourcing.ImportedProduct, 0)
	for _, p := range r.rows {
		if p.TenantID == tenantID {
			items = append(items, *p)
		}
	}
	out := shared.NewPaginated(items, int64(len(items)), page, pageSize)
	return &out, nil
}

func (r *memoryImportedProducts) Create(_ context.Context, product *sourcing.ImportedProduct, published *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failWrite[product.SourceURL]; ok {
		return err
	}
	key := memKey(product.TenantID, product.SourceURL)
	if _, ok := r.rows[key]; ok {
		return sourcing.ErrDuplicateSource
	}
	cp := *product
	r.rows[key] = &cp
	if published != nil {
		r.catalog = append(r.catalog, published)
	}
	return nil
}

func (r *memoryImportedProducts) Update(_ context.Context, product *sourcing.ImportedProduct, published *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memKey(product.TenantID, product.SourceURL)
	stored, ok := r.rows[key]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.ApprovalStatus != sourcing.ApprovalPending {
		return sourcing.ErrInvalidApprovalTransition
	}
	cp := *product
	r.rows[key] = &cp
	if published != nil {
		r.catalog = append(r.catalog, published)
	}
	return nil
}

func (r *memoryImportedProducts) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

var errDatabaseDown = errors.New("database is down")
