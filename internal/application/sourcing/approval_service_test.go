package sourcing

import (
	"context"
	"testing"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingProduct(t *testing.T, tenantID uuid.UUID) *sourcing.ImportedProduct {
	t.Helper()
	raw := sourcing.RawProduct{
		Name:           "Lamp",
		Price:          19.99,
		SourceURL:      "https://www.aliexpress.com/item/1005009999.html",
		SourcePlatform: "aliexpress",
	}
	data, err := sourcing.Transform(raw, nil)
	require.NoError(t, err)
	p, err := sourcing.NewImportedProduct(tenantID, uuid.New(), raw, data)
	require.NoError(t, err)
	return p
}

func TestApprovalService_Approve(t *testing.T) {
	tenantID, userID := uuid.New(), uuid.New()
	p := pendingProduct(t, tenantID)

	repo := new(MockImportedProductRepository)
	repo.On("FindByID", mock.Anything, tenantID, p.ID).Return(p, nil)
	repo.On("Update", mock.Anything, p, mock.MatchedBy(func(c *catalog.Product) bool {
		return c != nil && c.Source.URL == p.SourceURL && c.TenantID == tenantID
	})).Return(nil)

	publisher := &recordingPublisher{}
	svc := NewApprovalService(repo, publisher, newTestLogger())

	resp, err := svc.Approve(context.Background(), tenantID, p.ID, userID)
	require.NoError(t, err)

	assert.Equal(t, sourcing.ApprovalApproved, resp.ApprovalStatus)
	require.NotNil(t, resp.CatalogProductID)
	require.NotNil(t, resp.ApprovedBy)
	assert.Equal(t, userID, *resp.ApprovedBy)
	assert.NotNil(t, resp.ApprovedAt)
	assert.ElementsMatch(t, []string{sourcing.EventTypeImportedProductReviewed, catalog.EventTypeProductCreated}, publisher.types())
	repo.AssertExpectations(t)
}

func TestApprovalService_ApproveTerminalIsRejected(t *testing.T) {
	tenantID := uuid.New()

	tests := []struct {
		name   string
		status func(p *sourcing.ImportedProduct)
	}{
		{"already approved", func(p *sourcing.ImportedProduct) { _ = p.Approve(uuid.New()) }},
		{"already rejected", func(p *sourcing.ImportedProduct) { _ = p.Reject(uuid.New(), "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pendingProduct(t, tenantID)
			tt.status(p)

			repo := new(MockImportedProductRepository)
			repo.On("FindByID", mock.Anything, tenantID, p.ID).Return(p, nil)
			svc := NewApprovalService(repo, nil, newTestLogger())

			_, err := svc.Approve(context.Background(), tenantID, p.ID, uuid.New())
			assert.ErrorIs(t, err, sourcing.ErrInvalidApprovalTransition)

			_, err = svc.Reject(context.Background(), tenantID, p.ID, uuid.New(), "late")
			assert.ErrorIs(t, err, sourcing.ErrInvalidApprovalTransition)

			repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestApprovalService_Reject(t *testing.T) {
	tenantID, userID := uuid.New(), uuid.New()
	p := pendingProduct(t, tenantID)

	repo := new(MockImportedProductRepository)
	repo.On("FindByID", mock.Anything, tenantID, p.ID).Return(p, nil)
	repo.On("Update", mock.Anything, p, (*catalog.Product)(nil)).Return(nil)

	svc := NewApprovalService(repo, nil, newTestLogger())
	resp, err := svc.Reject(context.Background(), tenantID, p.ID, userID, "counterfeit")
	require.NoError(t, err)

	assert.Equal(t, sourcing.ApprovalRejected, resp.ApprovalStatus)
	assert.Equal(t, "counterfeit", resp.RejectReason)
	assert.Nil(t, resp.CatalogProductID)
	repo.AssertExpectations(t)
}

func TestApprovalService_NotFound(t *testing.T) {
	repo := new(MockImportedProductRepository)
	repo.On("FindByID", mock.Anything, mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)

	svc := NewApprovalService(repo, nil, newTestLogger())
	_, err := svc.Approve(context.Background(), uuid.New(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApprovalService_ConcurrentDecisionLosesRace(t *testing.T) {
	tenantID := uuid.New()
	p := pendingProduct(t, tenantID)

	repo := new(MockImportedProductRepository)
	repo.On("FindByID", mock.Anything, tenantID, p.ID).Return(p, nil)
	repo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(sourcing.ErrInvalidApprovalTransition)

	svc := NewApprovalService(repo, nil, newTestLogger())
	_, err := svc.Approve(context.Background(), tenantID, p.ID, uuid.New())
	assert.ErrorIs(t, err, sourcing.ErrInvalidApprovalTransition)
}

func TestApprovalService_BulkApprove(t *testing.T) {
	tenantID := uuid.New()
	products := newMemoryImportedProducts()

	a := pendingProduct(t, tenantID)
	b := pendingProduct(t, tenantID)
	b.SourceURL = "https://www.aliexpress.com/item/1005008888.html"
	require.NoError(t, products.Create(context.Background(), a, nil))
	require.NoError(t, products.Create(context.Background(), b, nil))
	missing := uuid.New()

	svc := NewApprovalService(products, nil, newTestLogger())
	outcomes := svc.BulkApprove(context.Background(), tenantID, []uuid.UUID{a.ID, missing, b.ID, a.ID}, uuid.New())

	require.Len(t, outcomes, 4)
	assert.True(t, outcomes[0].Approved)
	assert.NotNil(t, outcomes[0].CatalogProductID)
	assert.False(t, outcomes[1].Approved)
	assert.NotEmpty(t, outcomes[1].Error)
	assert.True(t, outcomes[2].Approved)
	assert.False(t, outcomes[3].Approved, "second approval of the same id is refused")
	assert.Len(t, products.catalog, 2)
}
