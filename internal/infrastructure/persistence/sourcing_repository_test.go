package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newImportedProduct(t *testing.T, tenantID, jobID uuid.UUID, url string) *sourcing.ImportedProduct {
	t.Helper()
	raw := sourcing.RawProduct{
		Name:           "Desk lamp",
		Price:          12.5,
		Images:         []string{"https://img.example.com/a.jpg"},
		SourceURL:      url,
		SourcePlatform: "aliexpress",
	}
	processed, err := sourcing.Transform(raw, nil)
	require.NoError(t, err)
	p, err := sourcing.NewImportedProduct(tenantID, jobID, raw, processed)
	require.NoError(t, err)
	return p
}

func countCatalogProducts(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.CatalogProductModel{}).Count(&n).Error)
	return n
}

func TestGormImportJobRepository_Progress(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormImportJobRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	job, err := sourcing.NewImportJob(tenantID, uuid.New(), 4)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, job))

	for _, outcome := range []sourcing.ItemOutcome{sourcing.ItemSucceeded, sourcing.ItemSucceeded, sourcing.ItemFailed, sourcing.ItemSkipped} {
		require.NoError(t, repo.IncrementProgress(ctx, tenantID, job.ID, outcome))
	}

	stored, err := repo.FindByID(ctx, tenantID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Processed)
	assert.Equal(t, 2, stored.Successful)
	assert.Equal(t, 1, stored.Failed)
	assert.Equal(t, 1, stored.Skipped)
	assert.Equal(t, sourcing.ImportStatusProcessing, stored.Status)

	t.Run("unknown outcome is rejected", func(t *testing.T) {
		err := repo.IncrementProgress(ctx, tenantID, job.ID, sourcing.ItemOutcome("lost"))
		assert.Error(t, err)
	})

	t.Run("wrong tenant is not found", func(t *testing.T) {
		err := repo.IncrementProgress(ctx, uuid.New(), job.ID, sourcing.ItemSucceeded)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormImportJobRepository_Finalize(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormImportJobRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	job, err := sourcing.NewImportJob(tenantID, uuid.New(), 2)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, job))

	require.NoError(t, job.Record(sourcing.ItemSucceeded))
	require.NoError(t, job.RecordFailure(1, errors.New("price missing")))
	require.NoError(t, job.Finalize())
	require.NoError(t, repo.Finalize(ctx, job))

	stored, err := repo.FindByID(ctx, tenantID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, sourcing.ImportStatusCompleted, stored.Status)
	assert.Equal(t, []string{"item 2: price missing"}, stored.Errors)
	require.NotNil(t, stored.CompletedAt)

	t.Run("lists jobs for tenant", func(t *testing.T) {
		status := sourcing.ImportStatusCompleted
		result, err := repo.FindAll(ctx, tenantID, sourcing.ImportJobFilter{Status: &status}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Total)

		other, err := repo.FindAll(ctx, uuid.New(), sourcing.ImportJobFilter{}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(0), other.Total)
	})
}

func TestGormImportedProductRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormImportedProductRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	jobID := uuid.New()
	url := "https://www.aliexpress.com/item/1005001.html"

	p := newImportedProduct(t, tenantID, jobID, url)
	require.NoError(t, repo.Create(ctx, p, nil))

	exists, err := repo.ExistsBySourceURL(ctx, tenantID, url)
	require.NoError(t, err)
	assert.True(t, exists)

	t.Run("duplicate source URL in the same tenant", func(t *testing.T) {
		dup := newImportedProduct(t, tenantID, jobID, url)
		require.NoError(t, dup.Approve(uuid.New()))
		published, err := dup.Publish()
		require.NoError(t, err)

		err = repo.Create(ctx, dup, published)
		assert.ErrorIs(t, err, sourcing.ErrDuplicateSource)
		assert.Equal(t, int64(0), countCatalogProducts(t, db), "catalog insert must roll back")
	})

	t.Run("same source URL in another tenant", func(t *testing.T) {
		other := newImportedProduct(t, uuid.New(), jobID, url)
		assert.NoError(t, repo.Create(ctx, other, nil))
	})

	t.Run("round trips raw and processed data", func(t *testing.T) {
		stored, err := repo.FindByID(ctx, tenantID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Desk lamp", stored.RawData.Name)
		assert.Equal(t, "USD", stored.ProcessedData.Currency)
		assert.Equal(t, "12.5", stored.ProcessedData.Price.String())
		assert.Equal(t, sourcing.ApprovalPending, stored.ApprovalStatus)
		assert.Equal(t, "1005001", stored.SourceProductID)
	})
}

func TestGormImportedProductRepository_CreatePublished(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormImportedProductRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	p := newImportedProduct(t, tenantID, uuid.New(), "https://www.aliexpress.com/item/1005002.html")
	require.NoError(t, p.Approve(uuid.New()))
	published, err := p.Publish()
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, p, published))
	assert.Equal(t, int64(1), countCatalogProducts(t, db))

	stored, err := repo.FindByID(ctx, tenantID, p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CatalogProductID)
	assert.Equal(t, published.ID, *stored.CatalogProductID)
}

func TestGormImportedProductRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormImportedProductRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	p := newImportedProduct(t, tenantID, uuid.New(), "https://www.aliexpress.com/item/1005003.html")
	require.NoError(t, repo.Create(ctx, p, nil))

	first, err := repo.FindByID(ctx, tenantID, p.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, tenantID, p.ID)
	require.NoError(t, err)

	require.NoError(t, first.Approve(uuid.New()))
	published, err := first.Publish()
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, first, published))

	t.Run("approval is persisted with its catalog product", func(t *testing.T) {
		stored, err := repo.FindByID(ctx, tenantID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, sourcing.ApprovalApproved, stored.ApprovalStatus)
		assert.NotNil(t, stored.ApprovedAt)
		assert.Equal(t, int64(1), countCatalogProducts(t, db))
	})

	t.Run("stale reviewer loses and leaves no catalog product", func(t *testing.T) {
		require.NoError(t, second.Approve(uuid.New()))
		late, err := second.Publish()
		require.NoError(t, err)

		err = repo.Update(ctx, second, late)
		assert.ErrorIs(t, err, sourcing.ErrInvalidApprovalTransition)
		assert.Equal(t, int64(1), countCatalogProducts(t, db))
	})

	t.Run("filters by approval status", func(t *testing.T) {
		approved := sourcing.ApprovalApproved
		result, err := repo.FindAll(ctx, tenantID, sourcing.ImportedProductFilter{ApprovalStatus: &approved}, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Total)

		pending := sourcing.ApprovalPending
		result, err = repo.FindAll(ctx, tenantID, sourcing.ImportedProductFilter{ApprovalStatus: &pending}, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Total)
	})
}
