package integration

import (
	"context"
	"strings"
	"testing"

	sourcingapp "github.com/dropship/backend/internal/application/sourcing"
	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/dropship/backend/internal/infrastructure/event"
	"github.com/dropship/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sourcingServices struct {
	imports   *sourcingapp.ImportService
	approvals *sourcingapp.ApprovalService
	catalog   *persistence.GormCatalogProductRepository
}

func newSourcingServices(db *TestDB) *sourcingServices {
	bus := event.NewInMemoryEventBus(zap.NewNop())
	products := persistence.NewGormImportedProductRepository(db.DB)
	return &sourcingServices{
		imports: sourcingapp.NewImportService(
			persistence.NewGormImportJobRepository(db.DB),
			products,
			bus,
			sourcingapp.DefaultImportConfig(),
			zap.NewNop(),
		),
		approvals: sourcingapp.NewApprovalService(products, bus, zap.NewNop()),
		catalog:   persistence.NewGormCatalogProductRepository(db.DB),
	}
}

func fixedMarkdown(value int64) *sourcing.PriceAdjustment {
	return &sourcing.PriceAdjustment{Type: sourcing.PriceAdjustmentFixed, Value: decimal.NewFromInt(value)}
}

func TestImport_NegativePriceIsPersisted(t *testing.T) {
	db := NewTestDB(t)
	svc := newSourcingServices(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("auto approved", func(t *testing.T) {
		result, err := svc.imports.ImportBatch(ctx, sourcingapp.ImportBatchInput{
			TenantID: tenantID,
			UserID:   uuid.New(),
			Products: []sourcing.RawProduct{{
				Name:      "Phone case",
				Price:     5,
				SourceURL: "https://www.aliexpress.com/item/1005002001.html",
			}},
			Settings: sourcing.ImportSettings{AutoApprove: true, PriceAdjustment: fixedMarkdown(-10)},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Successful)
		assert.Equal(t, 1, result.AutoApproved)
		assert.Empty(t, result.Errors)

		page, err := svc.approvals.List(ctx, tenantID, sourcing.ImportedProductFilter{}, 1, 20)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		imported := page.Items[0]
		assert.True(t, imported.NegativePrice)
		require.NotNil(t, imported.CatalogProductID)

		product, err := svc.catalog.FindByID(ctx, tenantID, *imported.CatalogProductID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("-5.00").Equal(product.Price), product.Price.String())
	})

	t.Run("approved later", func(t *testing.T) {
		result, err := svc.imports.ImportBatch(ctx, sourcingapp.ImportBatchInput{
			TenantID: tenantID,
			UserID:   uuid.New(),
			Products: []sourcing.RawProduct{{
				Name:      "Cable",
				Price:     2,
				SourceURL: "https://www.aliexpress.com/item/1005002002.html",
			}},
			Settings: sourcing.ImportSettings{PriceAdjustment: fixedMarkdown(-3)},
		})
		require.NoError(t, err)
		require.Equal(t, 1, result.PendingApproval)

		pending := sourcing.ApprovalPending
		page, err := svc.approvals.List(ctx, tenantID, sourcing.ImportedProductFilter{ApprovalStatus: &pending}, 1, 20)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)

		approved, err := svc.approvals.Approve(ctx, tenantID, page.Items[0].ID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, sourcing.ApprovalApproved, approved.ApprovalStatus)
		require.NotNil(t, approved.CatalogProductID)
	})
}

func TestCatalogSchema(t *testing.T) {
	db := NewTestDB(t)
	repo := persistence.NewGormCatalogProductRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	newProduct := func(t *testing.T, tenant uuid.UUID, name, url string) *catalog.Product {
		t.Helper()
		p, err := catalog.NewProduct(tenant, name, decimal.NewFromInt(10), "USD")
		require.NoError(t, err)
		p.SetSource(catalog.Provenance{Platform: "aliexpress", URL: url})
		return p
	}

	t.Run("long names fit", func(t *testing.T) {
		name := strings.Repeat("n", 500)
		p := newProduct(t, tenantID, name, "")
		require.NoError(t, repo.Create(ctx, p))

		stored, err := repo.FindByID(ctx, tenantID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, name, stored.Name)
	})

	t.Run("source url unique per tenant", func(t *testing.T) {
		url := "https://www.aliexpress.com/item/1005003001.html"
		require.NoError(t, repo.Create(ctx, newProduct(t, tenantID, "Lamp", url)))

		err := repo.Create(ctx, newProduct(t, tenantID, "Lamp again", url))
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)

		assert.NoError(t, repo.Create(ctx, newProduct(t, uuid.New(), "Lamp", url)))
	})

	t.Run("products without a source url do not collide", func(t *testing.T) {
		assert.NoError(t, repo.Create(ctx, newProduct(t, tenantID, "Handmade one", "")))
		assert.NoError(t, repo.Create(ctx, newProduct(t, tenantID, "Handmade two", "")))
	})
}
