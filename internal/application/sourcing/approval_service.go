package sourcing

import (
	"context"
	"fmt"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApprovalService moves pending imported products to approved or rejected.
// Both are terminal: a second decision on the same product returns
// sourcing.ErrInvalidApprovalTransition.
type ApprovalService struct {
	productRepo sourcing.ImportedProductRepository
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	productRepo sourcing.ImportedProductRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		productRepo: productRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// Approve approves a pending product and publishes it to the catalog
func (s *ApprovalService) Approve(ctx context.Context, tenantID, id, userID uuid.UUID) (*ImportedProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := p.Approve(userID); err != nil {
		return nil, err
	}
	published, err := p.Publish()
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, p, published); err != nil {
		return nil, fmt.Errorf("failed to approve imported product: %w", err)
	}

	events := append(p.GetDomainEvents(), published.GetDomainEvents()...)
	p.ClearDomainEvents()
	published.ClearDomainEvents()
	s.publish(ctx, events)

	s.logger.Info("Imported product approved",
		zap.String("tenant_id", tenantID.String()),
		zap.String("imported_product_id", id.String()),
		zap.String("catalog_product_id", published.ID.String()),
		zap.String("approved_by", userID.String()),
	)

	resp := ToImportedProductResponse(p)
	return &resp, nil
}

// Reject rejects a pending product
func (s *ApprovalService) Reject(ctx context.Context, tenantID, id, userID uuid.UUID, reason string) (*ImportedProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := p.Reject(userID, reason); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, p, nil); err != nil {
		return nil, fmt.Errorf("failed to reject imported product: %w", err)
	}

	s.publish(ctx, p.GetDomainEvents())
	p.ClearDomainEvents()

	s.logger.Info("Imported product rejected",
		zap.String("tenant_id", tenantID.String()),
		zap.String("imported_product_id", id.String()),
		zap.String("rejected_by", userID.String()),
	)

	resp := ToImportedProductResponse(p)
	return &resp, nil
}

// BulkApprove approves each id independently and reports per-id outcomes
func (s *ApprovalService) BulkApprove(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, userID uuid.UUID) []BulkApproveOutcome {
	outcomes := make([]BulkApproveOutcome, 0, len(ids))
	for _, id := range ids {
		resp, err := s.Approve(ctx, tenantID, id, userID)
		if err != nil {
			outcomes = append(outcomes, BulkApproveOutcome{ID: id, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, BulkApproveOutcome{ID: id, Approved: true, CatalogProductID: resp.CatalogProductID})
	}
	return outcomes
}

// Get returns an imported product of the tenant
func (s *ApprovalService) Get(ctx context.Context, tenantID, id uuid.UUID) (*ImportedProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToImportedProductResponse(p)
	return &resp, nil
}

// List lists imported products of the tenant
func (s *ApprovalService) List(ctx context.Context, tenantID uuid.UUID, filter sourcing.ImportedProductFilter, page, pageSize int) (*shared.Paginated[ImportedProductResponse], error) {
	result, err := s.productRepo.FindAll(ctx, tenantID, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	items := make([]ImportedProductResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, ToImportedProductResponse(&result.Items[i]))
	}
	out := shared.NewPaginated(items, result.Total, result.Page, result.PageSize)
	return &out, nil
}

func (s *ApprovalService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish approval events", zap.Error(err))
	}
}
