package fulfillment

import (
	"context"
	"time"

	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueueService exposes the fulfillment queue to operators
type QueueService struct {
	queue  fulfillment.QueueRepository
	logger *zap.Logger
}

// NewQueueService creates a new QueueService
func NewQueueService(queue fulfillment.QueueRepository, logger *zap.Logger) *QueueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueService{queue: queue, logger: logger}
}

// List returns a page of queue items for a tenant
func (s *QueueService) List(ctx context.Context, tenantID uuid.UUID, in ListQueueInput) (*shared.Paginated[QueueItemResponse], error) {
	var filter fulfillment.QueueFilter
	if in.Status != "" {
		status := fulfillment.Status(in.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown queue status: "+in.Status)
		}
		filter.Status = &status
	}
	filter.OrderID = in.OrderID

	page, err := s.queue.FindAll(ctx, tenantID, filter, in.Page, in.PageSize)
	if err != nil {
		return nil, err
	}

	items := make([]QueueItemResponse, len(page.Items))
	for i := range page.Items {
		items[i] = ToQueueItemResponse(&page.Items[i])
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// Get returns one queue item
func (s *QueueService) Get(ctx context.Context, tenantID, id uuid.UUID) (*QueueItemResponse, error) {
	item, err := s.queue.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToQueueItemResponse(item)
	return &resp, nil
}

// Retry puts a terminally failed item back in the queue with a fresh retry budget
func (s *QueueService) Retry(ctx context.Context, tenantID, id uuid.UUID) (*QueueItemResponse, error) {
	item, err := s.queue.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := item.Requeue(time.Now()); err != nil {
		return nil, err
	}
	if err := s.queue.Save(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("Queue item requeued",
		zap.String("queue_item_id", item.ID.String()),
		zap.String("tenant_id", tenantID.String()),
	)
	resp := ToQueueItemResponse(item)
	return &resp, nil
}
