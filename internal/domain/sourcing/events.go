package sourcing

import (
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	EventTypeImportJobCompleted      = "ImportJobCompleted"
	EventTypeImportedProductReviewed = "ImportedProductReviewed"
	AggregateTypeImportJob           = "ImportJob"
	AggregateTypeImportedProduct     = "ImportedProduct"
)

// ImportJobCompletedEvent is raised when a batch import finishes
type ImportJobCompletedEvent struct {
	shared.BaseDomainEvent
	Status     ImportStatus `json:"status"`
	Total      int          `json:"total"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
}

// NewImportJobCompletedEvent creates an ImportJobCompletedEvent
func NewImportJobCompletedEvent(j *ImportJob) *ImportJobCompletedEvent {
	return &ImportJobCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeImportJobCompleted, AggregateTypeImportJob, j.ID, j.TenantID),
		Status:          j.Status,
		Total:           j.Total,
		Successful:      j.Successful,
		Failed:          j.Failed,
		Skipped:         j.Skipped,
	}
}

// ImportedProductReviewedEvent is raised when an imported product is approved or rejected
type ImportedProductReviewedEvent struct {
	shared.BaseDomainEvent
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	SourceURL      string         `json:"source_url"`
	ReviewedBy     *uuid.UUID     `json:"reviewed_by,omitempty"`
}

// NewImportedProductReviewedEvent creates an ImportedProductReviewedEvent
func NewImportedProductReviewedEvent(p *ImportedProduct) *ImportedProductReviewedEvent {
	reviewer := p.ApprovedBy
	if p.ApprovalStatus == ApprovalRejected {
		reviewer = p.RejectedBy
	}
	return &ImportedProductReviewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeImportedProductReviewed, AggregateTypeImportedProduct, p.ID, p.TenantID),
		ApprovalStatus:  p.ApprovalStatus,
		SourceURL:       p.SourceURL,
		ReviewedBy:      reviewer,
	}
}
