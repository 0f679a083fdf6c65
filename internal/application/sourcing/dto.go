package sourcing

import (
	"time"

	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportBatchInput is a batch of scraped records submitted by a tenant user
type ImportBatchInput struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Products []sourcing.RawProduct
	Settings sourcing.ImportSettings
}

// ImportResult summarizes a finished batch import
type ImportResult struct {
	ImportJobID     uuid.UUID             `json:"import_job_id"`
	Status          sourcing.ImportStatus `json:"status"`
	TotalProducts   int                   `json:"total_products"`
	Processed       int                   `json:"processed"`
	Successful      int                   `json:"successful"`
	Failed          int                   `json:"failed"`
	Skipped         int                   `json:"skipped"`
	Errors          []string              `json:"errors"`
	AutoApproved    int                   `json:"auto_approved"`
	PendingApproval int                   `json:"pending_approval"`
}

// ImportJobResponse is the API view of an import job
type ImportJobResponse struct {
	ID          uuid.UUID             `json:"id"`
	Status      sourcing.ImportStatus `json:"status"`
	Total       int                   `json:"total"`
	Processed   int                   `json:"processed"`
	Successful  int                   `json:"successful"`
	Failed      int                   `json:"failed"`
	Skipped     int                   `json:"skipped"`
	Errors      []string              `json:"errors"`
	CreatedBy   uuid.UUID             `json:"created_by"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

// ToImportJobResponse converts a domain job to its API view
func ToImportJobResponse(j *sourcing.ImportJob) ImportJobResponse {
	errs := j.Errors
	if errs == nil {
		errs = []string{}
	}
	return ImportJobResponse{
		ID:          j.ID,
		Status:      j.Status,
		Total:       j.Total,
		Processed:   j.Processed,
		Successful:  j.Successful,
		Failed:      j.Failed,
		Skipped:     j.Skipped,
		Errors:      errs,
		CreatedBy:   j.CreatedBy,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

// ImportedProductResponse is the API view of an imported product
type ImportedProductResponse struct {
	ID               uuid.UUID               `json:"id"`
	JobID            uuid.UUID               `json:"job_id"`
	SourceURL        string                  `json:"source_url"`
	SourcePlatform   string                  `json:"source_platform"`
	SourceProductID  string                  `json:"source_product_id"`
	Name             string                  `json:"name"`
	Price            decimal.Decimal         `json:"price"`
	OriginalPrice    decimal.Decimal         `json:"original_price"`
	Currency         string                  `json:"currency"`
	Images           []string                `json:"images"`
	NegativePrice    bool                    `json:"negative_price,omitempty"`
	ApprovalStatus   sourcing.ApprovalStatus `json:"approval_status"`
	CatalogProductID *uuid.UUID              `json:"catalog_product_id,omitempty"`
	ApprovedAt       *time.Time              `json:"approved_at,omitempty"`
	ApprovedBy       *uuid.UUID              `json:"approved_by,omitempty"`
	RejectedAt       *time.Time              `json:"rejected_at,omitempty"`
	RejectReason     string                  `json:"reject_reason,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
}

// ToImportedProductResponse converts a domain imported product to its API view
func ToImportedProductResponse(p *sourcing.ImportedProduct) ImportedProductResponse {
	return ImportedProductResponse{
		ID:               p.ID,
		JobID:            p.JobID,
		SourceURL:        p.SourceURL,
		SourcePlatform:   p.SourcePlatform,
		SourceProductID:  p.SourceProductID,
		Name:             p.ProcessedData.Name,
		Price:            p.ProcessedData.Price,
		OriginalPrice:    p.ProcessedData.OriginalPrice,
		Currency:         p.ProcessedData.Currency,
		Images:           p.ProcessedData.Images,
		NegativePrice:    p.ProcessedData.NegativePrice,
		ApprovalStatus:   p.ApprovalStatus,
		CatalogProductID: p.CatalogProductID,
		ApprovedAt:       p.ApprovedAt,
		ApprovedBy:       p.ApprovedBy,
		RejectedAt:       p.RejectedAt,
		RejectReason:     p.RejectReason,
		CreatedAt:        p.CreatedAt,
	}
}

// BulkApproveOutcome is the result of approving one id in a bulk request
type BulkApproveOutcome struct {
	ID               uuid.UUID  `json:"id"`
	Approved         bool       `json:"approved"`
	CatalogProductID *uuid.UUID `json:"catalog_product_id,omitempty"`
	Error            string     `json:"error,omitempty"`
}
