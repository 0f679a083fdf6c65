package dto

import (
	sourcingapp "github.com/dropship/backend/internal/application/sourcing"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportProductsRequest is a batch of scraped records. Individual records are
// not validated here; a bad record fails on its own without rejecting the batch.
type ImportProductsRequest struct {
	Products []sourcing.RawProduct `json:"products" binding:"required"`
	ImportSettings ImportSettingsRequest `json:"import_settings"`
}

// ImportSettingsRequest holds the per-batch import options
type ImportSettingsRequest struct {
	AutoApprove     bool                    `json:"auto_approve"`
	PriceAdjustment *PriceAdjustmentRequest `json:"price_adjustment"`
}

// PriceAdjustmentRequest is a markup applied to every record of the batch
type PriceAdjustmentRequest struct {
	Type  string          `json:"type" binding:"required,price_adjustment_type"`
	Value decimal.Decimal `json:"value"`
}

// ToSettings converts the request options to domain import settings
func (r ImportSettingsRequest) ToSettings() sourcing.ImportSettings {
	settings := sourcing.ImportSettings{AutoApprove: r.AutoApprove}
	if r.PriceAdjustment != nil {
		settings.PriceAdjustment = &sourcing.PriceAdjustment{
			Type:  sourcing.PriceAdjustmentType(r.PriceAdjustment.Type),
			Value: r.PriceAdjustment.Value,
		}
	}
	return settings
}

// ListImportJobsRequest filters the import job list
type ListImportJobsRequest struct {
	ListRequest
	Status string `form:"status" binding:"omitempty,oneof=processing completed failed"`
}

// Filter converts the query to a repository filter
func (r ListImportJobsRequest) Filter() sourcing.ImportJobFilter {
	var filter sourcing.ImportJobFilter
	if r.Status != "" {
		status := sourcing.ImportStatus(r.Status)
		filter.Status = &status
	}
	return filter
}

// ListImportedProductsRequest filters the imported product list
type ListImportedProductsRequest struct {
	ListRequest
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	JobID  string `form:"job_id" binding:"omitempty,uuid"`
}

// Filter converts the query to a repository filter
func (r ListImportedProductsRequest) Filter() sourcing.ImportedProductFilter {
	var filter sourcing.ImportedProductFilter
	if r.Status != "" {
		status := sourcing.ApprovalStatus(r.Status)
		filter.ApprovalStatus = &status
	}
	if id, err := uuid.Parse(r.JobID); err == nil {
		filter.JobID = &id
	}
	return filter
}

// RejectProductRequest carries the optional reason for a rejection
type RejectProductRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// BulkApproveRequest lists the imported products to approve
type BulkApproveRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1,max=100"`
}

// BulkApproveResponse reports the per-id outcome of a bulk approval
type BulkApproveResponse struct {
	Approved int                              `json:"approved"`
	Failed   int                              `json:"failed"`
	Results  []sourcingapp.BulkApproveOutcome `json:"results"`
}

// NewBulkApproveResponse counts the outcomes of a bulk approval
func NewBulkApproveResponse(results []sourcingapp.BulkApproveOutcome) BulkApproveResponse {
	resp := BulkApproveResponse{Results: results}
	for _, r := range results {
		if r.Approved {
			resp.Approved++
		} else {
			resp.Failed++
		}
	}
	return resp
}

// ExtractPreviewRequest asks the extractor to read a page without importing it
type ExtractPreviewRequest struct {
	URL   string         `json:"url" binding:"required,url,max=2048"`
	Hints sourcing.Hints `json:"hints"`
}
