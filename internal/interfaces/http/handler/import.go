package handler

import (
	"context"
	"errors"
	"net/http"

	sourcingapp "github.com/dropship/backend/internal/application/sourcing"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/dropship/backend/internal/infrastructure/extractor"
	"github.com/dropship/backend/internal/infrastructure/logger"
	"github.com/dropship/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportService imports batches of scraped records
type ImportService interface {
	ImportBatch(ctx context.Context, in sourcingapp.ImportBatchInput) (*sourcingapp.ImportResult, error)
	GetJob(ctx context.Context, tenantID, id uuid.UUID) (*sourcingapp.ImportJobResponse, error)
	ListJobs(ctx context.Context, tenantID uuid.UUID, filter sourcing.ImportJobFilter, page, pageSize int) (*shared.Paginated[sourcingapp.ImportJobResponse], error)
}

// ApprovalService moves imported products through the approval gate
type ApprovalService interface {
	Approve(ctx context.Context, tenantID, id, userID uuid.UUID) (*sourcingapp.ImportedProductResponse, error)
	Reject(ctx context.Context, tenantID, id, userID uuid.UUID, reason string) (*sourcingapp.ImportedProductResponse, error)
	BulkApprove(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, userID uuid.UUID) []sourcingapp.BulkApproveOutcome
	Get(ctx context.Context, tenantID, id uuid.UUID) (*sourcingapp.ImportedProductResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter sourcing.ImportedProductFilter, page, pageSize int) (*shared.Paginated[sourcingapp.ImportedProductResponse], error)
}

var (
	_ ImportService   = (*sourcingapp.ImportService)(nil)
	_ ApprovalService = (*sourcingapp.ApprovalService)(nil)
)

// ImportHandler handles product import and approval endpoints
type ImportHandler struct {
	BaseHandler
	imports   ImportService
	approvals ApprovalService
	extractor sourcing.PageExtractor
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(imports ImportService, approvals ApprovalService, pages sourcing.PageExtractor) *ImportHandler {
	return &ImportHandler{
		imports:   imports,
		approvals: approvals,
		extractor: pages,
	}
}

// ImportProducts godoc
// @Summary      Import scraped products
// @Description  Imports a batch of scraped records. Each record succeeds, fails or is skipped on its own.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        request body dto.ImportProductsRequest true "Batch of records and import settings"
// @Success      201 {object} dto.Response{data=sourcingapp.ImportResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /imports/products [post]
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var req dto.ImportProductsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.imports.ImportBatch(c.Request.Context(), sourcingapp.ImportBatchInput{
		TenantID: tenantID,
		UserID:   userID,
		Products: req.Products,
		Settings: req.ImportSettings.ToSettings(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListJobs godoc
// @Summary      List import jobs
// @Tags         imports
// @Produce      json
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        status    query string false "processing, completed or failed"
// @Success      200 {object} dto.Response{data=[]sourcingapp.ImportJobResponse}
// @Security     BearerAuth
// @Router       /imports/jobs [get]
func (h *ImportHandler) ListJobs(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req dto.ListImportJobsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	req.Normalize()

	jobs, err := h.imports.ListJobs(c.Request.Context(), tenantID, req.Filter(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, jobs.Items, jobs.Total, jobs.Page, jobs.PageSize)
}

// GetJob godoc
// @Summary      Get an import job
// @Tags         imports
// @Produce      json
// @Param        id path string true "Import job ID" format(uuid)
// @Success      200 {object} dto.Response{data=sourcingapp.ImportJobResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /imports/jobs/{id} [get]
func (h *ImportHandler) GetJob(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "import job")
	if !ok {
		return
	}

	job, err := h.imports.GetJob(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, job)
}

// ListImported godoc
// @Summary      List imported products
// @Tags         imports
// @Produce      json
// @Param        status query string false "pending, approved or rejected"
// @Param        job_id query string false "Import job ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]sourcingapp.ImportedProductResponse}
// @Security     BearerAuth
// @Router       /imports/products [get]
func (h *ImportHandler) ListImported(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req dto.ListImportedProductsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	req.Normalize()

	products, err := h.approvals.List(c.Request.Context(), tenantID, req.Filter(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, products.Items, products.Total, products.Page, products.PageSize)
}

// GetImported godoc
// @Summary      Get an imported product
// @Tags         imports
// @Produce      json
// @Param        id path string true "Imported product ID" format(uuid)
// @Success      200 {object} dto.Response{data=sourcingapp.ImportedProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /imports/products/{id} [get]
func (h *ImportHandler) GetImported(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "imported product")
	if !ok {
		return
	}

	product, err := h.approvals.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Approve godoc
// @Summary      Approve an imported product
// @Description  Creates the catalog product. Approving twice is rejected.
// @Tags         imports
// @Produce      json
// @Param        id path string true "Imported product ID" format(uuid)
// @Success      200 {object} dto.Response{data=sourcingapp.ImportedProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /imports/products/{id}/approve [post]
func (h *ImportHandler) Approve(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "imported product")
	if !ok {
		return
	}

	product, err := h.approvals.Approve(c.Request.Context(), tenantID, id, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Reject godoc
// @Summary      Reject an imported product
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        id      path string                   true  "Imported product ID" format(uuid)
// @Param        request body dto.RejectProductRequest false "Rejection reason"
// @Success      200 {object} dto.Response{data=sourcingapp.ImportedProductResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /imports/products/{id}/reject [post]
func (h *ImportHandler) Reject(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "imported product")
	if !ok {
		return
	}

	var req dto.RejectProductRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	product, err := h.approvals.Reject(c.Request.Context(), tenantID, id, userID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// BulkApprove godoc
// @Summary      Approve several imported products
// @Description  Approves each id on its own; one failure does not stop the others.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        request body dto.BulkApproveRequest true "Imported product IDs"
// @Success      200 {object} dto.Response{data=dto.BulkApproveResponse}
// @Security     BearerAuth
// @Router       /imports/products/bulk-approve [post]
func (h *ImportHandler) BulkApprove(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var req dto.BulkApproveRequest
	if !h.bindJSON(c, &req) {
		return
	}

	results := h.approvals.BulkApprove(c.Request.Context(), tenantID, req.IDs, userID)
	h.Success(c, dto.NewBulkApproveResponse(results))
}

// ExtractPreview godoc
// @Summary      Preview the products of a source page
// @Description  Reads a source page with the extractor without importing anything.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        request body dto.ExtractPreviewRequest true "Page URL and hints"
// @Success      200 {object} dto.Response{data=sourcing.ExtractResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /extract/preview [post]
func (h *ImportHandler) ExtractPreview(c *gin.Context) {
	if _, ok := h.tenant(c); !ok {
		return
	}

	var req dto.ExtractPreviewRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.extractor.Extract(c.Request.Context(), req.URL, req.Hints)
	switch {
	case err == nil:
		h.Success(c, result)
	case errors.Is(err, extractor.ErrInvalidURL):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidPageURL, "Page URL must be an absolute http(s) URL")
	case errors.Is(err, extractor.ErrNoSnapshot):
		h.NotFound(c, "No snapshot recorded for this page")
	default:
		logger.GetGinLogger(c).Warn("Page extraction failed",
			zap.String("page_url", req.URL),
			zap.Error(err),
		)
		h.Error(c, http.StatusBadGateway, dto.ErrCodeExtractFailed, "Could not read the source page")
	}
}
