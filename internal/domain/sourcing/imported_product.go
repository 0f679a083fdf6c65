package sourcing

import (
	"strings"
	"time"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalStatus represents the review state of an imported product
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// IsValid checks if the status is valid
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// IsTerminal returns true for approved and rejected
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// ProcessedData is the tenant-facing view of a record after price transformation
type ProcessedData struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Currency      string          `json:"currency"`
	Images        []string        `json:"images"`
	PriceAdjusted bool            `json:"price_adjusted"`
	// NegativePrice flags a fixed adjustment that pushed the price below zero.
	// The price is kept as computed for an operator to review.
	NegativePrice bool `json:"negative_price,omitempty"`
}

// Transform resolves a raw record into processed data, applying the price adjustment if any
func Transform(raw RawProduct, adjustment *PriceAdjustment) (ProcessedData, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return ProcessedData{}, shared.NewDomainError("INVALID_RECORD", "Product name is required")
	}
	price, ok := raw.ResolvedPrice()
	if !ok || price <= 0 {
		return ProcessedData{}, shared.NewDomainError("INVALID_RECORD", "Product price must be a positive number")
	}

	original := decimal.NewFromFloat(price).Round(2)
	data := ProcessedData{
		Name:          name,
		Description:   strings.TrimSpace(raw.Description),
		Price:         original,
		OriginalPrice: original,
		Currency:      strings.ToUpper(raw.Currency),
		Images:        append([]string(nil), raw.Images...),
	}
	if data.Currency == "" {
		data.Currency = "USD"
	}
	if len(data.Images) > catalog.MaxProductImages {
		data.Images = data.Images[:catalog.MaxProductImages]
	}
	if adjustment != nil {
		data.Price = adjustment.Apply(original)
		data.PriceAdjusted = true
		data.NegativePrice = data.Price.IsNegative()
	}
	return data, nil
}

// ImportedProduct is a scraped record owned by an import job, awaiting or
// past review. SourceURL is unique within a tenant.
type ImportedProduct struct {
	shared.TenantEntity
	JobID            uuid.UUID
	SourceURL        string
	SourcePlatform   string
	SourceProductID  string
	RawData          RawProduct
	ProcessedData    ProcessedData
	ApprovalStatus   ApprovalStatus
	CatalogProductID *uuid.UUID
	ApprovedAt       *time.Time
	ApprovedBy       *uuid.UUID
	RejectedAt       *time.Time
	RejectedBy       *uuid.UUID
	RejectReason     string
}

// NewImportedProduct creates a pending imported product
func NewImportedProduct(tenantID, jobID uuid.UUID, raw RawProduct, processed ProcessedData) (*ImportedProduct, error) {
	sourceURL := strings.TrimSpace(raw.SourceURL)
	if sourceURL == "" {
		return nil, shared.NewDomainError("INVALID_RECORD", "Source URL is required")
	}

	productID := raw.SourceProductID
	if productID == "" {
		productID = SourceProductIDFromURL(sourceURL)
	}

	return &ImportedProduct{
		TenantEntity:    shared.NewTenantEntity(tenantID),
		JobID:           jobID,
		SourceURL:       sourceURL,
		SourcePlatform:  strings.ToLower(raw.SourcePlatform),
		SourceProductID: productID,
		RawData:         raw,
		ProcessedData:   processed,
		ApprovalStatus:  ApprovalPending,
	}, nil
}

// Approve moves the product from pending to approved
func (p *ImportedProduct) Approve(by uuid.UUID) error {
	if p.ApprovalStatus != ApprovalPending {
		return ErrInvalidApprovalTransition
	}

	now := time.Now()
	p.ApprovalStatus = ApprovalApproved
	p.ApprovedAt = &now
	p.ApprovedBy = &by
	p.UpdatedAt = now

	p.AddDomainEvent(NewImportedProductReviewedEvent(p))

	return nil
}

// Reject moves the product from pending to rejected
func (p *ImportedProduct) Reject(by uuid.UUID, reason string) error {
	if p.ApprovalStatus != ApprovalPending {
		return ErrInvalidApprovalTransition
	}

	now := time.Now()
	p.ApprovalStatus = ApprovalRejected
	p.RejectedAt = &now
	p.RejectedBy = &by
	p.RejectReason = strings.TrimSpace(reason)
	p.UpdatedAt = now

	p.AddDomainEvent(NewImportedProductReviewedEvent(p))

	return nil
}

// NeedsCatalogProduct returns true if the product is approved but not yet published
func (p *ImportedProduct) NeedsCatalogProduct() bool {
	return p.ApprovalStatus == ApprovalApproved && p.CatalogProductID == nil
}

// Publish builds the catalog product for an approved record and links it back
func (p *ImportedProduct) Publish() (*catalog.Product, error) {
	if !p.NeedsCatalogProduct() {
		return nil, shared.NewDomainError("INVALID_STATE", "Product is not awaiting publication")
	}

	product, err := catalog.NewProduct(p.TenantID, p.ProcessedData.Name, p.ProcessedData.Price, p.ProcessedData.Currency)
	if err != nil {
		return nil, err
	}
	product.SetDescription(p.ProcessedData.Description)
	product.SetImages(p.ProcessedData.Images)
	product.SetSource(catalog.Provenance{
		Platform:  p.SourcePlatform,
		ProductID: p.SourceProductID,
		URL:       p.SourceURL,
	})

	p.CatalogProductID = &product.ID
	p.UpdatedAt = time.Now()

	return product, nil
}
