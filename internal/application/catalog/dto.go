package catalog

import (
	"time"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a hand-made catalog product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=5000"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	Images      []string        `json:"images" binding:"max=5,dive,url"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	Platform string `form:"platform"`
	Search   string `form:"search"`
}

// ProductResponse represents a catalog product in API responses
type ProductResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	Images         []string        `json:"images"`
	Status         string          `json:"status"`
	SourcePlatform string          `json:"source_platform,omitempty"`
	SourceID       string          `json:"source_product_id,omitempty"`
	SourceURL      string          `json:"source_url,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *catalog.Product) ProductResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		Currency:       p.Currency,
		Images:         images,
		Status:         string(p.Status),
		SourcePlatform: p.Source.Platform,
		SourceID:       p.Source.ProductID,
		SourceURL:      p.Source.URL,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
