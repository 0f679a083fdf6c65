package catalog

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// MaxProductImages is the number of images kept per product
const MaxProductImages = 5

// Provenance records where a catalog product was sourced from. Products
// created by hand have an empty provenance.
type Provenance struct {
	Platform  string `json:"platform"`
	ProductID string `json:"product_id"`
	URL       string `json:"url"`
}

// IsExternal returns true if the product came from a source platform
func (p Provenance) IsExternal() bool {
	return p.Platform != "" && p.URL != ""
}

// Matches returns true if the provenance points at the given platform
func (p Provenance) Matches(platform string) bool {
	return p.IsExternal() && strings.EqualFold(p.Platform, platform)
}

// Product is a tenant's sellable catalog entry
type Product struct {
	shared.TenantEntity
	Name        string
	Description string
	Price       decimal.Decimal
	Currency    string
	Images      []string
	Status      ProductStatus
	Source      Provenance
}

// NewProduct creates a new active product
func NewProduct(tenantID uuid.UUID, name string, price decimal.Decimal, currency string) (*Product, error) {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if currency == "" {
		currency = "USD"
	}

	product := &Product{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Name:         name,
		Price:        price.Round(2),
		Currency:     strings.ToUpper(currency),
		Images:       make([]string, 0),
		Status:       ProductStatusActive,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// SetDescription sets the product description
func (p *Product) SetDescription(description string) {
	p.Description = strings.TrimSpace(description)
	p.UpdatedAt = time.Now()
}

// SetImages replaces the product images, keeping at most MaxProductImages
func (p *Product) SetImages(images []string) {
	kept := make([]string, 0, MaxProductImages)
	for _, img := range images {
		if img == "" {
			continue
		}
		kept = append(kept, img)
		if len(kept) == MaxProductImages {
			break
		}
	}
	p.Images = kept
	p.UpdatedAt = time.Now()
}

// SetSource records the product's source-platform provenance
func (p *Product) SetSource(source Provenance) {
	p.Source = source
	p.UpdatedAt = time.Now()
}

// Deactivate takes the product off sale
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	p.Status = ProductStatusInactive
	p.UpdatedAt = time.Now()
	return nil
}

// IsActive returns true if the product is on sale
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 500 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 500 characters")
	}
	return nil
}
