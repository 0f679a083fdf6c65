package models

import (
	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CatalogProductModel is the persistence model for the catalog Product entity.
type CatalogProductModel struct {
	TenantModel
	Name            string                `gorm:"type:varchar(500);not null"`
	Description     string                `gorm:"type:text"`
	Price           decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Currency        string                `gorm:"type:varchar(3);not null;default:'USD'"`
	Images          JSON[[]string]        `gorm:"not null"`
	Status          catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	SourcePlatform  string                `gorm:"type:varchar(50);index"`
	SourceProductID string                `gorm:"type:varchar(100)"`
	SourceURL       string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CatalogProductModel) TableName() string {
	return "catalog_products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *CatalogProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		TenantEntity: m.ToTenantEntity(),
		Name:         m.Name,
		Description:  m.Description,
		Price:        m.Price,
		Currency:     m.Currency,
		Images:       m.Images.Data,
		Status:       m.Status,
		Source: catalog.Provenance{
			Platform:  m.SourcePlatform,
			ProductID: m.SourceProductID,
			URL:       m.SourceURL,
		},
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *CatalogProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainTenantEntity(p.TenantEntity)
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.Currency = p.Currency
	images := p.Images
	if images == nil {
		images = []string{}
	}
	m.Images = NewJSON(images)
	m.Status = p.Status
	m.SourcePlatform = p.Source.Platform
	m.SourceProductID = p.Source.ProductID
	m.SourceURL = p.Source.URL
}

// CatalogProductModelFromDomain creates a new persistence model from a domain Product entity.
func CatalogProductModelFromDomain(p *catalog.Product) *CatalogProductModel {
	m := &CatalogProductModel{}
	m.FromDomain(p)
	return m
}
