package models

import (
	"time"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/google/uuid"
)

// ImportJobModel is the persistence model for an import batch.
type ImportJobModel struct {
	TenantModel
	CreatedBy   uuid.UUID             `gorm:"type:uuid;not null;index"`
	Total       int                   `gorm:"not null;default:0"`
	Processed   int                   `gorm:"not null;default:0"`
	Successful  int                   `gorm:"not null;default:0"`
	Failed      int                   `gorm:"not null;default:0"`
	Skipped     int                   `gorm:"not null;default:0"`
	Errors      JSON[[]string]        `gorm:"not null"`
	Status      sourcing.ImportStatus `gorm:"type:varchar(20);not null;default:'processing';index"`
	StartedAt   time.Time             `gorm:"not null"`
	CompletedAt *time.Time
}

// TableName returns the table name for GORM
func (ImportJobModel) TableName() string {
	return "import_jobs"
}

// ToDomain converts the persistence model to a domain ImportJob.
func (m *ImportJobModel) ToDomain() *sourcing.ImportJob {
	return &sourcing.ImportJob{
		TenantEntity: m.ToTenantEntity(),
		CreatedBy:    m.CreatedBy,
		Total:        m.Total,
		Processed:    m.Processed,
		Successful:   m.Successful,
		Failed:       m.Failed,
		Skipped:      m.Skipped,
		Errors:       m.Errors.Data,
		Status:       m.Status,
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain ImportJob.
func (m *ImportJobModel) FromDomain(j *sourcing.ImportJob) {
	m.FromDomainTenantEntity(j.TenantEntity)
	m.CreatedBy = j.CreatedBy
	m.Total = j.Total
	m.Processed = j.Processed
	m.Successful = j.Successful
	m.Failed = j.Failed
	m.Skipped = j.Skipped
	errs := j.Errors
	if errs == nil {
		errs = []string{}
	}
	m.Errors = NewJSON(errs)
	m.Status = j.Status
	m.StartedAt = j.StartedAt
	m.CompletedAt = j.CompletedAt
}

// ImportJobModelFromDomain creates a new persistence model from a domain ImportJob.
func ImportJobModelFromDomain(j *sourcing.ImportJob) *ImportJobModel {
	m := &ImportJobModel{}
	m.FromDomain(j)
	return m
}

// ImportedProductModel is the persistence model for a staged product awaiting review.
// A tenant can hold at most one row per source URL.
type ImportedProductModel struct {
	BaseModel
	TenantID         uuid.UUID                    `gorm:"type:uuid;not null;uniqueIndex:idx_imported_tenant_url,priority:1"`
	JobID            uuid.UUID                    `gorm:"type:uuid;not null;index"`
	SourceURL        string                       `gorm:"type:varchar(2048);not null;uniqueIndex:idx_imported_tenant_url,priority:2"`
	SourcePlatform   string                       `gorm:"type:varchar(50);not null"`
	SourceProductID  string                       `gorm:"type:varchar(100)"`
	RawData          JSON[sourcing.RawProduct]    `gorm:"not null"`
	ProcessedData    JSON[sourcing.ProcessedData] `gorm:"not null"`
	ApprovalStatus   sourcing.ApprovalStatus      `gorm:"type:varchar(20);not null;default:'pending';index"`
	CatalogProductID *uuid.UUID                   `gorm:"type:uuid"`
	ApprovedAt       *time.Time
	ApprovedBy       *uuid.UUID `gorm:"type:uuid"`
	RejectedAt       *time.Time
	RejectedBy       *uuid.UUID `gorm:"type:uuid"`
	RejectReason     string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ImportedProductModel) TableName() string {
	return "imported_products"
}

// ToDomain converts the persistence model to a domain ImportedProduct.
func (m *ImportedProductModel) ToDomain() *sourcing.ImportedProduct {
	return &sourcing.ImportedProduct{
		TenantEntity: shared.TenantEntity{
			BaseEntity: m.BaseModel.ToDomain(),
			TenantID:   m.TenantID,
		},
		JobID:            m.JobID,
		SourceURL:        m.SourceURL,
		SourcePlatform:   m.SourcePlatform,
		SourceProductID:  m.SourceProductID,
		RawData:          m.RawData.Data,
		ProcessedData:    m.ProcessedData.Data,
		ApprovalStatus:   m.ApprovalStatus,
		CatalogProductID: m.CatalogProductID,
		ApprovedAt:       m.ApprovedAt,
		ApprovedBy:       m.ApprovedBy,
		RejectedAt:       m.RejectedAt,
		RejectedBy:       m.RejectedBy,
		RejectReason:     m.RejectReason,
	}
}

// FromDomain populates the persistence model from a domain ImportedProduct.
func (m *ImportedProductModel) FromDomain(p *sourcing.ImportedProduct) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.TenantID = p.TenantID
	m.JobID = p.JobID
	m.SourceURL = p.SourceURL
	m.SourcePlatform = p.SourcePlatform
	m.SourceProductID = p.SourceProductID
	m.RawData = NewJSON(p.RawData)
	m.ProcessedData = NewJSON(p.ProcessedData)
	m.ApprovalStatus = p.ApprovalStatus
	m.CatalogProductID = p.CatalogProductID
	m.ApprovedAt = p.ApprovedAt
	m.ApprovedBy = p.ApprovedBy
	m.RejectedAt = p.RejectedAt
	m.RejectedBy = p.RejectedBy
	m.RejectReason = p.RejectReason
}

// ImportedProductModelFromDomain creates a new persistence model from a domain ImportedProduct.
func ImportedProductModelFromDomain(p *sourcing.ImportedProduct) *ImportedProductModel {
	m := &ImportedProductModel{}
	m.FromDomain(p)
	return m
}
