package sourcing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/dropship/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportConfig holds import coordinator settings
type ImportConfig struct {
	// DefaultPlatform is stamped on records that do not name their source platform
	DefaultPlatform string
	// MaxBatchSize rejects batches with more records than this; 0 disables the check
	MaxBatchSize int
}

// DefaultImportConfig returns the default import settings
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		DefaultPlatform: "aliexpress",
		MaxBatchSize:    500,
	}
}

// ImportService coordinates batch imports of scraped products
type ImportService struct {
	jobRepo     sourcing.ImportJobRepository
	productRepo sourcing.ImportedProductRepository
	eventBus    shared.EventPublisher
	config      ImportConfig
	logger      *zap.Logger
	metrics     *telemetry.DropshipMetrics
}

// NewImportService creates a new ImportService
func NewImportService(
	jobRepo sourcing.ImportJobRepository,
	productRepo sourcing.ImportedProductRepository,
	eventBus shared.EventPublisher,
	config ImportConfig,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		jobRepo:     jobRepo,
		productRepo: productRepo,
		eventBus:    eventBus,
		config:      config,
		logger:      logger,
	}
}

// SetMetrics sets the metrics recorder
func (s *ImportService) SetMetrics(m *telemetry.DropshipMetrics) {
	s.metrics = m
}

// ImportBatch imports a batch of raw records for one tenant. Each record is
// resolved independently: a record whose source URL the tenant already
// imported is skipped, a record that fails validation or persistence is
// counted as failed and the batch moves on. The returned error is non-nil
// only when the job itself could not be created or finalized.
func (s *ImportService) ImportBatch(ctx context.Context, in ImportBatchInput) (result *ImportResult, err error) {
	labels := telemetry.OperationLabels("sourcing.import", map[string]string{
		telemetry.ProfilingLabelTenantID: in.TenantID.String(),
	})
	telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
		result, err = s.importBatch(ctx, in)
	})
	return result, err
}

func (s *ImportService) importBatch(ctx context.Context, in ImportBatchInput) (*ImportResult, error) {
	if err := in.Settings.Validate(); err != nil {
		return nil, err
	}
	if s.config.MaxBatchSize > 0 && len(in.Products) > s.config.MaxBatchSize {
		return nil, shared.NewDomainError("BATCH_TOO_LARGE",
			fmt.Sprintf("Batch has %d products, the limit is %d", len(in.Products), s.config.MaxBatchSize))
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "import", "batch",
		telemetry.WithAttribute("tenant_id", in.TenantID.String()),
		telemetry.WithAttribute("total", len(in.Products)),
	)
	defer span.End()

	job, err := sourcing.NewImportJob(in.TenantID, in.UserID, len(in.Products))
	if err != nil {
		return nil, err
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create import job: %w", err)
	}

	log := s.logger.With(
		zap.String("tenant_id", in.TenantID.String()),
		zap.String("import_job_id", job.ID.String()),
	)
	log.Info("Import batch started",
		zap.Int("total", job.Total),
		zap.Bool("auto_approve", in.Settings.AutoApprove),
	)

	var events []shared.DomainEvent
	autoApproved := 0

	for i, raw := range in.Products {
		if ctx.Err() != nil {
			// The caller went away; the rest of the batch is counted as failed
			// so the job still finalizes with accurate totals.
			for j := i; j < len(in.Products); j++ {
				_ = job.RecordFailure(j, ctx.Err())
			}
			break
		}

		outcome, itemEvents, err := s.importOne(ctx, job, raw, in)
		if err != nil {
			log.Warn("Import item failed",
				zap.Int("index", i),
				zap.String("source_url", raw.SourceURL),
				zap.Error(err),
			)
			_ = job.RecordFailure(i, err)
		} else {
			_ = job.Record(outcome)
			events = append(events, itemEvents...)
			if outcome == sourcing.ItemSucceeded && in.Settings.AutoApprove {
				autoApproved++
			}
		}

		if err := s.jobRepo.IncrementProgress(ctx, job.TenantID, job.ID, outcome); err != nil {
			log.Warn("Failed to record import progress", zap.Int("index", i), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordImportItem(ctx, string(outcome))
		}
	}

	if err := job.Finalize(); err != nil {
		return nil, err
	}
	if err := s.jobRepo.Finalize(context.WithoutCancel(ctx), job); err != nil {
		return nil, fmt.Errorf("failed to finalize import job: %w", err)
	}

	events = append(events, job.GetDomainEvents()...)
	job.ClearDomainEvents()
	s.publish(ctx, log, events)

	log.Info("Import batch finished",
		zap.String("status", string(job.Status)),
		zap.Int("successful", job.Successful),
		zap.Int("failed", job.Failed),
		zap.Int("skipped", job.Skipped),
		zap.Duration("duration", job.Duration()),
	)

	return &ImportResult{
		ImportJobID:     job.ID,
		Status:          job.Status,
		TotalProducts:   job.Total,
		Processed:       job.Processed,
		Successful:      job.Successful,
		Failed:          job.Failed,
		Skipped:         job.Skipped,
		Errors:          append([]string{}, job.Errors...),
		AutoApproved:    autoApproved,
		PendingApproval: job.PendingApproval(in.Settings.AutoApprove),
	}, nil
}

// importOne resolves a single record. The returned outcome is ItemFailed
// whenever err is non-nil.
func (s *ImportService) importOne(
	ctx context.Context,
	job *sourcing.ImportJob,
	raw sourcing.RawProduct,
	in ImportBatchInput,
) (sourcing.ItemOutcome, []shared.DomainEvent, error) {
	raw.SourceURL = strings.TrimSpace(raw.SourceURL)
	if raw.SourceURL == "" {
		return sourcing.ItemFailed, nil, shared.NewDomainError("INVALID_RECORD", "Source URL is required")
	}
	if raw.SourcePlatform == "" {
		raw.SourcePlatform = s.config.DefaultPlatform
	}

	exists, err := s.productRepo.ExistsBySourceURL(ctx, job.TenantID, raw.SourceURL)
	if err != nil {
		return sourcing.ItemFailed, nil, fmt.Errorf("failed to check existing source url: %w", err)
	}
	if exists {
		return sourcing.ItemSkipped, nil, nil
	}

	data, err := sourcing.Transform(raw, in.Settings.PriceAdjustment)
	if err != nil {
		return sourcing.ItemFailed, nil, err
	}
	if data.NegativePrice {
		s.logger.Warn("Price adjustment produced a negative price",
			zap.String("import_job_id", job.ID.String()),
			zap.String("source_url", raw.SourceURL),
			zap.String("original_price", data.OriginalPrice.String()),
			zap.String("price", data.Price.String()),
			zap.Bool("negative_price", true),
		)
	}

	imported, err := sourcing.NewImportedProduct(job.TenantID, job.ID, raw, data)
	if err != nil {
		return sourcing.ItemFailed, nil, err
	}

	var published *catalog.Product
	if in.Settings.AutoApprove {
		if err := imported.Approve(in.UserID); err != nil {
			return sourcing.ItemFailed, nil, err
		}
		if published, err = imported.Publish(); err != nil {
			return sourcing.ItemFailed, nil, err
		}
	}

	if err := s.productRepo.Create(ctx, imported, published); err != nil {
		if errors.Is(err, sourcing.ErrDuplicateSource) {
			// Lost a race with a concurrent batch for the same URL
			return sourcing.ItemSkipped, nil, nil
		}
		return sourcing.ItemFailed, nil, fmt.Errorf("failed to save imported product: %w", err)
	}

	events := imported.GetDomainEvents()
	if published != nil {
		events = append(events, published.GetDomainEvents()...)
		published.ClearDomainEvents()
	}
	imported.ClearDomainEvents()

	return sourcing.ItemSucceeded, events, nil
}

func (s *ImportService) publish(ctx context.Context, log *zap.Logger, events []shared.DomainEvent) {
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		log.Warn("Failed to publish import events", zap.Int("count", len(events)), zap.Error(err))
	}
}

// GetJob returns an import job of the tenant
func (s *ImportService) GetJob(ctx context.Context, tenantID, id uuid.UUID) (*ImportJobResponse, error) {
	job, err := s.jobRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToImportJobResponse(job)
	return &resp, nil
}

// ListJobs lists import jobs of the tenant, newest first
func (s *ImportService) ListJobs(ctx context.Context, tenantID uuid.UUID, filter sourcing.ImportJobFilter, page, pageSize int) (*shared.Paginated[ImportJobResponse], error) {
	result, err := s.jobRepo.FindAll(ctx, tenantID, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	items := make([]ImportJobResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, ToImportJobResponse(&result.Items[i]))
	}
	out := shared.NewPaginated(items, result.Total, result.Page, result.PageSize)
	return &out, nil
}
