package sourcing

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ImportStatus represents the status of an import job
type ImportStatus string

const (
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// IsValid checks if the status is valid
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusProcessing, ImportStatusCompleted, ImportStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// ItemOutcome is the resolution of a single record within a batch
type ItemOutcome string

const (
	ItemSucceeded ItemOutcome = "succeeded"
	ItemFailed    ItemOutcome = "failed"
	ItemSkipped   ItemOutcome = "skipped"
)

const (
	// MaxJobErrors caps the error list kept on a job
	MaxJobErrors = 10
	// MaxErrorLength caps the length of each kept error message
	MaxErrorLength = 256
)

// ImportJob tracks the progress and result of one batch import
type ImportJob struct {
	shared.TenantEntity
	CreatedBy   uuid.UUID
	Total       int
	Processed   int
	Successful  int
	Failed      int
	Skipped     int
	Errors      []string
	Status      ImportStatus
	StartedAt   time.Time
	CompletedAt *time.Time
}

// NewImportJob creates a job in processing state for a batch of total records
func NewImportJob(tenantID, createdBy uuid.UUID, total int) (*ImportJob, error) {
	if total < 0 {
		return nil, shared.NewDomainError("INVALID_TOTAL", "Total records cannot be negative")
	}

	job := &ImportJob{
		TenantEntity: shared.NewTenantEntity(tenantID),
		CreatedBy:    createdBy,
		Total:        total,
		Errors:       make([]string, 0),
		Status:       ImportStatusProcessing,
	}
	job.StartedAt = job.CreatedAt

	return job, nil
}

// Record counts one resolved record
func (j *ImportJob) Record(outcome ItemOutcome) error {
	if j.Status.IsTerminal() {
		return ErrJobFinished
	}

	switch outcome {
	case ItemSucceeded:
		j.Successful++
	case ItemFailed:
		j.Failed++
	case ItemSkipped:
		j.Skipped++
	default:
		return shared.NewDomainError("INVALID_OUTCOME", fmt.Sprintf("Invalid item outcome: %s", outcome))
	}
	j.Processed++
	j.UpdatedAt = time.Now()

	return nil
}

// RecordFailure counts a failed record and keeps its message while the
// error list has room. index is the zero-based position in the batch.
func (j *ImportJob) RecordFailure(index int, cause error) error {
	if err := j.Record(ItemFailed); err != nil {
		return err
	}
	if len(j.Errors) < MaxJobErrors {
		j.Errors = append(j.Errors, fmt.Sprintf("item %d: %s", index+1, truncate(cause.Error(), MaxErrorLength)))
	}
	return nil
}

// Finalize marks the job completed when at least one record succeeded or
// was skipped as a duplicate, and failed when every record failed.
func (j *ImportJob) Finalize() error {
	if j.Status.IsTerminal() {
		return ErrJobFinished
	}

	status := ImportStatusCompleted
	if j.Total > 0 && j.Successful+j.Skipped == 0 {
		status = ImportStatusFailed
	}

	now := time.Now()
	j.Status = status
	j.CompletedAt = &now
	j.UpdatedAt = now

	j.AddDomainEvent(NewImportJobCompletedEvent(j))

	return nil
}

// PendingApproval returns how many successful records still await review
func (j *ImportJob) PendingApproval(autoApprove bool) int {
	if autoApprove {
		return 0
	}
	return j.Successful
}

// Duration returns the elapsed processing time
func (j *ImportJob) Duration() time.Duration {
	if j.CompletedAt == nil {
		return time.Since(j.StartedAt)
	}
	return j.CompletedAt.Sub(j.StartedAt)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
