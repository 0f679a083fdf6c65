package sourcing

import "github.com/dropship/backend/internal/domain/shared"

var (
	// ErrDuplicateSource is returned when a source URL was already imported by the tenant
	ErrDuplicateSource = shared.NewDomainError("DUPLICATE_SOURCE", "Source URL has already been imported")

	// ErrInvalidApprovalTransition is returned when approving or rejecting a product that is not pending
	ErrInvalidApprovalTransition = shared.NewDomainError("INVALID_APPROVAL_TRANSITION", "Only pending products can be approved or rejected")

	// ErrJobFinished is returned when mutating an import job that already reached a terminal status
	ErrJobFinished = shared.NewDomainError("IMPORT_JOB_FINISHED", "Import job is already finished")
)
