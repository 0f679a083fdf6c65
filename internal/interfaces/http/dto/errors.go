package dto

import (
	"net/http"
	"strings"
)

// Error codes raised by the HTTP layer itself. Domain errors carry their own
// code, which is passed through unchanged.
const (
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeValidation     = "VALIDATION_FAILED"
	ErrCodeInvalidJSON    = "INVALID_JSON"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeTokenExpired   = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid   = "INVALID_TOKEN"
	ErrCodeRequestTooBig  = "REQUEST_TOO_LARGE"
	ErrCodeExtractFailed  = "EXTRACTION_FAILED"
	ErrCodeInvalidPageURL = "INVALID_PAGE_URL"
	ErrCodeUnavailable    = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	// Request problems -> 400 Bad Request
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	ErrCodeInvalidPageURL:      http.StatusBadRequest,
	"INVALID_INPUT":            http.StatusBadRequest,
	"BATCH_TOO_LARGE":          http.StatusBadRequest,
	"INVALID_PRICE_ADJUSTMENT": http.StatusBadRequest,

	// Auth
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resources
	ErrCodeNotFound:    http.StatusNotFound,
	"ALREADY_EXISTS":   http.StatusConflict,
	"DUPLICATE_SOURCE": http.StatusConflict,
	"ALREADY_ENQUEUED": http.StatusConflict,

	// Business rules -> 422 Unprocessable Entity
	"INVALID_STATE":               http.StatusUnprocessableEntity,
	"INVALID_APPROVAL_TRANSITION": http.StatusUnprocessableEntity,
	"IMPORT_JOB_FINISHED":         http.StatusUnprocessableEntity,
	"PRODUCT_INACTIVE":            http.StatusUnprocessableEntity,

	ErrCodeRequestTooBig: http.StatusRequestEntityTooLarge,
	ErrCodeExtractFailed: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code. Unlisted
// INVALID_* codes are input errors; anything else is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") || code == "EMPTY_ORDER" {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
