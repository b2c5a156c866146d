package dto

import (
	"errors"
	"net/http"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
)

// Error codes returned in API responses
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Request error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBodyTooLarge = "ERR_BODY_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Domain error codes
const (
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodePermissionDenied   = "ERR_PERMISSION_DENIED"
	ErrCodePreconditionFailed = "ERR_PRECONDITION_FAILED"
	ErrCodeValidationFailed   = "ERR_VALIDATION_FAILED"
	ErrCodeIOFailure          = "ERR_IO_FAILURE"
)

// Idempotency error codes
const (
	ErrCodeRequestInProgress = "ERR_REQUEST_IN_PROGRESS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodePermissionDenied:   http.StatusForbidden,
	ErrCodePreconditionFailed: http.StatusPreconditionFailed,
	ErrCodeValidationFailed:   http.StatusUnprocessableEntity,
	ErrCodeIOFailure:          http.StatusServiceUnavailable,

	ErrCodeRequestInProgress: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps shared.DomainError codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	shared.CodeNotFound:           ErrCodeNotFound,
	shared.CodePermissionDenied:   ErrCodePermissionDenied,
	shared.CodePreconditionFailed: ErrCodePreconditionFailed,
	shared.CodeValidationFailed:   ErrCodeValidationFailed,
	shared.CodeIOFailure:          ErrCodeIOFailure,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}

// FromError converts err into an API error code, message and details.
// Anything that is not a domain error becomes an internal error with a
// generic message.
func FromError(err error) (code, message string, details map[string]any) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return NormalizeErrorCode(de.Code), de.Message, de.Details
	}
	return ErrCodeInternal, "An unexpected error occurred", nil
}
