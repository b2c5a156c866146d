package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context. Handlers map them to transport
// status codes; messages are meant to be shown to users verbatim.
const (
	CodeNotFound           = "NOT_FOUND"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeIOFailure          = "IO_FAILURE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, shared.ErrNotFound) matches every NOT_FOUND error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of the error carrying structured details
func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	cp := *e
	cp.Details = details
	return &cp
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound           = NewDomainError(CodeNotFound, "Resource not found")
	ErrPermissionDenied   = NewDomainError(CodePermissionDenied, "Not allowed to perform this action")
	ErrPreconditionFailed = NewDomainError(CodePreconditionFailed, "Operation blocked by existing references")
	ErrValidationFailed   = NewDomainError(CodeValidationFailed, "Invalid input provided")
	ErrIOFailure          = NewDomainError(CodeIOFailure, "Could not save changes")
)

// NewNotFoundError reports a missing entity of the given kind
func NewNotFoundError(entity string, id fmt.Stringer) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %s not found", entity, id))
}

// NewPermissionDeniedError reports a rejected actor
func NewPermissionDeniedError(message string) *DomainError {
	return NewDomainError(CodePermissionDenied, message)
}

// NewPreconditionFailedError reports an operation blocked by current state
func NewPreconditionFailedError(message string) *DomainError {
	return NewDomainError(CodePreconditionFailed, message)
}

// NewValidationError reports invalid input
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidationFailed, message)
}

// NewIOFailure wraps a persistence failure. The cause stays reachable through
// errors.Unwrap but is not part of the user-facing message.
func NewIOFailure(operation string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeIOFailure,
		Message: fmt.Sprintf("Could not save changes (%s). Please try again.", operation),
		cause:   cause,
	}
}

// IsCode reports whether any DomainError in err's chain has the given code
func IsCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
