package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business-rule rejection with a stable code and a
// human-readable reason. Handlers map codes to HTTP statuses; the message is
// safe to surface to the UI.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeState         = "STATE_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// NewStateError creates a new illegal-state error (invalid transition,
// duplicate participation, campaign not open)
func NewStateError(msg string) error {
	return &DomainError{
		Code:    ErrCodeState,
		Message: msg,
	}
}

// NewConfigurationError creates a new configuration error (e.g. ambiguous
// tier thresholds)
func NewConfigurationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeConfiguration,
		Message: msg,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError() error {
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Message: "Authentication required",
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(msg string) error {
	return &DomainError{
		Code:    ErrCodeForbidden,
		Message: msg,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: msg,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// Helper functions to check error types

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return codeOf(err) == ErrCodeNotFound
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return codeOf(err) == ErrCodeValidation
}

// IsState checks if the error is an illegal-state error
func IsState(err error) bool {
	return codeOf(err) == ErrCodeState
}

// IsConfiguration checks if the error is a configuration error
func IsConfiguration(err error) bool {
	return codeOf(err) == ErrCodeConfiguration
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool {
	return codeOf(err) == ErrCodeConflict
}

// IsForbidden checks if the error is a forbidden error
func IsForbidden(err error) bool {
	return codeOf(err) == ErrCodeForbidden
}

// GetErrorCode extracts the error code from a domain error
func GetErrorCode(err error) string {
	if code := codeOf(err); code != "" {
		return code
	}
	return ErrCodeInternal
}

func codeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
