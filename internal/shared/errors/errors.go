package errors

import (
	"errors"
	"fmt"
)

// Error codes used across the service. Handlers map these onto HTTP
// status codes; nothing below the handler layer knows about HTTP.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeUserNotFound    = "USER_NOT_FOUND"
	CodeProfileNotFound = "PROFILE_NOT_FOUND"
	CodeConcurrency     = "CONCURRENCY_ERROR"
	CodeDatabase        = "DATABASE_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new validation error
func NewValidationError(message string, err error) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Err: err}
}

// NewUserNotFoundError creates an error for a missing user aggregate
func NewUserNotFoundError(userID string) *AppError {
	return &AppError{Code: CodeUserNotFound, Message: fmt.Sprintf("user %q not found", userID)}
}

// NewProfileNotFoundError creates an error for a missing alarm profile
func NewProfileNotFoundError(userID, profileID string) *AppError {
	return &AppError{Code: CodeProfileNotFound, Message: fmt.Sprintf("profile %q not found for user %q", profileID, userID)}
}

// NewConcurrencyError creates an error for a write conflict detected by the store
func NewConcurrencyError(message string, err error) *AppError {
	return &AppError{Code: CodeConcurrency, Message: message, Err: err}
}

// NewDatabaseError creates an error for a transient storage failure
func NewDatabaseError(message string, err error) *AppError {
	return &AppError{Code: CodeDatabase, Message: message, Err: err}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// Code extracts the application error code, or CodeInternal for foreign errors.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsNotFound reports whether err refers to a missing user or profile
func IsNotFound(err error) bool {
	code := Code(err)
	return code == CodeUserNotFound || code == CodeProfileNotFound
}

// IsValidation reports whether err is the caller's fault
func IsValidation(err error) bool {
	return Code(err) == CodeValidation
}

// IsRetryable reports whether the caller may retry the operation.
// Write conflicts and transient database failures qualify; validation
// and not-found errors never do.
func IsRetryable(err error) bool {
	code := Code(err)
	return code == CodeConcurrency || code == CodeDatabase
}
