// Package apperror defines the application's error taxonomy.
//
// Services return these errors; handlers map them to HTTP status codes.
// Each constructor wraps one sentinel so callers can branch with errors.Is
// while still carrying a human-readable message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("Validation Error")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrUpstreamStorage   = errors.New("upstream storage error")
	ErrPayloadTooLarge   = errors.New("payload too large")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists with %s", resource, key),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means the caller could not be authenticated (401).
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// InvalidOperation rejects a request that is well-formed but not allowed,
// such as following yourself.
func InvalidOperation(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidOperation,
		Message: message,
	}
}

// TransactionFailed reports that a multi-step write was rolled back.
// The cause is deliberately not included; log it where it happens.
func TransactionFailed(operation string) *AppError {
	return &AppError{
		Err:     ErrTransactionFailed,
		Message: fmt.Sprintf("%s failed and was rolled back", operation),
	}
}

// UpstreamStorage wraps a blob store failure. The cause stays reachable
// through errors.Unwrap for logging but the message is generic.
func UpstreamStorage(operation string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUpstreamStorage, cause),
		Message: fmt.Sprintf("storage %s failed", operation),
	}
}

func PayloadTooLarge(message string) *AppError {
	return &AppError{
		Err:     ErrPayloadTooLarge,
		Message: message,
	}
}
