package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a domain-level error with a stable machine-readable code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so that wrapped copies compare equal
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
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
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Authentication required")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)

// NewValidationError creates a VALIDATION_ERROR with the given message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError("VALIDATION_ERROR", fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a NOT_FOUND error naming the missing entity
func NewNotFoundError(entity string) *DomainError {
	return NewDomainError("NOT_FOUND", entity+" not found")
}

// NewConflictError creates a CONFLICT error
func NewConflictError(message string) *DomainError {
	return NewDomainError("CONFLICT", message)
}

// PersistenceError wraps a data-store failure. Its message is never shown to
// clients; Op names the failing operation for logs.
type PersistenceError struct {
	Op        string
	Retryable bool
	Err       error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying driver error
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err and classifies it as retriable or fatal.
// Domain errors pass through untouched.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Retryable: IsRetryable(err), Err: err}
}

// retryable SQLSTATE codes: serialization failure, deadlock, connection exceptions
var retryableSQLStates = []string{"40001", "40P01", "08000", "08003", "08006", "08001", "08004", "57P01"}

// sqlStater is implemented by pgconn.PgError
type sqlStater interface {
	SQLState() string
}

// IsRetryable reports whether err is transient and the operation may be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	var st sqlStater
	if errors.As(err, &st) {
		state := st.SQLState()
		for _, s := range retryableSQLStates {
			if state == s {
				return true
			}
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "bad connection")
}
