package dto

import (
	"net/http"
	"strings"
)

// Error codes are the machine-readable codes carried by domain errors and
// written verbatim into the error envelope.

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeServiceUnavailable is used for transient data-store failures
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	// ErrCodeInjectedFailure is raised by the failure-injection switch
	ErrCodeInjectedFailure = "INJECTED_FAILURE"
	// ErrCodeTimeout is used when the request deadline expires
	ErrCodeTimeout = "REQUEST_TIMEOUT"
)

// Validation error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodePriceMismatch = "PRICE_MISMATCH"
	ErrCodeInvalidRole   = "INVALID_ROLE"
	// ErrCodeInvalidContentType is used for rejected upload content types
	ErrCodeInvalidContentType = "INVALID_CONTENT_TYPE"
	ErrCodeFileTooLarge       = "FILE_TOO_LARGE"
	ErrCodeBodyTooLarge       = "REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeTokenInvalid       = "INVALID_TOKEN"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeTokenRevoked       = "TOKEN_REVOKED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccountDisabled    = "ACCOUNT_DISABLED"
)

// Authorization error codes
const (
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeForbiddenTransition = "FORBIDDEN_TRANSITION"
)

// Resource error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeAlreadyClaimed      = "ALREADY_CLAIMED"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeDuplicateRequest    = "DUPLICATE_REQUEST"
)

// Business rule error codes
const (
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeOrderNotDelivered  = "ORDER_NOT_DELIVERED"
	ErrCodeRestaurantClosed   = "RESTAURANT_CLOSED"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeInjectedFailure:    http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodePriceMismatch:      http.StatusBadRequest,
	ErrCodeInvalidRole:        http.StatusBadRequest,
	ErrCodeInvalidContentType: http.StatusBadRequest,
	ErrCodeFileTooLarge:       http.StatusBadRequest,
	ErrCodeBodyTooLarge:       http.StatusRequestEntityTooLarge,

	// Auth errors -> 401
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeAccountDisabled:    http.StatusUnauthorized,

	// Authorization errors -> 403
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeForbiddenTransition: http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeAlreadyClaimed:      http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	// Business rule errors -> 400
	ErrCodeInsufficientStock: http.StatusBadRequest,
	ErrCodeInvalidTransition: http.StatusBadRequest,
	ErrCodeInvalidState:      http.StatusBadRequest,
	ErrCodeOrderNotDelivered: http.StatusBadRequest,
	ErrCodeRestaurantClosed:  http.StatusBadRequest,

	ErrCodeStorageUnavailable: http.StatusServiceUnavailable,
	ErrCodeRateLimited:        http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// legacyErrorCodeMapping folds aliases used by libraries and older clients
// onto the canonical codes
var legacyErrorCodeMapping = map[string]string{
	"BAD_REQUEST":      ErrCodeInvalidInput,
	"INVALID_JSON":     ErrCodeInvalidInput,
	"VALIDATION":       ErrCodeValidation,
	"TOKEN_INVALID":    ErrCodeTokenInvalid,
	"TOO_MANY_REQUEST": ErrCodeRateLimited,
	"RATE_LIMIT":       ErrCodeRateLimited,
	"DUPLICATE":        ErrCodeAlreadyExists,
}

// NormalizeErrorCode upper-cases the code, strips an ERR_ prefix and folds
// known aliases. Unknown codes are returned in canonical case.
func NormalizeErrorCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.TrimPrefix(code, "ERR_")
	if mapped, ok := legacyErrorCodeMapping[code]; ok {
		return mapped
	}
	return code
}
