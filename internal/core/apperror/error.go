// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Business rule violations (422)
	CodeBusinessRule          = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodeQuantityBoundExceeded = "QUANTITY_BOUND_EXCEEDED"
	CodeReferentialMismatch   = "REFERENTIAL_MISMATCH"

	// Internal invariant breaches (500) - must never surface if guards are correct
	CodeNegativeQuantity = "NEGATIVE_QUANTITY"

	// Concurrency (409)
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInsufficientStock is returned when a decrement exceeds the lot quantity.
func NewInsufficientStock(lotID any, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock in lot",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"lot_id":    lotID,
			"requested": requested,
			"available": available,
		},
	}
}

// NewQuantityBoundExceeded is returned when a cumulative downstream quantity
// would exceed its upstream bound (PO->ASN or Export->Return).
func NewQuantityBoundExceeded(relation string, bound, requested int64) *AppError {
	return &AppError{
		Code:       CodeQuantityBoundExceeded,
		Message:    "Cumulative quantity exceeds upstream bound",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"relation":  relation,
			"bound":     bound,
			"requested": requested,
		},
	}
}

// NewNegativeQuantity signals an internal invariant breach: a lot quantity
// would go below zero past the guards. Treated as a fatal assertion (500),
// never as user input error.
func NewNegativeQuantity(lotID any, result int64) *AppError {
	return &AppError{
		Code:       CodeNegativeQuantity,
		Message:    "Stock lot quantity would become negative",
		HTTPStatus: http.StatusInternalServerError,
		Details: map[string]any{
			"lot_id": lotID,
			"result": result,
		},
	}
}

// NewReferentialMismatch is returned when cross-document references disagree,
// e.g. an ASN's supplier differs from its purchase order's supplier.
func NewReferentialMismatch(message string) *AppError {
	return &AppError{
		Code:       CodeReferentialMismatch,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsInsufficientStock checks if error is CodeInsufficientStock
func IsInsufficientStock(err error) bool {
	return hasCode(err, CodeInsufficientStock)
}

// IsQuantityBoundExceeded checks if error is CodeQuantityBoundExceeded
func IsQuantityBoundExceeded(err error) bool {
	return hasCode(err, CodeQuantityBoundExceeded)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return hasCode(err, CodeConcurrentModification)
}

func hasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
