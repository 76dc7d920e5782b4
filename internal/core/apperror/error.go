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
	CodeValidation    = "VALIDATION_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInvalidAmount = "INVALID_AMOUNT"

	// Business rule violations (400)
	CodeBusinessRule      = "BUSINESS_RULE_VIOLATION"
	CodeNegativeStock     = "NEGATIVE_STOCK"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeIllegalTransition = "ILLEGAL_TRANSITION"
	CodeAlreadyInState    = "ALREADY_IN_STATE"
	CodeAlreadyPaid       = "ALREADY_PAID"
	CodeNoChange          = "NO_CHANGE"
	CodeNotPayable        = "DOCUMENT_NOT_PAYABLE"
	CodeInactive          = "INACTIVE_ENTITY"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict               = "CONFLICT"
	CodeDuplicate              = "DUPLICATE_ENTRY"
	CodeIdempotency            = "IDEMPOTENCY_CONFLICT"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeSerializationFailure   = "SERIALIZATION_FAILURE"
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

// NewInvalidAmount is returned for money amounts that are zero, negative or malformed.
func NewInvalidAmount(field string, value any) *AppError {
	return &AppError{
		Code:       CodeInvalidAmount,
		Message:    "Amount must be greater than zero",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field, "value": value},
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

// NewBusinessRule creates a business rule violation error (400)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNegativeStock is returned when a stock change would drive quantity below zero.
func NewNegativeStock(productID, title string, before, delta int64) *AppError {
	return NewBusinessRule(CodeNegativeStock, fmt.Sprintf("Stock of %q cannot go negative", title)).
		WithDetail("product_id", productID).
		WithDetail("product", title).
		WithDetail("before", before).
		WithDetail("delta", delta).
		WithDetail("after", before+delta)
}

// NewInsufficientStock creates a stock shortage error
func NewInsufficientStock(productID, title string, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    fmt.Sprintf("Insufficient stock for %q", title),
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{
			"product_id": productID,
			"product":    title,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewInvalidTransition is returned for a status edge that the document does not allow.
func NewInvalidTransition(entity, from, to string) *AppError {
	return NewBusinessRule(CodeInvalidTransition,
		fmt.Sprintf("Cannot move %s from %s to %s", entity, from, to)).
		WithDetail("entity", entity).
		WithDetail("current", from).
		WithDetail("requested", to)
}

// NewAlreadyInState is returned when a document is asked to enter the state it is already in.
func NewAlreadyInState(entity, state string) *AppError {
	return NewBusinessRule(CodeAlreadyInState,
		fmt.Sprintf("%s is already %s", entity, state)).
		WithDetail("entity", entity).
		WithDetail("state", state)
}

// NewIllegalTransition is returned for an edge that exists but is blocked by document data.
func NewIllegalTransition(entity, message string) *AppError {
	return NewBusinessRule(CodeIllegalTransition, message).
		WithDetail("entity", entity)
}

// NewAlreadyPaid is returned when nothing remains to be paid on a document.
func NewAlreadyPaid(entity string, docID any) *AppError {
	return NewBusinessRule(CodeAlreadyPaid, fmt.Sprintf("%s is already fully paid", entity)).
		WithDetail("entity", entity).
		WithDetail("id", docID)
}

// NewNoChange is returned for operations that would not change anything.
func NewNoChange(message string) *AppError {
	return NewBusinessRule(CodeNoChange, message)
}

// NewNotPayable is returned when a document's status does not accept payments.
func NewNotPayable(entity, status string) *AppError {
	return NewBusinessRule(CodeNotPayable,
		fmt.Sprintf("%s in status %s does not accept payments", entity, status)).
		WithDetail("entity", entity).
		WithDetail("status", status)
}

// NewInactive is returned when a deactivated catalog item is referenced.
func NewInactive(entity string, id any) *AppError {
	return NewBusinessRule(CodeInactive, fmt.Sprintf("%s is inactive", entity)).
		WithDetail("entity", entity).
		WithDetail("id", id)
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

// NewSerializationFailure wraps a database serialization conflict. The caller may retry.
func NewSerializationFailure(err error) *AppError {
	return &AppError{
		Code:       CodeSerializationFailure,
		Message:    "Concurrent update detected, please retry",
		HTTPStatus: http.StatusConflict,
		Err:        err,
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

// NewIdempotencyConflict creates error when operation is already in progress
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused for
// a different request (different user/operation/body hash).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
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

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}

// Retryable reports whether repeating the same request may succeed: transient
// conflicts and server-side faults. Business-rule rejections are final.
func Retryable(err error) bool {
	appErr, ok := AsAppError(err)
	if !ok {
		return true
	}
	switch appErr.Code {
	case CodeSerializationFailure, CodeConcurrentModification, CodeIdempotency,
		CodeTimeout, CodeDatabase, CodeInternal:
		return true
	}
	return appErr.HTTPStatus == 0 || appErr.HTTPStatus >= http.StatusInternalServerError
}

// Normalize converts any error into an AppError; unknown errors become INTERNAL_ERROR.
func Normalize(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return NewInternal(err)
}
