package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeRateLimited  ErrorType = "rate_limited"
	ErrorTypeLocked       ErrorType = "locked"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeDatabase     ErrorType = "database"
)

// APIError represents a structured API error
type APIError struct {
	Type        ErrorType         `json:"type"`
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Details     string            `json:"details,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	HTTPStatus  int               `json:"-"`
	InternalErr error             `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Message, e.Details, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.InternalErr
}

// NewAPIError creates a new API error
func NewAPIError(errorType ErrorType, code, message string, httpStatus int) *APIError {
	return &APIError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// NewAPIErrorWithCause creates a new API error with an underlying cause
func NewAPIErrorWithCause(errorType ErrorType, code, message string, httpStatus int, cause error) *APIError {
	return &APIError{
		Type:        errorType,
		Code:        code,
		Message:     message,
		HTTPStatus:  httpStatus,
		InternalErr: cause,
	}
}

// Predefined error constructors

// ValidationError creates a validation error
func ValidationError(code, message string) *APIError {
	return NewAPIError(ErrorTypeValidation, code, message, http.StatusBadRequest)
}

// FieldValidationError creates a validation error keyed by field name, so
// clients can attach each message to the offending input.
func FieldValidationError(fields map[string]string) *APIError {
	return &APIError{
		Type:       ErrorTypeValidation,
		Code:       "VALIDATION_FAILED",
		Message:    "One or more fields are invalid",
		Fields:     fields,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NotFoundError creates a not found error
func NotFoundError(resource string) *APIError {
	return NewAPIError(ErrorTypeNotFound, "RESOURCE_NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ConflictError creates a conflict error
func ConflictError(message string) *APIError {
	return NewAPIError(ErrorTypeConflict, "RESOURCE_CONFLICT", message, http.StatusConflict)
}

// RoleConflictError reports that an exclusive role is already held.
func RoleConflictError(role, holderID string) *APIError {
	return NewAPIError(ErrorTypeConflict, "ROLE_TAKEN",
		fmt.Sprintf("role %s is already assigned to member %s", role, holderID),
		http.StatusConflict)
}

// UnauthorizedError creates an unauthorized error
func UnauthorizedError(message string) *APIError {
	return NewAPIError(ErrorTypeUnauthorized, "UNAUTHORIZED", message, http.StatusUnauthorized)
}

// ForbiddenError creates a forbidden error
func ForbiddenError(message string) *APIError {
	return NewAPIError(ErrorTypeForbidden, "FORBIDDEN", message, http.StatusForbidden)
}

// RateLimitError creates a too-many-requests error
func RateLimitError(message string) *APIError {
	return NewAPIError(ErrorTypeRateLimited, "RATE_LIMITED", message, http.StatusTooManyRequests)
}

// AccountLockedError reports a temporarily locked staff account.
func AccountLockedError(retryAfter time.Duration) *APIError {
	return NewAPIError(ErrorTypeLocked, "ACCOUNT_LOCKED",
		fmt.Sprintf("account locked, try again in %d minutes", int(retryAfter.Minutes())+1),
		http.StatusForbidden)
}

// InternalError creates an internal server error
func InternalError(message string) *APIError {
	return NewAPIError(ErrorTypeInternal, "INTERNAL_ERROR", message, http.StatusInternalServerError)
}

// InternalErrorWithCause creates an internal server error with cause
func InternalErrorWithCause(message string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeInternal, "INTERNAL_ERROR", message, http.StatusInternalServerError, cause)
}

// DatabaseError creates a database error
func DatabaseError(operation string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeDatabase, "DATABASE_ERROR",
		fmt.Sprintf("Database operation failed: %s", operation),
		http.StatusInternalServerError, cause)
}

// Error handling utilities

// IsAPIError checks if an error is an APIError
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// GetAPIError extracts APIError from an error chain
func GetAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// HandleDatabaseError translates GORM errors into API errors. Duplicate-key
// violations become conflicts so a repeated attendance mark or member ID is
// reported as 409 rather than 500.
func HandleDatabaseError(err error, resource, operation string) *APIError {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError(resource)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyMessage(err) {
		return ConflictError(fmt.Sprintf("%s already exists", resource))
	}
	return DatabaseError(operation, err)
}

// isDuplicateKeyMessage catches drivers that report unique violations as
// plain errors instead of gorm.ErrDuplicatedKey (sqlite does this).
func isDuplicateKeyMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

// ErrorResponse represents the JSON structure for error responses
type ErrorResponse struct {
	Error     *APIError `json:"error"`
	Timestamp string    `json:"timestamp"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(apiErr *APIError) *ErrorResponse {
	return &ErrorResponse{
		Error:     apiErr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
