package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	// ErrorTypeUnavailable marks infrastructure that could not answer. Never a policy decision.
	ErrorTypeUnavailable ErrorType = "unavailable"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// With returns a copy of e wrapping err, so details can be attached
// without mutating a package-level sentinel
func (e *DomainError) With(err error) *DomainError {
	c := NewDomainError(e.Type, e.Message, err)
	for k, v := range e.Details {
		c.Details[k] = v
	}
	return c
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

var (
	ErrUserNotFound              = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrEmpresaNotFound           = NewDomainError(ErrorTypeNotFound, "empresa not found", nil)
	ErrPermissionNotFound        = NewDomainError(ErrorTypeNotFound, "permission not found", nil)
	ErrEmpresaPermissionNotFound = NewDomainError(ErrorTypeNotFound, "empresa permission not found", nil)
	ErrSessionNotFound           = NewDomainError(ErrorTypeNotFound, "session not found", nil)

	ErrInvalidInput       = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrUnknownRole        = NewDomainError(ErrorTypeValidation, "unknown role", nil)
	ErrUnknownEmpresaType = NewDomainError(ErrorTypeValidation, "unknown empresa type", nil)
	ErrUnknownKind        = NewDomainError(ErrorTypeValidation, "unknown permission kind", nil)
	ErrUnknownSection     = NewDomainError(ErrorTypeValidation, "unknown section or action", nil)
	// ErrMalformedPermissionRecord describes a stored record missing expected fields.
	// Listings skip such records instead of failing.
	ErrMalformedPermissionRecord = NewDomainError(ErrorTypeValidation, "malformed permission record", nil)

	ErrSelfRoleChange = NewDomainError(ErrorTypeForbidden, "cannot change own role", nil)

	ErrDuplicatePermission = NewDomainError(ErrorTypeConflict, "permission already exists", nil)

	ErrStoreUnavailable = NewDomainError(ErrorTypeUnavailable, "permission store unavailable", nil)
)

func isType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return isType(err, ErrorTypeUnauthorized) }

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool { return isType(err, ErrorTypeForbidden) }

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool { return isType(err, ErrorTypeConflict) }

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool { return isType(err, ErrorTypeInternal) }

// IsUnavailableError checks if an error reports an unreachable store
func IsUnavailableError(err error) bool { return isType(err, ErrorTypeUnavailable) }

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapUnavailable wraps a store failure so callers can tell an outage from a denial
func WrapUnavailable(message string, err error) error {
	return NewDomainError(ErrorTypeUnavailable, message, err)
}
