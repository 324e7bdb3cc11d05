package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeUnauthorized      ErrorType = "unauthorized"
	ErrorTypePIIResidue        ErrorType = "pii_residue"
	ErrorTypeInvalidTransition ErrorType = "invalid_transition"
	ErrorTypeConflict          ErrorType = "conflict"
	ErrorTypeInternal          ErrorType = "internal"
	ErrorTypeExternal          ErrorType = "external"
	ErrorTypeConfiguration     ErrorType = "configuration"
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

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail returns a copy of the error with the detail attached.
// Copying keeps the shared sentinel errors immutable.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value

	return &DomainError{
		Type:    e.Type,
		Message: e.Message,
		Err:     e.Err,
		Details: details,
	}
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

// Domain error variables

var (
	// Not Found Errors
	ErrSignalNotFound     = NewDomainError(ErrorTypeNotFound, "signal not found", nil)
	ErrAuditEntryNotFound = NewDomainError(ErrorTypeNotFound, "audit entry not found", nil)

	// Validation Errors
	ErrInvalidInput       = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyActor         = NewDomainError(ErrorTypeValidation, "actor cannot be empty", nil)
	ErrInvalidCategory    = NewDomainError(ErrorTypeValidation, "invalid category", nil)
	ErrInvalidUrgency     = NewDomainError(ErrorTypeValidation, "invalid urgency level", nil)
	ErrBatchCardinality   = NewDomainError(ErrorTypeValidation, "generated batch size does not match requested size", nil)
	ErrEmptyExampleSet    = NewDomainError(ErrorTypeValidation, "example set is empty", nil)
	ErrInvalidBatchBounds = NewDomainError(ErrorTypeValidation, "batch size bounds are invalid", nil)

	// Authorization Errors
	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidToken = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrTokenExpired = NewDomainError(ErrorTypeUnauthorized, "authentication token expired", nil)

	// Privacy Errors
	ErrPIIResidue = NewDomainError(ErrorTypePIIResidue, "detectable PII remained after scrubbing", nil)

	// Governance Errors
	ErrInvalidTransition            = NewDomainError(ErrorTypeInvalidTransition, "governance transition not permitted", nil)
	ErrConcurrentTransitionConflict = NewDomainError(ErrorTypeConflict, "concurrent governance transition in progress", nil)
	ErrStaleGovernanceState         = NewDomainError(ErrorTypeConflict, "governance state changed underneath transition", nil)

	// Internal Errors
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)
	ErrAuditFailed   = NewDomainError(ErrorTypeInternal, "audit append failed", nil)

	// External Oracle Errors
	ErrOracleUnavailable = NewDomainError(ErrorTypeExternal, "oracle unavailable", nil)
	ErrOracleTimeout     = NewDomainError(ErrorTypeExternal, "oracle timeout", nil)
	ErrOracleError       = NewDomainError(ErrorTypeExternal, "oracle error", nil)
	ErrOracleMalformed   = NewDomainError(ErrorTypeExternal, "oracle returned malformed payload", nil)

	// Configuration Errors
	ErrMissingConfiguration = NewDomainError(ErrorTypeConfiguration, "required configuration missing", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeUnauthorized
	}
	return false
}

// IsPIIResidueError checks if an error is a PII residue error
func IsPIIResidueError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypePIIResidue
	}
	return false
}

// IsInvalidTransitionError checks if an error is an invalid transition error
func IsInvalidTransitionError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeInvalidTransition
	}
	return false
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeConflict
	}
	return false
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeInternal
	}
	return false
}

// IsExternalError checks if an error is an external oracle error
func IsExternalError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeExternal
	}
	return false
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeConfiguration
	}
	return false
}

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

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external oracle error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}
