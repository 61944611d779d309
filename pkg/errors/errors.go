package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a standardized error code.
//
// Codes are split into two disjoint taxonomies that must never be
// conflated: validation codes describe expected, first-class outcomes of
// checking a payload, while every other code describes a fault in the
// machinery around the core (unknown tenant, storage trouble, simulated
// outages, transport problems).
type ErrorCode string

const (
	// Validation failures: expected outcomes, never thrown across the
	// tool boundary.
	ErrCodeValidationRequired   ErrorCode = "VALIDATION_REQUIRED"
	ErrCodeValidationInvalid    ErrorCode = "VALIDATION_INVALID"
	ErrCodeValidationFormat     ErrorCode = "VALIDATION_FORMAT"
	ErrCodeValidationRange      ErrorCode = "VALIDATION_RANGE"
	ErrCodeValidationType       ErrorCode = "VALIDATION_TYPE"
	ErrCodeValidationConstraint ErrorCode = "VALIDATION_CONSTRAINT"

	// Infrastructure faults in tenant resolution and collaborators.
	ErrCodeTenantNotFound    ErrorCode = "TENANT_NOT_FOUND"
	ErrCodeConnectionMissing ErrorCode = "CONNECTION_MISSING"
	ErrCodeSimulatedFault    ErrorCode = "SIMULATED_FAULT"
	ErrCodeRateLimited       ErrorCode = "RATE_LIMITED"

	// Storage errors.
	ErrCodeStorageNotFound       ErrorCode = "STORAGE_NOT_FOUND"
	ErrCodeStorageConflict       ErrorCode = "STORAGE_CONFLICT"
	ErrCodeStorageConnection     ErrorCode = "STORAGE_CONNECTION"
	ErrCodeStorageTransaction    ErrorCode = "STORAGE_TRANSACTION"
	ErrCodeStorageConstraint     ErrorCode = "STORAGE_CONSTRAINT"
	ErrCodeStorageInitialization ErrorCode = "STORAGE_INITIALIZATION"

	// Business entity errors.
	ErrCodeEntityNotFound      ErrorCode = "ENTITY_NOT_FOUND"
	ErrCodeEntityAlreadyExists ErrorCode = "ENTITY_ALREADY_EXISTS"
	ErrCodeInvalidOperation    ErrorCode = "INVALID_OPERATION"
	ErrCodeStateConflict       ErrorCode = "STATE_CONFLICT"
	ErrCodeIdempotencyConflict ErrorCode = "IDEMPOTENCY_CONFLICT"

	// Transport errors.
	ErrCodeTransportMarshal        ErrorCode = "TRANSPORT_MARSHAL"
	ErrCodeTransportUnmarshal      ErrorCode = "TRANSPORT_UNMARSHAL"
	ErrCodeTransportInvalidJSON    ErrorCode = "TRANSPORT_INVALID_JSON"
	ErrCodeTransportMethodNotFound ErrorCode = "TRANSPORT_METHOD_NOT_FOUND"
	ErrCodeTransportInvalidParams  ErrorCode = "TRANSPORT_INVALID_PARAMS"

	// System errors.
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotImplemented     ErrorCode = "NOT_IMPLEMENTED"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeContextCanceled    ErrorCode = "CONTEXT_CANCELED"
	ErrCodeContextTimeout     ErrorCode = "CONTEXT_TIMEOUT"
	ErrCodePanic              ErrorCode = "PANIC_RECOVERED"
	ErrCodeConfiguration      ErrorCode = "CONFIGURATION_ERROR"
)

// IsInfrastructure reports whether a code belongs to the infrastructure
// taxonomy rather than payload validation. Failure responses pick their
// recovery suggestion set based on this split.
func IsInfrastructure(code ErrorCode) bool {
	switch code {
	case ErrCodeValidationRequired, ErrCodeValidationInvalid,
		ErrCodeValidationFormat, ErrCodeValidationRange,
		ErrCodeValidationType, ErrCodeValidationConstraint:
		return false
	}
	return true
}

// AppError represents a standardized application error
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Internal error       `json:"-"` // Internal error not exposed to clients
}

// Error implements the error interface
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// ToJSON returns a JSON representation safe for clients
func (e *AppError) ToJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	return &AppError{
		Code:     code,
		Message:  message,
		Internal: err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	if err == nil {
		return nil
	}

	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Is checks if an error has a specific error code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}

	return appErr.Code == code
}

// IsAny checks if an error matches any of the provided codes
func IsAny(err error, codes ...ErrorCode) bool {
	for _, code := range codes {
		if Is(err, code) {
			return true
		}
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return ErrCodeInternal
	}

	return appErr.Code
}

// GetMessage returns a safe message for the client
func GetMessage(err error) string {
	if err == nil {
		return ""
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return "An internal error occurred"
	}

	return appErr.Message
}

// GetInternal returns the internal error for logging
func GetInternal(err error) error {
	if err == nil {
		return nil
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return err
	}

	if appErr.Internal != nil {
		return appErr.Internal
	}

	return appErr
}

// TenantNotFound creates a tenant lookup failure
func TenantNotFound(tenantID string) *AppError {
	return Newf(ErrCodeTenantNotFound, "Tenant '%s' not found", tenantID)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return Newf(ErrCodeEntityNotFound, "%s not found", resource)
}

// AlreadyExists creates an already exists error
func AlreadyExists(resource string) *AppError {
	return Newf(ErrCodeEntityAlreadyExists, "%s already exists", resource)
}

// ValidationRequired creates a validation required error
func ValidationRequired(field string) *AppError {
	return Newf(ErrCodeValidationRequired, "%s is required", field)
}

// ValidationInvalid creates a validation invalid error
func ValidationInvalid(field, reason string) *AppError {
	return Newf(ErrCodeValidationInvalid, "%s is invalid: %s", field, reason)
}

// Internal creates an internal error with a safe message
func Internal(internalErr error) *AppError {
	return Wrap(internalErr, ErrCodeInternal, "An internal error occurred")
}

// Internalf creates an internal error with formatted safe message
func Internalf(internalErr error, format string, args ...interface{}) *AppError {
	return Wrap(internalErr, ErrCodeInternal, fmt.Sprintf(format, args...))
}
