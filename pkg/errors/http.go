package errors

import (
	"net/http"
)

// HTTPStatusCode returns the appropriate HTTP status code for an error
func HTTPStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	return HTTPStatusFromCode(GetCode(err))
}

// HTTPStatusFromCode returns the HTTP status for an error code
func HTTPStatusFromCode(code ErrorCode) int {
	switch code {
	// 400 Bad Request - Client sent invalid data
	case ErrCodeValidationRequired,
		ErrCodeValidationInvalid,
		ErrCodeValidationFormat,
		ErrCodeValidationRange,
		ErrCodeValidationType,
		ErrCodeValidationConstraint,
		ErrCodeTransportInvalidJSON,
		ErrCodeTransportInvalidParams,
		ErrCodeTransportUnmarshal:
		return http.StatusBadRequest

	// 404 Not Found
	case ErrCodeTenantNotFound,
		ErrCodeEntityNotFound,
		ErrCodeStorageNotFound,
		ErrCodeTransportMethodNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case ErrCodeEntityAlreadyExists,
		ErrCodeStateConflict,
		ErrCodeIdempotencyConflict,
		ErrCodeStorageConflict,
		ErrCodeStorageConstraint:
		return http.StatusConflict

	// 429 Too Many Requests
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests

	// 503 Service Unavailable
	case ErrCodeServiceUnavailable,
		ErrCodeSimulatedFault,
		ErrCodeStorageConnection:
		return http.StatusServiceUnavailable

	// 501 Not Implemented
	case ErrCodeNotImplemented:
		return http.StatusNotImplemented

	// 500 Internal Server Error - everything else
	default:
		return http.StatusInternalServerError
	}
}
