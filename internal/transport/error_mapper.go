package transport

import (
	"fmt"

	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

// ToJSONRPCError maps internal AppError codes to JSON-RPC error codes.
// Domain outcomes (validation failures, simulated faults) never reach this
// mapper: they travel as success=false envelopes inside a normal result.
// Only transport and system problems become JSON-RPC errors.
func ToJSONRPCError(err error) *JSONRPCError {
	if err == nil {
		return nil
	}

	code := errors.GetCode(err)
	message := errors.GetMessage(err)

	var jsonRPCCode int
	switch code {
	case errors.ErrCodeTransportMethodNotFound, errors.ErrCodeNotImplemented:
		jsonRPCCode = MethodNotFound
	case errors.ErrCodeTransportInvalidParams:
		jsonRPCCode = InvalidParams
	case errors.ErrCodeTransportInvalidJSON, errors.ErrCodeTransportMarshal, errors.ErrCodeTransportUnmarshal:
		jsonRPCCode = ParseError

	case errors.ErrCodeValidationRequired, errors.ErrCodeValidationInvalid,
		errors.ErrCodeValidationFormat, errors.ErrCodeValidationRange,
		errors.ErrCodeValidationType, errors.ErrCodeValidationConstraint:
		jsonRPCCode = InvalidParams

	case errors.ErrCodeInternal, errors.ErrCodePanic, errors.ErrCodeContextCanceled,
		errors.ErrCodeContextTimeout, errors.ErrCodeServiceUnavailable,
		errors.ErrCodeConfiguration:
		jsonRPCCode = InternalError

	// Application errors use the custom range -32000 to -32099.
	case errors.ErrCodeEntityNotFound, errors.ErrCodeTenantNotFound, errors.ErrCodeStorageNotFound:
		jsonRPCCode = -32001
	case errors.ErrCodeEntityAlreadyExists:
		jsonRPCCode = -32002
	case errors.ErrCodeInvalidOperation, errors.ErrCodeStateConflict,
		errors.ErrCodeIdempotencyConflict, errors.ErrCodeStorageConflict,
		errors.ErrCodeStorageConstraint:
		jsonRPCCode = -32003
	case errors.ErrCodeConnectionMissing:
		jsonRPCCode = -32004
	case errors.ErrCodeSimulatedFault:
		jsonRPCCode = -32005
	case errors.ErrCodeRateLimited:
		jsonRPCCode = -32006
	case errors.ErrCodeStorageConnection, errors.ErrCodeStorageTransaction,
		errors.ErrCodeStorageInitialization:
		jsonRPCCode = InternalError
	default:
		jsonRPCCode = -32000
	}

	return &JSONRPCError{
		Code:    jsonRPCCode,
		Message: message,
		Data:    map[string]interface{}{"error_code": string(code)},
	}
}

// ToJSONRPCResponse creates a complete JSONRPCResponse with error
func ToJSONRPCResponse(id interface{}, err error) *JSONRPCResponse {
	if err == nil {
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      id,
			Result:  map[string]interface{}{"success": true},
		}
	}

	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   ToJSONRPCError(err),
	}
}

// CreateFallbackErrorResponse creates a safe fallback error response for critical failures
func CreateFallbackErrorResponse(id interface{}, message string) *JSONRPCResponse {
	if message == "" {
		message = "An unexpected error occurred"
	}

	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    InternalError,
			Message: message,
			Data:    map[string]interface{}{"error_code": "FALLBACK_ERROR"},
		},
	}
}

// LoggableError returns the full error details for logging, including the
// internal cause that is never sent to clients.
func LoggableError(err error) error {
	if err == nil {
		return nil
	}

	internal := errors.GetInternal(err)
	if internal != nil {
		return fmt.Errorf("error_code=%s message=%s internal=%v",
			errors.GetCode(err), errors.GetMessage(err), internal)
	}

	return fmt.Errorf("error_code=%s message=%s",
		errors.GetCode(err), errors.GetMessage(err))
}
