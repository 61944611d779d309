package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndGetCode(t *testing.T) {
	err := New(ErrCodeTenantNotFound, "tenant gone")
	assert.Equal(t, ErrCodeTenantNotFound, GetCode(err))
	assert.Equal(t, "tenant gone", GetMessage(err))
	assert.Equal(t, "tenant gone", err.Error())
}

func TestGetCodeDefaults(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetCode(nil))
	assert.Equal(t, ErrCodeInternal, GetCode(stderrors.New("plain")))
	assert.Equal(t, "An internal error occurred", GetMessage(stderrors.New("plain")))
}

func TestWrapPreservesInternalCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, ErrCodeStorageConnection, "storage failed")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeStorageConnection, GetCode(err))
	assert.Equal(t, "storage failed", GetMessage(err))
	assert.Equal(t, cause, GetInternal(err))
	assert.ErrorIs(t, err, cause)

	assert.Nil(t, Wrap(nil, ErrCodeStorageConnection, "never happens"))
}

func TestIsAndIsAny(t *testing.T) {
	err := TenantNotFound("acme-au-001")
	assert.True(t, Is(err, ErrCodeTenantNotFound))
	assert.False(t, Is(err, ErrCodeEntityNotFound))
	assert.True(t, IsAny(err, ErrCodeEntityNotFound, ErrCodeTenantNotFound))
	assert.False(t, Is(stderrors.New("plain"), ErrCodeTenantNotFound))
}

func TestIsInfrastructureSplit(t *testing.T) {
	assert.False(t, IsInfrastructure(ErrCodeValidationRequired))
	assert.False(t, IsInfrastructure(ErrCodeValidationRange))
	assert.True(t, IsInfrastructure(ErrCodeTenantNotFound))
	assert.True(t, IsInfrastructure(ErrCodeSimulatedFault))
	assert.True(t, IsInfrastructure(ErrCodeRateLimited))
}

func TestToJSONOmitsInternal(t *testing.T) {
	err := Wrap(stderrors.New("secret detail"), ErrCodeStorageConnection, "storage failed")
	payload, jsonErr := err.ToJSON()
	require.NoError(t, jsonErr)
	assert.NotContains(t, string(payload), "secret detail")
	assert.Contains(t, string(payload), "storage failed")
}

func TestHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationInvalid, http.StatusBadRequest},
		{ErrCodeTransportInvalidParams, http.StatusBadRequest},
		{ErrCodeTenantNotFound, http.StatusNotFound},
		{ErrCodeEntityAlreadyExists, http.StatusConflict},
		{ErrCodeStateConflict, http.StatusConflict},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeSimulatedFault, http.StatusServiceUnavailable},
		{ErrCodeNotImplemented, http.StatusNotImplemented},
		{ErrCodePanic, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusFromCode(tt.code), "code %s", tt.code)
	}
}

func TestHTTPStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatusCode(nil))
	assert.Equal(t, http.StatusNotFound, HTTPStatusCode(TenantNotFound("x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusCode(stderrors.New("plain")))
}
