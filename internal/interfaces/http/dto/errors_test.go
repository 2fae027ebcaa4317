package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		domainCode string
		expected   string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{"INTEGRITY_VIOLATION", ErrCodeIntegrityViolation},
		{"CALCULATION_MISMATCH", ErrCodeIntegrityViolation},
		{"INVALID_STATE", ErrCodeInvalidState},
		{"PAYMENT_FAILED", ErrCodePaymentFailed},
		{"VENDOR_NOT_FOUND", ErrCodeBusinessRule},
		{"INVALID_RATE", ErrCodeInvalidInput},
		{"MIXED_CURRENCIES", ErrCodeInvalidInput},
		{"COMMISSION_SAVE_FAILED", ErrCodeInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeErrorCode(tt.domainCode), tt.domainCode)
	}

	// Unknown codes pass through untouched
	assert.Equal(t, "SOMETHING_CUSTOM", NormalizeErrorCode("SOMETHING_CUSTOM"))
}

func TestGetHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeAlreadyExists))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeIntegrityViolation))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrCodeInvalidState))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrCodePaymentFailed))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrCodeValidation))

	// Unmapped codes default to 500
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("NO_SUCH_CODE"))
}
