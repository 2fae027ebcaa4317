package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeIntegrityViolation is used when a record fails its integrity check
	ErrCodeIntegrityViolation = "ERR_INTEGRITY_VIOLATION"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodePaymentFailed is used when the payment gateway declined
	ErrCodePaymentFailed = "ERR_PAYMENT_FAILED"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeIntegrityViolation:  http.StatusConflict,

	ErrCodeInvalidState:  http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:  http.StatusUnprocessableEntity,
	ErrCodePaymentFailed: http.StatusUnprocessableEntity,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to standardized API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"INTEGRITY_VIOLATION":  ErrCodeIntegrityViolation,
	"CALCULATION_MISMATCH": ErrCodeIntegrityViolation,
	"INVALID_STATE":        ErrCodeInvalidState,
	"PAYMENT_FAILED":       ErrCodePaymentFailed,
	"VENDOR_NOT_FOUND":     ErrCodeBusinessRule,

	"INVALID_INPUT":            ErrCodeInvalidInput,
	"INVALID_ORDER":            ErrCodeInvalidInput,
	"INVALID_VENDOR":           ErrCodeInvalidInput,
	"INVALID_BUYER":            ErrCodeInvalidInput,
	"INVALID_APPROVER":         ErrCodeInvalidInput,
	"INVALID_AMOUNT":           ErrCodeInvalidInput,
	"INVALID_RATE":             ErrCodeInvalidInput,
	"INVALID_CURRENCY":         ErrCodeInvalidInput,
	"INVALID_COMMISSION_TYPE":  ErrCodeInvalidInput,
	"INVALID_PAYMENT_METHOD":   ErrCodeInvalidInput,
	"INVALID_TRANSACTION_TYPE": ErrCodeInvalidInput,
	"INVALID_TRANSACTION":      ErrCodeInvalidInput,
	"INVALID_REFUND":           ErrCodeInvalidInput,
	"MIXED_CURRENCIES":         ErrCodeInvalidInput,

	"COMMISSION_SAVE_FAILED": ErrCodeInternal,
	"INTERNAL_ERROR":         ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// If the code is already in the new format or unknown, returns it as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
