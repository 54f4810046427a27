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
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when row-lock acquisition fails after retries
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeNotPermitted is used when a workflow transition guard refuses the
	// operation for the document's current state
	ErrCodeNotPermitted = "ERR_NOT_PERMITTED"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeInsufficientStock is used when stock is insufficient
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	// ErrCodeConservationViolation is used when a transfer's shipped, received,
	// damaged and in-transit quantities do not reconcile
	ErrCodeConservationViolation = "ERR_CONSERVATION_VIOLATION"
	// ErrCodeLedgerBypass is used when a write to the stock counter bypasses the ledger
	ErrCodeLedgerBypass = "ERR_LEDGER_BYPASS"
	// ErrCodeSequenceExhausted is used when document number allocation fails after retries
	ErrCodeSequenceExhausted = "ERR_SEQUENCE_EXHAUSTED"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:          http.StatusUnprocessableEntity,
	ErrCodeNotPermitted:          http.StatusConflict,
	ErrCodeBusinessRule:          http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:     http.StatusUnprocessableEntity,
	ErrCodeConservationViolation: http.StatusUnprocessableEntity,
	ErrCodeLedgerBypass:          http.StatusUnprocessableEntity,

	// Allocation exhaustion is transient, signal the client to retry later
	ErrCodeSequenceExhausted: http.StatusServiceUnavailable,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the wire-level codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_TRANSITION":     ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":   ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":     ErrCodeInsufficientStock,
	"CONSERVATION_VIOLATION": ErrCodeConservationViolation,
	"LEDGER_BYPASS":          ErrCodeLedgerBypass,
	"SEQUENCE_EXHAUSTED":     ErrCodeSequenceExhausted,
	"UNAUTHORIZED":           ErrCodeUnauthorized,
	"FORBIDDEN":              ErrCodeForbidden,
	"VALIDATION_ERROR":       ErrCodeValidation,
	"BAD_REQUEST":            ErrCodeBadRequest,
	"INTERNAL_ERROR":         ErrCodeInternal,

	// Domain validation codes surface as business rule violations
	"INVALID_QUANTITY":        ErrCodeBusinessRule,
	"INVALID_COST":            ErrCodeBusinessRule,
	"INVALID_PRODUCT":         ErrCodeBusinessRule,
	"INVALID_BRANCH":          ErrCodeBusinessRule,
	"INVALID_WAREHOUSE":       ErrCodeBusinessRule,
	"INVALID_ACTOR":           ErrCodeBusinessRule,
	"INVALID_MOVEMENT_TYPE":   ErrCodeBusinessRule,
	"INVALID_DOCUMENT_KIND":   ErrCodeBusinessRule,
	"INVALID_DOCUMENT_REF":    ErrCodeBusinessRule,
	"INVALID_DOCUMENT_ID":     ErrCodeBusinessRule,
	"INVALID_APPROVAL_LEVELS": ErrCodeBusinessRule,
	"NO_ITEMS":                ErrCodeBusinessRule,
	"NO_RECEIPTS":             ErrCodeBusinessRule,
	"DUPLICATE_PRODUCT":       ErrCodeBusinessRule,
	"DUPLICATE_APPROVAL":      ErrCodeBusinessRule,
	"TRANSIT_CLOSED":          ErrCodeBusinessRule,
	"ALREADY_DELETED":         ErrCodeBusinessRule,
	"NOT_DELETED":             ErrCodeBusinessRule,
	"ITEM_NOT_FOUND":          ErrCodeNotFound,
	"UNREGISTERED_KIND":       ErrCodeBusinessRule,
}

// NormalizeErrorCode converts a domain error code to the wire-level format
// If the code is already in the wire format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
