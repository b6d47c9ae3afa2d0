package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is used for malformed or inconsistent input; nothing was consumed
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeMissingRegistrationPlate blocks certificates for unregistered vehicles
	ErrCodeMissingRegistrationPlate = "ERR_MISSING_REGISTRATION_PLATE"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeSnapshotMissing means the document can never be regenerated
	ErrCodeSnapshotMissing   = "ERR_SNAPSHOT_MISSING"
	ErrCodeArtifactNotStored = "ERR_ARTIFACT_NOT_STORED"
)

// Business rule error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	ErrCodeCostLocked   = "ERR_COST_LOCKED"
)

// Document ledger error codes
const (
	// ErrCodeAllocationConflict is returned once transparent retries are exhausted; no number was consumed
	ErrCodeAllocationConflict = "ERR_ALLOCATION_CONFLICT"
	// ErrCodeNumberConsumed is returned when a number was allocated but its document could not be saved
	ErrCodeNumberConsumed = "ERR_NUMBER_CONSUMED"
	// ErrCodeAllocationUncertain is returned when the allocator failed after the increment may have landed
	ErrCodeAllocationUncertain   = "ERR_ALLOCATION_UNCERTAIN"
	ErrCodeRequestInProgress     = "ERR_REQUEST_IN_PROGRESS"
	ErrCodeIdempotencyKeyExpired = "ERR_IDEMPOTENCY_KEY_CONSUMED"
)

// Upstream error codes
const (
	ErrCodeRenderFailed       = "ERR_RENDER_FAILED"
	ErrCodeExtractionFailed   = "ERR_EXTRACTION_FAILED"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// Input error codes
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request, business-rule validation -> 422
	ErrCodeValidation:               http.StatusBadRequest,
	ErrCodeMissingRegistrationPlate: http.StatusUnprocessableEntity,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeSnapshotMissing:     http.StatusGone,
	ErrCodeArtifactNotStored:   http.StatusNotFound,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,
	ErrCodeCostLocked:   http.StatusConflict,

	ErrCodeAllocationConflict:    http.StatusConflict,
	ErrCodeNumberConsumed:        http.StatusInternalServerError,
	ErrCodeAllocationUncertain:   http.StatusInternalServerError,
	ErrCodeRequestInProgress:     http.StatusConflict,
	ErrCodeIdempotencyKeyExpired: http.StatusConflict,

	ErrCodeRenderFailed:       http.StatusBadGateway,
	ErrCodeExtractionFailed:   http.StatusBadGateway,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                  ErrCodeNotFound,
	"COST_NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":             ErrCodeAlreadyExists,
	"TRADE_IN_EXISTS":            ErrCodeAlreadyExists,
	"INVALID_INPUT":              ErrCodeInvalidInput,
	"INVALID_STATE":              ErrCodeInvalidState,
	"INVALID_NUMBER":             ErrCodeBusinessRule,
	"CONCURRENCY_CONFLICT":       ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":           ErrCodeValidation,
	"MISSING_REGISTRATION_PLATE": ErrCodeMissingRegistrationPlate,
	"COST_LOCKED":                ErrCodeCostLocked,
	"SNAPSHOT_MISSING":           ErrCodeSnapshotMissing,
	"ARTIFACT_NOT_STORED":        ErrCodeArtifactNotStored,
	"REQUEST_IN_PROGRESS":        ErrCodeRequestInProgress,
	"IDEMPOTENCY_KEY_CONSUMED":   ErrCodeIdempotencyKeyExpired,
	"EXTRACTION_FAILED":          ErrCodeExtractionFailed,
	"EXTRACTION_UNAVAILABLE":     ErrCodeServiceUnavailable,
	"RENDERING_UNAVAILABLE":      ErrCodeServiceUnavailable,
	"EXPORT_UNAVAILABLE":         ErrCodeServiceUnavailable,
	"BAD_REQUEST":                ErrCodeBadRequest,
	"INTERNAL_ERROR":             ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
