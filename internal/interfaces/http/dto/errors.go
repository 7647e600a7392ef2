package dto

import (
	"net/http"

	"github.com/erp/ledger/internal/domain/shared"
)

// Transport-level error codes. Domain errors carry their own codes
// (see internal/domain/shared); these cover failures that happen
// before a request ever reaches the application layer.
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeInternal:   http.StatusInternalServerError,

	// Lookup failures
	shared.CodeNotFound: http.StatusNotFound,

	// Conflicts with existing state -> 409 Conflict
	shared.CodeAlreadyExists:         http.StatusConflict,
	shared.CodeConcurrencyConflict:   http.StatusConflict,
	shared.CodeDuplicatePeriodRecord: http.StatusConflict,

	// Malformed input -> 400 Bad Request
	shared.CodeInvalidInput: http.StatusBadRequest,

	// Business rule violations -> 422 Unprocessable Entity
	shared.CodeInvalidAmount:          http.StatusUnprocessableEntity,
	shared.CodeOverpayment:            http.StatusUnprocessableEntity,
	shared.CodeInsufficientFunds:      http.StatusUnprocessableEntity,
	shared.CodeCurrencyMismatch:       http.StatusUnprocessableEntity,
	shared.CodeInvalidStateTransition: http.StatusUnprocessableEntity,
	shared.CodeReconciliationError:    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
