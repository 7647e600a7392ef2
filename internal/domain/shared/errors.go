package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Ledger error codes. Domain and application layers create errors with
// these codes; callers match with ErrorCode rather than message text.
const (
	CodeNotFound               = "NOT_FOUND"
	CodeAlreadyExists          = "ALREADY_EXISTS"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeOverpayment            = "OVERPAYMENT"
	CodeInsufficientFunds      = "INSUFFICIENT_FUNDS"
	CodeCurrencyMismatch       = "CURRENCY_MISMATCH"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeDuplicatePeriodRecord  = "DUPLICATE_PERIOD_RECORD"
	CodeReconciliationError    = "RECONCILIATION_ERROR"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)

// ErrorCode extracts the domain error code from err, unwrapping as needed.
// Returns an empty string for non-domain errors.
func ErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}
