package shared

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

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")

	// ErrInsufficientStock signals that a debit or reservation would drive
	// stock or availability negative without backorder permission.
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")

	// ErrConcurrencyConflict signals that row-lock acquisition retries were exhausted.
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")

	// ErrInvalidTransition signals a transfer transition requested from a state
	// that does not permit it. Workflow guards normally report this as a soft
	// failure; the sentinel exists for callers that need a hard error.
	ErrInvalidTransition = NewDomainError("INVALID_TRANSITION", "Operation not allowed in current state")

	// ErrSequenceExhausted signals that sequence number allocation failed after
	// the bounded retries. The creating operation must abort without persisting
	// a partial record.
	ErrSequenceExhausted = NewDomainError("SEQUENCE_EXHAUSTED", "Sequence allocation failed after retries")

	// ErrConservationViolation signals that a transfer completion was requested
	// while shipped != received + damaged + in-transit for one of its lines.
	ErrConservationViolation = NewDomainError("CONSERVATION_VIOLATION", "Transfer quantities do not reconcile")

	// ErrLedgerBypass signals an attempt to mutate the cached stock counter
	// outside the ledger write path. The ledger is the only legal writer.
	ErrLedgerBypass = NewDomainError("LEDGER_BYPASS", "Stock quantity can only be written by the ledger")
)
