package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	// ErrTradeNotFound is an internal-consistency error: a ledger entry
	// references a trade that is no longer in the store. The settlement
	// scheduler logs and skips it; it is never fatal to a tick.
	ErrTradeNotFound = errors.New("trade_not_found")
)

// ValidationError represents an order that was rejected before any
// book mutation (non-positive price or quantity, unknown side).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
