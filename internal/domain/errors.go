package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrInsufficientAvailable = errors.New("insufficient_available_balance")
	ErrInsufficientLocked    = errors.New("insufficient_locked_balance")
	ErrOrderNotFound         = errors.New("order_not_found")
	ErrAlreadyTerminal       = errors.New("order_already_terminal")
	ErrOverFill              = errors.New("fill_exceeds_remaining_quantity")
	ErrUnknownPair           = errors.New("unknown_pair")
	ErrWalletNotFound        = errors.New("wallet_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
