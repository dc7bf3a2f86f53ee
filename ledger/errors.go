package ledger

import "errors"

// Order and view errors, grouped by who can fix them. Validation
// errors mean the input was bad, business rule errors mean the user's
// state can't support the order, ErrConcurrentModification is
// transient and already retried internally, and the dependency errors
// mean an external collaborator (quote source or store) is down.
var (
	// Validation.
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")

	// Business rules.
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")

	// Concurrency.
	ErrConcurrentModification = errors.New("concurrent modification, retry")

	// Dependencies.
	ErrPricingUnavailable = errors.New("pricing unavailable")
	ErrStoreUnavailable   = errors.New("store unavailable")

	// Store lookups.
	ErrUserNotFound    = errors.New("user not found")
	ErrHoldingNotFound = errors.New("holding not found")
)
