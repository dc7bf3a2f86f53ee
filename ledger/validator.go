package ledger

import "math"

// validateOrder checks one order against a snapshot of the user's
// state. Pure: no store access, no mutation. heldShares is the user's
// current position in the symbol, zero if none.
//
// Affordability is checked by division so a huge quantity cannot wrap
// priceCents*quantity around int64 and slip past the funds check. Once
// an order passes here, the cost computed later is guaranteed not to
// overflow: a buy is bounded by cashCents and a sell is bounded
// explicitly.
func validateOrder(side Side, quantity, priceCents, cashCents, heldShares int64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	switch side {
	case SideBuy:
		if priceCents > 0 && quantity > cashCents/priceCents {
			return ErrInsufficientFunds
		}
	case SideSell:
		if heldShares < quantity {
			return ErrInsufficientShares
		}
		if priceCents > 0 && quantity > math.MaxInt64/priceCents {
			return ErrInvalidQuantity
		}
	default:
		return ErrInvalidQuantity
	}
	return nil
}
