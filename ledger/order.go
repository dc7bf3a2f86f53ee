package ledger

import (
	"strconv"

	"portfolio-ledger/models"
)

// Side is the direction of an order.
type Side int

const (
	SideBuy Side = iota + 1
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide maps the wire form ("buy"/"sell") to a Side.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "buy":
		return SideBuy, true
	case "sell":
		return SideSell, true
	default:
		return 0, false
	}
}

// ParseQuantity parses a share count submitted as text. Anything that
// is not a positive integer is ErrInvalidQuantity.
func ParseQuantity(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidQuantity
	}
	return n, nil
}

// OrderMutation is the atomic unit applied by a Store for one executed
// order: the signed cash movement, the signed share movement on one
// holding, and the history row. Either all three land or none do.
type OrderMutation struct {
	CashDelta  int64 // signed minor units; negative debits the user
	Symbol     string
	Name       string // instrument name cached onto a new holding
	ShareDelta int64  // signed: positive buy, negative sell
	Tx         models.Transaction
}
