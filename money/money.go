// Package money converts between the decimal prices quoted by market
// data providers and the int64 minor-unit amounts the ledger stores.
// Conversion to cents happens exactly once, when a quote is ingested;
// every computation after that point is exact integer arithmetic.
package money

import (
	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// CentsFromDecimal converts a decimal currency amount to minor units,
// rounding half away from zero at the second decimal place.
func CentsFromDecimal(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// ParseCents parses a decimal currency string (like "135.42") into
// minor units.
func ParseCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return CentsFromDecimal(d), nil
}

// USD formats minor units as a dollar string, e.g. 950000 -> "$9,500.00".
// Display formatting only; persisted amounts stay numeric.
func USD(cents int64) string {
	return gomoney.New(cents, gomoney.USD).Display()
}
