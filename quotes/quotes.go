// Package quotes is the market data boundary: a Source returns a
// point-in-time price for a symbol. Implementations here are the Alpha
// Vantage client, a Redis read-through cache, and a static in-memory
// source for tests and offline runs.
package quotes

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("symbol not found")

// Quote is a point-in-time price for one instrument. PriceCents is the
// per-share price in minor units.
type Quote struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// Source resolves a ticker symbol to a current quote. Lookup returns
// ErrNotFound when the symbol is unknown; any other error means the
// source itself is unavailable.
type Source interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}
