// Package handlers is the HTTP face of the service. It authenticates
// users, parses order input, and renders what the ledger returns; all
// money math and state transitions live in the ledger package.
package handlers

import (
	"errors"
	"net/http"

	"github.com/go-redis/redis/v8"

	"portfolio-ledger/ledger"
	"portfolio-ledger/quotes"
)

type Handler struct {
	ledger    *ledger.Ledger
	store     ledger.Store
	quotes    quotes.Source
	rdb       *redis.Client
	jwtSecret string
}

func New(l *ledger.Ledger, store ledger.Store, src quotes.Source, rdb *redis.Client, jwtSecret string) *Handler {
	return &Handler{ledger: l, store: store, quotes: src, rdb: rdb, jwtSecret: jwtSecret}
}

// orderStatus maps the ledger's error taxonomy to HTTP statuses:
// validation 400, business rule 422, concurrency 409, dependency 503.
func orderStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnknownInstrument),
		errors.Is(err, ledger.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientShares):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrPricingUnavailable),
		errors.Is(err, ledger.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
