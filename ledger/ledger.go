// Package ledger is the portfolio core: it validates orders against a
// point-in-time quote, applies the cash/holding/history transition as
// one atomic unit through a Store, and assembles read-only views. It
// holds no state of its own; all collaborators are injected.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"portfolio-ledger/models"
	"portfolio-ledger/quotes"
)

// maxRetries bounds the internal retry loop on version conflicts
// before ErrConcurrentModification is surfaced to the caller.
const maxRetries = 3

type Ledger struct {
	store  Store
	quotes quotes.Source
}

func New(store Store, src quotes.Source) *Ledger {
	return &Ledger{store: store, quotes: src}
}

// ExecuteOrder buys or sells quantity shares of symbol for one user at
// the current quoted price. On success the user's cash, the holding
// and the transaction history have all moved together; on any error
// the ledger is exactly as it was before the call.
func (l *Ledger) ExecuteOrder(ctx context.Context, userID uint, symbol string, side Side, quantity int64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	quote, err := l.quotes.Lookup(ctx, symbol)
	if err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			return ErrUnknownInstrument
		}
		return fmt.Errorf("%w: %v", ErrPricingUnavailable, err)
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := l.tryExecute(ctx, userID, quote, side, quantity)
		if errors.Is(err, ErrConcurrentModification) {
			continue
		}
		return err
	}
	return ErrConcurrentModification
}

// tryExecute runs one optimistic attempt: read a snapshot, validate
// against it, and apply the mutation CAS-guarded by the snapshot's
// version. A version conflict means another order for the same user
// landed in between; the caller re-reads and tries again.
func (l *Ledger) tryExecute(ctx context.Context, userID uint, quote quotes.Quote, side Side, quantity int64) error {
	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("%w: load user: %v", ErrStoreUnavailable, err)
	}

	var heldShares int64
	holding, err := l.store.GetHolding(ctx, userID, quote.Symbol)
	switch {
	case err == nil:
		heldShares = holding.Shares
	case errors.Is(err, ErrHoldingNotFound):
		// No position; heldShares stays zero.
	default:
		return fmt.Errorf("%w: load holding: %v", ErrStoreUnavailable, err)
	}

	if err := validateOrder(side, quantity, quote.PriceCents, user.CashCents, heldShares); err != nil {
		return err
	}

	m := buildMutation(userID, quote, side, quantity)
	if err := l.store.ApplyOrder(ctx, userID, user.Version, m); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("%w: apply order: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// buildMutation turns a validated order into the atomic unit the store
// applies. Price and quantity are both exact integers here, so the
// cash movement needs no rounding; the validator has already bounded
// the product, so it cannot overflow.
func buildMutation(userID uint, quote quotes.Quote, side Side, quantity int64) OrderMutation {
	total := quote.PriceCents * quantity
	m := OrderMutation{
		Symbol: quote.Symbol,
		Name:   quote.Name,
		Tx: models.Transaction{
			UserID:     userID,
			Symbol:     quote.Symbol,
			PriceCents: quote.PriceCents,
		},
	}
	if side == SideBuy {
		m.CashDelta = -total
		m.ShareDelta = quantity
		m.Tx.Type = models.TxPurchase
		m.Tx.Shares = quantity
	} else {
		m.CashDelta = total
		m.ShareDelta = -quantity
		m.Tx.Type = models.TxSale
		m.Tx.Shares = -quantity
	}
	return m
}

// HoldingView is one repriced position inside a PortfolioView.
type HoldingView struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Shares     int64  `json:"shares"`
	PriceCents int64  `json:"price_cents"`
	ValueCents int64  `json:"value_cents"`
}

// PortfolioView is a read-only snapshot of a user's net worth: every
// holding repriced at the current quote, plus cash.
type PortfolioView struct {
	Holdings   []HoldingView `json:"holdings"`
	CashCents  int64         `json:"cash_cents"`
	TotalCents int64         `json:"total_cents"`
}

// GetPortfolioView reprices all of a user's holdings at current
// quotes. If any one instrument cannot be priced the whole view fails
// with ErrPricingUnavailable: a partial total would misstate net worth.
func (l *Ledger) GetPortfolioView(ctx context.Context, userID uint) (PortfolioView, error) {
	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return PortfolioView{}, err
		}
		return PortfolioView{}, fmt.Errorf("%w: load user: %v", ErrStoreUnavailable, err)
	}

	holdings, err := l.store.ListHoldings(ctx, userID)
	if err != nil {
		return PortfolioView{}, fmt.Errorf("%w: list holdings: %v", ErrStoreUnavailable, err)
	}

	view := PortfolioView{
		Holdings:  make([]HoldingView, 0, len(holdings)),
		CashCents: user.CashCents,
	}
	total := user.CashCents
	for _, h := range holdings {
		quote, err := l.quotes.Lookup(ctx, h.Symbol)
		if err != nil {
			return PortfolioView{}, fmt.Errorf("%w: %s: %v", ErrPricingUnavailable, h.Symbol, err)
		}
		if quote.PriceCents > 0 && h.Shares > math.MaxInt64/quote.PriceCents {
			return PortfolioView{}, fmt.Errorf("%w: %s: position value overflows", ErrPricingUnavailable, h.Symbol)
		}
		value := quote.PriceCents * h.Shares
		view.Holdings = append(view.Holdings, HoldingView{
			Symbol:     h.Symbol,
			Name:       h.Name,
			Shares:     h.Shares,
			PriceCents: quote.PriceCents,
			ValueCents: value,
		})
		total += value
	}
	view.TotalCents = total
	return view, nil
}

// GetHistory returns the user's full transaction history, oldest
// first.
func (l *Ledger) GetHistory(ctx context.Context, userID uint) ([]models.Transaction, error) {
	txs, err := l.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", ErrStoreUnavailable, err)
	}
	return txs, nil
}
