package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"portfolio-ledger/ledger"
	"portfolio-ledger/models"
	"portfolio-ledger/quotes"
	"portfolio-ledger/store"
)

func newTestLedger(t *testing.T, cashCents int64, qs ...quotes.Quote) (*ledger.Ledger, *store.Memory, uint) {
	t.Helper()
	st := store.NewMemory()
	u := models.User{Username: "alice", PasswordHash: "x", CashCents: cashCents}
	if err := st.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return ledger.New(st, quotes.NewStatic(qs...)), st, u.ID
}

func mustCash(t *testing.T, st *store.Memory, id uint) int64 {
	t.Helper()
	u, err := st.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	return u.CashCents
}

func TestBuyUpdatesCashHoldingAndHistory(t *testing.T) {
	l, st, id := newTestLedger(t, 10000, quotes.Quote{Symbol: "AAPL", Name: "Apple Inc", PriceCents: 100})
	ctx := context.Background()

	if err := l.ExecuteOrder(ctx, id, "AAPL", ledger.SideBuy, 5); err != nil {
		t.Fatalf("buy: %v", err)
	}

	if got := mustCash(t, st, id); got != 9500 {
		t.Errorf("cash = %d, want 9500", got)
	}

	h, err := st.GetHolding(ctx, id, "AAPL")
	if err != nil {
		t.Fatalf("get holding: %v", err)
	}
	if h.Shares != 5 {
		t.Errorf("shares = %d, want 5", h.Shares)
	}
	if h.Name != "Apple Inc" {
		t.Errorf("name = %q, want %q", h.Name, "Apple Inc")
	}

	txs, err := st.ListTransactions(ctx, id)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
	if txs[0].Type != models.TxPurchase || txs[0].Shares != 5 || txs[0].PriceCents != 100 {
		t.Errorf("tx = {%s %d %d}, want {Purchase 5 100}", txs[0].Type, txs[0].Shares, txs[0].PriceCents)
	}
}

func TestSellAtHigherPriceDeletesHolding(t *testing.T) {
	src := quotes.NewStatic(quotes.Quote{Symbol: "AAPL", Name: "Apple Inc", PriceCents: 100})
	st := store.NewMemory()
	u := models.User{Username: "alice", PasswordHash: "x", CashCents: 10000}
	if err := st.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	l := ledger.New(st, src)
	ctx := context.Background()

	if err := l.ExecuteOrder(ctx, u.ID, "AAPL", ledger.SideBuy, 5); err != nil {
		t.Fatalf("buy: %v", err)
	}

	// Price moves before the sale.
	src.Set(quotes.Quote{Symbol: "AAPL", Name: "Apple Inc", PriceCents: 120})

	if err := l.ExecuteOrder(ctx, u.ID, "AAPL", ledger.SideSell, 5); err != nil {
		t.Fatalf("sell: %v", err)
	}

	if got := mustCash(t, st, u.ID); got != 10100 {
		t.Errorf("cash = %d, want 10100", got)
	}

	if _, err := st.GetHolding(ctx, u.ID, "AAPL"); !errors.Is(err, ledger.ErrHoldingNotFound) {
		t.Errorf("holding after full sell: err = %v, want ErrHoldingNotFound", err)
	}

	txs, _ := st.ListTransactions(ctx, u.ID)
	if len(txs) != 2 {
		t.Fatalf("transactions = %d, want 2", len(txs))
	}
	sale := txs[1]
	if sale.Type != models.TxSale || sale.Shares != -5 || sale.PriceCents != 120 {
		t.Errorf("sale tx = {%s %d %d}, want {Sale -5 120}", sale.Type, sale.Shares, sale.PriceCents)
	}
}

func TestBuyThenSellSamePriceRestoresCash(t *testing.T) {
	l, st, id := newTestLedger(t, 10000, quotes.Quote{Symbol: "NFLX", Name: "Netflix Inc", PriceCents: 250})
	ctx := context.Background()

	if err := l.ExecuteOrder(ctx, id, "NFLX", ledger.SideBuy, 3); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if err := l.ExecuteOrder(ctx, id, "NFLX", ledger.SideSell, 3); err != nil {
		t.Fatalf("sell: %v", err)
	}

	if got := mustCash(t, st, id); got != 10000 {
		t.Errorf("cash = %d, want 10000", got)
	}
	if _, err := st.GetHolding(ctx, id, "NFLX"); !errors.Is(err, ledger.ErrHoldingNotFound) {
		t.Errorf("holding after round trip: err = %v, want ErrHoldingNotFound", err)
	}
}

func TestRejectedOrdersLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		side     ledger.Side
		quantity int64
		wantErr  error
	}{
		{"insufficient funds", "AAPL", ledger.SideBuy, 5, ledger.ErrInsufficientFunds},
		{"cost overflows int64", "AAPL", ledger.SideBuy, 1 << 62, ledger.ErrInsufficientFunds},
		{"unknown instrument", "ZZZZ", ledger.SideBuy, 1, ledger.ErrUnknownInstrument},
		{"invalid quantity", "AAPL", ledger.SideBuy, 0, ledger.ErrInvalidQuantity},
		{"negative quantity", "AAPL", ledger.SideBuy, -3, ledger.ErrInvalidQuantity},
		{"sell without holding", "AAPL", ledger.SideSell, 1, ledger.ErrInsufficientShares},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, st, id := newTestLedger(t, 100, quotes.Quote{Symbol: "AAPL", Name: "Apple Inc", PriceCents: 100})
			ctx := context.Background()

			err := l.ExecuteOrder(ctx, id, tt.symbol, tt.side, tt.quantity)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}

			if got := mustCash(t, st, id); got != 100 {
				t.Errorf("cash = %d, want 100 (unchanged)", got)
			}
			hs, _ := st.ListHoldings(ctx, id)
			if len(hs) != 0 {
				t.Errorf("holdings = %d, want 0", len(hs))
			}
			txs, _ := st.ListTransactions(ctx, id)
			if len(txs) != 0 {
				t.Errorf("transactions = %d, want 0", len(txs))
			}
		})
	}
}

// failingSource simulates a provider outage: every lookup fails with
// something other than ErrNotFound, like a timeout would.
type failingSource struct{ err error }

func (f failingSource) Lookup(context.Context, string) (quotes.Quote, error) {
	return quotes.Quote{}, f.err
}

func TestExecuteOrderPricingUnavailable(t *testing.T) {
	st := store.NewMemory()
	u := models.User{Username: "alice", PasswordHash: "x", CashCents: 10000}
	if err := st.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	l := ledger.New(st, failingSource{err: errors.New("dial tcp: i/o timeout")})
	ctx := context.Background()

	err := l.ExecuteOrder(ctx, u.ID, "AAPL", ledger.SideBuy, 1)
	if !errors.Is(err, ledger.ErrPricingUnavailable) {
		t.Fatalf("err = %v, want ErrPricingUnavailable", err)
	}

	if got := mustCash(t, st, u.ID); got != 10000 {
		t.Errorf("cash = %d, want 10000 (unchanged)", got)
	}
	hs, _ := st.ListHoldings(ctx, u.ID)
	if len(hs) != 0 {
		t.Errorf("holdings = %d, want 0", len(hs))
	}
	txs, _ := st.ListTransactions(ctx, u.ID)
	if len(txs) != 0 {
		t.Errorf("transactions = %d, want 0", len(txs))
	}
}

func TestSellMoreThanHeldRejected(t *testing.T) {
	l, st, id := newTestLedger(t, 10000, quotes.Quote{Symbol: "AAPL", Name: "Apple Inc", PriceCents: 100})
	ctx := context.Background()

	if err := l.ExecuteOrder(ctx, id, "AAPL", ledger.SideBuy, 2); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if err := l.ExecuteOrder(ctx, id, "AAPL", ledger.SideSell, 3); !errors.Is(err, ledger.ErrInsufficientShares) {
		t.Fatalf("oversell err = %v, want ErrInsufficientShares", err)
	}

	h, err := st.GetHolding(ctx, id, "AAPL")
	if err != nil || h.Shares != 2 {
		t.Errorf("holding = %+v, %v; want 2 shares intact", h, err)
	}
	if got := mustCash(t, st, id); got != 9800 {
		t.Errorf("cash = %d, want 9800", got)
	}
}

func TestHoldingMatchesSignedTransactionSum(t *testing.T) {
	l, st, id := newTestLedger(t, 100000,
		quotes.Quote{Symbol: "AAPL", Name: "Apple Inc", PriceCents: 100},
		quotes.Quote{Symbol: "MSFT", Name: "Microsoft", PriceCents: 200},
	)
	ctx := context.Background()

	steps := []struct {
		symbol   string
		side     ledger.Side
		quantity int64
	}{
		{"AAPL", ledger.SideBuy, 10},
		{"MSFT", ledger.SideBuy, 4},
		{"AAPL", ledger.SideSell, 3},
		{"AAPL", ledger.SideBuy, 1},
		{"MSFT", ledger.SideSell, 4},
	}
	for _, s := range steps {
		if err := l.ExecuteOrder(ctx, id, s.symbol, s.side, s.quantity); err != nil {
			t.Fatalf("%s %d %s: %v", s.side, s.quantity, s.symbol, err)
		}
	}

	txs, _ := st.ListTransactions(ctx, id)
	sums := make(map[string]int64)
	for _, tx := range txs {
		sums[tx.Symbol] += tx.Shares
	}

	for symbol, sum := range sums {
		h, err := st.GetHolding(ctx, id, symbol)
		switch {
		case errors.Is(err, ledger.ErrHoldingNotFound):
			if sum != 0 {
				t.Errorf("%s: tx sum = %d but no holding", symbol, sum)
			}
		case err != nil:
			t.Fatalf("get holding %s: %v", symbol, err)
		default:
			if h.Shares != sum {
				t.Errorf("%s: holding = %d, tx sum = %d", symbol, h.Shares, sum)
			}
			if h.Shares <= 0 {
				t.Errorf("%s: holding exists with %d shares", symbol, h.Shares)
			}
		}
	}
}

func TestConcurrentBuysAreSerialized(t *testing.T) {
	const workers = 8
	l, st, id := newTestLedger(t, 100000, quotes.Quote{Symbol: "AAPL", Name: "Apple Inc", PriceCents: 100})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.ExecuteOrder(ctx, id, "AAPL", ledger.SideBuy, 1)
		}(i)
	}
	wg.Wait()

	var executed int64
	for _, err := range errs {
		switch {
		case err == nil:
			executed++
		case errors.Is(err, ledger.ErrConcurrentModification):
			// Retries exhausted; the order must have had no effect.
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if executed == 0 {
		t.Fatal("no order executed")
	}

	// Final state must equal some serial ordering of the executed
	// orders: no lost updates, no partial applications.
	if got := mustCash(t, st, id); got != 100000-100*executed {
		t.Errorf("cash = %d, want %d", got, 100000-100*executed)
	}
	h, err := st.GetHolding(ctx, id, "AAPL")
	if err != nil || h.Shares != executed {
		t.Errorf("holding = %+v, %v; want %d shares", h, err, executed)
	}
	txs, _ := st.ListTransactions(ctx, id)
	if int64(len(txs)) != executed {
		t.Errorf("transactions = %d, want %d", len(txs), executed)
	}
}

func TestPortfolioViewTotals(t *testing.T) {
	l, _, id := newTestLedger(t, 100000,
		quotes.Quote{Symbol: "AAPL", Name: "Apple Inc", PriceCents: 100},
		quotes.Quote{Symbol: "MSFT", Name: "Microsoft", PriceCents: 200},
	)
	ctx := context.Background()

	if err := l.ExecuteOrder(ctx, id, "AAPL", ledger.SideBuy, 10); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if err := l.ExecuteOrder(ctx, id, "MSFT", ledger.SideBuy, 5); err != nil {
		t.Fatalf("buy: %v", err)
	}

	view, err := l.GetPortfolioView(ctx, id)
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	wantCash := int64(100000 - 10*100 - 5*200)
	if view.CashCents != wantCash {
		t.Errorf("cash = %d, want %d", view.CashCents, wantCash)
	}
	if len(view.Holdings) != 2 {
		t.Fatalf("holdings = %d, want 2", len(view.Holdings))
	}
	// Holdings are listed in symbol order.
	if view.Holdings[0].Symbol != "AAPL" || view.Holdings[0].ValueCents != 1000 {
		t.Errorf("holding[0] = %+v, want AAPL valued 1000", view.Holdings[0])
	}
	if view.Holdings[1].Symbol != "MSFT" || view.Holdings[1].ValueCents != 1000 {
		t.Errorf("holding[1] = %+v, want MSFT valued 1000", view.Holdings[1])
	}
	if want := wantCash + 2000; view.TotalCents != want {
		t.Errorf("total = %d, want %d", view.TotalCents, want)
	}
}

func TestPortfolioViewFailsWhenOneQuoteMissing(t *testing.T) {
	src := quotes.NewStatic(
		quotes.Quote{Symbol: "AAPL", Name: "Apple Inc", PriceCents: 100},
		quotes.Quote{Symbol: "MSFT", Name: "Microsoft", PriceCents: 200},
	)
	st := store.NewMemory()
	u := models.User{Username: "alice", PasswordHash: "x", CashCents: 100000}
	if err := st.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	l := ledger.New(st, src)
	ctx := context.Background()

	if err := l.ExecuteOrder(ctx, u.ID, "AAPL", ledger.SideBuy, 1); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if err := l.ExecuteOrder(ctx, u.ID, "MSFT", ledger.SideBuy, 1); err != nil {
		t.Fatalf("buy: %v", err)
	}

	// One instrument becomes unpriceable; a partial total would
	// misstate net worth, so the whole view must fail.
	src = quotes.NewStatic(quotes.Quote{Symbol: "AAPL", Name: "Apple Inc", PriceCents: 100})
	l = ledger.New(st, src)

	if _, err := l.GetPortfolioView(ctx, u.ID); !errors.Is(err, ledger.ErrPricingUnavailable) {
		t.Fatalf("view err = %v, want ErrPricingUnavailable", err)
	}
}

func TestHistoryOrderedByTime(t *testing.T) {
	l, _, id := newTestLedger(t, 100000, quotes.Quote{Symbol: "AAPL", Name: "Apple Inc", PriceCents: 100})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := l.ExecuteOrder(ctx, id, "AAPL", ledger.SideBuy, 1); err != nil {
			t.Fatalf("buy %d: %v", i, err)
		}
	}
	if err := l.ExecuteOrder(ctx, id, "AAPL", ledger.SideSell, 2); err != nil {
		t.Fatalf("sell: %v", err)
	}

	txs, err := l.GetHistory(ctx, id)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(txs) != 5 {
		t.Fatalf("history = %d rows, want 5", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].CreatedAt.Before(txs[i-1].CreatedAt) {
			t.Errorf("history out of order at %d", i)
		}
	}
	if txs[4].Type != models.TxSale || txs[4].Shares != -2 {
		t.Errorf("last tx = {%s %d}, want {Sale -2}", txs[4].Type, txs[4].Shares)
	}
}

func TestExecuteOrderUnknownUser(t *testing.T) {
	l := ledger.New(store.NewMemory(), quotes.NewStatic(quotes.Quote{Symbol: "AAPL", PriceCents: 100}))
	err := l.ExecuteOrder(context.Background(), 42, "AAPL", ledger.SideBuy, 1)
	if !errors.Is(err, ledger.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
