package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio-ledger/money"
)

const defaultTimeout = 5 * time.Second

type alphaVantageResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
	Note string `json:"Note"`
}

// AlphaVantage fetches quotes from the Alpha Vantage GLOBAL_QUOTE
// endpoint. The HTTP call is bounded by the client timeout so a stuck
// provider surfaces as an error instead of hanging an order.
type AlphaVantage struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewAlphaVantage(apiKey string) *AlphaVantage {
	return &AlphaVantage{
		apiKey:  apiKey,
		baseURL: "https://www.alphavantage.co",
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

func (a *AlphaVantage) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Quote{}, ErrNotFound
	}

	u := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		a.baseURL, url.QueryEscape(symbol), a.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Quote{}, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("fetch quote for %s: status %d", symbol, resp.StatusCode)
	}

	var result alphaVantageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Quote{}, fmt.Errorf("parse quote for %s: %w", symbol, err)
	}

	if result.Note != "" {
		return Quote{}, fmt.Errorf("quote provider throttled: %s", result.Note)
	}

	// An empty Global Quote block is how the API reports an unknown
	// ticker.
	if result.GlobalQuote.Price == "" {
		return Quote{}, ErrNotFound
	}

	cents, err := money.ParseCents(result.GlobalQuote.Price)
	if err != nil {
		return Quote{}, fmt.Errorf("parse price %q for %s: %w", result.GlobalQuote.Price, symbol, err)
	}

	name := result.GlobalQuote.Symbol
	if name == "" {
		name = symbol
	}

	return Quote{Symbol: symbol, Name: name, PriceCents: cents}, nil
}
