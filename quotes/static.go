package quotes

import (
	"context"
	"strings"
	"sync"
)

// Static serves quotes from a fixed in-memory table. Used in tests and
// when no market data API key is configured.
type Static struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewStatic(qs ...Quote) *Static {
	s := &Static{quotes: make(map[string]Quote, len(qs))}
	for _, q := range qs {
		s.quotes[strings.ToUpper(q.Symbol)] = q
	}
	return s
}

// Set adds or replaces the quote for a symbol.
func (s *Static) Set(q Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[strings.ToUpper(q.Symbol)] = q
}

func (s *Static) Lookup(_ context.Context, symbol string) (Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return Quote{}, ErrNotFound
	}
	return q, nil
}
