package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"portfolio-ledger/ledger"
	"portfolio-ledger/models"
)

// Memory is an in-process Store. A single mutex serializes all writes,
// which trivially satisfies the atomicity contract; the version CAS is
// still enforced so the ledger's retry path behaves identically to the
// database store.
type Memory struct {
	mu       sync.Mutex
	nextID   uint
	users    map[uint]models.User
	holdings map[uint]map[string]models.Holding
	txs      []models.Transaction
}

func NewMemory() *Memory {
	return &Memory{
		nextID:   1,
		users:    make(map[uint]models.User),
		holdings: make(map[uint]map[string]models.Holding),
	}
}

func (s *Memory) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("username %q already exists", u.Username)
		}
	}
	u.ID = s.nextID
	u.CreatedAt = time.Now()
	s.nextID++
	s.users[u.ID] = *u
	return nil
}

func (s *Memory) GetUser(_ context.Context, id uint) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, ledger.ErrUserNotFound
	}
	return u, nil
}

func (s *Memory) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, ledger.ErrUserNotFound
}

func (s *Memory) GetHolding(_ context.Context, userID uint, symbol string) (models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holdings[userID][strings.ToUpper(symbol)]
	if !ok {
		return models.Holding{}, ledger.ErrHoldingNotFound
	}
	return h, nil
}

func (s *Memory) ListHoldings(_ context.Context, userID uint) ([]models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hs []models.Holding
	for _, h := range s.holdings[userID] {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i].Symbol < hs[j].Symbol })
	return hs, nil
}

func (s *Memory) ListTransactions(_ context.Context, userID uint) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var txs []models.Transaction
	// s.txs is already in insertion order, which matches execution
	// order under the write lock.
	for _, t := range s.txs {
		if t.UserID == userID {
			txs = append(txs, t)
		}
	}
	return txs, nil
}

func (s *Memory) ApplyOrder(_ context.Context, userID uint, version int64, m ledger.OrderMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ledger.ErrUserNotFound
	}
	if u.Version != version {
		return ledger.ErrConcurrentModification
	}

	sym := strings.ToUpper(m.Symbol)
	held := s.holdings[userID][sym]
	remaining := held.Shares + m.ShareDelta
	if remaining < 0 || u.CashCents+m.CashDelta < 0 {
		// The validator checked against this exact version, so these
		// can only trip on a contract violation.
		return ledger.ErrConcurrentModification
	}

	u.CashCents += m.CashDelta
	u.Version++
	s.users[userID] = u

	if s.holdings[userID] == nil {
		s.holdings[userID] = make(map[string]models.Holding)
	}
	if remaining == 0 {
		delete(s.holdings[userID], sym)
	} else {
		held.UserID = userID
		held.Symbol = sym
		held.Shares = remaining
		if held.Name == "" {
			held.Name = m.Name
		}
		s.holdings[userID][sym] = held
	}

	t := m.Tx
	t.ID = uint(len(s.txs) + 1)
	t.CreatedAt = time.Now()
	s.txs = append(s.txs, t)
	return nil
}
