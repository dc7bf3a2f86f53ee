package ledger

import (
	"context"

	"portfolio-ledger/models"
)

// Store is the durable side of the ledger. Implementations must give
// at least read-committed isolation, and ApplyOrder must be atomic per
// user: the mutation applies in full against the exact user state the
// caller read (identified by version), or not at all.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uint) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// GetHolding returns ErrHoldingNotFound when the user holds no
	// shares of the symbol.
	GetHolding(ctx context.Context, userID uint, symbol string) (models.Holding, error)
	ListHoldings(ctx context.Context, userID uint) ([]models.Holding, error)

	// ListTransactions returns the full history ordered by execution
	// time, ties broken by insertion order.
	ListTransactions(ctx context.Context, userID uint) ([]models.Transaction, error)

	// ApplyOrder applies the mutation as one atomic unit, guarded by a
	// compare-and-swap on the user's version. It returns
	// ErrConcurrentModification if the user row changed since the
	// caller read version; the caller re-reads and retries.
	ApplyOrder(ctx context.Context, userID uint, version int64, m OrderMutation) error
}
