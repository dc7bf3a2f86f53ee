// Package store provides the durable backends for the ledger: a
// gorm/Postgres store for production and an in-memory store for tests
// and offline runs. Both honor the same contract: ApplyOrder is one
// atomic unit guarded by a compare-and-swap on the user's version.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"portfolio-ledger/ledger"
	"portfolio-ledger/models"
)

type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// AutoMigrate creates or updates the schema for the ledger entities.
func (s *Gorm) AutoMigrate() error {
	return s.db.AutoMigrate(&models.User{}, &models.Holding{}, &models.Transaction{})
}

func (s *Gorm) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Gorm) GetUser(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ledger.ErrUserNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Gorm) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ledger.ErrUserNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Gorm) GetHolding(ctx context.Context, userID uint, symbol string) (models.Holding, error) {
	var h models.Holding
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Holding{}, ledger.ErrHoldingNotFound
		}
		return models.Holding{}, err
	}
	return h, nil
}

func (s *Gorm) ListHoldings(ctx context.Context, userID uint) ([]models.Holding, error) {
	var hs []models.Holding
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("symbol").
		Find(&hs).Error
	return hs, err
}

func (s *Gorm) ListTransactions(ctx context.Context, userID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at, id").
		Find(&txs).Error
	return txs, err
}

// ApplyOrder applies the cash delta, the holding delta and the history
// row in one database transaction. The cash update is guarded by the
// version the caller read; zero rows affected means another order for
// this user landed first, and the whole transaction rolls back with
// ErrConcurrentModification.
func (s *Gorm) ApplyOrder(ctx context.Context, userID uint, version int64, m ledger.OrderMutation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND version = ?", userID, version).
			Updates(map[string]interface{}{
				"cash_cents": gorm.Expr("cash_cents + ?", m.CashDelta),
				"version":    gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ledger.ErrConcurrentModification
		}

		if err := applyHolding(tx, userID, m); err != nil {
			return err
		}

		t := m.Tx
		return tx.Create(&t).Error
	})
}

func applyHolding(tx *gorm.DB, userID uint, m ledger.OrderMutation) error {
	var h models.Holding
	err := tx.Where("user_id = ? AND symbol = ?", userID, m.Symbol).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if m.ShareDelta < 0 {
			// The validator already rejected oversells against this
			// version of the user; reaching here means the contract
			// was broken somewhere.
			return fmt.Errorf("sell of %s without a holding", m.Symbol)
		}
		return tx.Create(&models.Holding{
			UserID: userID,
			Symbol: m.Symbol,
			Name:   m.Name,
			Shares: m.ShareDelta,
		}).Error
	}
	if err != nil {
		return err
	}

	remaining := h.Shares + m.ShareDelta
	switch {
	case remaining < 0:
		return fmt.Errorf("sell of %d %s exceeds held %d", -m.ShareDelta, m.Symbol, h.Shares)
	case remaining == 0:
		// A position sold down to zero is deleted, not kept as a zero
		// row.
		return tx.Unscoped().Delete(&h).Error
	default:
		return tx.Model(&h).Update("shares", remaining).Error
	}
}
