// Package wallet implements the coin ledger: balance mutations happen inside
// a single database transaction together with their ledger and audit rows,
// and a balance never goes negative.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reelhub/reelhub/models"
	"github.com/reelhub/reelhub/utils"
)

var (
	// ErrInsufficientBalance rejects a debit that would take the balance
	// below zero.
	ErrInsufficientBalance = errors.New("insufficient coin balance")
	// ErrInvalidAmount rejects zero or negative mutation amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Service mutates wallets under the row-lock-then-update discipline.
type Service struct {
	db *gorm.DB
}

// NewService wraps a gorm DB handle.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Balance returns the current coin balance, creating the wallet lazily.
func (s *Service) Balance(ctx context.Context, userID uint) (int64, error) {
	w, err := s.walletFor(s.db.WithContext(ctx), userID)
	if err != nil {
		return 0, err
	}
	return w.CoinsBalance, nil
}

// Credit adds coins to a user's wallet and records the ledger and audit rows.
func (s *Service) Credit(ctx context.Context, userID uint, amount int64, reference string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.mutate(ctx, userID, amount, models.AuditActionDeposit, reference)
}

// Debit removes coins from a user's wallet. Fails with
// ErrInsufficientBalance when the wallet cannot cover the amount.
func (s *Service) Debit(ctx context.Context, userID uint, amount int64, reference string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.mutate(ctx, userID, -amount, models.AuditActionWithdraw, reference)
}

func (s *Service) mutate(ctx context.Context, userID uint, delta int64, action, reference string) (int64, error) {
	var after int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.walletFor(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID)
		if err != nil {
			return err
		}

		before := w.CoinsBalance
		after = before + delta
		if after < 0 {
			return ErrInsufficientBalance
		}

		if err := tx.Model(&models.Wallet{}).
			Where("id = ?", w.ID).
			Update("coins_balance", after).Error; err != nil {
			return fmt.Errorf("update wallet balance: %w", err)
		}

		ledger := models.CoinTransaction{
			UserID:    userID,
			Amount:    delta,
			Kind:      action,
			Reference: reference,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return fmt.Errorf("insert coin transaction: %w", err)
		}

		// The audit row is best-effort: a write failure is logged but does
		// not roll back the balance change.
		audit := models.AuditLog{
			UserID:        userID,
			Action:        action,
			Amount:        delta,
			ReferenceID:   reference,
			BeforeBalance: before,
			AfterBalance:  after,
		}
		if err := tx.Create(&audit).Error; err != nil {
			utils.Sugar.Errorw("audit log write failed", "user_id", userID, "action", action, "err", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return after, nil
}

// walletFor loads the user's wallet, creating an empty one on first use.
func (s *Service) walletFor(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.Where("user_id = ?", userID).First(&w).Error
	if err == gorm.ErrRecordNotFound {
		w = models.Wallet{UserID: userID}
		if err := tx.Create(&w).Error; err != nil {
			return nil, fmt.Errorf("create wallet: %w", err)
		}
		return &w, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	return &w, nil
}
