package database

import (
	"context"
	"fmt"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/store"

	"go.uber.org/zap"
)

// GetBalance returns the user's balance; absent wallets read as zero
func (s *Service) GetBalance(ctx context.Context, userId string) int64 {
	var balance int64
	s.View(func(snap *models.Snapshot) {
		balance = snap.Wallet[userId]
	})
	return balance
}

// AdjustBalance applies delta clamped at zero and returns the new balance
func (s *Service) AdjustBalance(ctx context.Context, userId string, delta int64) (int64, error) {
	if userId == "" {
		return 0, fmt.Errorf("user id is required: %w", store.ErrInvalidInput)
	}

	var balance int64
	err := s.Mutate(ctx, func(snap *models.Snapshot) error {
		balance = snap.AddCoins(userId, delta)
		return nil
	})
	if err != nil {
		return 0, err
	}

	zap.L().Debug("Adjusted wallet balance",
		zap.String("user_id", userId),
		zap.Int64("delta", delta),
		zap.Int64("balance", balance))
	return balance, nil
}

// CreditMany applies several deltas as one unit
func (s *Service) CreditMany(ctx context.Context, deltas map[string]int64) error {
	if len(deltas) == 0 {
		return nil
	}
	return s.Mutate(ctx, func(snap *models.Snapshot) error {
		for userId, delta := range deltas {
			snap.AddCoins(userId, delta)
		}
		return nil
	})
}

// Debit subtracts amount only if the balance covers it
func (s *Service) Debit(ctx context.Context, userId string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit amount must not be negative, got %d: %w", amount, store.ErrInvalidInput)
	}

	var balance int64
	err := s.Mutate(ctx, func(snap *models.Snapshot) error {
		current := snap.Wallet[userId]
		if current < amount {
			balance = current
			return fmt.Errorf("balance %d, need %d: %w", current, amount, store.ErrInsufficientFunds)
		}
		balance = snap.AddCoins(userId, -amount)
		return nil
	})
	return balance, err
}
