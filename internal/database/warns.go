package database

import (
	"context"

	"github.com/aliasqar1/tets/internal/models"
)

func (s *Service) GetWarns(ctx context.Context, userId string) int {
	var count int
	s.View(func(snap *models.Snapshot) {
		count = snap.Warns[userId]
	})
	return count
}

// AdjustWarns applies delta, clamping at zero, and returns the count before and after
func (s *Service) AdjustWarns(ctx context.Context, userId string, delta int) (int, int, error) {
	var before, after int
	err := s.Mutate(ctx, func(snap *models.Snapshot) error {
		before = snap.Warns[userId]
		after = before + delta
		if after < 0 {
			after = 0
		}
		snap.Warns[userId] = after
		return nil
	})
	return before, after, err
}

func (s *Service) ResetWarns(ctx context.Context, userId string) (int, error) {
	var before int
	err := s.Mutate(ctx, func(snap *models.Snapshot) error {
		before = snap.Warns[userId]
		snap.Warns[userId] = 0
		return nil
	})
	return before, err
}
