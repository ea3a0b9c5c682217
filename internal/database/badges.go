package database

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/store"
)

const badgeRandomAttempts = 32

// EnsureBadge assigns a unique badge to userId unless one is already assigned
func (s *Service) EnsureBadge(ctx context.Context, userId string) (int, bool, error) {
	var (
		code    int
		created bool
	)
	err := s.Mutate(ctx, func(snap *models.Snapshot) error {
		if existing, ok := snap.Badges[userId]; ok {
			code = existing
			return nil
		}
		next, err := nextBadgeCode(snap.Badges)
		if err != nil {
			return err
		}
		snap.Badges[userId] = next
		code = next
		created = true
		return nil
	})
	return code, created, err
}

// SetBadge is the admin edit path; the code must be in range and not held by another user
func (s *Service) SetBadge(ctx context.Context, userId string, code int) error {
	if code < store.MinBadgeCode || code > store.MaxBadgeCode {
		return fmt.Errorf("badge %d outside [%d, %d]: %w", code, store.MinBadgeCode, store.MaxBadgeCode, store.ErrInvalidInput)
	}
	return s.Mutate(ctx, func(snap *models.Snapshot) error {
		for holder, held := range snap.Badges {
			if held == code && holder != userId {
				return fmt.Errorf("badge %d held by %s: %w", code, holder, store.ErrBadgeTaken)
			}
		}
		snap.Badges[userId] = code
		return nil
	})
}

// nextBadgeCode picks a random free code, falling back to a scan when the range is crowded
func nextBadgeCode(assigned map[string]int) (int, error) {
	taken := make(map[int]bool, len(assigned))
	for _, c := range assigned {
		taken[c] = true
	}

	span := store.MaxBadgeCode - store.MinBadgeCode + 1
	for i := 0; i < badgeRandomAttempts; i++ {
		c := store.MinBadgeCode + rand.IntN(span)
		if !taken[c] {
			return c, nil
		}
	}

	start := rand.IntN(span)
	for i := 0; i < span; i++ {
		c := store.MinBadgeCode + (start+i)%span
		if !taken[c] {
			return c, nil
		}
	}
	return 0, store.ErrBadgeSpaceExhausted
}
