package database

import (
	"context"
	"sort"
	"time"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/store"
)

// StartSubscription records (or restarts) a subscription at the given time
func (s *Service) StartSubscription(ctx context.Context, userId string, at time.Time) error {
	return s.Mutate(ctx, func(snap *models.Snapshot) error {
		snap.Subscription[userId] = at.UTC()
		return nil
	})
}

// ExpireSubscriptions removes every subscription at least lifetime old and
// returns the affected users. Removal happens before any side effect, so a
// second pass over the same state finds nothing.
func (s *Service) ExpireSubscriptions(ctx context.Context, now time.Time, lifetime time.Duration) ([]string, error) {
	var expired []string
	err := s.Mutate(ctx, func(snap *models.Snapshot) error {
		expired = expired[:0]
		for userId, started := range snap.Subscription {
			if now.Sub(started) >= lifetime {
				expired = append(expired, userId)
			}
		}
		for _, userId := range expired {
			delete(snap.Subscription, userId)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(expired)
	return expired, nil
}

// ExpireCustomRoles removes every custom role grant at least lifetime old
func (s *Service) ExpireCustomRoles(ctx context.Context, now time.Time, lifetime time.Duration) ([]store.ExpiredGrant, error) {
	var expired []store.ExpiredGrant
	err := s.Mutate(ctx, func(snap *models.Snapshot) error {
		expired = expired[:0]
		for userId, grant := range snap.ShopRole {
			if now.Sub(grant.StartedAt) >= lifetime {
				expired = append(expired, store.ExpiredGrant{UserId: userId, Grant: *grant})
			}
		}
		for _, e := range expired {
			delete(snap.ShopRole, e.UserId)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].UserId < expired[j].UserId })
	return expired, nil
}
