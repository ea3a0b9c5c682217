/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/moderation"

	"go.uber.org/zap"
)

// Adjustment directions accepted by /pay, /w and /ws
const (
	ActionAdd    = "add"
	ActionRevoke = "rev"
)

// WarnChange reports a warning update and the enforcement that followed it
type WarnChange struct {
	UserId   string
	Before   int
	After    int
	Decision moderation.Decision
	// EnforcementErr is set when the platform rejected the enforcement. The
	// new count is stored regardless.
	EnforcementErr error
}

func signedDelta(action string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, invalid("amount must be a positive number, got %d", amount)
	}
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionAdd:
		return amount, nil
	case ActionRevoke:
		return -amount, nil
	default:
		return 0, invalid("action must be %q or %q, got %q", ActionAdd, ActionRevoke, action)
	}
}

// Balance returns the invoking member's coins
func (s *CommunityService) Balance(ctx context.Context, actor models.Actor) int64 {
	return s.store.GetBalance(ctx, actor.UserId)
}

// Profile returns the badge, wallet, subscription and warning summary of member
func (s *CommunityService) Profile(ctx context.Context, member models.Actor) models.Profile {
	now := s.now().UTC()
	out := models.Profile{UserId: member.UserId, SubscriptionState: "none"}

	s.store.View(func(snap *models.Snapshot) {
		out.Badge = snap.Badges[member.UserId]
		out.Coins = snap.Wallet[member.UserId]
		out.Warns = snap.Warns[member.UserId]
		if started, ok := snap.Subscription[member.UserId]; ok {
			left := started.Add(s.subscriptionLifetime).Sub(now)
			if left > 0 {
				out.HasSubscription = true
				out.SubscriptionState = "active"
				out.SubscriptionLeft = left
			} else {
				out.SubscriptionState = "expired"
			}
		}
	})

	if !member.JoinedAt.IsZero() {
		out.JoinedAgo = now.Sub(member.JoinedAt)
	}
	return out
}

// Pay adds coins to or removes coins from userId. Removal clamps at zero.
func (s *CommunityService) Pay(ctx context.Context, actor models.Actor, userId string, amount int64, action string) (int64, error) {
	if err := s.requireAdmin(actor); err != nil {
		return 0, err
	}
	delta, err := signedDelta(action, amount)
	if err != nil {
		return 0, err
	}

	balance, err := s.store.AdjustBalance(ctx, userId, delta)
	if err != nil {
		zap.L().Error("Failed to adjust balance",
			zap.String("admin_id", actor.UserId),
			zap.String("user_id", userId),
			zap.Int64("delta", delta),
			zap.Error(err))
		return 0, fmt.Errorf("failed to adjust balance of %s: %w", userId, err)
	}

	zap.L().Info("Balance adjusted by admin",
		zap.String("admin_id", actor.UserId),
		zap.String("user_id", userId),
		zap.Int64("delta", delta),
		zap.Int64("balance", balance))
	return balance, nil
}

// AdjustWarns changes a member's warning count and enforces the thresholds
// crossed by the change
func (s *CommunityService) AdjustWarns(ctx context.Context, actor models.Actor, userId string, count int, action string) (*WarnChange, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	delta, err := signedDelta(action, int64(count))
	if err != nil {
		return nil, err
	}

	before, after, err := s.store.AdjustWarns(ctx, userId, int(delta))
	if err != nil {
		return nil, fmt.Errorf("failed to adjust warnings of %s: %w", userId, err)
	}

	change := &WarnChange{
		UserId:   userId,
		Before:   before,
		After:    after,
		Decision: moderation.Evaluate(before, after),
	}
	change.EnforcementErr = moderation.Apply(ctx, s.platform, actor.GuildId, userId, after, change.Decision, s.now())

	zap.L().Info("Warnings adjusted",
		zap.String("admin_id", actor.UserId),
		zap.String("user_id", userId),
		zap.Int("before", before),
		zap.Int("after", after),
		zap.Stringer("action", change.Decision.Action))
	return change, nil
}

// ResetWarns clears a member's warnings and lifts any timeout
func (s *CommunityService) ResetWarns(ctx context.Context, actor models.Actor, userId string) (*WarnChange, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}

	before, err := s.store.ResetWarns(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to reset warnings of %s: %w", userId, err)
	}

	change := &WarnChange{
		UserId:   userId,
		Before:   before,
		Decision: moderation.Decision{Action: moderation.ActionLift},
	}
	change.EnforcementErr = moderation.Apply(ctx, s.platform, actor.GuildId, userId, 0, change.Decision, s.now())
	return change, nil
}

// ViewWarns returns a member's warning count
func (s *CommunityService) ViewWarns(ctx context.Context, actor models.Actor, userId string) (int, error) {
	if err := s.requireAdmin(actor); err != nil {
		return 0, err
	}
	return s.store.GetWarns(ctx, userId), nil
}
