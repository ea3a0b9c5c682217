package api

import (
	"context"

	"github.com/aliasqar1/tets/internal/common"
	"github.com/aliasqar1/tets/internal/contest"
	"github.com/aliasqar1/tets/internal/countdown"
	"github.com/aliasqar1/tets/internal/models"
)

// Catalog is the price list shown by /shop
func (s *CommunityService) Catalog() *common.Catalog {
	return s.catalog
}

func (s *CommunityService) BuySubscription(ctx context.Context, actor models.Actor) (*models.Receipt, error) {
	if err := requireGuild(actor); err != nil {
		return nil, err
	}
	return s.shop.BuySubscription(ctx, actor)
}

func (s *CommunityService) BuyCustomRole(ctx context.Context, actor models.Actor) (*models.Receipt, error) {
	if err := requireGuild(actor); err != nil {
		return nil, err
	}
	return s.shop.BuyCustomRole(ctx, actor)
}

// PlaceOrder buys a special order. Streamer orders need a streamer role.
func (s *CommunityService) PlaceOrder(ctx context.Context, actor models.Actor, category, key string) (*models.Receipt, error) {
	if err := requireGuild(actor); err != nil {
		return nil, err
	}
	if category == common.CategoryStreamer {
		if err := s.requireStreamerRole(actor); err != nil {
			return nil, err
		}
	}
	return s.shop.PlaceOrder(ctx, actor, category, key)
}

// RenewalStatus lists what the invoking member can renew
func (s *CommunityService) RenewalStatus(ctx context.Context, actor models.Actor) models.RenewalStatus {
	return s.shop.RenewalStatus(ctx, actor.UserId)
}

func (s *CommunityService) Renew(ctx context.Context, actor models.Actor, product string) (*models.Receipt, error) {
	return s.shop.Renew(ctx, actor.UserId, product)
}

// StartTimer starts a countdown for userId in the invoking channel. An empty
// userId targets the invoking admin.
func (s *CommunityService) StartTimer(ctx context.Context, actor models.Actor, userId string) (*countdown.Timer, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if userId == "" {
		userId = actor.UserId
	}
	return s.countdown.Start(ctx, actor.ChannelId, userId)
}

// ResetTimer replaces userId's countdown with a fresh one
func (s *CommunityService) ResetTimer(ctx context.Context, actor models.Actor, userId string) (*countdown.Timer, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if userId == "" {
		userId = actor.UserId
	}
	return s.countdown.Reset(ctx, actor.ChannelId, userId, actor.UserId)
}

// BeginContest opens an interactive contest setup in the invoking channel
func (s *CommunityService) BeginContest(actor models.Actor) (*contest.Session, contest.Prompt, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, contest.Prompt{}, err
	}
	if err := requireGuild(actor); err != nil {
		return nil, contest.Prompt{}, err
	}
	return s.collector.Begin(actor)
}

func (s *CommunityService) ChooseContestKind(actor models.Actor, sessionId, kind string) (contest.Prompt, error) {
	if kind != models.DurationSeconds && kind != models.DurationDays {
		return contest.Prompt{}, invalid("duration unit must be %q or %q", models.DurationSeconds, models.DurationDays)
	}
	return s.collector.ChooseKind(sessionId, actor.UserId, kind)
}

func (s *CommunityService) ConfirmContest(ctx context.Context, actor models.Actor, sessionId string) (*models.Contest, error) {
	return s.collector.Confirm(ctx, sessionId, actor.UserId)
}

func (s *CommunityService) CancelContest(actor models.Actor, sessionId string) error {
	return s.collector.Cancel(sessionId, actor.UserId)
}

// SubmitContest records a participant's guess
func (s *CommunityService) SubmitContest(ctx context.Context, actor models.Actor, contestId, code string) (contest.SubmitResult, error) {
	if code == "" {
		return contest.SubmitResult{}, invalid("code is required")
	}
	return s.coordinator.Submit(ctx, contestId, actor.UserId, code)
}
