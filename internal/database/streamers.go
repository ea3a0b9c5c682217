package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/store"
)

const (
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength   = 6
)

// RegisterStreamer creates a streamer profile. Re-registering an existing
// streamer replaces the links and keeps counters, invite code and start date.
func (s *Service) RegisterStreamer(ctx context.Context, params store.RegisterStreamerParams) (*models.StreamerProfile, error) {
	if !isSnowflake(params.UserId) {
		return nil, fmt.Errorf("streamer id %q is not numeric: %w", params.UserId, store.ErrInvalidInput)
	}

	var out models.StreamerProfile
	err := s.MutateStreams(ctx, func(doc *models.StreamDocument) error {
		p, ok := doc.Streamers[params.UserId]
		if !ok {
			p = &models.StreamerProfile{
				InviteCode: newInviteCode(doc.Streamers),
				StartedAt:  params.Now.UTC(),
			}
			doc.Streamers[params.UserId] = p
		}
		p.BannerUrl = strings.TrimSpace(params.BannerUrl)
		p.InviteLink = strings.TrimSpace(params.InviteLink)
		p.StreamLink = strings.TrimSpace(params.StreamLink)
		out = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) GetStreamer(ctx context.Context, userId string) (*models.StreamerProfile, error) {
	var out *models.StreamerProfile
	s.ViewStreams(func(doc *models.StreamDocument) {
		if p, ok := doc.Streamers[userId]; ok {
			cp := *p
			out = &cp
		}
	})
	if out == nil {
		return nil, fmt.Errorf("streamer %s: %w", userId, store.ErrNotFound)
	}
	return out, nil
}

// AdjustViolations applies delta clamped to [0, 3] and returns the new count
func (s *Service) AdjustViolations(ctx context.Context, userId string, delta int) (int, error) {
	var count int
	err := s.MutateStreams(ctx, func(doc *models.StreamDocument) error {
		p, ok := doc.Streamers[userId]
		if !ok {
			return fmt.Errorf("streamer %s: %w", userId, store.ErrNotFound)
		}
		p.Violations = models.ClampViolations(p.Violations + delta)
		count = p.Violations
		return nil
	})
	return count, err
}

// RecordStreamStart credits the streamer and bumps the stream counter as one unit
func (s *Service) RecordStreamStart(ctx context.Context, userId string, reward int64) (*models.StreamerProfile, error) {
	var out models.StreamerProfile
	err := s.MutateBoth(ctx, func(snap *models.Snapshot, doc *models.StreamDocument) error {
		p, ok := doc.Streamers[userId]
		if !ok {
			return fmt.Errorf("streamer %s: %w", userId, store.ErrNotFound)
		}
		p.StreamsCount++
		snap.AddCoins(userId, reward)
		out = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AttributeInvite credits the streamer owning code and returns their id
func (s *Service) AttributeInvite(ctx context.Context, code string, reward int64) (string, bool, error) {
	var streamerId string
	err := s.MutateBoth(ctx, func(snap *models.Snapshot, doc *models.StreamDocument) error {
		for uid, p := range doc.Streamers {
			if p.MatchesInvite(code) {
				streamerId = uid
				p.InviteCount++
				snap.AddCoins(uid, reward)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return streamerId, streamerId != "", nil
}

// SetStartStreamChannel records the news channel and forgets any previous button message
func (s *Service) SetStartStreamChannel(ctx context.Context, guildId, channelId string) error {
	return s.MutateStreams(ctx, func(doc *models.StreamDocument) error {
		doc.StartStreamMessages[guildId] = &models.StartStreamMessage{ChannelId: channelId}
		return nil
	})
}

func (s *Service) SetStartStreamMessage(ctx context.Context, guildId, messageId string) error {
	return s.MutateStreams(ctx, func(doc *models.StreamDocument) error {
		m, ok := doc.StartStreamMessages[guildId]
		if !ok {
			m = &models.StartStreamMessage{}
			doc.StartStreamMessages[guildId] = m
		}
		m.MessageId = messageId
		return nil
	})
}

func (s *Service) GetStartStreamMessage(ctx context.Context, guildId string) (models.StartStreamMessage, bool) {
	var (
		out models.StartStreamMessage
		ok  bool
	)
	s.ViewStreams(func(doc *models.StreamDocument) {
		var m *models.StartStreamMessage
		if m, ok = doc.StartStreamMessages[guildId]; ok {
			out = *m
		}
	})
	return out, ok
}

func newInviteCode(existing map[string]*models.StreamerProfile) string {
	for {
		var b strings.Builder
		for i := 0; i < inviteCodeLength; i++ {
			b.WriteByte(inviteCodeAlphabet[rand.IntN(len(inviteCodeAlphabet))])
		}
		code := b.String()
		taken := false
		for _, p := range existing {
			if p.InviteCode == code {
				taken = true
				break
			}
		}
		if !taken {
			return code
		}
	}
}

func isSnowflake(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
