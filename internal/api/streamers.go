package api

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aliasqar1/tets/internal/economy"
	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/platform"
	"github.com/aliasqar1/tets/internal/store"

	"go.uber.org/zap"
)

// StartStreamButtonId is the component id of the persistent start-stream button
const StartStreamButtonId = "start_stream_button"

const (
	colorStartPanel = 0x2ecc71
	colorGoingLive  = 0x5865f2
)

// StreamStart reports a pressed start-stream button. The reward is paid even
// when the announcement could not be posted.
type StreamStart struct {
	Profile     models.StreamerProfile
	Reward      int64
	Announced   bool
	AnnounceErr error
}

// AddStreamer registers or re-registers a streamer profile
func (s *CommunityService) AddStreamer(ctx context.Context, actor models.Actor, userId, bannerUrl, inviteLink, streamLink string) (*models.StreamerProfile, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}

	profile, err := s.store.RegisterStreamer(ctx, store.RegisterStreamerParams{
		UserId:     userId,
		BannerUrl:  bannerUrl,
		InviteLink: inviteLink,
		StreamLink: streamLink,
		Now:        s.now(),
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Streamer registered",
		zap.String("admin_id", actor.UserId),
		zap.String("streamer_id", userId),
		zap.String("invite_code", profile.InviteCode))
	return profile, nil
}

// ListStreamers returns every streamer id in ascending order
func (s *CommunityService) ListStreamers(ctx context.Context, actor models.Actor) ([]string, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}

	var ids []string
	s.store.ViewStreams(func(doc *models.StreamDocument) {
		for id := range doc.Streamers {
			ids = append(ids, id)
		}
	})
	sort.Strings(ids)
	return ids, nil
}

// EditStreamer overwrites one field of a streamer profile
func (s *CommunityService) EditStreamer(ctx context.Context, actor models.Actor, userId, field, value string) (*models.StreamerProfile, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}

	var out models.StreamerProfile
	err := s.store.MutateStreams(ctx, func(doc *models.StreamDocument) error {
		p, ok := doc.Streamers[userId]
		if !ok {
			return fmt.Errorf("streamer %s: %w", userId, store.ErrNotFound)
		}
		if err := p.SetField(field, value); err != nil {
			return invalid("%v", err)
		}
		out = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Streamer field updated",
		zap.String("admin_id", actor.UserId),
		zap.String("streamer_id", userId),
		zap.String("field", field))
	return &out, nil
}

// AdjustViolations moves a streamer's violation count within [0, 3]
func (s *CommunityService) AdjustViolations(ctx context.Context, actor models.Actor, userId string, number int, action string) (int, error) {
	if err := s.requireAdmin(actor); err != nil {
		return 0, err
	}
	delta, err := signedDelta(action, int64(number))
	if err != nil {
		return 0, err
	}
	return s.store.AdjustViolations(ctx, userId, int(delta))
}

// StreamerProfile shows member's streamer card. member must hold a streamer
// role and have a registered profile.
func (s *CommunityService) StreamerProfile(ctx context.Context, member models.Actor) (*models.StreamerView, error) {
	if err := s.requireStreamerRole(member); err != nil {
		return nil, err
	}
	profile, err := s.store.GetStreamer(ctx, member.UserId)
	if err != nil {
		return nil, err
	}

	days := 0
	if !profile.StartedAt.IsZero() {
		days = int(s.now().Sub(profile.StartedAt) / (24 * time.Hour))
	}
	return &models.StreamerView{
		UserId:       member.UserId,
		Profile:      *profile,
		Coins:        s.store.GetBalance(ctx, member.UserId),
		DaysStreamer: days,
	}, nil
}

// InviteLink returns the invoking streamer's own invite link
func (s *CommunityService) InviteLink(ctx context.Context, actor models.Actor) (string, error) {
	if err := s.requireStreamerRole(actor); err != nil {
		return "", err
	}
	profile, err := s.store.GetStreamer(ctx, actor.UserId)
	if err != nil {
		return "", err
	}
	if profile.InviteLink == "" {
		return "", fmt.Errorf("invite link of %s: %w", actor.UserId, store.ErrNotFound)
	}
	return profile.InviteLink, nil
}

// StartStream handles the start-stream button: it pays the streamer, bumps
// their stream count and announces the stream in the news channel
func (s *CommunityService) StartStream(ctx context.Context, actor models.Actor) (*StreamStart, error) {
	if err := s.requireStreamerRole(actor); err != nil {
		return nil, err
	}
	if err := requireGuild(actor); err != nil {
		return nil, err
	}

	profile, err := s.store.RecordStreamStart(ctx, actor.UserId, economy.StreamStartReward)
	if err != nil {
		return nil, err
	}
	result := &StreamStart{Profile: *profile, Reward: economy.StreamStartReward}

	channelId := s.newsChannel(ctx, actor.GuildId)
	if channelId == "" {
		result.AnnounceErr = ErrNoNewsChannel
		return result, nil
	}
	if _, err := s.platform.SendMessage(ctx, channelId, GoingLiveMessage(actor.UserId, profile)); err != nil {
		zap.L().Warn("Failed to announce stream start",
			zap.String("streamer_id", actor.UserId),
			zap.String("channel_id", channelId),
			zap.Error(err))
		result.AnnounceErr = fmt.Errorf("failed to announce stream: %w", err)
		return result, nil
	}

	result.Announced = true
	zap.L().Info("Stream started",
		zap.String("streamer_id", actor.UserId),
		zap.Int("streams_count", profile.StreamsCount))
	return result, nil
}

// newsChannel prefers the channel set by /setstart and falls back to the
// server settings record
func (s *CommunityService) newsChannel(ctx context.Context, guildId string) string {
	if m, ok := s.store.GetStartStreamMessage(ctx, guildId); ok && m.ChannelId != "" {
		return m.ChannelId
	}
	return s.store.GetServerSettings(ctx, guildId).NewsChannelId
}

// StartPanelMessage is the message carrying the persistent start-stream button
func StartPanelMessage() platform.Message {
	return platform.Message{
		Embed: &platform.Embed{
			Title:       "Start stream",
			Description: "I am a streamer and I accept the rules.\nPress the button below to start your stream.",
			Color:       colorStartPanel,
		},
		Buttons: []platform.Button{
			{Id: StartStreamButtonId, Label: "Start stream", Style: platform.StyleSuccess},
		},
	}
}

// GoingLiveMessage announces that userId started streaming
func GoingLiveMessage(userId string, p *models.StreamerProfile) platform.Message {
	msg := platform.Message{
		Embed: &platform.Embed{
			Title:       "Stream started!",
			Description: fmt.Sprintf("<@%s> just went live!\nStill sitting around? Come hang out in the stream!", userId),
			Color:       colorGoingLive,
			ImageUrl:    p.BannerUrl,
			Fields: []platform.EmbedField{
				{Name: "Stream link", Value: orDash(p.StreamLink)},
				{Name: "See you there", Value: "Waiting for you in the stream!"},
			},
		},
	}
	if p.StreamLink != "" {
		msg.Buttons = []platform.Button{{Label: "Join the stream", Style: platform.StyleLink, Url: p.StreamLink}}
	}
	return msg
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
