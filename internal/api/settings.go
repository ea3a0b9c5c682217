package api

import (
	"context"
	"fmt"

	"github.com/aliasqar1/tets/internal/models"

	"go.uber.org/zap"
)

// SetGameChannel sets where new contests are announced
func (s *CommunityService) SetGameChannel(ctx context.Context, actor models.Actor, channelId string) error {
	return s.updateSettings(ctx, actor, "game_channel_id", channelId, func(ss *models.ServerSettings) {
		ss.GameChannelId = channelId
	})
}

// SetResultChannel sets where contest results are posted
func (s *CommunityService) SetResultChannel(ctx context.Context, actor models.Actor, channelId string) error {
	return s.updateSettings(ctx, actor, "result_channel_id", channelId, func(ss *models.ServerSettings) {
		ss.ResultChannelId = channelId
	})
}

// SetStartChannel sets the stream news channel. Any previously posted
// start-stream button message is forgotten.
func (s *CommunityService) SetStartChannel(ctx context.Context, actor models.Actor, channelId string) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	if err := requireGuild(actor); err != nil {
		return err
	}
	if channelId == "" {
		return invalid("channel is required")
	}

	if err := s.store.SetStartStreamChannel(ctx, actor.GuildId, channelId); err != nil {
		return fmt.Errorf("failed to set stream news channel: %w", err)
	}
	if err := s.store.UpdateServerSettings(ctx, actor.GuildId, func(ss *models.ServerSettings) {
		ss.NewsChannelId = channelId
	}); err != nil {
		return fmt.Errorf("failed to set stream news channel: %w", err)
	}

	zap.L().Info("Stream news channel set",
		zap.String("guild_id", actor.GuildId),
		zap.String("channel_id", channelId))
	return nil
}

// PostStartButton posts the start-stream panel in channelId and remembers
// the message for the guild
func (s *CommunityService) PostStartButton(ctx context.Context, actor models.Actor, channelId string) (string, error) {
	if err := s.requireAdmin(actor); err != nil {
		return "", err
	}
	if err := requireGuild(actor); err != nil {
		return "", err
	}

	messageId, err := s.platform.SendMessage(ctx, channelId, StartPanelMessage())
	if err != nil {
		return "", fmt.Errorf("failed to post start-stream panel: %w", err)
	}
	if err := s.store.SetStartStreamMessage(ctx, actor.GuildId, messageId); err != nil {
		return messageId, fmt.Errorf("failed to remember start-stream panel: %w", err)
	}

	if err := s.store.UpdateServerSettings(ctx, actor.GuildId, func(ss *models.ServerSettings) {
		ss.StartChannelId = channelId
	}); err != nil {
		zap.L().Warn("Failed to record start-stream channel",
			zap.String("guild_id", actor.GuildId),
			zap.String("channel_id", channelId),
			zap.Error(err))
	}
	return messageId, nil
}

func (s *CommunityService) updateSettings(ctx context.Context, actor models.Actor, key, channelId string, fn func(ss *models.ServerSettings)) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	if err := requireGuild(actor); err != nil {
		return err
	}
	if channelId == "" {
		return invalid("channel is required")
	}

	if err := s.store.UpdateServerSettings(ctx, actor.GuildId, fn); err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}

	zap.L().Info("Server setting updated",
		zap.String("guild_id", actor.GuildId),
		zap.String("setting", key),
		zap.String("channel_id", channelId))
	return nil
}
