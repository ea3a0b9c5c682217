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

package listener

import (
	"context"
	"errors"
	"fmt"

	"github.com/aliasqar1/tets/internal/economy"
	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/platform"

	"go.uber.org/zap"
)

// HandleMessage rewards a member's message once per message id
func (l *CommunityListener) HandleMessage(ctx context.Context, ev models.MessageEvent) (int64, error) {
	reward := economy.MessageRewardFor(ev)
	if reward == 0 {
		return 0, nil
	}
	if !l.messages.Claim(ev.Id) {
		zap.L().Debug("Message already rewarded", zap.String("message_id", ev.Id))
		return 0, nil
	}

	if _, err := l.store.AdjustBalance(ctx, ev.AuthorId, reward); err != nil {
		// let a redelivery try again
		l.messages.Release(ev.Id)
		return 0, fmt.Errorf("failed to reward message %s: %w", ev.Id, err)
	}
	return reward, nil
}

// HandleReaction re-reads the reacted message and pays its author for every
// newly crossed reaction threshold. Adds and removals are handled alike.
func (l *CommunityListener) HandleReaction(ctx context.Context, ev models.ReactionEvent) (int64, error) {
	if ev.UserIsBot {
		return 0, nil
	}

	info, err := l.platform.GetMessage(ctx, ev.ChannelId, ev.MessageId)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read message %s: %w", ev.MessageId, err)
	}
	if info.AuthorIsBot || info.AuthorId == "" || !economy.HasMedia(info.Attachments) {
		return 0, nil
	}

	payout := l.reactions.Advance(ev.MessageId, info.ReactionCount)
	if payout == 0 {
		return 0, nil
	}
	if _, err := l.store.AdjustBalance(ctx, info.AuthorId, payout); err != nil {
		return 0, fmt.Errorf("failed to pay reaction reward for %s: %w", ev.MessageId, err)
	}

	zap.L().Info("Reaction reward paid",
		zap.String("message_id", ev.MessageId),
		zap.String("author_id", info.AuthorId),
		zap.Int("reactions", info.ReactionCount),
		zap.Int64("amount", payout))
	return payout, nil
}

// HandleMemberJoin assigns a badge, sets the badge nickname and credits the
// streamer whose invite was used
func (l *CommunityListener) HandleMemberJoin(ctx context.Context, ev models.MemberEvent) error {
	if ev.IsBot {
		return nil
	}

	code, created, err := l.store.EnsureBadge(ctx, ev.UserId)
	if err != nil {
		return fmt.Errorf("failed to assign badge to %s: %w", ev.UserId, err)
	}
	if created {
		zap.L().Info("Badge assigned",
			zap.String("user_id", ev.UserId),
			zap.Int("badge", code))
	}

	nickname := BadgeNickname(code, ev.Username)
	if err := l.platform.SetNickname(ctx, ev.GuildId, ev.UserId, nickname); err != nil {
		zap.L().Debug("Failed to set badge nickname",
			zap.String("user_id", ev.UserId),
			zap.String("nickname", nickname),
			zap.Error(err))
	}

	l.attributeInvite(ctx, ev)
	return nil
}

func (l *CommunityListener) attributeInvite(ctx context.Context, ev models.MemberEvent) {
	invites, err := l.platform.ListInvites(ctx, ev.GuildId)
	if err != nil {
		zap.L().Warn("Failed to list invites for attribution",
			zap.String("guild_id", ev.GuildId),
			zap.String("user_id", ev.UserId),
			zap.Error(err))
		return
	}

	code := l.consumeInviteUse(ev.GuildId, invites)
	if code == "" {
		zap.L().Debug("No invite use to attribute", zap.String("user_id", ev.UserId))
		return
	}

	streamerId, ok, err := l.store.AttributeInvite(ctx, code, economy.InviteReward)
	if err != nil {
		zap.L().Error("Failed to credit invite",
			zap.String("code", code),
			zap.String("user_id", ev.UserId),
			zap.Error(err))
		return
	}
	if ok {
		zap.L().Info("Invite attributed to streamer",
			zap.String("code", code),
			zap.String("streamer_id", streamerId),
			zap.String("user_id", ev.UserId))
	}
}

// PrimeInvites records the current use counts so the next join is compared
// against them
func (l *CommunityListener) PrimeInvites(ctx context.Context, guildId string) error {
	invites, err := l.platform.ListInvites(ctx, guildId)
	if err != nil {
		return err
	}

	l.inviteMu.Lock()
	defer l.inviteMu.Unlock()
	uses := make(map[string]int, len(invites))
	for _, inv := range invites {
		uses[inv.Code] = inv.Uses
	}
	l.inviteUses[guildId] = uses
	return nil
}

// consumeInviteUse returns the first code whose use count grew since the
// last observation and accounts for exactly one of its new uses. Other
// growth is left for concurrent joins to consume.
func (l *CommunityListener) consumeInviteUse(guildId string, current []models.Invite) string {
	l.inviteMu.Lock()
	defer l.inviteMu.Unlock()

	known, ok := l.inviteUses[guildId]
	if !ok {
		known = make(map[string]int, len(current))
		l.inviteUses[guildId] = known
	}

	present := make(map[string]bool, len(current))
	used := ""
	for _, inv := range current {
		present[inv.Code] = true
		prev := known[inv.Code]
		switch {
		case inv.Uses < prev:
			known[inv.Code] = inv.Uses
		case inv.Uses > prev && used == "":
			used = inv.Code
			known[inv.Code] = prev + 1
		}
	}
	for code := range known {
		if !present[code] {
			delete(known, code)
		}
	}
	return used
}

// HandleMemberLeave removes every record of a departed member and deletes
// their custom role
func (l *CommunityListener) HandleMemberLeave(ctx context.Context, ev models.MemberEvent) error {
	departed, err := l.store.RemoveMember(ctx, ev.UserId)
	if err != nil {
		return fmt.Errorf("failed to remove member %s: %w", ev.UserId, err)
	}

	if g := departed.CustomRole; g != nil {
		if err := l.platform.DeleteRole(ctx, g.GuildId, g.RoleId); err != nil && !errors.Is(err, platform.ErrNotFound) {
			zap.L().Warn("Failed to delete departed member's custom role",
				zap.String("user_id", ev.UserId),
				zap.String("role_id", g.RoleId),
				zap.Error(err))
		}
	}
	return nil
}

// BadgeNickname is the nickname given to members on join
func BadgeNickname(badge int, username string) string {
	return fmt.Sprintf("%d | %s", badge, username)
}
