package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/aliasqar1/tets/internal/platform"

	"go.uber.org/zap"
)

// Apply carries out a decision against a member. The warning count has
// already been stored; a platform failure is returned for the caller to
// report and never rolls the count back.
func Apply(ctx context.Context, mod platform.Moderator, guildId, userId string, count int, d Decision, now time.Time) error {
	var err error
	switch d.Action {
	case ActionNone:
		return nil
	case ActionSuppress:
		err = mod.Timeout(ctx, guildId, userId, now.Add(d.Duration))
	case ActionLift:
		err = mod.RemoveTimeout(ctx, guildId, userId)
	case ActionBan:
		err = mod.Ban(ctx, guildId, userId, BanReason(count))
	default:
		return fmt.Errorf("unknown moderation action %s", d.Action)
	}

	if err != nil {
		zap.L().Warn("Failed to apply moderation action",
			zap.String("guild_id", guildId),
			zap.String("user_id", userId),
			zap.Stringer("action", d.Action),
			zap.Int("warns", count),
			zap.Error(err))
		return fmt.Errorf("failed to %s member %s: %w", d.Action, userId, err)
	}

	zap.L().Info("Applied moderation action",
		zap.String("guild_id", guildId),
		zap.String("user_id", userId),
		zap.Stringer("action", d.Action),
		zap.Int("warns", count))
	return nil
}
