package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/aliasqar1/tets/internal/platform"
	"github.com/aliasqar1/tets/internal/store"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Config contains configuration for Sweeper
type Config struct {
	Store                store.StateStore
	Platform             platform.Platform
	Interval             time.Duration
	SubscriptionLifetime time.Duration
	CustomRoleLifetime   time.Duration
	SubscriberRole       string
	Now                  func() time.Time
}

// Result lists what one sweep expired
type Result struct {
	Subscriptions []string
	CustomRoles   []store.ExpiredGrant
}

// Sweeper periodically expires subscriptions and custom roles. A record is
// removed from the store before its side effects run, so each expiry is
// handled once even if the platform calls fail.
type Sweeper struct {
	store                store.StateStore
	platform             platform.Platform
	interval             time.Duration
	subscriptionLifetime time.Duration
	customRoleLifetime   time.Duration
	subscriberRole       string
	now                  func() time.Time

	stopChan chan struct{}
	doneChan chan struct{}
}

func New(cfg Config) *Sweeper {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		store:                cfg.Store,
		platform:             cfg.Platform,
		interval:             cfg.Interval,
		subscriptionLifetime: cfg.SubscriptionLifetime,
		customRoleLifetime:   cfg.CustomRoleLifetime,
		subscriberRole:       cfg.SubscriberRole,
		now:                  now,
		stopChan:             make(chan struct{}),
		doneChan:             make(chan struct{}),
	}
}

// Start runs the sweep loop in the background
func (s *Sweeper) Start(ctx context.Context) {
	zap.L().Info("Starting expiry sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("subscription_lifetime", s.subscriptionLifetime),
		zap.Duration("custom_role_lifetime", s.customRoleLifetime))
	go s.loop(ctx)
}

// Stop waits for the loop to exit
func (s *Sweeper) Stop() {
	zap.L().Info("Stopping expiry sweeper")
	close(s.stopChan)
	<-s.doneChan
	zap.L().Info("Expiry sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				zap.L().Error("Expiry sweep failed", zap.Error(err))
			}
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep expires every record past its lifetime. Running it again without
// time advancing finds nothing to do.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	now := s.now().UTC()

	subs, subErr := s.store.ExpireSubscriptions(ctx, now, s.subscriptionLifetime)
	for _, userId := range subs {
		s.expireSubscription(ctx, userId)
	}

	grants, roleErr := s.store.ExpireCustomRoles(ctx, now, s.customRoleLifetime)
	for _, g := range grants {
		s.expireCustomRole(ctx, g)
	}

	if len(subs) > 0 || len(grants) > 0 {
		zap.L().Info("Expiry sweep completed",
			zap.Int("subscriptions", len(subs)),
			zap.Int("custom_roles", len(grants)))
	}
	return Result{Subscriptions: subs, CustomRoles: grants}, multierr.Append(subErr, roleErr)
}

func (s *Sweeper) expireSubscription(ctx context.Context, userId string) {
	for _, guildId := range s.platform.Guilds() {
		roleId, err := s.platform.FindRoleByName(ctx, guildId, s.subscriberRole)
		if err != nil {
			if !errors.Is(err, platform.ErrNotFound) {
				zap.L().Warn("Failed to look up subscriber role",
					zap.String("guild_id", guildId),
					zap.Error(err))
			}
			continue
		}
		if err := s.platform.RevokeRole(ctx, guildId, userId, roleId); err != nil && !errors.Is(err, platform.ErrNotFound) {
			zap.L().Warn("Failed to revoke subscriber role",
				zap.String("guild_id", guildId),
				zap.String("user_id", userId),
				zap.Error(err))
		}
	}

	s.notify(ctx, userId, "⏳ Your subscription has expired.")
	zap.L().Info("Subscription expired", zap.String("user_id", userId))
}

func (s *Sweeper) expireCustomRole(ctx context.Context, e store.ExpiredGrant) {
	if err := s.platform.RevokeRole(ctx, e.Grant.GuildId, e.UserId, e.Grant.RoleId); err != nil && !errors.Is(err, platform.ErrNotFound) {
		zap.L().Warn("Failed to revoke custom role",
			zap.String("user_id", e.UserId),
			zap.String("role_id", e.Grant.RoleId),
			zap.Error(err))
	}
	if err := s.platform.DeleteRole(ctx, e.Grant.GuildId, e.Grant.RoleId); err != nil {
		zap.L().Warn("Failed to delete expired custom role",
			zap.String("user_id", e.UserId),
			zap.String("guild_id", e.Grant.GuildId),
			zap.String("role_id", e.Grant.RoleId),
			zap.Error(err))
	}

	s.notify(ctx, e.UserId, "🎫 Your custom role has expired and was removed.")
	zap.L().Info("Custom role expired",
		zap.String("user_id", e.UserId),
		zap.String("role_id", e.Grant.RoleId))
}

func (s *Sweeper) notify(ctx context.Context, userId, text string) {
	if err := s.platform.SendDirect(ctx, userId, platform.Message{Content: text}); err != nil {
		zap.L().Debug("Failed to notify member",
			zap.String("user_id", userId),
			zap.Error(err))
	}
}
