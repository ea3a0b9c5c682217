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

package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/aliasqar1/tets/internal/api"
	"github.com/aliasqar1/tets/internal/common"
	"github.com/aliasqar1/tets/internal/config"
	"github.com/aliasqar1/tets/internal/contest"
	"github.com/aliasqar1/tets/internal/countdown"
	"github.com/aliasqar1/tets/internal/discord"
	"github.com/aliasqar1/tets/internal/listener"
	"github.com/aliasqar1/tets/internal/shop"
	"github.com/aliasqar1/tets/internal/sweeper"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	guildOverride := flag.String("guild", "", "Register commands in this guild only (overrides DISCORD_GUILD_ID)")
	readyTimeout := flag.Duration("ready-timeout", time.Minute, "How long to wait for the gateway Ready event")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}
	if *guildOverride != "" {
		cfg.Discord.GuildId = *guildOverride
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zap.L().Info("Starting community bot")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	bot, err := discord.New(discord.Config{
		Token:         cfg.Discord.Token,
		ApplicationId: cfg.Discord.ApplicationId,
		GuildId:       cfg.Discord.GuildId,
		RemoveOnStop:  cfg.Discord.RemoveOnStop,
		Catalog:       services.Catalog,
	})
	if err != nil {
		zap.L().Fatal("Failed to create bot", zap.Error(err))
	}
	platform := bot.Platform()
	store := services.DbService

	shopSvc := shop.NewService(shop.Config{
		Store:                store,
		Platform:             platform,
		Catalog:              services.Catalog,
		SubscriptionLifetime: cfg.Sweeper.SubscriptionLifetime,
		CustomRoleLifetime:   cfg.Sweeper.CustomRoleLifetime,
	})
	coordinator := contest.NewCoordinator(contest.CoordinatorConfig{
		Store:           store,
		Platform:        platform,
		MonitorInterval: cfg.Contest.MonitorInterval,
		RunnerUpShare:   cfg.Contest.RunnerUpShare,
	})
	collector := contest.NewCollector(contest.CollectorConfig{
		Coordinator: coordinator,
		Prompter:    bot.Prompter(),
		StepTimeout: cfg.Contest.StepTimeout,
	})
	timers := countdown.NewManager(countdown.Config{
		Store:           store,
		Messenger:       platform,
		Duration:        cfg.Timer.Duration,
		RefreshInterval: cfg.Timer.RefreshInterval,
		WarnBefore:      cfg.Timer.WarnBefore,
	})
	apiSvc := api.NewCommunityService(api.Config{
		Store:                store,
		Platform:             platform,
		Catalog:              services.Catalog,
		Shop:                 shopSvc,
		Coordinator:          coordinator,
		Collector:            collector,
		Countdown:            timers,
		SubscriptionLifetime: cfg.Sweeper.SubscriptionLifetime,
	})
	communityListener := listener.NewCommunityListener(listener.CommunityListenerConfig{
		Store:             store,
		Platform:          platform,
		VoiceTickInterval: cfg.Economy.VoiceTickInterval,
		CleanupInterval:   cfg.Economy.CleanupInterval,
		DedupRetention:    cfg.Economy.DedupRetention,
	})
	expirySweeper := sweeper.New(sweeper.Config{
		Store:                store,
		Platform:             platform,
		Interval:             cfg.Sweeper.Interval,
		SubscriptionLifetime: cfg.Sweeper.SubscriptionLifetime,
		CustomRoleLifetime:   cfg.Sweeper.CustomRoleLifetime,
		SubscriberRole:       services.Catalog.SubscriberRole,
	})

	if err := apiSvc.HealthCheck(ctx); err != nil {
		zap.L().Fatal("State store is not writable", zap.Error(err))
	}

	bot.Bind(discord.Handlers{
		Service:   apiSvc,
		Listener:  communityListener,
		Collector: collector,
	})
	if err := bot.Open(ctx); err != nil {
		zap.L().Fatal("Failed to start bot", zap.Error(err))
	}

	// Background loops need the guild list, which arrives with Ready
	select {
	case <-bot.Ready():
	case <-time.After(*readyTimeout):
		_ = bot.Close()
		zap.L().Fatal("Gateway did not become ready", zap.Duration("timeout", *readyTimeout))
	case <-ctx.Done():
		_ = bot.Close()
		return
	}

	if err := communityListener.Start(ctx); err != nil {
		_ = bot.Close()
		zap.L().Fatal("Failed to start community listener", zap.Error(err))
	}
	expirySweeper.Start(ctx)
	resumed := coordinator.Resume(ctx)

	zap.L().Info("Bot is running",
		zap.Int("resumed_contests", resumed),
		zap.String("guild_id", cfg.Discord.GuildId))
	zap.L().Info("Press Ctrl+C to stop")

	<-ctx.Done()
	zap.L().Info("Shutdown signal received, stopping background work...")

	if err := shutdown(bot, communityListener, expirySweeper, coordinator, timers); err != nil {
		zap.L().Warn("Shutdown finished with errors", zap.Error(err))
		return
	}
	zap.L().Info("Bot stopped gracefully")
}

// shutdown closes the gateway first so no new work arrives, then stops every
// background loop in parallel
func shutdown(bot *discord.Bot, l *listener.CommunityListener, s *sweeper.Sweeper, c *contest.Coordinator, t *countdown.Manager) error {
	err := bot.Close()

	var g errgroup.Group
	g.Go(func() error { l.Stop(); return nil })
	g.Go(func() error { s.Stop(); return nil })
	g.Go(func() error { c.Stop(); return nil })
	g.Go(func() error { t.Stop(); return nil })

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case waitErr := <-done:
		return multierr.Append(err, waitErr)
	case <-time.After(shutdownTimeout):
		return multierr.Append(err, fmt.Errorf("forced shutdown after %s", shutdownTimeout))
	}
}
