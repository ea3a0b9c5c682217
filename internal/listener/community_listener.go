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
	"fmt"
	"sync"
	"time"

	"github.com/aliasqar1/tets/internal/economy"
	"github.com/aliasqar1/tets/internal/platform"
	"github.com/aliasqar1/tets/internal/store"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// CommunityListenerConfig contains configuration for CommunityListener
type CommunityListenerConfig struct {
	Store             store.StateStore
	Platform          platform.Platform
	VoiceTickInterval time.Duration
	CleanupInterval   time.Duration
	DedupRetention    time.Duration
}

// CommunityListener turns gateway events into wallet, badge and invite
// updates, and samples voice channels on a fixed cadence
type CommunityListener struct {
	store    store.StateStore
	platform platform.Platform

	// State management for rewarded events
	messages  *economy.MessageLedger
	reactions *economy.ReactionLedger

	// Last observed invite use counts, per guild and code
	inviteUses map[string]map[string]int
	inviteMu   sync.Mutex

	voiceTickInterval time.Duration
	cleanupInterval   time.Duration
	dedupRetention    time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewCommunityListener creates a new community listener
func NewCommunityListener(cfg CommunityListenerConfig) *CommunityListener {
	return &CommunityListener{
		store:             cfg.Store,
		platform:          cfg.Platform,
		messages:          economy.NewMessageLedger(),
		reactions:         economy.NewReactionLedger(),
		inviteUses:        make(map[string]map[string]int),
		voiceTickInterval: cfg.VoiceTickInterval,
		cleanupInterval:   cfg.CleanupInterval,
		dedupRetention:    cfg.DedupRetention,
		stopChan:          make(chan struct{}),
	}
}

// Start snapshots invite use counts and begins the background loops. It
// must be called once the gateway reports which guilds the bot is in.
func (l *CommunityListener) Start(ctx context.Context) error {
	zap.L().Info("Starting community listener")

	if l.voiceTickInterval <= 0 || l.cleanupInterval <= 0 {
		return fmt.Errorf("voice tick and cleanup intervals must be positive")
	}

	guilds := l.platform.Guilds()
	if len(guilds) == 0 {
		zap.L().Warn("Bot is not in any guild yet, voice rewards will start once it joins one")
	}
	for _, guildId := range guilds {
		if err := l.PrimeInvites(ctx, guildId); err != nil {
			zap.L().Warn("Failed to snapshot invites, attribution starts with the next join",
				zap.String("guild_id", guildId),
				zap.Error(err))
		}
	}

	l.wg.Add(2)
	go l.voiceLoop(ctx)
	go l.cleanupLoop(ctx)

	zap.L().Info("Community listener started successfully",
		zap.Int("guilds", len(guilds)),
		zap.Duration("voice_tick_interval", l.voiceTickInterval),
		zap.Duration("cleanup_interval", l.cleanupInterval))
	return nil
}

// Stop signals both loops and waits for them to return
func (l *CommunityListener) Stop() {
	zap.L().Info("Stopping community listener")
	close(l.stopChan)
	l.wg.Wait()
	zap.L().Info("Community listener stopped")
}

// voiceLoop runs the voice presence sampler
func (l *CommunityListener) voiceLoop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.voiceTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.RewardVoice(ctx); err != nil {
				zap.L().Error("Voice reward tick failed", zap.Error(err))
			}
		case <-l.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RewardVoice credits every non-bot member connected to voice in every guild.
// All credits of one tick are applied as a single mutation.
func (l *CommunityListener) RewardVoice(ctx context.Context) error {
	var errs error
	deltas := make(map[string]int64)
	for _, guildId := range l.platform.Guilds() {
		members, err := l.platform.VoiceMembers(ctx, guildId)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("guild %s: %w", guildId, err))
			continue
		}
		for userId, reward := range economy.VoiceTickRewards(members) {
			deltas[userId] += reward
		}
	}

	if len(deltas) > 0 {
		if err := l.store.CreditMany(ctx, deltas); err != nil {
			return multierr.Append(errs, fmt.Errorf("failed to credit voice rewards: %w", err))
		}
		zap.L().Debug("Voice rewards credited", zap.Int("members", len(deltas)))
	}
	return errs
}

// cleanupLoop periodically forgets old rewarded message ids and reaction levels
func (l *CommunityListener) cleanupLoop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.messages.Cleanup(l.dedupRetention)
			l.reactions.Cleanup(l.dedupRetention)
		case <-l.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}
