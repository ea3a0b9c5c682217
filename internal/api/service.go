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
	"time"

	"github.com/aliasqar1/tets/internal/common"
	"github.com/aliasqar1/tets/internal/contest"
	"github.com/aliasqar1/tets/internal/countdown"
	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/platform"
	"github.com/aliasqar1/tets/internal/shop"
	"github.com/aliasqar1/tets/internal/store"
)

// Config contains configuration for CommunityService
type Config struct {
	Store                store.StateStore
	Platform             platform.Platform
	Catalog              *common.Catalog
	Shop                 *shop.Service
	Coordinator          *contest.Coordinator
	Collector            *contest.Collector
	Countdown            *countdown.Manager
	SubscriptionLifetime time.Duration
	Now                  func() time.Time
}

// CommunityService is the command surface. Every operation checks the
// invoking member's capability before it touches the store.
type CommunityService struct {
	store                store.StateStore
	platform             platform.Platform
	catalog              *common.Catalog
	shop                 *shop.Service
	coordinator          *contest.Coordinator
	collector            *contest.Collector
	countdown            *countdown.Manager
	subscriptionLifetime time.Duration
	now                  func() time.Time
}

func NewCommunityService(cfg Config) *CommunityService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = common.DefaultCatalog()
	}
	return &CommunityService{
		store:                cfg.Store,
		platform:             cfg.Platform,
		catalog:              catalog,
		shop:                 cfg.Shop,
		coordinator:          cfg.Coordinator,
		collector:            cfg.Collector,
		countdown:            cfg.Countdown,
		subscriptionLifetime: cfg.SubscriptionLifetime,
		now:                  now,
	}
}

func (s *CommunityService) HealthCheck(ctx context.Context) error {
	if err := s.store.Flush(ctx); err != nil {
		return fmt.Errorf("state store health check failed: %w", err)
	}
	return nil
}

// IsAdmin reports whether actor holds one of the admin roles
func (s *CommunityService) IsAdmin(actor models.Actor) bool {
	return s.catalog.IsAdmin(actor.RoleNames)
}

// IsStreamer reports whether actor holds one of the streamer roles
func (s *CommunityService) IsStreamer(actor models.Actor) bool {
	return s.catalog.IsStreamer(actor.RoleNames)
}

func (s *CommunityService) requireAdmin(actor models.Actor) error {
	if !s.IsAdmin(actor) {
		return fmt.Errorf("%s is not an admin: %w", actor.UserId, ErrForbidden)
	}
	return nil
}

func (s *CommunityService) requireStreamerRole(actor models.Actor) error {
	if !s.IsStreamer(actor) {
		return fmt.Errorf("%s has no streamer role: %w", actor.UserId, ErrNotStreamer)
	}
	return nil
}

func requireGuild(actor models.Actor) error {
	if actor.GuildId == "" {
		return fmt.Errorf("command must be used inside a server: %w", store.ErrInvalidInput)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, fmt.Sprintf(format, args...))
}
