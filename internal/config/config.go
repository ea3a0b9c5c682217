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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aliasqar1/tets/internal/models"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

func Load() (*models.Config, error) {
	var (
		sweepInterval, subscriptionLifetime, customRoleLifetime time.Duration
		stepTimeout, monitorInterval                            time.Duration
		voiceTick, dedupRetention, cleanupInterval              time.Duration
		timerDuration, timerRefresh, timerWarn                  time.Duration
	)
	var err error
	if sweepInterval, err = getEnvDuration("SWEEP_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if subscriptionLifetime, err = getEnvDuration("SUBSCRIPTION_LIFETIME", 30*day); err != nil {
		return nil, err
	}
	if customRoleLifetime, err = getEnvDuration("CUSTOM_ROLE_LIFETIME", 30*day); err != nil {
		return nil, err
	}
	if stepTimeout, err = getEnvDuration("CONTEST_STEP_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if monitorInterval, err = getEnvDuration("CONTEST_MONITOR_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if voiceTick, err = getEnvDuration("VOICE_TICK_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if dedupRetention, err = getEnvDuration("DEDUP_RETENTION", 24*time.Hour); err != nil {
		return nil, err
	}
	if cleanupInterval, err = getEnvDuration("DEDUP_CLEANUP_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if timerDuration, err = getEnvDuration("TIMER_DURATION", 20*day); err != nil {
		return nil, err
	}
	if timerRefresh, err = getEnvDuration("TIMER_REFRESH_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	if timerWarn, err = getEnvDuration("TIMER_WARN_BEFORE", 3*day); err != nil {
		return nil, err
	}

	share, err := getEnvDecimal("CONTEST_RUNNER_UP_SHARE", decimal.NewFromFloat(0.5))
	if err != nil {
		return nil, err
	}
	if share.IsNegative() || share.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("invalid CONTEST_RUNNER_UP_SHARE: %s is outside [0, 1]", share)
	}

	return &models.Config{
		Discord: models.DiscordConfig{
			Token:         getEnvString("DISCORD_TOKEN", ""),
			ApplicationId: getEnvString("DISCORD_APPLICATION_ID", ""),
			GuildId:       getEnvString("DISCORD_GUILD_ID", ""),
			RemoveOnStop:  getEnvBool("DISCORD_REMOVE_COMMANDS", false),
		},
		Store: models.StoreConfig{
			DataFile:   getEnvString("DATA_FILE", "data.json"),
			StreamFile: getEnvString("STREAM_FILE", "stream.json"),
			Indent:     getEnvBool("STATE_INDENT", true),
		},
		Sweeper: models.SweeperConfig{
			Interval:             sweepInterval,
			SubscriptionLifetime: subscriptionLifetime,
			CustomRoleLifetime:   customRoleLifetime,
		},
		Contest: models.ContestConfig{
			StepTimeout:     stepTimeout,
			MonitorInterval: monitorInterval,
			RunnerUpShare:   share,
		},
		Economy: models.EconomyConfig{
			VoiceTickInterval: voiceTick,
			DedupRetention:    dedupRetention,
			CleanupInterval:   cleanupInterval,
		},
		Timer: models.TimerConfig{
			Duration:        timerDuration,
			RefreshInterval: timerRefresh,
			WarnBefore:      timerWarn,
		},
		Shop: models.ShopConfig{
			CatalogFile: getEnvString("CATALOG_FILE", "catalog.yaml"),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		if duration <= 0 {
			return 0, fmt.Errorf("invalid duration for %s: %q must be positive", key, value)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
