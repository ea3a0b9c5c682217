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

package common

import (
	"fmt"
	"sort"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/store"

	"go.uber.org/zap"
)

// WalletReport collects wallet, badge and warning data for command-line utilities.
// If userFilter is provided, returns a single entry for that member.
// If userFilter is empty, returns every member with a wallet, richest first.
func WalletReport(s store.StateStore, userFilter string, logger *zap.Logger) ([]models.WalletEntry, error) {
	var entries []models.WalletEntry

	s.View(func(snap *models.Snapshot) {
		if userFilter != "" {
			if _, ok := snap.Wallet[userFilter]; !ok {
				return
			}
			entries = append(entries, walletEntry(snap, userFilter))
			return
		}
		for userId := range snap.Wallet {
			entries = append(entries, walletEntry(snap, userId))
		}
	})

	if userFilter != "" && len(entries) == 0 {
		return nil, fmt.Errorf("member %s has no wallet: %w", userFilter, store.ErrNotFound)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Balance != entries[j].Balance {
			return entries[i].Balance > entries[j].Balance
		}
		return entries[i].UserId < entries[j].UserId
	})

	logger.Info("Retrieved wallets", zap.Int("count", len(entries)))
	return entries, nil
}

func walletEntry(snap *models.Snapshot, userId string) models.WalletEntry {
	return models.WalletEntry{
		UserId:  userId,
		Balance: snap.Wallet[userId],
		Badge:   snap.Badges[userId],
		Warns:   snap.Warns[userId],
	}
}
