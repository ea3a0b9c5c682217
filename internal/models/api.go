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

package models

import "time"

// Actor is the participant invoking a command, with the role names used for capability checks
type Actor struct {
	UserId    string    `json:"user_id"`
	GuildId   string    `json:"guild_id"`
	ChannelId string    `json:"channel_id"`
	Username  string    `json:"username"`
	RoleNames []string  `json:"role_names"`
	JoinedAt  time.Time `json:"joined_at"`
}

// Profile is the member profile view
type Profile struct {
	UserId            string        `json:"user_id"`
	Badge             int           `json:"badge,omitempty"`
	Coins             int64         `json:"coins"`
	Warns             int           `json:"warns"`
	HasSubscription   bool          `json:"has_subscription"`
	SubscriptionState string        `json:"subscription_state"` // "none", "active", "expired"
	SubscriptionLeft  time.Duration `json:"subscription_left"`
	JoinedAgo         time.Duration `json:"joined_ago"`
}

// StreamerView is the streamer profile view
type StreamerView struct {
	UserId       string          `json:"user_id"`
	Profile      StreamerProfile `json:"profile"`
	Coins        int64           `json:"coins"`
	DaysStreamer int             `json:"days_streamer"`
}

// RenewableItem describes one renewable purchase and its remaining time
type RenewableItem struct {
	Kind      string        `json:"kind"` // "sub", "shoprole"
	Price     int64         `json:"price"`
	State     string        `json:"state"` // "none", "active", "expired"
	Remaining time.Duration `json:"remaining"`
}

// RenewalStatus is the /tam view
type RenewalStatus struct {
	Balance int64           `json:"balance"`
	Items   []RenewableItem `json:"items"`
}

// Receipt is the result of a purchase, renewal or order
type Receipt struct {
	Product    string `json:"product"`
	Price      int64  `json:"price"`
	NewBalance int64  `json:"new_balance"`
	RoleName   string `json:"role_name,omitempty"`
	OrderId    string `json:"order_id,omitempty"`
}

// WalletEntry is one line of a wallet report
type WalletEntry struct {
	UserId  string `json:"user_id"`
	Balance int64  `json:"balance"`
	Badge   int    `json:"badge,omitempty"`
	Warns   int    `json:"warns"`
}
