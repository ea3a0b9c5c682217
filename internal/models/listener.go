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

// Attachment is the metadata of a file attached to a message
type Attachment struct {
	Url         string `json:"url"`
	ContentType string `json:"content_type"`
}

// MessageEvent is a message authored in a guild channel
type MessageEvent struct {
	Id          string       `json:"id"`
	GuildId     string       `json:"guild_id"`
	ChannelId   string       `json:"channel_id"`
	AuthorId    string       `json:"author_id"`
	AuthorIsBot bool         `json:"author_is_bot"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
}

// ReactionEvent is a reaction added to or removed from a message
type ReactionEvent struct {
	GuildId   string `json:"guild_id"`
	ChannelId string `json:"channel_id"`
	MessageId string `json:"message_id"`
	UserId    string `json:"user_id"`
	UserIsBot bool   `json:"user_is_bot"`
	Removed   bool   `json:"removed"`
}

// MemberEvent is a member joining or leaving a guild
type MemberEvent struct {
	GuildId  string    `json:"guild_id"`
	UserId   string    `json:"user_id"`
	Username string    `json:"username"`
	IsBot    bool      `json:"is_bot"`
	JoinedAt time.Time `json:"joined_at"`
}

// VoiceMember is a member currently connected to a voice channel
type VoiceMember struct {
	GuildId string `json:"guild_id"`
	UserId  string `json:"user_id"`
	IsBot   bool   `json:"is_bot"`
}

// Invite is an active invite code and its use count
type Invite struct {
	Code string `json:"code"`
	Uses int    `json:"uses"`
}

// MessageInfo is the reward-relevant view of a posted message
type MessageInfo struct {
	Id            string       `json:"id"`
	ChannelId     string       `json:"channel_id"`
	AuthorId      string       `json:"author_id"`
	AuthorIsBot   bool         `json:"author_is_bot"`
	Attachments   []Attachment `json:"attachments"`
	ReactionCount int          `json:"reaction_count"`
}
