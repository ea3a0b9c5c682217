// Package platformtest provides an in-memory platform.Platform that records every call.
package platformtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/platform"
)

var _ platform.Platform = (*Fake)(nil)

type SentMessage struct {
	ChannelId string
	MessageId string
	Message   platform.Message
}

type RoleChange struct {
	GuildId string
	UserId  string
	RoleId  string
}

type Ban struct {
	GuildId string
	UserId  string
	Reason  string
}

// Fake is safe for concurrent use. Set Errors[method] to make that method fail.
type Fake struct {
	mu sync.Mutex

	GuildIds  []string
	Admins    map[string][]string
	Invites   map[string][]models.Invite
	Voice     map[string][]models.VoiceMember
	Messages  map[string]models.MessageInfo
	Roles     map[string]map[string]string
	Errors    map[string]error
	nextId    int
	Sent      []SentMessage
	Edits     []SentMessage
	Directs   map[string][]platform.Message
	Assigned  []RoleChange
	Revoked   []RoleChange
	Deleted   []RoleChange
	Bans      []Ban
	Timeouts  map[string]time.Time
	Lifted    []string
	Nicknames map[string]string
}

func New() *Fake {
	return &Fake{
		Admins:    make(map[string][]string),
		Invites:   make(map[string][]models.Invite),
		Voice:     make(map[string][]models.VoiceMember),
		Messages:  make(map[string]models.MessageInfo),
		Roles:     make(map[string]map[string]string),
		Errors:    make(map[string]error),
		Directs:   make(map[string][]platform.Message),
		Timeouts:  make(map[string]time.Time),
		Nicknames: make(map[string]string),
	}
}

// Fail makes every later call to method return err
func (f *Fake) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[method] = err
}

func (f *Fake) failure(method string) error {
	return f.Errors[method]
}

func (f *Fake) newId(prefix string) string {
	f.nextId++
	return fmt.Sprintf("%s-%d", prefix, f.nextId)
}

func (f *Fake) SendMessage(ctx context.Context, channelId string, msg platform.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("SendMessage"); err != nil {
		return "", err
	}
	id := f.newId("msg")
	f.Sent = append(f.Sent, SentMessage{ChannelId: channelId, MessageId: id, Message: msg})
	return id, nil
}

func (f *Fake) EditMessage(ctx context.Context, channelId, messageId string, msg platform.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("EditMessage"); err != nil {
		return err
	}
	f.Edits = append(f.Edits, SentMessage{ChannelId: channelId, MessageId: messageId, Message: msg})
	return nil
}

func (f *Fake) SendDirect(ctx context.Context, userId string, msg platform.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("SendDirect"); err != nil {
		return err
	}
	f.Directs[userId] = append(f.Directs[userId], msg)
	return nil
}

func (f *Fake) GetMessage(ctx context.Context, channelId, messageId string) (*models.MessageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("GetMessage"); err != nil {
		return nil, err
	}
	m, ok := f.Messages[messageId]
	if !ok {
		return nil, platform.ErrNotFound
	}
	return &m, nil
}

func (f *Fake) CreateRole(ctx context.Context, guildId, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("CreateRole"); err != nil {
		return "", err
	}
	if f.Roles[guildId] == nil {
		f.Roles[guildId] = make(map[string]string)
	}
	id := f.newId("role")
	f.Roles[guildId][id] = name
	return id, nil
}

func (f *Fake) DeleteRole(ctx context.Context, guildId, roleId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, RoleChange{GuildId: guildId, RoleId: roleId})
	if err := f.failure("DeleteRole"); err != nil {
		return err
	}
	delete(f.Roles[guildId], roleId)
	return nil
}

func (f *Fake) FindRoleByName(ctx context.Context, guildId, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("FindRoleByName"); err != nil {
		return "", err
	}
	for id, n := range f.Roles[guildId] {
		if n == name {
			return id, nil
		}
	}
	return "", platform.ErrNotFound
}

func (f *Fake) AssignRole(ctx context.Context, guildId, userId, roleId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("AssignRole"); err != nil {
		return err
	}
	f.Assigned = append(f.Assigned, RoleChange{GuildId: guildId, UserId: userId, RoleId: roleId})
	return nil
}

func (f *Fake) RevokeRole(ctx context.Context, guildId, userId, roleId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Revoked = append(f.Revoked, RoleChange{GuildId: guildId, UserId: userId, RoleId: roleId})
	return f.failure("RevokeRole")
}

func (f *Fake) Ban(ctx context.Context, guildId, userId, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("Ban"); err != nil {
		return err
	}
	f.Bans = append(f.Bans, Ban{GuildId: guildId, UserId: userId, Reason: reason})
	return nil
}

func (f *Fake) Timeout(ctx context.Context, guildId, userId string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("Timeout"); err != nil {
		return err
	}
	f.Timeouts[userId] = until
	return nil
}

func (f *Fake) RemoveTimeout(ctx context.Context, guildId, userId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("RemoveTimeout"); err != nil {
		return err
	}
	delete(f.Timeouts, userId)
	f.Lifted = append(f.Lifted, userId)
	return nil
}

func (f *Fake) Guilds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.GuildIds...)
}

func (f *Fake) ListAdmins(ctx context.Context, guildId string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("ListAdmins"); err != nil {
		return nil, err
	}
	return append([]string(nil), f.Admins[guildId]...), nil
}

func (f *Fake) ListInvites(ctx context.Context, guildId string) ([]models.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("ListInvites"); err != nil {
		return nil, err
	}
	return append([]models.Invite(nil), f.Invites[guildId]...), nil
}

func (f *Fake) VoiceMembers(ctx context.Context, guildId string) ([]models.VoiceMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("VoiceMembers"); err != nil {
		return nil, err
	}
	return append([]models.VoiceMember(nil), f.Voice[guildId]...), nil
}

func (f *Fake) SetNickname(ctx context.Context, guildId, userId, nickname string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("SetNickname"); err != nil {
		return err
	}
	f.Nicknames[userId] = nickname
	return nil
}

// SetRole registers an existing role in a guild
func (f *Fake) SetRole(guildId, roleId, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Roles[guildId] == nil {
		f.Roles[guildId] = make(map[string]string)
	}
	f.Roles[guildId][roleId] = name
}

// SetInvites replaces a guild's invite list
func (f *Fake) SetInvites(guildId string, invites ...models.Invite) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Invites[guildId] = invites
}

// SentTo returns copies of the messages sent to a channel
func (f *Fake) SentTo(channelId string) []platform.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []platform.Message
	for _, s := range f.Sent {
		if s.ChannelId == channelId {
			out = append(out, s.Message)
		}
	}
	return out
}

// EditsOf returns the edits applied to a message, oldest first
func (f *Fake) EditsOf(messageId string) []platform.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []platform.Message
	for _, e := range f.Edits {
		if e.MessageId == messageId {
			out = append(out, e.Message)
		}
	}
	return out
}

// DirectsTo returns the direct messages a user received
func (f *Fake) DirectsTo(userId string) []platform.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Message(nil), f.Directs[userId]...)
}

// Snapshot helpers for assertions made while goroutines may still be running

func (f *Fake) RevokedRoles() []RoleChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RoleChange(nil), f.Revoked...)
}

func (f *Fake) DeletedRoles() []RoleChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RoleChange(nil), f.Deleted...)
}

func (f *Fake) AssignedRoles() []RoleChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RoleChange(nil), f.Assigned...)
}

func (f *Fake) BanList() []Ban {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Ban(nil), f.Bans...)
}

func (f *Fake) TimeoutOf(userId string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	until, ok := f.Timeouts[userId]
	return until, ok
}

func (f *Fake) LiftedUsers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Lifted...)
}

func (f *Fake) NicknameOf(userId string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Nicknames[userId]
}
