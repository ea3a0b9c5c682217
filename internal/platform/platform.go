package platform

import (
	"context"
	"errors"
	"time"

	"github.com/aliasqar1/tets/internal/models"
)

// ErrNotFound is returned when a channel, message, role or member does not exist
var ErrNotFound = errors.New("platform object not found")

// ButtonStyle mirrors the chat platform's button colours
type ButtonStyle int

const (
	StylePrimary ButtonStyle = iota + 1
	StyleSecondary
	StyleSuccess
	StyleDanger
	StyleLink
)

type Button struct {
	Id       string
	Label    string
	Style    ButtonStyle
	Url      string
	Disabled bool
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type Embed struct {
	Title       string
	Description string
	Color       int
	ImageUrl    string
	Thumbnail   string
	Fields      []EmbedField
	Footer      string
}

// Message is rich message content. On edit, a nil Embed leaves the existing
// embed alone and ClearButtons removes every interactive component.
type Message struct {
	Content      string
	Embed        *Embed
	Buttons      []Button
	ClearButtons bool
}

// Messenger sends and edits messages
type Messenger interface {
	SendMessage(ctx context.Context, channelId string, msg Message) (string, error)
	EditMessage(ctx context.Context, channelId, messageId string, msg Message) error
	SendDirect(ctx context.Context, userId string, msg Message) error
	GetMessage(ctx context.Context, channelId, messageId string) (*models.MessageInfo, error)
}

// RoleManager creates, deletes and assigns roles
type RoleManager interface {
	CreateRole(ctx context.Context, guildId, name string) (string, error)
	DeleteRole(ctx context.Context, guildId, roleId string) error
	FindRoleByName(ctx context.Context, guildId, name string) (string, error)
	AssignRole(ctx context.Context, guildId, userId, roleId string) error
	RevokeRole(ctx context.Context, guildId, userId, roleId string) error
}

// Moderator applies enforcement actions to members
type Moderator interface {
	Ban(ctx context.Context, guildId, userId, reason string) error
	Timeout(ctx context.Context, guildId, userId string, until time.Time) error
	RemoveTimeout(ctx context.Context, guildId, userId string) error
}

// Directory answers questions about guilds and their members
type Directory interface {
	Guilds() []string
	ListAdmins(ctx context.Context, guildId string) ([]string, error)
	ListInvites(ctx context.Context, guildId string) ([]models.Invite, error)
	VoiceMembers(ctx context.Context, guildId string) ([]models.VoiceMember, error)
	SetNickname(ctx context.Context, guildId, userId, nickname string) error
}

// Platform is everything the core consumes from the chat platform
type Platform interface {
	Messenger
	RoleManager
	Moderator
	Directory
}
