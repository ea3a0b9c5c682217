package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aliasqar1/tets/internal/common"
	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/platform"

	"github.com/bwmarrin/discordgo"
)

// membersPage is the largest page the member list endpoint returns
const membersPage = 1000

// Adapter implements platform.Platform over a discordgo session
type Adapter struct {
	session *discordgo.Session
	catalog *common.Catalog
}

var _ platform.Platform = (*Adapter)(nil)

func NewAdapter(session *discordgo.Session, catalog *common.Catalog) *Adapter {
	return &Adapter{session: session, catalog: catalog}
}

// wrap maps a 404 from the REST API to platform.ErrNotFound
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, platform.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (a *Adapter) SendMessage(ctx context.Context, channelId string, msg platform.Message) (string, error) {
	sent, err := a.session.ChannelMessageSendComplex(channelId, toMessageSend(msg), discordgo.WithContext(ctx))
	if err != nil {
		return "", wrap("send message", err)
	}
	return sent.ID, nil
}

func (a *Adapter) EditMessage(ctx context.Context, channelId, messageId string, msg platform.Message) error {
	_, err := a.session.ChannelMessageEditComplex(toMessageEdit(channelId, messageId, msg), discordgo.WithContext(ctx))
	return wrap("edit message", err)
}

func (a *Adapter) SendDirect(ctx context.Context, userId string, msg platform.Message) error {
	channel, err := a.session.UserChannelCreate(userId, discordgo.WithContext(ctx))
	if err != nil {
		return wrap("open direct channel", err)
	}
	_, err = a.SendMessage(ctx, channel.ID, msg)
	return err
}

func (a *Adapter) GetMessage(ctx context.Context, channelId, messageId string) (*models.MessageInfo, error) {
	m, err := a.session.ChannelMessage(channelId, messageId, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrap("get message", err)
	}

	info := &models.MessageInfo{
		Id:          m.ID,
		ChannelId:   m.ChannelID,
		Attachments: attachments(m.Attachments),
	}
	if m.Author != nil {
		info.AuthorId = m.Author.ID
		info.AuthorIsBot = m.Author.Bot
	}
	for _, r := range m.Reactions {
		info.ReactionCount += r.Count
	}
	return info, nil
}

func attachments(in []*discordgo.MessageAttachment) []models.Attachment {
	out := make([]models.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, models.Attachment{Url: a.URL, ContentType: a.ContentType})
	}
	return out
}

// CreateRole creates a role without any permissions
func (a *Adapter) CreateRole(ctx context.Context, guildId, name string) (string, error) {
	var none int64
	role, err := a.session.GuildRoleCreate(guildId, &discordgo.RoleParams{
		Name:        name,
		Permissions: &none,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", wrap("create role", err)
	}
	return role.ID, nil
}

func (a *Adapter) DeleteRole(ctx context.Context, guildId, roleId string) error {
	return wrap("delete role", a.session.GuildRoleDelete(guildId, roleId, discordgo.WithContext(ctx)))
}

func (a *Adapter) FindRoleByName(ctx context.Context, guildId, name string) (string, error) {
	roles, err := a.session.GuildRoles(guildId, discordgo.WithContext(ctx))
	if err != nil {
		return "", wrap("list roles", err)
	}
	for _, r := range roles {
		if r.Name == name {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("role %q: %w", name, platform.ErrNotFound)
}

func (a *Adapter) AssignRole(ctx context.Context, guildId, userId, roleId string) error {
	return wrap("assign role", a.session.GuildMemberRoleAdd(guildId, userId, roleId, discordgo.WithContext(ctx)))
}

func (a *Adapter) RevokeRole(ctx context.Context, guildId, userId, roleId string) error {
	return wrap("revoke role", a.session.GuildMemberRoleRemove(guildId, userId, roleId, discordgo.WithContext(ctx)))
}

func (a *Adapter) Ban(ctx context.Context, guildId, userId, reason string) error {
	return wrap("ban member", a.session.GuildBanCreateWithReason(guildId, userId, reason, 0, discordgo.WithContext(ctx)))
}

func (a *Adapter) Timeout(ctx context.Context, guildId, userId string, until time.Time) error {
	return wrap("timeout member", a.session.GuildMemberTimeout(guildId, userId, &until, discordgo.WithContext(ctx)))
}

func (a *Adapter) RemoveTimeout(ctx context.Context, guildId, userId string) error {
	return wrap("remove timeout", a.session.GuildMemberTimeout(guildId, userId, nil, discordgo.WithContext(ctx)))
}

// Guilds lists the guilds present in the gateway state
func (a *Adapter) Guilds() []string {
	state := a.session.State
	state.RLock()
	defer state.RUnlock()
	ids := make([]string, 0, len(state.Guilds))
	for _, g := range state.Guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

// ListAdmins pages through the guild's members and returns those holding an admin role
func (a *Adapter) ListAdmins(ctx context.Context, guildId string) ([]string, error) {
	names, err := a.roleNamesById(ctx, guildId)
	if err != nil {
		return nil, err
	}

	var admins []string
	after := ""
	for {
		members, err := a.session.GuildMembers(guildId, after, membersPage, discordgo.WithContext(ctx))
		if err != nil {
			return nil, wrap("list members", err)
		}
		for _, m := range members {
			if m.User == nil || m.User.Bot {
				continue
			}
			if a.catalog.IsAdmin(resolveRoles(names, m.Roles)) {
				admins = append(admins, m.User.ID)
			}
		}
		if len(members) < membersPage {
			return admins, nil
		}
		after = members[len(members)-1].User.ID
	}
}

func (a *Adapter) ListInvites(ctx context.Context, guildId string) ([]models.Invite, error) {
	invites, err := a.session.GuildInvites(guildId, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrap("list invites", err)
	}
	out := make([]models.Invite, 0, len(invites))
	for _, inv := range invites {
		out = append(out, models.Invite{Code: inv.Code, Uses: inv.Uses})
	}
	return out, nil
}

// VoiceMembers reads voice presence from the gateway state
func (a *Adapter) VoiceMembers(ctx context.Context, guildId string) ([]models.VoiceMember, error) {
	guild, err := a.session.State.Guild(guildId)
	if err != nil {
		return nil, fmt.Errorf("guild %s: %w", guildId, platform.ErrNotFound)
	}

	a.session.State.RLock()
	states := append([]*discordgo.VoiceState(nil), guild.VoiceStates...)
	a.session.State.RUnlock()

	out := make([]models.VoiceMember, 0, len(states))
	for _, vs := range states {
		if vs.ChannelID == "" {
			continue
		}
		out = append(out, models.VoiceMember{
			GuildId: guildId,
			UserId:  vs.UserID,
			IsBot:   a.isBot(guildId, vs),
		})
	}
	return out, nil
}

func (a *Adapter) isBot(guildId string, vs *discordgo.VoiceState) bool {
	if vs.Member != nil && vs.Member.User != nil {
		return vs.Member.User.Bot
	}
	if m, err := a.session.State.Member(guildId, vs.UserID); err == nil && m.User != nil {
		return m.User.Bot
	}
	return false
}

func (a *Adapter) SetNickname(ctx context.Context, guildId, userId, nickname string) error {
	return wrap("set nickname", a.session.GuildMemberNickname(guildId, userId, nickname, discordgo.WithContext(ctx)))
}

// RoleNames resolves role ids to names, preferring the gateway state cache
func (a *Adapter) RoleNames(ctx context.Context, guildId string, roleIds []string) []string {
	out := make([]string, 0, len(roleIds))
	missing := false
	for _, id := range roleIds {
		role, err := a.session.State.Role(guildId, id)
		if err != nil {
			missing = true
			break
		}
		out = append(out, role.Name)
	}
	if !missing {
		return out
	}

	names, err := a.roleNamesById(ctx, guildId)
	if err != nil {
		return out
	}
	return resolveRoles(names, roleIds)
}

func (a *Adapter) roleNamesById(ctx context.Context, guildId string) (map[string]string, error) {
	roles, err := a.session.GuildRoles(guildId, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrap("list roles", err)
	}
	names := make(map[string]string, len(roles))
	for _, r := range roles {
		names[r.ID] = r.Name
	}
	return names, nil
}

func resolveRoles(names map[string]string, roleIds []string) []string {
	out := make([]string, 0, len(roleIds))
	for _, id := range roleIds {
		if name, ok := names[id]; ok {
			out = append(out, name)
		}
	}
	return out
}
