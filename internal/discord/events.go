package discord

import (
	"github.com/aliasqar1/tets/internal/models"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	zap.L().Info("Bot is ready", zap.Int("guilds", len(r.Guilds)))
	b.readyOnce.Do(func() { close(b.ready) })
}

// onGuildCreate snapshots invite use counts so the next join can be attributed
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	ctx, cancel := b.eventContext()
	defer cancel()
	if err := b.listener.PrimeInvites(ctx, g.ID); err != nil {
		zap.L().Warn("Failed to prime invites", zap.String("guild_id", g.ID), zap.Error(err))
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil {
		return
	}
	ev := models.MessageEvent{
		Id:          m.ID,
		GuildId:     m.GuildID,
		ChannelId:   m.ChannelID,
		AuthorId:    m.Author.ID,
		AuthorIsBot: m.Author.Bot,
		Content:     m.Content,
		Attachments: attachments(m.Attachments),
	}

	ctx, cancel := b.eventContext()
	defer cancel()

	if !ev.AuthorIsBot {
		b.collector.HandleMessage(ctx, ev)
	}
	if _, err := b.listener.HandleMessage(ctx, ev); err != nil {
		zap.L().Warn("Failed to reward message", zap.String("message_id", ev.Id), zap.Error(err))
	}
}

func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	b.handleReaction(reactionEvent(r.MessageReaction, r.Member, false))
}

func (b *Bot) onReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	b.handleReaction(reactionEvent(r.MessageReaction, nil, true))
}

func reactionEvent(r *discordgo.MessageReaction, member *discordgo.Member, removed bool) models.ReactionEvent {
	ev := models.ReactionEvent{
		GuildId:   r.GuildID,
		ChannelId: r.ChannelID,
		MessageId: r.MessageID,
		UserId:    r.UserID,
		Removed:   removed,
	}
	if member != nil && member.User != nil {
		ev.UserIsBot = member.User.Bot
	}
	return ev
}

func (b *Bot) handleReaction(ev models.ReactionEvent) {
	if ev.GuildId == "" {
		return
	}
	ctx, cancel := b.eventContext()
	defer cancel()
	if _, err := b.listener.HandleReaction(ctx, ev); err != nil {
		zap.L().Warn("Failed to handle reaction",
			zap.String("message_id", ev.MessageId),
			zap.Error(err))
	}
}

func memberEvent(guildId string, m *discordgo.Member) (models.MemberEvent, bool) {
	if m == nil || m.User == nil {
		return models.MemberEvent{}, false
	}
	return models.MemberEvent{
		GuildId:  guildId,
		UserId:   m.User.ID,
		Username: m.User.Username,
		IsBot:    m.User.Bot,
		JoinedAt: m.JoinedAt,
	}, true
}

func (b *Bot) onMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	ev, ok := memberEvent(m.GuildID, m.Member)
	if !ok {
		return
	}
	ctx, cancel := b.eventContext()
	defer cancel()
	if err := b.listener.HandleMemberJoin(ctx, ev); err != nil {
		zap.L().Error("Failed to handle member join", zap.String("user_id", ev.UserId), zap.Error(err))
	}
}

func (b *Bot) onMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	ev, ok := memberEvent(m.GuildID, m.Member)
	if !ok {
		return
	}
	ctx, cancel := b.eventContext()
	defer cancel()
	if err := b.listener.HandleMemberLeave(ctx, ev); err != nil {
		zap.L().Error("Failed to handle member leave", zap.String("user_id", ev.UserId), zap.Error(err))
	}
}
