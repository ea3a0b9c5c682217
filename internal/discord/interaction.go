package discord

import (
	"context"
	"strings"

	"github.com/aliasqar1/tets/internal/api"
	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/platform"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := b.eventContext()
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(ctx, i)
	case discordgo.InteractionModalSubmit:
		b.handleModal(ctx, i)
	}
}

// actorOf describes the member behind an interaction
func (b *Bot) actorOf(ctx context.Context, i *discordgo.InteractionCreate) models.Actor {
	actor := models.Actor{GuildId: i.GuildID, ChannelId: i.ChannelID}
	switch {
	case i.Member != nil && i.Member.User != nil:
		actor.UserId = i.Member.User.ID
		actor.Username = i.Member.User.Username
		actor.JoinedAt = i.Member.JoinedAt
		actor.RoleNames = b.adapter.RoleNames(ctx, i.GuildID, i.Member.Roles)
	case i.User != nil:
		actor.UserId = i.User.ID
		actor.Username = i.User.Username
	}
	return actor
}

// resolvedActor describes a member picked in a user option
func (b *Bot) resolvedActor(ctx context.Context, i *discordgo.InteractionCreate, userId string) models.Actor {
	actor := models.Actor{UserId: userId, GuildId: i.GuildID, ChannelId: i.ChannelID}
	resolved := i.ApplicationCommandData().Resolved
	if resolved == nil {
		return actor
	}
	if u, ok := resolved.Users[userId]; ok {
		actor.Username = u.Username
	}
	if m, ok := resolved.Members[userId]; ok {
		actor.JoinedAt = m.JoinedAt
		actor.RoleNames = b.adapter.RoleNames(ctx, i.GuildID, m.Roles)
	}
	return actor
}

func (b *Bot) respond(i *discordgo.InteractionCreate, msg platform.Message) {
	b.reply(i, discordgo.InteractionResponseChannelMessageWithSource, toResponseData(msg, true))
}

// update replaces the message the pressed component belongs to
func (b *Bot) update(i *discordgo.InteractionCreate, msg platform.Message) {
	data := toResponseData(msg, false)
	if data.Components == nil {
		data.Components = []discordgo.MessageComponent{}
	}
	b.reply(i, discordgo.InteractionResponseUpdateMessage, data)
}

// respondText answers ephemerally with err's outcome, or with text on success
func (b *Bot) respondText(i *discordgo.InteractionCreate, err error, text string) {
	if err != nil {
		b.respondError(i, err)
		return
	}
	b.respond(i, textMessage(text))
}

func (b *Bot) respondError(i *discordgo.InteractionCreate, err error) {
	outcome := api.OutcomeOf(err)
	if outcome.Kind == api.KindPersistence || outcome.Kind == api.KindExternal {
		zap.L().Error("Interaction failed",
			zap.String("kind", outcome.Kind.String()),
			zap.String("interaction_id", i.ID),
			zap.Error(err))
	}
	b.respond(i, outcomeMessage(outcome))
}

func (b *Bot) reply(i *discordgo.InteractionCreate, kind discordgo.InteractionResponseType, data *discordgo.InteractionResponseData) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{Type: kind, Data: data})
	if err != nil {
		zap.L().Warn("Failed to respond to interaction",
			zap.String("interaction_id", i.ID),
			zap.Error(err))
	}
}

type textInput struct {
	id          string
	label       string
	placeholder string
	required    bool
}

func (b *Bot) openModal(i *discordgo.InteractionCreate, customId, title string, inputs ...textInput) {
	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    in.id,
					Label:       in.label,
					Style:       discordgo.TextInputShort,
					Placeholder: in.placeholder,
					Required:    in.required,
				},
			},
		})
	}
	b.reply(i, discordgo.InteractionResponseModal, &discordgo.InteractionResponseData{
		CustomID:   customId,
		Title:      title,
		Components: rows,
	})
}

// modalValues collects text input values by input id
func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok {
				values[input.CustomID] = strings.TrimSpace(input.Value)
			}
		}
	}
	return values
}
