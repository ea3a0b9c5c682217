package discord

import (
	"context"
	"fmt"

	"github.com/aliasqar1/tets/internal/api"
	"github.com/aliasqar1/tets/internal/common"
	"github.com/aliasqar1/tets/internal/models"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Modal text input ids
const (
	inputUserId     = "user_id"
	inputBannerUrl  = "banner_url"
	inputInviteLink = "invite_link"
	inputStreamLink = "stream_link"
	inputCode       = "code"
	inputValue      = "value"
)

var actionChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: api.ActionAdd, Value: api.ActionAdd},
	{Name: api.ActionRevoke, Value: api.ActionRevoke},
}

func memberOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "member",
		Description: description,
		Required:    required,
	}
}

func channelOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         "channel",
		Description:  description,
		Required:     true,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
	}
}

func integerOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: description,
		Required:    true,
	}
}

func actionOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "action",
		Description: "add or rev",
		Required:    true,
		Choices:     actionChoices,
	}
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "pol", Description: "Show your coin balance"},
		{
			Name:        "prof",
			Description: "Show a member profile",
			Options:     []*discordgo.ApplicationCommandOption{memberOption("Member to show, defaults to you", false)},
		},
		{
			Name:        "pay",
			Description: "Add or remove coins (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				memberOption("Target member", true),
				integerOption("amount", "Amount of coins"),
				actionOption(),
			},
		},
		{
			Name:        "w",
			Description: "Add or remove warns (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				memberOption("Target member", true),
				integerOption("count", "Number of warns"),
				actionOption(),
			},
		},
		{
			Name:        "wr",
			Description: "Clear every warn of a member (admin only)",
			Options:     []*discordgo.ApplicationCommandOption{memberOption("Target member", true)},
		},
		{
			Name:        "wv",
			Description: "Show the warns of a member (admin only)",
			Options:     []*discordgo.ApplicationCommandOption{memberOption("Target member", true)},
		},
		{
			Name:        "setgame",
			Description: "Set the contest channel (admin only)",
			Options:     []*discordgo.ApplicationCommandOption{channelOption("Contest channel")},
		},
		{
			Name:        "setout",
			Description: "Set the contest result channel (admin only)",
			Options:     []*discordgo.ApplicationCommandOption{channelOption("Result channel")},
		},
		{Name: "plus", Description: "Create a new contest (admin only)"},
		{Name: "shop", Description: "Open the shop"},
		{Name: "tam", Description: "Show and renew your subscriptions"},
		{Name: "addstreamer", Description: "Register a streamer (admin only)"},
		{Name: "vstream", Description: "List and edit streamers (admin only)"},
		{
			Name:        "pstream",
			Description: "Show a streamer profile",
			Options:     []*discordgo.ApplicationCommandOption{memberOption("Streamer to show, defaults to you", false)},
		},
		{Name: "link", Description: "Show your streamer invite link"},
		{
			Name:        "ws",
			Description: "Adjust streamer violations (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				memberOption("Streamer", true),
				integerOption("number", "Number of violations"),
				actionOption(),
			},
		},
		{
			Name:        "setstart",
			Description: "Set the stream news channel (admin only)",
			Options:     []*discordgo.ApplicationCommandOption{channelOption("News channel")},
		},
		{
			Name:        "sets",
			Description: "Post the start-stream button (admin only)",
			Options:     []*discordgo.ApplicationCommandOption{channelOption("Channel for the button")},
		},
		{
			Name:        "timeout",
			Description: "Start a 20-day timer (admin only)",
			Options:     []*discordgo.ApplicationCommandOption{memberOption("Member, defaults to you", false)},
		},
		{
			Name:        "rtime",
			Description: "Reset the 20-day timer (admin only)",
			Options:     []*discordgo.ApplicationCommandOption{memberOption("Member, defaults to you", false)},
		},
	}
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionsOf(data discordgo.ApplicationCommandInteractionData) options {
	opts := make(options, len(data.Options))
	for _, opt := range data.Options {
		opts[opt.Name] = opt
	}
	return opts
}

func (o options) user(name string) string {
	if opt, ok := o[name]; ok {
		return opt.UserValue(nil).ID
	}
	return ""
}

func (o options) channel(name string) string {
	if opt, ok := o[name]; ok {
		return opt.ChannelValue(nil).ID
	}
	return ""
}

func (o options) integer(name string) int64 {
	if opt, ok := o[name]; ok {
		return opt.IntValue()
	}
	return 0
}

func (o options) str(name string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func (b *Bot) handleCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	opts := optionsOf(data)
	actor := b.actorOf(ctx, i)
	zap.L().Debug("Received command",
		zap.String("command", data.Name),
		zap.String("user_id", actor.UserId),
		zap.String("guild_id", actor.GuildId))

	switch data.Name {
	case "pol":
		b.respond(i, balanceMessage(b.service.Balance(ctx, actor)))
	case "prof":
		target := b.targetOrSelf(ctx, i, opts, actor)
		b.respond(i, profileMessage(target.Username, b.service.Profile(ctx, target)))
	case "pay":
		b.handlePay(ctx, i, actor, opts)
	case "w":
		change, err := b.service.AdjustWarns(ctx, actor, opts.user("member"), int(opts.integer("count")), opts.str("action"))
		b.respondWarnChange(i, change, err)
	case "wr":
		change, err := b.service.ResetWarns(ctx, actor, opts.user("member"))
		b.respondWarnChange(i, change, err)
	case "wv":
		userId := opts.user("member")
		warns, err := b.service.ViewWarns(ctx, actor, userId)
		b.respondText(i, err, fmt.Sprintf("⚠️ %s has %d warns.", mention(userId), warns))
	case "setgame":
		channelId := opts.channel("channel")
		err := b.service.SetGameChannel(ctx, actor, channelId)
		b.respondText(i, err, fmt.Sprintf("✅ Contest channel set to <#%s>.", channelId))
	case "setout":
		channelId := opts.channel("channel")
		err := b.service.SetResultChannel(ctx, actor, channelId)
		b.respondText(i, err, fmt.Sprintf("✅ Result channel set to <#%s>.", channelId))
	case "plus":
		b.handlePlus(i, actor)
	case "shop":
		b.respond(i, shopMessage(b.service.Catalog()))
	case "tam":
		b.respond(i, renewalMessage(b.service.RenewalStatus(ctx, actor)))
	case "addstreamer":
		b.handleAddStreamer(i, actor)
	case "vstream":
		b.handleListStreamers(ctx, i, actor)
	case "pstream":
		target := b.targetOrSelf(ctx, i, opts, actor)
		view, err := b.service.StreamerProfile(ctx, target)
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respond(i, streamerMessage(target.Username, view))
	case "link":
		link, err := b.service.InviteLink(ctx, actor)
		b.respondText(i, err, "🔗 Your invite link: "+link)
	case "ws":
		userId := opts.user("member")
		violations, err := b.service.AdjustViolations(ctx, actor, userId, int(opts.integer("number")), opts.str("action"))
		b.respondText(i, err, fmt.Sprintf("✅ %s now has %d violations.", mention(userId), violations))
	case "setstart":
		channelId := opts.channel("channel")
		err := b.service.SetStartChannel(ctx, actor, channelId)
		b.respondText(i, err, fmt.Sprintf("✅ Stream news channel set to <#%s>.", channelId))
	case "sets":
		channelId := opts.channel("channel")
		_, err := b.service.PostStartButton(ctx, actor, channelId)
		b.respondText(i, err, fmt.Sprintf("✅ Start-stream button posted in <#%s>.", channelId))
	case "timeout":
		timer, err := b.service.StartTimer(ctx, actor, opts.user("member"))
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respond(i, textMessage("⏳ Timer started for "+mention(timer.UserId)+"."))
	case "rtime":
		timer, err := b.service.ResetTimer(ctx, actor, opts.user("member"))
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respond(i, textMessage("🔁 Timer reset for "+mention(timer.UserId)+"."))
	default:
		zap.L().Warn("Unknown command", zap.String("command", data.Name))
	}
}

func (b *Bot) targetOrSelf(ctx context.Context, i *discordgo.InteractionCreate, opts options, actor models.Actor) models.Actor {
	userId := opts.user("member")
	if userId == "" || userId == actor.UserId {
		return actor
	}
	return b.resolvedActor(ctx, i, userId)
}

func (b *Bot) handlePay(ctx context.Context, i *discordgo.InteractionCreate, actor models.Actor, opts options) {
	userId := opts.user("member")
	balance, err := b.service.Pay(ctx, actor, userId, opts.integer("amount"), opts.str("action"))
	b.respondText(i, err, fmt.Sprintf("✅ Balance of %s is now %s coins.", mention(userId), common.FormatCoins(balance)))
}

func (b *Bot) respondWarnChange(i *discordgo.InteractionCreate, change *api.WarnChange, err error) {
	if err != nil {
		b.respondError(i, err)
		return
	}
	b.respond(i, warnMessage(change))
}

func (b *Bot) handlePlus(i *discordgo.InteractionCreate, actor models.Actor) {
	session, prompt, err := b.service.BeginContest(actor)
	if err != nil {
		b.respondError(i, err)
		return
	}
	b.prompter.Track(session.Id, session.ChannelId)
	b.respond(i, promptMessage(prompt))
}

func (b *Bot) handleAddStreamer(i *discordgo.InteractionCreate, actor models.Actor) {
	if !b.service.IsAdmin(actor) {
		b.respondError(i, api.ErrForbidden)
		return
	}
	b.openModal(i, idStreamModal, "Register streamer",
		textInput{id: inputUserId, label: "Streamer user id", placeholder: "123456789012345678", required: true},
		textInput{id: inputBannerUrl, label: "Banner image link", required: false},
		textInput{id: inputInviteLink, label: "Invite link", required: false},
		textInput{id: inputStreamLink, label: "Stream link", required: false},
	)
}

func (b *Bot) handleListStreamers(ctx context.Context, i *discordgo.InteractionCreate, actor models.Actor) {
	ids, err := b.service.ListStreamers(ctx, actor)
	if err != nil {
		b.respondError(i, err)
		return
	}
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if m, err := b.session.State.Member(i.GuildID, id); err == nil && m.User != nil {
			names[id] = m.User.Username
		}
	}
	b.respond(i, streamerListMessage(ids, names))
}
