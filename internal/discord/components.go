package discord

import (
	"context"
	"fmt"

	"github.com/aliasqar1/tets/internal/api"
	"github.com/aliasqar1/tets/internal/contest"
	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/platform"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) handleComponent(ctx context.Context, i *discordgo.InteractionCreate) {
	customId := i.MessageComponentData().CustomID
	actor := b.actorOf(ctx, i)

	if customId == api.StartStreamButtonId {
		result, err := b.service.StartStream(ctx, actor)
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respond(i, streamStartMessage(result))
		return
	}
	if action, arg, ok := contest.ParseButtonId(customId); ok {
		b.handleContestButton(ctx, i, actor, action, arg)
		return
	}

	prefix, args := splitId(customId)
	switch {
	case prefix == idShop && len(args) > 0:
		b.handleShopButton(ctx, i, actor, args)
	case prefix == idRenew && len(args) == 1:
		receipt, err := b.service.Renew(ctx, actor, args[0])
		b.respondReceipt(i, receipt, err)
	case prefix == idVstream && len(args) > 1:
		b.handleVstreamButton(i, actor, args)
	default:
		zap.L().Warn("Unknown component", zap.String("custom_id", customId))
	}
}

func (b *Bot) handleContestButton(ctx context.Context, i *discordgo.InteractionCreate, actor models.Actor, action, arg string) {
	switch action {
	case contest.ActionJoin:
		b.openModal(i, componentId(idCodeModal, arg), "Contest #"+arg,
			textInput{id: inputCode, label: "Secret code", required: true})

	case contest.ActionSeconds, contest.ActionDays:
		kind := models.DurationSeconds
		if action == contest.ActionDays {
			kind = models.DurationDays
		}
		prompt, err := b.service.ChooseContestKind(actor, arg, kind)
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.update(i, platform.Message{Content: prompt.Text})

	case contest.ActionConfirm:
		registered, err := b.service.ConfirmContest(ctx, actor, arg)
		if registered != nil || err == nil {
			b.prompter.Forget(arg)
		}
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.update(i, platform.Message{Content: fmt.Sprintf("✅ Contest #%s registered.", registered.ContestId)})

	case contest.ActionCancel:
		if err := b.service.CancelContest(actor, arg); err != nil {
			b.respondError(i, err)
			return
		}
		b.prompter.Forget(arg)
		b.update(i, platform.Message{Content: "❌ Contest setup cancelled."})

	default:
		zap.L().Warn("Unknown contest action", zap.String("action", action))
	}
}

func (b *Bot) handleShopButton(ctx context.Context, i *discordgo.InteractionCreate, actor models.Actor, args []string) {
	switch {
	case args[0] == shopSubscription:
		receipt, err := b.service.BuySubscription(ctx, actor)
		b.respondReceipt(i, receipt, err)
	case args[0] == shopCustomRole:
		receipt, err := b.service.BuyCustomRole(ctx, actor)
		b.respondReceipt(i, receipt, err)
	case args[0] == shopCategory && len(args) == 2:
		menu, ok := orderMenuMessage(b.service.Catalog(), args[1])
		if !ok {
			b.respond(i, textMessage("❌ Unknown order category."))
			return
		}
		b.respond(i, menu)
	case args[0] == shopOrder && len(args) == 3:
		receipt, err := b.service.PlaceOrder(ctx, actor, args[1], args[2])
		b.respondReceipt(i, receipt, err)
	default:
		zap.L().Warn("Unknown shop action", zap.Strings("args", args))
	}
}

func (b *Bot) respondReceipt(i *discordgo.InteractionCreate, receipt *models.Receipt, err error) {
	if err != nil {
		b.respondError(i, err)
		return
	}
	b.respond(i, receiptMessage(receipt))
}

func (b *Bot) handleVstreamButton(i *discordgo.InteractionCreate, actor models.Actor, args []string) {
	if !b.service.IsAdmin(actor) {
		b.respondError(i, api.ErrForbidden)
		return
	}
	switch {
	case args[0] == vstreamPick:
		b.respond(i, streamerFieldsMessage(args[1]))
	case args[0] == vstreamField && len(args) == 3:
		userId, field := args[1], args[2]
		b.openModal(i, componentId(idEditModal, userId, field), "Edit "+field,
			textInput{id: inputValue, label: "New value for " + field, required: true})
	default:
		zap.L().Warn("Unknown vstream action", zap.Strings("args", args))
	}
}

func (b *Bot) handleModal(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	values := modalValues(data)
	actor := b.actorOf(ctx, i)

	prefix, args := splitId(data.CustomID)
	switch {
	case prefix == idStreamModal:
		userId := values[inputUserId]
		profile, err := b.service.AddStreamer(ctx, actor, userId,
			values[inputBannerUrl], values[inputInviteLink], values[inputStreamLink])
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respond(i, textMessage(fmt.Sprintf("✅ Streamer %s registered. Invite code: %s", mention(userId), profile.InviteCode)))

	case prefix == idCodeModal && len(args) == 1:
		result, err := b.service.SubmitContest(ctx, actor, args[0], values[inputCode])
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respond(i, submissionMessage(result))

	case prefix == idEditModal && len(args) == 2:
		userId, field := args[0], args[1]
		_, err := b.service.EditStreamer(ctx, actor, userId, field, values[inputValue])
		b.respondText(i, err, fmt.Sprintf("✅ %s of %s updated.", field, mention(userId)))

	default:
		zap.L().Warn("Unknown modal", zap.String("custom_id", data.CustomID))
	}
}
