package discord

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aliasqar1/tets/internal/api"
	"github.com/aliasqar1/tets/internal/common"
	"github.com/aliasqar1/tets/internal/contest"
	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/moderation"
	"github.com/aliasqar1/tets/internal/platform"
	"github.com/aliasqar1/tets/internal/shop"
)

// Embed colours
const (
	colorProfile  = 0x3498db
	colorStreamer = 0x9b59b6
	colorShop     = 0xf1c40f
	colorRenewal  = 0x2ecc71
)

const day = 24 * time.Hour

// Component id prefixes owned by this package. Contest ids are routed by
// contest.ParseButtonId and the start-stream button by api.StartStreamButtonId.
const (
	idShop        = "shop"
	idRenew       = "renew"
	idVstream     = "vstream"
	idCodeModal   = "contest_code"
	idEditModal   = "vstream_edit"
	idStreamModal = "addstreamer"
)

// Shop sub-actions
const (
	shopSubscription = "sub"
	shopCustomRole   = "role"
	shopCategory     = "cat"
	shopOrder        = "order"
)

// Vstream sub-actions
const (
	vstreamPick  = "pick"
	vstreamField = "field"
)

// componentId joins parts with ':'
func componentId(parts ...string) string {
	return strings.Join(parts, ":")
}

// splitId splits a component id into its prefix and arguments
func splitId(id string) (string, []string) {
	parts := strings.Split(id, ":")
	return parts[0], parts[1:]
}

func textMessage(text string) platform.Message {
	return platform.Message{Content: text}
}

func outcomeMessage(o api.Outcome) platform.Message {
	return textMessage(o.Message)
}

func mention(userId string) string {
	return "<@" + userId + ">"
}

func balanceMessage(coins int64) platform.Message {
	return textMessage(fmt.Sprintf("💰 Your balance: %s coins", common.FormatCoins(coins)))
}

func subscriptionText(p models.Profile) string {
	switch p.SubscriptionState {
	case "active":
		return "Active, " + common.FormatDays(p.SubscriptionLeft) + " left"
	case "expired":
		return "Expired"
	default:
		return "None"
	}
}

func profileMessage(username string, p models.Profile) platform.Message {
	badge := "—"
	if p.Badge > 0 {
		badge = strconv.Itoa(p.Badge)
	}
	return platform.Message{
		Embed: &platform.Embed{
			Title: "👤 Profile of " + username,
			Color: colorProfile,
			Fields: []platform.EmbedField{
				{Name: "Badge", Value: badge, Inline: true},
				{Name: "Coins", Value: common.FormatCoins(p.Coins), Inline: true},
				{Name: "Warns", Value: strconv.Itoa(p.Warns), Inline: true},
				{Name: "Subscription", Value: subscriptionText(p)},
				{Name: "Member for", Value: common.FormatDays(p.JoinedAgo)},
			},
		},
	}
}

func streamerMessage(username string, v *models.StreamerView) platform.Message {
	p := v.Profile
	return platform.Message{
		Embed: &platform.Embed{
			Title:    "📋 Streamer profile of " + username,
			Color:    colorStreamer,
			ImageUrl: p.BannerUrl,
			Fields: []platform.EmbedField{
				{Name: "Streams", Value: strconv.Itoa(p.StreamsCount), Inline: true},
				{Name: "Violations", Value: strconv.Itoa(p.Violations), Inline: true},
				{Name: "Invites", Value: strconv.Itoa(p.InviteCount), Inline: true},
				{Name: "Coins", Value: common.FormatCoins(v.Coins), Inline: true},
				{Name: "Streamer for", Value: common.FormatDays(time.Duration(v.DaysStreamer) * day), Inline: true},
				{Name: "Invite link", Value: orDash(p.InviteLink)},
				{Name: "Stream link", Value: orDash(p.StreamLink)},
			},
		},
	}
}

func warnMessage(c *api.WarnChange) platform.Message {
	text := fmt.Sprintf("⚠️ Warns of %s: %d → %d", mention(c.UserId), c.Before, c.After)
	switch c.Decision.Action {
	case moderation.ActionBan:
		text += "\n🔨 Member banned."
	case moderation.ActionSuppress:
		text += fmt.Sprintf("\n🔇 Member timed out for %s.", common.FormatDays(c.Decision.Duration))
	case moderation.ActionLift:
		text += "\n🔊 Timeout lifted."
	}
	if c.EnforcementErr != nil {
		text += "\n⚠️ Enforcement failed: " + c.EnforcementErr.Error()
	}
	return textMessage(text)
}

func shopMessage(c *common.Catalog) platform.Message {
	return platform.Message{
		Embed: &platform.Embed{
			Title:       "🛍 Shop",
			Description: "Choose what you want to buy.",
			Color:       colorShop,
			Fields: []platform.EmbedField{
				{Name: "One-month subscription", Value: common.FormatCoins(c.SubscriptionPrice) + " coins"},
				{Name: "Custom role", Value: common.FormatCoins(c.CustomRolePrice) + " coins\n(a role of your own, valid for 30 days)"},
				{Name: "Special orders", Value: "Design services and profile changes"},
			},
		},
		Buttons: []platform.Button{
			{Id: componentId(idShop, shopSubscription), Label: "Subscription", Style: platform.StyleSuccess},
			{Id: componentId(idShop, shopCustomRole), Label: "Custom role", Style: platform.StylePrimary},
			{Id: componentId(idShop, shopCategory, common.CategoryStreamer), Label: "Streamer orders", Style: platform.StyleSecondary},
			{Id: componentId(idShop, shopCategory, common.CategoryMember), Label: "Member orders", Style: platform.StyleSecondary},
		},
	}
}

func orderMenuMessage(c *common.Catalog, category string) (platform.Message, bool) {
	items, ok := c.Orders(category)
	if !ok {
		return platform.Message{}, false
	}
	embed := &platform.Embed{Title: "🧾 Special orders", Color: colorShop}
	buttons := make([]platform.Button, 0, len(items))
	for _, item := range items {
		embed.Fields = append(embed.Fields, platform.EmbedField{
			Name:  item.Label,
			Value: common.FormatCoins(item.Price) + " coins",
		})
		buttons = append(buttons, platform.Button{
			Id:    componentId(idShop, shopOrder, category, item.Key),
			Label: item.Label,
			Style: platform.StylePrimary,
		})
	}
	return platform.Message{Embed: embed, Buttons: buttons}, true
}

func receiptMessage(r *models.Receipt) platform.Message {
	var text string
	switch {
	case r.Product == shop.ProductSubscription:
		text = "✅ Subscription active."
	case r.Product == shop.ProductCustomRole && r.RoleName != "":
		text = fmt.Sprintf("✅ Custom role **%s** is yours.", r.RoleName)
	case r.Product == shop.ProductCustomRole:
		text = "✅ Custom role renewed."
	default:
		text = fmt.Sprintf("✅ Order **%s** placed (id %s). An admin will contact you.", r.Product, r.OrderId)
	}
	text += fmt.Sprintf("\nPaid %s coins, new balance %s.", common.FormatCoins(r.Price), common.FormatCoins(r.NewBalance))
	return textMessage(text)
}

func productLabel(kind string) string {
	if kind == shop.ProductSubscription {
		return "Subscription"
	}
	return "Custom role"
}

func renewalMessage(status models.RenewalStatus) platform.Message {
	embed := &platform.Embed{
		Title:       "🔁 Your subscriptions",
		Description: "Balance: " + common.FormatCoins(status.Balance) + " coins",
		Color:       colorRenewal,
	}
	var buttons []platform.Button
	for _, item := range status.Items {
		value := "Not purchased"
		switch item.State {
		case "active":
			value = common.FormatDays(item.Remaining) + " left"
			buttons = append(buttons, platform.Button{
				Id:    componentId(idRenew, item.Kind),
				Label: fmt.Sprintf("Renew %s (%s)", strings.ToLower(productLabel(item.Kind)), common.FormatCoins(item.Price)),
				Style: platform.StyleSuccess,
			})
		case "expired":
			value = "Expired"
		}
		embed.Fields = append(embed.Fields, platform.EmbedField{Name: productLabel(item.Kind), Value: value})
	}
	return platform.Message{Embed: embed, Buttons: buttons}
}

// streamerListMessage shows one button per streamer; names maps ids to display names
func streamerListMessage(ids []string, names map[string]string) platform.Message {
	if len(ids) == 0 {
		return textMessage("No streamers registered.")
	}
	buttons := make([]platform.Button, 0, len(ids))
	for _, id := range ids {
		label := names[id]
		if label == "" {
			label = id
		}
		buttons = append(buttons, platform.Button{
			Id:    componentId(idVstream, vstreamPick, id),
			Label: label,
			Style: platform.StylePrimary,
		})
	}
	return platform.Message{Content: "Streamers:", Buttons: buttons}
}

func streamerFieldsMessage(userId string) platform.Message {
	buttons := make([]platform.Button, 0, len(models.EditableStreamerFields))
	for _, field := range models.EditableStreamerFields {
		buttons = append(buttons, platform.Button{
			Id:    componentId(idVstream, vstreamField, userId, field),
			Label: field,
			Style: platform.StyleSecondary,
		})
	}
	return platform.Message{
		Content: "📋 Edit streamer " + mention(userId),
		Buttons: buttons,
	}
}

func submissionMessage(r contest.SubmitResult) platform.Message {
	if r.Correct {
		return textMessage(fmt.Sprintf("✅ Correct code! Your answer was recorded (%d entries so far).", r.Participants))
	}
	return textMessage(fmt.Sprintf("❌ Wrong code. Your answer was recorded, you may try again (%d entries so far).", r.Participants))
}

func streamStartMessage(r *api.StreamStart) platform.Message {
	text := fmt.Sprintf("✅ Stream started. +%s coins, streams: %d.", common.FormatCoins(r.Reward), r.Profile.StreamsCount)
	if r.AnnounceErr != nil {
		text += "\n⚠️ The stream could not be announced: " + r.AnnounceErr.Error()
	}
	return textMessage(text)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
