package contest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/platform"

	"github.com/shopspring/decimal"
)

// Embed colours
const (
	colorPreview  = 0x2ecc71
	colorAnnounce = 0x5865f2
	colorResult   = 0xf1c40f
)

const (
	fieldParticipants = "Participants"
	fieldStatus       = "Status"
)

// Button actions, encoded as "contest:<action>:<arg>"
const (
	buttonPrefix  = "contest"
	ActionJoin    = "join"
	ActionSeconds = "seconds"
	ActionDays    = "days"
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

// ButtonId builds a component id routed back to this package
func ButtonId(action, arg string) string {
	return buttonPrefix + ":" + action + ":" + arg
}

// ParseButtonId splits a component id built by ButtonId
func ParseButtonId(id string) (action, arg string, ok bool) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) != 3 || parts[0] != buttonPrefix {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// MaskCode hides a secret code behind one asterisk per character
func MaskCode(code string) string {
	if code == "" {
		return "******"
	}
	return strings.Repeat("*", len([]rune(code)))
}

func durationText(kind string, value int64) string {
	if kind == models.DurationDays {
		return fmt.Sprintf("%d days", value)
	}
	return fmt.Sprintf("%d seconds", value)
}

func contestFields(prize int64, kind string, value int64, imageUrl string, participants int, share decimal.Decimal) []platform.EmbedField {
	return []platform.EmbedField{
		{Name: fieldParticipants, Value: strconv.Itoa(participants), Inline: true},
		{Name: "Duration", Value: durationText(kind, value), Inline: true},
		{Name: "Image link", Value: orDash(imageUrl)},
		{Name: "Prize (1st)", Value: strconv.FormatInt(PlacePrize(prize, 1, share), 10), Inline: true},
		{Name: "Prize (2nd)", Value: strconv.FormatInt(PlacePrize(prize, 2, share), 10), Inline: true},
	}
}

// PreviewEmbed is shown to the creator before the contest is registered
func PreviewEmbed(d Draft, share decimal.Decimal) *platform.Embed {
	fields := contestFields(d.Prize, d.DurationKind, d.DurationValue, d.ImageUrl, 0, share)
	fields = append(fields, platform.EmbedField{Name: "Secret code", Value: MaskCode(d.SecretCode), Inline: true})
	return &platform.Embed{
		Title:    "📣 Contest preview",
		Color:    colorPreview,
		ImageUrl: d.ImageUrl,
		Fields:   fields,
	}
}

// AnnouncementMessage is the public contest post with its participate button
func AnnouncementMessage(c *models.Contest, share decimal.Decimal) platform.Message {
	return platform.Message{
		Embed: announcementEmbed(c, share),
		Buttons: []platform.Button{
			{Id: ButtonId(ActionJoin, c.ContestId), Label: "Participate", Style: platform.StylePrimary},
		},
	}
}

func announcementEmbed(c *models.Contest, share decimal.Decimal) *platform.Embed {
	return &platform.Embed{
		Title:       fmt.Sprintf("🏆 Contest #%s", c.ContestId),
		Description: "Secret code: ****** (enter the code to take part)",
		Color:       colorAnnounce,
		ImageUrl:    c.ImageUrl,
		Fields:      contestFields(c.Prize, c.DurationKind, c.DurationValue, c.ImageUrl, len(c.Submissions), share),
	}
}

// CounterMessage refreshes the participant count and keeps the button
func CounterMessage(c *models.Contest, share decimal.Decimal) platform.Message {
	return AnnouncementMessage(c, share)
}

// FinishedMessage marks the announcement as over and removes its button
func FinishedMessage(c *models.Contest, share decimal.Decimal) platform.Message {
	embed := announcementEmbed(c, share)
	embed.Fields = append(embed.Fields, platform.EmbedField{Name: fieldStatus, Value: "Finished"})
	return platform.Message{Embed: embed, ClearButtons: true}
}

// ResultMessage announces the winners of a closed contest
func ResultMessage(c *models.Contest, share decimal.Decimal) platform.Message {
	places := [MaxWinners]string{"—", "—"}
	for _, w := range c.Winners {
		if w.Place >= 1 && w.Place <= MaxWinners {
			places[w.Place-1] = mention(w.UserId)
		}
	}
	return platform.Message{
		Embed: &platform.Embed{
			Title: "🏁 Contest result",
			Color: colorResult,
			Fields: []platform.EmbedField{
				{Name: "Contest", Value: "#" + c.ContestId},
				{Name: "Secret code", Value: orDash(c.SecretCode)},
				{Name: fieldParticipants, Value: strconv.Itoa(len(c.Submissions))},
				{Name: "Winners", Value: fmt.Sprintf("1st: %s\n2nd: %s", places[0], places[1])},
				{Name: "Prize", Value: fmt.Sprintf("1st: %d\n2nd: %d", PlacePrize(c.Prize, 1, share), PlacePrize(c.Prize, 2, share))},
			},
			Footer: "Thanks for taking part",
		},
	}
}

func mention(userId string) string {
	return "<@" + userId + ">"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
