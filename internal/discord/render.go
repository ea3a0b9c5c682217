package discord

import (
	"github.com/aliasqar1/tets/internal/platform"

	"github.com/bwmarrin/discordgo"
)

// Discord allows at most five buttons per row and five rows per message
const (
	buttonsPerRow = 5
	maxRows       = 5
)

func buttonStyle(s platform.ButtonStyle) discordgo.ButtonStyle {
	switch s {
	case platform.StyleSecondary:
		return discordgo.SecondaryButton
	case platform.StyleSuccess:
		return discordgo.SuccessButton
	case platform.StyleDanger:
		return discordgo.DangerButton
	case platform.StyleLink:
		return discordgo.LinkButton
	default:
		return discordgo.PrimaryButton
	}
}

func toComponents(buttons []platform.Button) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for start := 0; start < len(buttons) && len(rows) < maxRows; start += buttonsPerRow {
		end := min(start+buttonsPerRow, len(buttons))
		row := discordgo.ActionsRow{}
		for _, b := range buttons[start:end] {
			btn := discordgo.Button{
				Label:    b.Label,
				Style:    buttonStyle(b.Style),
				Disabled: b.Disabled,
			}
			if b.Style == platform.StyleLink {
				btn.URL = b.Url
			} else {
				btn.CustomID = b.Id
			}
			row.Components = append(row.Components, btn)
		}
		rows = append(rows, row)
	}
	return rows
}

func toEmbed(e *platform.Embed) *discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.ImageUrl != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: e.ImageUrl}
	}
	if e.Thumbnail != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail}
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return out
}

func toEmbeds(e *platform.Embed) []*discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	return []*discordgo.MessageEmbed{toEmbed(e)}
}

func toMessageSend(msg platform.Message) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:    msg.Content,
		Embeds:     toEmbeds(msg.Embed),
		Components: toComponents(msg.Buttons),
	}
}

// toMessageEdit leaves the embed alone when msg has none and keeps the
// existing components unless msg replaces or clears them
func toMessageEdit(channelId, messageId string, msg platform.Message) *discordgo.MessageEdit {
	edit := discordgo.NewMessageEdit(channelId, messageId)
	if msg.Content != "" || msg.Embed == nil {
		content := msg.Content
		edit.Content = &content
	}
	if msg.Embed != nil {
		embeds := toEmbeds(msg.Embed)
		edit.Embeds = &embeds
	}
	switch {
	case msg.ClearButtons:
		components := []discordgo.MessageComponent{}
		edit.Components = &components
	case len(msg.Buttons) > 0:
		components := toComponents(msg.Buttons)
		edit.Components = &components
	}
	return edit
}

func toResponseData(msg platform.Message, ephemeral bool) *discordgo.InteractionResponseData {
	data := &discordgo.InteractionResponseData{
		Content:    msg.Content,
		Embeds:     toEmbeds(msg.Embed),
		Components: toComponents(msg.Buttons),
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return data
}
