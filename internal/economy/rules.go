package economy

import (
	"path"
	"strings"

	"github.com/aliasqar1/tets/internal/models"
)

// Reward amounts in coins
const (
	MessageReward     int64 = 1
	VoiceTickReward   int64 = 2
	ReactionReward    int64 = 1000
	StreamStartReward int64 = 1000
	InviteReward      int64 = 1000
)

// ReactionStep is the reaction count multiple that earns ReactionReward
const ReactionStep = 10

var mediaExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".mp4": true, ".mov": true, ".webm": true, ".mkv": true,
}

// MessageRewardFor returns the coins earned by a message; automated authors earn nothing
func MessageRewardFor(ev models.MessageEvent) int64 {
	if ev.AuthorIsBot || ev.AuthorId == "" || ev.GuildId == "" {
		return 0
	}
	return MessageReward
}

// VoiceTickRewards returns the per-member credit for one presence sample
func VoiceTickRewards(members []models.VoiceMember) map[string]int64 {
	out := make(map[string]int64, len(members))
	for _, m := range members {
		if m.IsBot || m.UserId == "" {
			continue
		}
		out[m.UserId] += VoiceTickReward
	}
	return out
}

// IsMedia reports whether an attachment is an image or a video
func IsMedia(a models.Attachment) bool {
	ct := strings.ToLower(a.ContentType)
	if strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") {
		return true
	}
	u := a.Url
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return mediaExtensions[strings.ToLower(path.Ext(u))]
}

// HasMedia reports whether any attachment is an image or a video
func HasMedia(attachments []models.Attachment) bool {
	for _, a := range attachments {
		if IsMedia(a) {
			return true
		}
	}
	return false
}

// ReactionLevel is the number of completed ReactionStep multiples in count
func ReactionLevel(count int) int {
	if count <= 0 {
		return 0
	}
	return count / ReactionStep
}

// ReactionPayout returns the coins for moving from the last rewarded level to
// the level of count. Falling counts pay nothing.
func ReactionPayout(lastRewarded, count int) int64 {
	level := ReactionLevel(count)
	if level <= lastRewarded {
		return 0
	}
	return int64(level-lastRewarded) * ReactionReward
}
