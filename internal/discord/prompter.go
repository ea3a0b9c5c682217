package discord

import (
	"context"

	"github.com/aliasqar1/tets/internal/contest"
	"github.com/aliasqar1/tets/internal/platform"

	"github.com/puzpuzpuz/xsync"
	"go.uber.org/zap"
)

// Prompter posts contest setup prompts into the channel the session was
// started from
type Prompter struct {
	messenger platform.Messenger
	channels  *xsync.MapOf[string, string]
}

var _ contest.Prompter = (*Prompter)(nil)

func NewPrompter(messenger platform.Messenger) *Prompter {
	return &Prompter{
		messenger: messenger,
		channels:  xsync.NewMapOf[string](),
	}
}

// Track remembers where a session's prompts go
func (p *Prompter) Track(sessionId, channelId string) {
	p.channels.Store(sessionId, channelId)
}

// Forget drops a session that ended through an interaction
func (p *Prompter) Forget(sessionId string) {
	p.channels.Delete(sessionId)
}

func (p *Prompter) Prompt(ctx context.Context, sessionId string, prompt contest.Prompt) {
	channelId, ok := p.channels.Load(sessionId)
	if !ok {
		zap.L().Debug("Dropping prompt for untracked session", zap.String("session_id", sessionId))
		return
	}
	if prompt.Final {
		p.channels.Delete(sessionId)
	}

	if _, err := p.messenger.SendMessage(ctx, channelId, promptMessage(prompt)); err != nil {
		zap.L().Warn("Failed to deliver contest prompt",
			zap.String("session_id", sessionId),
			zap.String("channel_id", channelId),
			zap.Error(err))
	}
}

func promptMessage(p contest.Prompt) platform.Message {
	return platform.Message{
		Content: p.Text,
		Embed:   p.Preview,
		Buttons: p.Buttons,
	}
}
