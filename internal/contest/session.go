package contest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/platform"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync"
	"go.uber.org/zap"
)

// Step is a stage of the interactive contest setup
type Step int

const (
	StepImage Step = iota
	StepLink
	StepSecret
	StepPrize
	StepKind
	StepValue
	StepConfirm
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepImage:
		return "image"
	case StepLink:
		return "link"
	case StepSecret:
		return "secret"
	case StepPrize:
		return "prize"
	case StepKind:
		return "kind"
	case StepValue:
		return "value"
	case StepConfirm:
		return "confirm"
	case StepDone:
		return "done"
	default:
		return "step(" + strconv.Itoa(int(s)) + ")"
	}
}

var (
	ErrSessionNotFound = errors.New("contest setup session not found")
	ErrNotCreator      = errors.New("only the contest creator can use this")
	ErrWrongStep       = errors.New("contest setup is not waiting for this")
	ErrSessionActive   = errors.New("a contest setup is already running in this channel")
)

// Prompt is what the creator sees after a step. Final prompts end the session.
type Prompt struct {
	Text    string
	Buttons []platform.Button
	Preview *platform.Embed
	Final   bool
}

// Prompter delivers prompts produced outside the creator's own interaction,
// such as step timeouts and replies to chat messages.
type Prompter interface {
	Prompt(ctx context.Context, sessionId string, p Prompt)
}

// Session is one creator's in-progress contest setup. It never touches the
// store; only a confirmed session is handed to the coordinator.
type Session struct {
	Id        string
	CreatorId string
	GuildId   string
	ChannelId string

	mu    sync.Mutex
	step  Step
	draft Draft
	timer *time.Timer
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// CollectorConfig contains configuration for Collector
type CollectorConfig struct {
	Coordinator *Coordinator
	Prompter    Prompter
	StepTimeout time.Duration
}

// Collector runs contest setup sessions, at most one per creator and channel
type Collector struct {
	coordinator *Coordinator
	prompter    Prompter
	stepTimeout time.Duration

	sessions *xsync.MapOf[string, *Session]
	byOwner  *xsync.MapOf[string, string]
}

func NewCollector(cfg CollectorConfig) *Collector {
	return &Collector{
		coordinator: cfg.Coordinator,
		prompter:    cfg.Prompter,
		stepTimeout: cfg.StepTimeout,
		sessions:    xsync.NewMapOf[*Session](),
		byOwner:     xsync.NewMapOf[string](),
	}
}

func ownerKey(userId, channelId string) string {
	return userId + "/" + channelId
}

// Begin opens a session for actor in their current channel
func (c *Collector) Begin(actor models.Actor) (*Session, Prompt, error) {
	s := &Session{
		Id:        uuid.NewString(),
		CreatorId: actor.UserId,
		GuildId:   actor.GuildId,
		ChannelId: actor.ChannelId,
		step:      StepImage,
		draft:     Draft{CreatorId: actor.UserId, GuildId: actor.GuildId},
	}
	if _, loaded := c.byOwner.LoadOrStore(ownerKey(s.CreatorId, s.ChannelId), s.Id); loaded {
		return nil, Prompt{}, ErrSessionActive
	}
	c.sessions.Store(s.Id, s)

	s.mu.Lock()
	c.armTimer(s)
	s.mu.Unlock()

	zap.L().Info("Contest setup started",
		zap.String("session_id", s.Id),
		zap.String("creator_id", s.CreatorId),
		zap.String("channel_id", s.ChannelId))
	return s, Prompt{Text: "📸 Send the contest image in this channel."}, nil
}

// HandleMessage feeds a chat message to the creator's session in that
// channel. It reports whether the message was consumed.
func (c *Collector) HandleMessage(ctx context.Context, ev models.MessageEvent) bool {
	sessionId, ok := c.byOwner.Load(ownerKey(ev.AuthorId, ev.ChannelId))
	if !ok {
		return false
	}
	s, ok := c.sessions.Load(sessionId)
	if !ok {
		return false
	}

	s.mu.Lock()
	prompt, consumed := c.advance(s, ev)
	s.mu.Unlock()

	if consumed {
		c.deliver(ctx, s, prompt)
	}
	return consumed
}

// advance applies a message to the current step; s.mu is held
func (c *Collector) advance(s *Session, ev models.MessageEvent) (Prompt, bool) {
	text := strings.TrimSpace(ev.Content)
	switch s.step {
	case StepImage:
		if len(ev.Attachments) == 0 {
			return Prompt{}, false
		}
		s.draft.AttachmentUrl = ev.Attachments[0].Url
		return c.next(s, StepLink, Prompt{Text: "🔗 Send the direct link to the image."}), true

	case StepLink:
		if text == "" {
			return Prompt{}, false
		}
		s.draft.ImageUrl = text
		return c.next(s, StepSecret, Prompt{Text: "🔒 Send the secret code. It is never shown to participants."}), true

	case StepSecret:
		if text == "" {
			return Prompt{}, false
		}
		s.draft.SecretCode = text
		return c.next(s, StepPrize, Prompt{Text: "💰 Send the prize amount (a number)."}), true

	case StepPrize:
		prize, err := strconv.ParseInt(text, 10, 64)
		if err != nil || prize < 0 {
			return c.abort(s, "❌ Invalid amount. Contest setup cancelled."), true
		}
		s.draft.Prize = prize
		return c.next(s, StepKind, Prompt{
			Text: "⏳ Choose the duration unit:",
			Buttons: []platform.Button{
				{Id: ButtonId(ActionSeconds, s.Id), Label: "Seconds", Style: platform.StyleSecondary},
				{Id: ButtonId(ActionDays, s.Id), Label: "Days", Style: platform.StyleSecondary},
			},
		}), true

	case StepValue:
		value, err := strconv.ParseInt(text, 10, 64)
		if err != nil || value <= 0 {
			return c.abort(s, "❌ Invalid duration. Contest setup cancelled."), true
		}
		s.draft.DurationValue = value
		return c.next(s, StepConfirm, Prompt{
			Text:    "Review the contest and register it or cancel.",
			Preview: PreviewEmbed(s.draft, c.coordinator.RunnerUpShare()),
			Buttons: []platform.Button{
				{Id: ButtonId(ActionConfirm, s.Id), Label: "Register contest", Style: platform.StyleSuccess},
				{Id: ButtonId(ActionCancel, s.Id), Label: "Cancel", Style: platform.StyleDanger},
			},
		}), true
	}
	return Prompt{}, false
}

// ChooseKind handles the seconds/days button
func (c *Collector) ChooseKind(sessionId, userId, kind string) (Prompt, error) {
	s, err := c.owned(sessionId, userId)
	if err != nil {
		return Prompt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepKind {
		return Prompt{}, ErrWrongStep
	}

	s.draft.DurationKind = kind
	text := "⏱ Send the number of seconds (for example 120)."
	if kind == models.DurationDays {
		text = "📅 Send the number of days (for example 2)."
	}
	return c.next(s, StepValue, Prompt{Text: text}), nil
}

// Confirm registers the collected contest. The session ends whatever the outcome.
func (c *Collector) Confirm(ctx context.Context, sessionId, userId string) (*models.Contest, error) {
	s, err := c.owned(sessionId, userId)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.step != StepConfirm {
		s.mu.Unlock()
		return nil, ErrWrongStep
	}
	draft := s.draft
	c.finish(s)
	s.mu.Unlock()

	return c.coordinator.Register(ctx, draft)
}

// Cancel ends a session without registering anything
func (c *Collector) Cancel(sessionId, userId string) error {
	s, err := c.owned(sessionId, userId)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == StepDone {
		return ErrSessionNotFound
	}
	c.finish(s)
	zap.L().Info("Contest setup cancelled", zap.String("session_id", s.Id))
	return nil
}

// Active returns the number of running sessions
func (c *Collector) Active() int {
	return c.sessions.Size()
}

func (c *Collector) owned(sessionId, userId string) (*Session, error) {
	s, ok := c.sessions.Load(sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.CreatorId != userId {
		return nil, ErrNotCreator
	}
	return s, nil
}

// next moves to step and restarts the step timer; s.mu is held
func (c *Collector) next(s *Session, step Step, p Prompt) Prompt {
	s.step = step
	c.armTimer(s)
	return p
}

// abort ends the session with a final prompt; s.mu is held
func (c *Collector) abort(s *Session, text string) Prompt {
	zap.L().Info("Contest setup aborted",
		zap.String("session_id", s.Id),
		zap.Stringer("step", s.step))
	c.finish(s)
	return Prompt{Text: text, Final: true}
}

// finish removes the session; s.mu is held
func (c *Collector) finish(s *Session) {
	s.step = StepDone
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	c.sessions.Delete(s.Id)
	c.byOwner.Delete(ownerKey(s.CreatorId, s.ChannelId))
}

// armTimer restarts the per-step deadline; s.mu is held
func (c *Collector) armTimer(s *Session) {
	if s.timer != nil {
		s.timer.Stop()
	}
	step := s.step
	s.timer = time.AfterFunc(c.stepTimeout, func() {
		c.expire(s, step)
	})
}

func (c *Collector) expire(s *Session, step Step) {
	s.mu.Lock()
	if s.step != step || s.step == StepDone {
		s.mu.Unlock()
		return
	}
	prompt := c.abort(s, fmt.Sprintf("❌ Timed out waiting for the %s. Contest setup cancelled.", step))
	s.mu.Unlock()

	c.deliver(context.Background(), s, prompt)
}

func (c *Collector) deliver(ctx context.Context, s *Session, p Prompt) {
	if c.prompter != nil {
		c.prompter.Prompt(ctx, s.Id, p)
	}
}
