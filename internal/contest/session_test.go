package contest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aliasqar1/tets/internal/models"

	"github.com/stretchr/testify/require"
)

type recordingPrompter struct {
	mu      sync.Mutex
	prompts map[string][]Prompt
}

func (r *recordingPrompter) Prompt(ctx context.Context, sessionId string, p Prompt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.prompts == nil {
		r.prompts = make(map[string][]Prompt)
	}
	r.prompts[sessionId] = append(r.prompts[sessionId], p)
}

func (r *recordingPrompter) last(sessionId string) (Prompt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps := r.prompts[sessionId]
	if len(ps) == 0 {
		return Prompt{}, false
	}
	return ps[len(ps)-1], true
}

func setupCollector(t *testing.T, timeout time.Duration) (*Collector, *recordingPrompter, *testEnv) {
	t.Helper()
	env := setupCoordinator(t)
	prompter := &recordingPrompter{}
	collector := NewCollector(CollectorConfig{
		Coordinator: env.coord,
		Prompter:    prompter,
		StepTimeout: timeout,
	})
	return collector, prompter, env
}

var creator = models.Actor{UserId: "creator", GuildId: "g", ChannelId: "setup"}

func say(text string) models.MessageEvent {
	return models.MessageEvent{Id: "m", GuildId: "g", ChannelId: "setup", AuthorId: "creator", Content: text}
}

func runToConfirm(t *testing.T, c *Collector, sessionId string) {
	t.Helper()
	ctx := context.Background()

	require.False(t, c.HandleMessage(ctx, say("no image yet")))
	image := say("")
	image.Attachments = []models.Attachment{{Url: "https://cdn.example/a.png", ContentType: "image/png"}}
	require.True(t, c.HandleMessage(ctx, image))
	require.True(t, c.HandleMessage(ctx, say("https://cdn.example/a.png")))
	require.True(t, c.HandleMessage(ctx, say("abc")))
	require.True(t, c.HandleMessage(ctx, say("1000")))

	_, err := c.ChooseKind(sessionId, "creator", models.DurationSeconds)
	require.NoError(t, err)
	require.True(t, c.HandleMessage(ctx, say("120")))
}

func TestCollector_FullFlowRegisters(t *testing.T) {
	c, prompter, env := setupCollector(t, time.Minute)
	env.configureChannels(t, "game", "")

	s, first, err := c.Begin(creator)
	require.NoError(t, err)
	require.NotEmpty(t, first.Text)

	runToConfirm(t, c, s.Id)
	require.Equal(t, StepConfirm, s.Step())

	preview, ok := prompter.last(s.Id)
	require.True(t, ok)
	require.NotNil(t, preview.Preview)
	require.Len(t, preview.Buttons, 2)

	contest, err := c.Confirm(context.Background(), s.Id, "creator")
	require.NoError(t, err)
	require.Equal(t, "abc", contest.SecretCode)
	require.Equal(t, int64(1000), contest.Prize)
	require.Equal(t, int64(120), contest.DurationValue)
	require.Equal(t, "https://cdn.example/a.png", contest.AttachmentUrl)
	require.Zero(t, c.Active())
}

func TestCollector_InvalidPrizeAborts(t *testing.T) {
	c, prompter, env := setupCollector(t, time.Minute)
	ctx := context.Background()

	s, _, err := c.Begin(creator)
	require.NoError(t, err)

	image := say("")
	image.Attachments = []models.Attachment{{Url: "https://cdn.example/a.png"}}
	require.True(t, c.HandleMessage(ctx, image))
	require.True(t, c.HandleMessage(ctx, say("link")))
	require.True(t, c.HandleMessage(ctx, say("abc")))
	require.True(t, c.HandleMessage(ctx, say("a lot")))

	last, _ := prompter.last(s.Id)
	require.True(t, last.Final)
	require.Equal(t, StepDone, s.Step())
	require.Zero(t, c.Active())

	env.db.View(func(snap *models.Snapshot) {
		require.Empty(t, snap.Contests)
	})
}

func TestCollector_TimeoutAborts(t *testing.T) {
	c, prompter, env := setupCollector(t, 20*time.Millisecond)

	s, _, err := c.Begin(creator)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		p, ok := prompter.last(s.Id)
		return ok && p.Final
	}, time.Second, 5*time.Millisecond)
	require.Zero(t, c.Active())
	require.False(t, c.HandleMessage(context.Background(), say("late")))

	env.db.View(func(snap *models.Snapshot) {
		require.Empty(t, snap.Contests)
	})
}

func TestCollector_CreatorOnly(t *testing.T) {
	c, _, _ := setupCollector(t, time.Minute)

	s, _, err := c.Begin(creator)
	require.NoError(t, err)

	_, _, err = c.Begin(creator)
	require.ErrorIs(t, err, ErrSessionActive)

	_, err = c.ChooseKind(s.Id, "someone-else", models.DurationDays)
	require.ErrorIs(t, err, ErrNotCreator)

	_, err = c.ChooseKind(s.Id, "creator", models.DurationDays)
	require.ErrorIs(t, err, ErrWrongStep)

	other := say("hello")
	other.AuthorId = "someone-else"
	require.False(t, c.HandleMessage(context.Background(), other))

	require.NoError(t, c.Cancel(s.Id, "creator"))
	require.Zero(t, c.Active())
	require.ErrorIs(t, c.Cancel(s.Id, "creator"), ErrSessionNotFound)
}

func TestCollector_ConfirmWithoutGameChannel(t *testing.T) {
	c, _, env := setupCollector(t, time.Minute)

	s, _, err := c.Begin(creator)
	require.NoError(t, err)
	runToConfirm(t, c, s.Id)

	_, err = c.Confirm(context.Background(), s.Id, "creator")
	require.ErrorIs(t, err, ErrNoGameChannel)
	env.db.View(func(snap *models.Snapshot) {
		require.Empty(t, snap.Contests)
	})
}

func TestButtonIdRoundTrip(t *testing.T) {
	action, arg, ok := ParseButtonId(ButtonId(ActionConfirm, "abc-123"))
	require.True(t, ok)
	require.Equal(t, ActionConfirm, action)
	require.Equal(t, "abc-123", arg)

	_, _, ok = ParseButtonId("shop:buy:sub")
	require.False(t, ok)
}

func TestMaskCode(t *testing.T) {
	require.Equal(t, "******", MaskCode(""))
	require.Equal(t, "***", MaskCode("abc"))
}
