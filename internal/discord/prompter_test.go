package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/aliasqar1/tets/internal/contest"
	"github.com/aliasqar1/tets/internal/platform"
	"github.com/aliasqar1/tets/internal/platform/platformtest"

	"github.com/stretchr/testify/require"
)

func TestPrompter_DeliversToTrackedChannel(t *testing.T) {
	fake := platformtest.New()
	p := NewPrompter(fake)
	p.Track("s1", "chan-1")

	p.Prompt(context.Background(), "s1", contest.Prompt{
		Text:    "next",
		Buttons: []platform.Button{{Id: contest.ButtonId(contest.ActionCancel, "s1"), Label: "Cancel"}},
	})

	sent := fake.SentTo("chan-1")
	require.Len(t, sent, 1)
	require.Equal(t, "next", sent[0].Content)
	require.Len(t, sent[0].Buttons, 1)
}

func TestPrompter_FinalPromptForgetsSession(t *testing.T) {
	fake := platformtest.New()
	p := NewPrompter(fake)
	p.Track("s1", "chan-1")

	p.Prompt(context.Background(), "s1", contest.Prompt{Text: "timed out", Final: true})
	p.Prompt(context.Background(), "s1", contest.Prompt{Text: "late"})

	sent := fake.SentTo("chan-1")
	require.Len(t, sent, 1)
	require.Equal(t, "timed out", sent[0].Content)
}

func TestPrompter_UntrackedAndForgotten(t *testing.T) {
	fake := platformtest.New()
	p := NewPrompter(fake)

	p.Prompt(context.Background(), "unknown", contest.Prompt{Text: "x"})

	p.Track("s2", "chan-2")
	p.Forget("s2")
	p.Prompt(context.Background(), "s2", contest.Prompt{Text: "x"})

	require.Empty(t, fake.SentTo("chan-2"))
}

func TestPrompter_SendFailureIsSwallowed(t *testing.T) {
	fake := platformtest.New()
	fake.Fail("SendMessage", errors.New("gateway down"))
	p := NewPrompter(fake)
	p.Track("s1", "chan-1")

	require.NotPanics(t, func() {
		p.Prompt(context.Background(), "s1", contest.Prompt{Text: "x"})
	})
	require.Empty(t, fake.SentTo("chan-1"))
}
