package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aliasqar1/tets/internal/platform/platformtest"

	"github.com/stretchr/testify/require"
)

func TestApply_Transitions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("two to three suppresses once", func(t *testing.T) {
		fake := platformtest.New()
		require.NoError(t, Apply(ctx, fake, "g", "u", 3, Evaluate(2, 3), now))

		until, ok := fake.TimeoutOf("u")
		require.True(t, ok)
		require.Equal(t, now.Add(7*24*time.Hour), until)
		require.Empty(t, fake.BanList())
	})

	t.Run("four to five bans without suppressing", func(t *testing.T) {
		fake := platformtest.New()
		require.NoError(t, Apply(ctx, fake, "g", "u", 5, Evaluate(4, 5), now))

		require.Len(t, fake.BanList(), 1)
		_, suppressed := fake.TimeoutOf("u")
		require.False(t, suppressed)
	})

	t.Run("three to two lifts", func(t *testing.T) {
		fake := platformtest.New()
		require.NoError(t, Apply(ctx, fake, "g", "u", 3, Evaluate(2, 3), now))
		require.NoError(t, Apply(ctx, fake, "g", "u", 2, Evaluate(3, 2), now))

		_, suppressed := fake.TimeoutOf("u")
		require.False(t, suppressed)
		require.Equal(t, []string{"u"}, fake.LiftedUsers())
	})

	t.Run("no action touches nothing", func(t *testing.T) {
		fake := platformtest.New()
		require.NoError(t, Apply(ctx, fake, "g", "u", 1, Evaluate(0, 1), now))
		require.Empty(t, fake.BanList())
		require.Empty(t, fake.LiftedUsers())
	})
}

func TestApply_PlatformFailure(t *testing.T) {
	fake := platformtest.New()
	boom := errors.New("missing permissions")
	fake.Fail("Ban", boom)

	err := Apply(context.Background(), fake, "g", "u", 5, Evaluate(4, 5), time.Now())
	require.ErrorIs(t, err, boom)
}
