package database

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveMember(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := service.AdjustBalance(ctx, "100", 500)
	require.NoError(t, err)
	_, _, err = service.AdjustWarns(ctx, "100", 1)
	require.NoError(t, err)
	badge, _, err := service.EnsureBadge(ctx, "100")
	require.NoError(t, err)
	require.NoError(t, service.StartSubscription(ctx, "100", now))
	require.NoError(t, service.Mutate(ctx, func(s *models.Snapshot) error {
		s.ShopRole["100"] = &models.CustomRoleGrant{GuildId: "g", RoleId: "r", StartedAt: now}
		return nil
	}))
	registerStreamer(t, service, "100", "")
	_, err = service.AdjustBalance(ctx, "200", 7)
	require.NoError(t, err)

	departed, err := service.RemoveMember(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, int64(500), departed.Balance)
	require.Equal(t, badge, departed.Badge)
	require.True(t, departed.WasStreamer)
	require.NotNil(t, departed.CustomRole)
	require.Equal(t, "r", departed.CustomRole.RoleId)

	service.View(func(s *models.Snapshot) {
		require.NotContains(t, s.Wallet, "100")
		require.NotContains(t, s.Warns, "100")
		require.NotContains(t, s.Badges, "100")
		require.NotContains(t, s.Subscription, "100")
		require.NotContains(t, s.ShopRole, "100")
		require.Equal(t, int64(7), s.Wallet["200"])
	})
	_, err = service.GetStreamer(ctx, "100")
	require.ErrorIs(t, err, store.ErrNotFound)

	// departing again is harmless
	departed, err = service.RemoveMember(ctx, "100")
	require.NoError(t, err)
	require.Nil(t, departed.CustomRole)
	require.False(t, departed.WasStreamer)
}

func TestContests(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, service.Mutate(ctx, func(s *models.Snapshot) error {
		s.Contests["2000"] = &models.Contest{ContestId: "2000", CreatedAt: now.Add(time.Minute), Status: models.ContestOpen}
		s.Contests["1000"] = &models.Contest{ContestId: "1000", CreatedAt: now, Status: models.ContestOpen}
		s.Contests["3000"] = &models.Contest{ContestId: "3000", CreatedAt: now, Status: models.ContestClosed}
		return nil
	}))

	open := service.OpenContests(ctx)
	require.Len(t, open, 2)
	require.Equal(t, "1000", open[0].ContestId)
	require.Equal(t, "2000", open[1].ContestId)

	count, err := service.AppendSubmission(ctx, "1000", models.Submission{UserId: "u", Code: "x", Time: now})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = service.AppendSubmission(ctx, "3000", models.Submission{UserId: "u", Code: "x", Time: now})
	require.ErrorIs(t, err, store.ErrContestClosed)

	_, err = service.AppendSubmission(ctx, "9999", models.Submission{UserId: "u"})
	require.ErrorIs(t, err, store.ErrNotFound)

	c, err := service.GetContest(ctx, "1000")
	require.NoError(t, err)
	c.Submissions[0].Code = "mutated"
	fresh, err := service.GetContest(ctx, "1000")
	require.NoError(t, err)
	require.Equal(t, "x", fresh.Submissions[0].Code)
}

func TestAppendSubmission_ConcurrentAppendsAllKept(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, service.Mutate(ctx, func(s *models.Snapshot) error {
		s.Contests["1000"] = &models.Contest{ContestId: "1000", CreatedAt: now, Status: models.ContestOpen}
		return nil
	}))

	const (
		users   = 20
		perUser = 10
	)
	var wg sync.WaitGroup
	wg.Add(users)
	for u := 0; u < users; u++ {
		go func(userId string) {
			defer wg.Done()
			for n := 0; n < perUser; n++ {
				_, err := service.AppendSubmission(ctx, "1000", models.Submission{
					UserId: userId,
					Code:   strconv.Itoa(n),
					Time:   now,
				})
				assert.NoError(t, err)
			}
		}(strconv.Itoa(u))
	}
	wg.Wait()

	c, err := service.GetContest(ctx, "1000")
	require.NoError(t, err)
	require.Len(t, c.Submissions, users*perUser)

	next := make(map[string]int)
	for _, sub := range c.Submissions {
		require.Equal(t, strconv.Itoa(next[sub.UserId]), sub.Code, "user %s", sub.UserId)
		next[sub.UserId]++
	}
	require.Len(t, next, users)
}

func TestServerSettings(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	require.Equal(t, models.ServerSettings{}, service.GetServerSettings(ctx, "g"))
	require.NoError(t, service.UpdateServerSettings(ctx, "g", func(ss *models.ServerSettings) {
		ss.GameChannelId = "c1"
	}))
	require.NoError(t, service.UpdateServerSettings(ctx, "g", func(ss *models.ServerSettings) {
		ss.ResultChannelId = "c2"
	}))
	require.Equal(t, models.ServerSettings{GameChannelId: "c1", ResultChannelId: "c2"}, service.GetServerSettings(ctx, "g"))

	require.ErrorIs(t, service.UpdateServerSettings(ctx, "", func(*models.ServerSettings) {}), store.ErrInvalidInput)
}
