package api

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/aliasqar1/tets/internal/common"
	"github.com/aliasqar1/tets/internal/contest"
	"github.com/aliasqar1/tets/internal/countdown"
	"github.com/aliasqar1/tets/internal/database"
	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/moderation"
	"github.com/aliasqar1/tets/internal/platform"
	"github.com/aliasqar1/tets/internal/platform/platformtest"
	"github.com/aliasqar1/tets/internal/shop"
	"github.com/aliasqar1/tets/internal/store"

	"github.com/stretchr/testify/require"
)

const month = 30 * 24 * time.Hour

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

var (
	admin    = models.Actor{UserId: "1", GuildId: "g", ChannelId: "cmd", Username: "boss", RoleNames: []string{"Admin"}}
	member   = models.Actor{UserId: "2", GuildId: "g", ChannelId: "cmd", Username: "alice"}
	streamer = models.Actor{UserId: "500", GuildId: "g", ChannelId: "cmd", Username: "streamy", RoleNames: []string{"استریمر"}}
)

func setupService(t *testing.T) (*CommunityService, *database.Service, *platformtest.Fake) {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewService(context.Background(), models.StoreConfig{
		DataFile:   filepath.Join(dir, "data.json"),
		StreamFile: filepath.Join(dir, "stream.json"),
	})
	require.NoError(t, err)

	fake := platformtest.New()
	catalog := common.DefaultCatalog()
	clock := func() time.Time { return now }

	coordinator := contest.NewCoordinator(contest.CoordinatorConfig{
		Store:           db,
		Platform:        fake,
		MonitorInterval: time.Hour,
		Now:             clock,
	})
	timers := countdown.NewManager(countdown.Config{
		Store:           db,
		Messenger:       fake,
		Duration:        20 * 24 * time.Hour,
		RefreshInterval: time.Hour,
		WarnBefore:      3 * 24 * time.Hour,
		Now:             clock,
	})
	t.Cleanup(func() {
		timers.Stop()
		coordinator.Stop()
		_ = db.Close()
	})

	svc := NewCommunityService(Config{
		Store:    db,
		Platform: fake,
		Catalog:  catalog,
		Shop: shop.NewService(shop.Config{
			Store:                db,
			Platform:             fake,
			Catalog:              catalog,
			SubscriptionLifetime: month,
			CustomRoleLifetime:   month,
			Now:                  clock,
		}),
		Coordinator:          coordinator,
		Collector:            contest.NewCollector(contest.CollectorConfig{Coordinator: coordinator, StepTimeout: time.Minute}),
		Countdown:            timers,
		SubscriptionLifetime: month,
		Now:                  clock,
	})
	return svc, db, fake
}

func registerStreamer(t *testing.T, svc *CommunityService) {
	t.Helper()
	_, err := svc.AddStreamer(context.Background(), admin, streamer.UserId,
		"https://cdn.example/banner.png", "https://discord.gg/Ab12Cd", "https://twitch.tv/streamy")
	require.NoError(t, err)
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindOK},
		{name: "forbidden", err: fmt.Errorf("x: %w", ErrForbidden), want: KindForbidden},
		{name: "not creator", err: contest.ErrNotCreator, want: KindForbidden},
		{name: "not streamer", err: ErrNotStreamer, want: KindForbidden},
		{name: "invalid input", err: invalid("bad"), want: KindValidation},
		{name: "insufficient funds", err: &shop.InsufficientFundsError{Balance: 5, Price: 10}, want: KindValidation},
		{name: "contest closed", err: store.ErrContestClosed, want: KindValidation},
		{name: "not found", err: fmt.Errorf("streamer 9: %w", store.ErrNotFound), want: KindNotFound},
		{name: "no game channel", err: contest.ErrNoGameChannel, want: KindNotFound},
		{name: "platform not found", err: platform.ErrNotFound, want: KindNotFound},
		{name: "role creation", err: shop.ErrRoleUnavailable, want: KindExternal},
		{name: "store closed", err: store.ErrClosed, want: KindPersistence},
		{name: "unknown", err: errors.New("disk full"), want: KindPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutcomeOf(tt.err)
			require.Equal(t, tt.want, got.Kind)
			require.Equal(t, tt.want == KindOK, got.OK())
			if tt.err != nil {
				require.NotEmpty(t, got.Message)
			}
		})
	}

	out := OutcomeOf(&shop.InsufficientFundsError{Balance: 1500, Price: 75000})
	require.Contains(t, out.Message, "1,500")
	require.Contains(t, out.Message, "75,000")
}

func TestAdminCommands_RequireAdmin(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	calls := map[string]func() error{
		"pay": func() error { _, err := svc.Pay(ctx, member, "3", 10, ActionAdd); return err },
		"warn": func() error {
			_, err := svc.AdjustWarns(ctx, member, "3", 1, ActionAdd)
			return err
		},
		"reset warns": func() error { _, err := svc.ResetWarns(ctx, member, "3"); return err },
		"view warns":  func() error { _, err := svc.ViewWarns(ctx, member, "3"); return err },
		"add streamer": func() error {
			_, err := svc.AddStreamer(ctx, member, "500", "", "", "")
			return err
		},
		"list streamers": func() error { _, err := svc.ListStreamers(ctx, member); return err },
		"edit streamer": func() error {
			_, err := svc.EditStreamer(ctx, member, "500", models.FieldStreamLink, "x")
			return err
		},
		"violations":   func() error { _, err := svc.AdjustViolations(ctx, member, "500", 1, ActionAdd); return err },
		"game channel": func() error { return svc.SetGameChannel(ctx, member, "c") },
		"result":       func() error { return svc.SetResultChannel(ctx, member, "c") },
		"start channel": func() error {
			return svc.SetStartChannel(ctx, member, "c")
		},
		"start panel": func() error { _, err := svc.PostStartButton(ctx, member, "c"); return err },
		"timer":       func() error { _, err := svc.StartTimer(ctx, member, ""); return err },
		"reset timer": func() error { _, err := svc.ResetTimer(ctx, member, ""); return err },
		"contest":     func() error { _, _, err := svc.BeginContest(member); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.ErrorIs(t, err, ErrForbidden)
			require.Equal(t, KindForbidden, OutcomeOf(err).Kind)
		})
	}
}

func TestPay(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		amount  int64
		action  string
		want    int64
		wantErr error
	}{
		{name: "add", amount: 500, action: "add", want: 500},
		{name: "revoke", amount: 200, action: "REV", want: 300},
		{name: "revoke clamps at zero", amount: 1000, action: "rev", want: 0},
		{name: "zero amount", amount: 0, action: "add", wantErr: store.ErrInvalidInput},
		{name: "negative amount", amount: -5, action: "add", wantErr: store.ErrInvalidInput},
		{name: "unknown action", amount: 5, action: "set", wantErr: store.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Pay(ctx, admin, member.UserId, tt.amount, tt.action)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.want, db.GetBalance(ctx, member.UserId))
		})
	}
	require.Equal(t, int64(0), svc.Balance(ctx, member))
}

func TestAdjustWarns_Enforcement(t *testing.T) {
	svc, db, fake := setupService(t)
	ctx := context.Background()

	change, err := svc.AdjustWarns(ctx, admin, member.UserId, 3, ActionAdd)
	require.NoError(t, err)
	require.Equal(t, 0, change.Before)
	require.Equal(t, 3, change.After)
	require.Equal(t, moderation.ActionSuppress, change.Decision.Action)
	until, ok := fake.TimeoutOf(member.UserId)
	require.True(t, ok)
	require.True(t, until.Equal(now.Add(moderation.SuppressDuration)))

	change, err = svc.AdjustWarns(ctx, admin, member.UserId, 1, ActionRevoke)
	require.NoError(t, err)
	require.Equal(t, moderation.ActionLift, change.Decision.Action)
	require.Equal(t, []string{member.UserId}, fake.LiftedUsers())

	// the count is stored even when the ban is rejected
	fake.Fail("Ban", errors.New("missing permissions"))
	change, err = svc.AdjustWarns(ctx, admin, member.UserId, 3, ActionAdd)
	require.NoError(t, err)
	require.Equal(t, moderation.ActionBan, change.Decision.Action)
	require.Error(t, change.EnforcementErr)
	require.Equal(t, 5, db.GetWarns(ctx, member.UserId))

	count, err := svc.ViewWarns(ctx, admin, member.UserId)
	require.NoError(t, err)
	require.Equal(t, 5, count)
}

func TestResetWarns(t *testing.T) {
	svc, db, fake := setupService(t)
	ctx := context.Background()

	_, err := svc.AdjustWarns(ctx, admin, member.UserId, 4, ActionAdd)
	require.NoError(t, err)

	change, err := svc.ResetWarns(ctx, admin, member.UserId)
	require.NoError(t, err)
	require.Equal(t, 4, change.Before)
	require.NoError(t, change.EnforcementErr)
	require.Zero(t, db.GetWarns(ctx, member.UserId))
	_, timedOut := fake.TimeoutOf(member.UserId)
	require.False(t, timedOut)
}

func TestProfile(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, db.Mutate(ctx, func(s *models.Snapshot) error {
		s.Wallet["2"] = 1200
		s.Badges["2"] = 4321
		s.Warns["2"] = 1
		s.Subscription["2"] = now.Add(-10 * 24 * time.Hour)
		s.Subscription["3"] = now.Add(-40 * 24 * time.Hour)
		return nil
	}))

	joined := member
	joined.JoinedAt = now.Add(-100 * 24 * time.Hour)
	p := svc.Profile(ctx, joined)
	require.Equal(t, 4321, p.Badge)
	require.Equal(t, int64(1200), p.Coins)
	require.Equal(t, 1, p.Warns)
	require.True(t, p.HasSubscription)
	require.Equal(t, "active", p.SubscriptionState)
	require.Equal(t, 20*24*time.Hour, p.SubscriptionLeft)
	require.Equal(t, 100*24*time.Hour, p.JoinedAgo)

	p = svc.Profile(ctx, models.Actor{UserId: "3"})
	require.False(t, p.HasSubscription)
	require.Equal(t, "expired", p.SubscriptionState)
	require.Zero(t, p.JoinedAgo)

	p = svc.Profile(ctx, models.Actor{UserId: "4"})
	require.Equal(t, "none", p.SubscriptionState)
}

func TestStreamerManagement(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AddStreamer(ctx, admin, "not-a-number", "", "", "")
	require.ErrorIs(t, err, store.ErrInvalidInput)

	registerStreamer(t, svc)
	ids, err := svc.ListStreamers(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, []string{"500"}, ids)

	p, err := svc.EditStreamer(ctx, admin, "500", models.FieldViolations, "7")
	require.NoError(t, err)
	require.Equal(t, models.MaxViolations, p.Violations)

	_, err = svc.EditStreamer(ctx, admin, "500", models.FieldStreamsCount, "many")
	require.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = svc.EditStreamer(ctx, admin, "404", models.FieldBannerUrl, "x")
	require.ErrorIs(t, err, store.ErrNotFound)

	count, err := svc.AdjustViolations(ctx, admin, "500", 5, ActionRevoke)
	require.NoError(t, err)
	require.Zero(t, count)

	_, err = svc.AdjustViolations(ctx, admin, "404", 1, ActionAdd)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStreamerViews(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	registerStreamer(t, svc)

	_, err := svc.StreamerProfile(ctx, member)
	require.ErrorIs(t, err, ErrNotStreamer)

	// a streamer role without a profile
	_, err = svc.StreamerProfile(ctx, models.Actor{UserId: "600", RoleNames: streamer.RoleNames})
	require.ErrorIs(t, err, store.ErrNotFound)

	view, err := svc.StreamerProfile(ctx, streamer)
	require.NoError(t, err)
	require.Equal(t, "https://twitch.tv/streamy", view.Profile.StreamLink)
	require.Zero(t, view.DaysStreamer)

	link, err := svc.InviteLink(ctx, streamer)
	require.NoError(t, err)
	require.Equal(t, "https://discord.gg/Ab12Cd", link)

	_, err = svc.InviteLink(ctx, member)
	require.ErrorIs(t, err, ErrNotStreamer)
}

func TestStartStream(t *testing.T) {
	svc, db, fake := setupService(t)
	ctx := context.Background()
	registerStreamer(t, svc)

	_, err := svc.StartStream(ctx, member)
	require.ErrorIs(t, err, ErrNotStreamer)

	// paid even though nothing can be announced yet
	res, err := svc.StartStream(ctx, streamer)
	require.NoError(t, err)
	require.False(t, res.Announced)
	require.ErrorIs(t, res.AnnounceErr, ErrNoNewsChannel)
	require.Equal(t, 1, res.Profile.StreamsCount)
	require.Equal(t, int64(1000), db.GetBalance(ctx, streamer.UserId))

	require.NoError(t, svc.SetStartChannel(ctx, admin, "news"))
	res, err = svc.StartStream(ctx, streamer)
	require.NoError(t, err)
	require.True(t, res.Announced)
	require.Equal(t, 2, res.Profile.StreamsCount)
	require.Equal(t, int64(2000), db.GetBalance(ctx, streamer.UserId))

	sent := fake.SentTo("news")
	require.Len(t, sent, 1)
	require.Equal(t, "https://cdn.example/banner.png", sent[0].Embed.ImageUrl)
	require.Equal(t, []platform.Button{{Label: "Join the stream", Style: platform.StyleLink, Url: "https://twitch.tv/streamy"}}, sent[0].Buttons)

	fake.Fail("SendMessage", errors.New("missing access"))
	res, err = svc.StartStream(ctx, streamer)
	require.NoError(t, err)
	require.False(t, res.Announced)
	require.Error(t, res.AnnounceErr)
	require.Equal(t, int64(3000), db.GetBalance(ctx, streamer.UserId))
}

func TestStartChannelAndPanel(t *testing.T) {
	svc, db, fake := setupService(t)
	ctx := context.Background()

	messageId, err := svc.PostStartButton(ctx, admin, "lobby")
	require.NoError(t, err)
	panel := fake.SentTo("lobby")
	require.Len(t, panel, 1)
	require.Equal(t, StartStreamButtonId, panel[0].Buttons[0].Id)

	m, ok := db.GetStartStreamMessage(ctx, "g")
	require.True(t, ok)
	require.Equal(t, messageId, m.MessageId)
	require.Equal(t, "lobby", db.GetServerSettings(ctx, "g").StartChannelId)

	// setting the news channel forgets the old panel
	require.NoError(t, svc.SetStartChannel(ctx, admin, "news"))
	m, ok = db.GetStartStreamMessage(ctx, "g")
	require.True(t, ok)
	require.Equal(t, models.StartStreamMessage{ChannelId: "news"}, m)
	require.Equal(t, "news", db.GetServerSettings(ctx, "g").NewsChannelId)
}

func TestServerChannels(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetGameChannel(ctx, admin, "games"))
	require.NoError(t, svc.SetResultChannel(ctx, admin, "results"))
	ss := db.GetServerSettings(ctx, "g")
	require.Equal(t, "games", ss.GameChannelId)
	require.Equal(t, "results", ss.ResultChannelId)

	require.ErrorIs(t, svc.SetGameChannel(ctx, admin, ""), store.ErrInvalidInput)

	dm := admin
	dm.GuildId = ""
	require.ErrorIs(t, svc.SetResultChannel(ctx, dm, "results"), store.ErrInvalidInput)
}

func TestPlaceOrder_StreamerCatalog(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()
	_, err := db.AdjustBalance(ctx, member.UserId, 100000)
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, member, common.CategoryStreamer, "logo")
	require.ErrorIs(t, err, ErrNotStreamer)

	receipt, err := svc.PlaceOrder(ctx, member, common.CategoryMember, "profile-logo")
	require.NoError(t, err)
	require.Equal(t, int64(95000), receipt.NewBalance)
}

func TestTimers(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	timer, err := svc.StartTimer(ctx, admin, "")
	require.NoError(t, err)
	require.Equal(t, admin.UserId, timer.UserId)
	require.Equal(t, admin.ChannelId, timer.ChannelId)

	timer, err = svc.ResetTimer(ctx, admin, member.UserId)
	require.NoError(t, err)
	require.Equal(t, member.UserId, timer.UserId)
	db.View(func(s *models.Snapshot) {
		require.Contains(t, s.Subscription, member.UserId)
	})
}

func TestContestCommands(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	session, prompt, err := svc.BeginContest(admin)
	require.NoError(t, err)
	require.NotEmpty(t, prompt.Text)

	_, err = svc.ChooseContestKind(admin, session.Id, "weeks")
	require.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = svc.ChooseContestKind(admin, session.Id, models.DurationDays)
	require.ErrorIs(t, err, contest.ErrWrongStep)

	require.ErrorIs(t, svc.CancelContest(member, session.Id), contest.ErrNotCreator)
	require.NoError(t, svc.CancelContest(admin, session.Id))

	_, err = svc.SubmitContest(ctx, member, "1234", "")
	require.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = svc.SubmitContest(ctx, member, "1234", "abc")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestHealthCheck(t *testing.T) {
	svc, db, _ := setupService(t)
	require.NoError(t, svc.HealthCheck(context.Background()))

	require.NoError(t, db.Close())
	require.ErrorIs(t, svc.HealthCheck(context.Background()), store.ErrClosed)
}
