package database

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/store"

	"github.com/stretchr/testify/require"
)

func setupTestService(t *testing.T) (*Service, models.StoreConfig) {
	t.Helper()
	dir := t.TempDir()
	cfg := models.StoreConfig{
		DataFile:   filepath.Join(dir, "data.json"),
		StreamFile: filepath.Join(dir, "stream.json"),
		Indent:     true,
	}
	service, err := NewService(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.Close() })
	return service, cfg
}

func readDocument(t *testing.T, path string) map[string]json.RawMessage {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(content, &out))
	return out
}

func TestNewService_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewService(ctx, models.StoreConfig{StreamFile: "stream.json"})
	require.Error(t, err)

	_, err = NewService(ctx, models.StoreConfig{DataFile: "data.json"})
	require.Error(t, err)

	_, err = NewService(ctx, models.StoreConfig{DataFile: "same.json", StreamFile: "same.json"})
	require.Error(t, err)
}

func TestNewService_MissingFilesCreatesAllKeys(t *testing.T) {
	_, cfg := setupTestService(t)

	doc := readDocument(t, cfg.DataFile)
	for _, key := range []string{"wallet", "subscription", "warns", "badges", "contests", "server_settings", "shoprole", "orders"} {
		require.Contains(t, doc, key)
	}
	require.JSONEq(t, `[]`, string(doc["orders"]))

	stream := readDocument(t, cfg.StreamFile)
	require.Contains(t, stream, "start_stream_messages")
}

func TestNewService_CorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	cfg := models.StoreConfig{
		DataFile:   filepath.Join(dir, "data.json"),
		StreamFile: filepath.Join(dir, "stream.json"),
	}
	require.NoError(t, os.WriteFile(cfg.DataFile, []byte(`{"wallet": {"1": 5`), 0o644))

	service, err := NewService(context.Background(), cfg)
	require.NoError(t, err)
	defer service.Close()

	require.Equal(t, int64(0), service.GetBalance(context.Background(), "1"))
	_, err = os.Stat(cfg.DataFile + ".corrupt")
	require.NoError(t, err)
}

func TestNewService_PartialDocumentFillsMissingKeys(t *testing.T) {
	dir := t.TempDir()
	cfg := models.StoreConfig{
		DataFile:   filepath.Join(dir, "data.json"),
		StreamFile: filepath.Join(dir, "stream.json"),
	}
	legacy := `{
		"wallet": {"42": 1500},
		"server_settings": {"7": {"game_channel_id": 1234567890123, "result_channel_id": "555"}}
	}`
	require.NoError(t, os.WriteFile(cfg.DataFile, []byte(legacy), 0o644))
	streams := `{
		"99": {"banner_url": "b", "invite_link": "https://discord.gg/abc", "streams_count": 2, "violations": 7, "start_date": "2024-05-01T10:00:00.123456+00:00"},
		"start_stream_messages": {"7": {"channel_id": 321, "message_id": null}}
	}`
	require.NoError(t, os.WriteFile(cfg.StreamFile, []byte(streams), 0o644))

	service, err := NewService(context.Background(), cfg)
	require.NoError(t, err)
	defer service.Close()

	ctx := context.Background()
	require.Equal(t, int64(1500), service.GetBalance(ctx, "42"))

	settings := service.GetServerSettings(ctx, "7")
	require.Equal(t, "1234567890123", settings.GameChannelId)
	require.Equal(t, "555", settings.ResultChannelId)

	p, err := service.GetStreamer(ctx, "99")
	require.NoError(t, err)
	require.Equal(t, 2, p.StreamsCount)
	require.Equal(t, models.MaxViolations, p.Violations)

	msg, ok := service.GetStartStreamMessage(ctx, "7")
	require.True(t, ok)
	require.Equal(t, "321", msg.ChannelId)
	require.Empty(t, msg.MessageId)

	service.View(func(s *models.Snapshot) {
		require.NotNil(t, s.Contests)
		require.NotNil(t, s.ShopRole)
		require.NotNil(t, s.Orders)
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	service, cfg := setupTestService(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := service.AdjustBalance(ctx, "1", 250)
	require.NoError(t, err)
	_, _, err = service.AdjustWarns(ctx, "1", 2)
	require.NoError(t, err)
	_, _, err = service.EnsureBadge(ctx, "1")
	require.NoError(t, err)
	require.NoError(t, service.StartSubscription(ctx, "1", now))
	require.NoError(t, service.Mutate(ctx, func(s *models.Snapshot) error {
		s.ShopRole["1"] = &models.CustomRoleGrant{GuildId: "g", RoleId: "r", StartedAt: now}
		s.Contests["1234"] = &models.Contest{
			ContestId:     "1234",
			SecretCode:    "abc",
			Prize:         100,
			DurationKind:  models.DurationSeconds,
			DurationValue: 60,
			CreatedAt:     now,
			Submissions:   []models.Submission{{UserId: "1", Code: "abc", Time: now}},
			Status:        models.ContestOpen,
		}
		s.Orders = append(s.Orders, models.Order{Id: "o1", UserId: "1", Item: "logo", Price: 10, CreatedAt: now})
		return nil
	}))
	_, err = service.RegisterStreamer(ctx, store.RegisterStreamerParams{UserId: "1", BannerUrl: "b", Now: now})
	require.NoError(t, err)

	var before models.Snapshot
	service.View(func(s *models.Snapshot) {
		raw, err := json.Marshal(s)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &before))
	})
	require.NoError(t, service.Close())

	reloaded, err := NewService(ctx, cfg)
	require.NoError(t, err)
	defer reloaded.Close()

	reloaded.View(func(s *models.Snapshot) {
		require.Equal(t, before.Wallet, s.Wallet)
		require.Equal(t, before.Warns, s.Warns)
		require.Equal(t, before.Badges, s.Badges)
		require.True(t, before.Subscription["1"].Equal(s.Subscription["1"]))
		require.Equal(t, before.Contests["1234"].Submissions[0].Code, s.Contests["1234"].Submissions[0].Code)
		require.Equal(t, before.Orders[0].Id, s.Orders[0].Id)
		require.Equal(t, "r", s.ShopRole["1"].RoleId)
	})
	p, err := reloaded.GetStreamer(ctx, "1")
	require.NoError(t, err)
	require.Len(t, p.InviteCode, 6)
}

func TestMutate_ErrorDiscardsChanges(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	_, err := service.AdjustBalance(ctx, "1", 10)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = service.Mutate(ctx, func(s *models.Snapshot) error {
		s.AddCoins("1", 1000)
		s.Warns["1"] = 4
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, int64(10), service.GetBalance(ctx, "1"))
	require.Equal(t, 0, service.GetWarns(ctx, "1"))
}

func TestMutate_WriteFailureKeepsMemoryState(t *testing.T) {
	service, cfg := setupTestService(t)
	ctx := context.Background()

	// make the target path a directory so the rename fails
	require.NoError(t, os.Remove(cfg.DataFile))
	require.NoError(t, os.Mkdir(cfg.DataFile, 0o755))

	balance, err := service.AdjustBalance(ctx, "1", 7)
	require.NoError(t, err)
	require.Equal(t, int64(7), balance)
	require.Equal(t, int64(7), service.GetBalance(ctx, "1"))
	require.Error(t, service.Flush(ctx))

	require.NoError(t, os.Remove(cfg.DataFile))
	require.NoError(t, service.Flush(ctx))

	doc := readDocument(t, cfg.DataFile)
	require.JSONEq(t, `{"1": 7}`, string(doc["wallet"]))
}

func TestMutate_AfterClose(t *testing.T) {
	service, _ := setupTestService(t)
	require.NoError(t, service.Close())

	_, err := service.AdjustBalance(context.Background(), "1", 1)
	require.ErrorIs(t, err, store.ErrClosed)
}

func TestMutate_CancelledContext(t *testing.T) {
	service, _ := setupTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.AdjustBalance(ctx, "1", 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, writeFileAtomic(path, []byte(`{"a":1}`)))
	require.NoError(t, writeFileAtomic(path, []byte(`{"a":2}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"a":2}`, string(content))
}
