package common

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aliasqar1/tets/internal/database"
	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWalletReport(t *testing.T) {
	dir := t.TempDir()
	db, err := database.NewService(context.Background(), models.StoreConfig{
		DataFile:   filepath.Join(dir, "data.json"),
		StreamFile: filepath.Join(dir, "stream.json"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Mutate(context.Background(), func(s *models.Snapshot) error {
		s.Wallet["a"] = 10
		s.Wallet["b"] = 300
		s.Wallet["c"] = 10
		s.Badges["b"] = 2048
		s.Warns["c"] = 2
		s.Subscription["d"] = time.Now()
		return nil
	}))

	all, err := WalletReport(db, "", zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, []models.WalletEntry{
		{UserId: "b", Balance: 300, Badge: 2048},
		{UserId: "a", Balance: 10},
		{UserId: "c", Balance: 10, Warns: 2},
	}, all)

	one, err := WalletReport(db, "c", zap.NewNop())
	require.NoError(t, err)
	require.Len(t, one, 1)

	_, err = WalletReport(db, "d", zap.NewNop())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFormatCoins(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{75000, "75,000"},
		{1000000, "1,000,000"},
		{-12345, "-12,345"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatCoins(tt.in))
	}
}

func TestFormatDays(t *testing.T) {
	require.Equal(t, "0 days", FormatDays(23*time.Hour))
	require.Equal(t, "1 day", FormatDays(36*time.Hour))
	require.Equal(t, "20 days", FormatDays(20*24*time.Hour+time.Minute))
}
