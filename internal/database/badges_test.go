package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/aliasqar1/tets/internal/store"

	"github.com/stretchr/testify/require"
)

func TestEnsureBadge_Stable(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	code, created, err := service.EnsureBadge(ctx, "user")
	require.NoError(t, err)
	require.True(t, created)
	require.GreaterOrEqual(t, code, store.MinBadgeCode)
	require.LessOrEqual(t, code, store.MaxBadgeCode)

	again, created, err := service.EnsureBadge(ctx, "user")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, code, again)
}

func TestEnsureBadge_Unique(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	seen := make(map[int]string)
	for i := 0; i < 300; i++ {
		userId := fmt.Sprintf("user-%d", i)
		code, _, err := service.EnsureBadge(ctx, userId)
		require.NoError(t, err)
		holder, dup := seen[code]
		require.False(t, dup, "badge %d given to %s and %s", code, holder, userId)
		seen[code] = userId
	}
}

func TestNextBadgeCode(t *testing.T) {
	span := store.MaxBadgeCode - store.MinBadgeCode + 1

	t.Run("last free code is found", func(t *testing.T) {
		assigned := make(map[string]int, span-1)
		for c := store.MinBadgeCode; c <= store.MaxBadgeCode; c++ {
			if c != 4321 {
				assigned[fmt.Sprint(c)] = c
			}
		}
		code, err := nextBadgeCode(assigned)
		require.NoError(t, err)
		require.Equal(t, 4321, code)
	})

	t.Run("full range", func(t *testing.T) {
		assigned := make(map[string]int, span)
		for c := store.MinBadgeCode; c <= store.MaxBadgeCode; c++ {
			assigned[fmt.Sprint(c)] = c
		}
		_, err := nextBadgeCode(assigned)
		require.ErrorIs(t, err, store.ErrBadgeSpaceExhausted)
	})
}

func TestSetBadge(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		userId  string
		code    int
		wantErr error
	}{
		{name: "valid", userId: "a", code: 2500},
		{name: "same holder again", userId: "a", code: 2500},
		{name: "taken by another user", userId: "b", code: 2500, wantErr: store.ErrBadgeTaken},
		{name: "below range", userId: "b", code: 1999, wantErr: store.ErrInvalidInput},
		{name: "above range", userId: "b", code: 10000, wantErr: store.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.SetBadge(ctx, tt.userId, tt.code)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
