package shop

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/aliasqar1/tets/internal/common"
	"github.com/aliasqar1/tets/internal/database"
	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/platform/platformtest"
	"github.com/aliasqar1/tets/internal/store"

	"github.com/stretchr/testify/require"
)

const month = 30 * 24 * time.Hour

var now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

var buyer = models.Actor{UserId: "100", GuildId: "g", ChannelId: "c", Username: "Alice#0001"}

func setupShop(t *testing.T) (*Service, *database.Service, *platformtest.Fake) {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewService(context.Background(), models.StoreConfig{
		DataFile:   filepath.Join(dir, "data.json"),
		StreamFile: filepath.Join(dir, "stream.json"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fake := platformtest.New()
	fake.Admins["g"] = []string{"admin-1", "admin-2"}
	svc := NewService(Config{
		Store:                db,
		Platform:             fake,
		Catalog:              common.DefaultCatalog(),
		SubscriptionLifetime: month,
		CustomRoleLifetime:   month,
		Now:                  func() time.Time { return now },
	})
	return svc, db, fake
}

func fund(t *testing.T, db *database.Service, userId string, amount int64) {
	t.Helper()
	_, err := db.AdjustBalance(context.Background(), userId, amount)
	require.NoError(t, err)
}

func TestBuySubscription(t *testing.T) {
	svc, db, fake := setupShop(t)
	ctx := context.Background()
	fake.SetRole("g", "sub-role", "sub (1)")

	_, err := svc.BuySubscription(ctx, buyer)
	var short *InsufficientFundsError
	require.ErrorAs(t, err, &short)
	require.ErrorIs(t, err, store.ErrInsufficientFunds)
	require.Equal(t, int64(75000), short.Price)

	fund(t, db, buyer.UserId, 80000)
	receipt, err := svc.BuySubscription(ctx, buyer)
	require.NoError(t, err)
	require.Equal(t, int64(5000), receipt.NewBalance)
	require.Equal(t, int64(5000), db.GetBalance(ctx, buyer.UserId))

	db.View(func(s *models.Snapshot) {
		require.True(t, s.Subscription[buyer.UserId].Equal(now))
	})
	require.Equal(t, []platformtest.RoleChange{{GuildId: "g", UserId: buyer.UserId, RoleId: "sub-role"}}, fake.AssignedRoles())
}

func TestBuySubscription_NoSubscriberRole(t *testing.T) {
	svc, db, fake := setupShop(t)
	fund(t, db, buyer.UserId, 75000)

	_, err := svc.BuySubscription(context.Background(), buyer)
	require.NoError(t, err)
	require.Empty(t, fake.AssignedRoles())
}

func TestBuyCustomRole(t *testing.T) {
	svc, db, fake := setupShop(t)
	ctx := context.Background()
	fund(t, db, buyer.UserId, 1000500)

	receipt, err := svc.BuyCustomRole(ctx, buyer)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^alice \d{4}$`), receipt.RoleName)
	require.Equal(t, int64(500), receipt.NewBalance)

	var grant models.CustomRoleGrant
	db.View(func(s *models.Snapshot) {
		grant = *s.ShopRole[buyer.UserId]
	})
	require.Equal(t, "g", grant.GuildId)
	require.Equal(t, receipt.RoleName, fake.Roles["g"][grant.RoleId])
	require.Len(t, fake.AssignedRoles(), 1)
	require.Len(t, fake.DirectsTo("admin-1"), 1)
	require.Len(t, fake.DirectsTo("admin-2"), 1)

	fund(t, db, buyer.UserId, 1000000)
	_, err = svc.BuyCustomRole(ctx, buyer)
	require.ErrorIs(t, err, ErrAlreadyOwned)
}

func TestBuyCustomRole_Failures(t *testing.T) {
	t.Run("insufficient balance creates nothing", func(t *testing.T) {
		svc, db, fake := setupShop(t)
		fund(t, db, buyer.UserId, 999999)

		_, err := svc.BuyCustomRole(context.Background(), buyer)
		require.ErrorIs(t, err, store.ErrInsufficientFunds)
		require.Empty(t, fake.Roles["g"])
		require.Equal(t, int64(999999), db.GetBalance(context.Background(), buyer.UserId))
	})

	t.Run("role creation failure keeps the coins", func(t *testing.T) {
		svc, db, fake := setupShop(t)
		fund(t, db, buyer.UserId, 1000000)
		fake.Fail("CreateRole", errors.New("missing permissions"))

		_, err := svc.BuyCustomRole(context.Background(), buyer)
		require.ErrorIs(t, err, ErrRoleUnavailable)
		require.Equal(t, int64(1000000), db.GetBalance(context.Background(), buyer.UserId))
		db.View(func(s *models.Snapshot) {
			require.Empty(t, s.ShopRole)
		})
	})
}

func TestPlaceOrder(t *testing.T) {
	svc, db, fake := setupShop(t)
	ctx := context.Background()
	fund(t, db, buyer.UserId, 12000)

	_, err := svc.PlaceOrder(ctx, buyer, common.CategoryStreamer, "nope")
	require.ErrorIs(t, err, ErrUnknownProduct)

	receipt, err := svc.PlaceOrder(ctx, buyer, common.CategoryStreamer, "logo")
	require.NoError(t, err)
	require.NotEmpty(t, receipt.OrderId)
	require.Equal(t, int64(2000), receipt.NewBalance)

	db.View(func(s *models.Snapshot) {
		require.Len(t, s.Orders, 1)
		require.Equal(t, receipt.OrderId, s.Orders[0].Id)
		require.Equal(t, int64(10000), s.Orders[0].Price)
	})
	require.Contains(t, fake.DirectsTo("admin-1")[0].Content, receipt.OrderId)

	_, err = svc.PlaceOrder(ctx, buyer, common.CategoryMember, "master-money")
	require.ErrorIs(t, err, store.ErrInsufficientFunds)
	db.View(func(s *models.Snapshot) {
		require.Len(t, s.Orders, 1)
	})
}

func TestRenew(t *testing.T) {
	tests := []struct {
		name      string
		product   string
		startedAt time.Time
		balance   int64
		wantErr   error
	}{
		{name: "active subscription", product: ProductSubscription, startedAt: now.Add(-10 * 24 * time.Hour), balance: 75000},
		{name: "expired subscription", product: ProductSubscription, startedAt: now.Add(-31 * 24 * time.Hour), balance: 75000, wantErr: ErrNothingToRenew},
		{name: "no funds", product: ProductSubscription, startedAt: now.Add(-time.Hour), balance: 10, wantErr: store.ErrInsufficientFunds},
		{name: "active custom role", product: ProductCustomRole, startedAt: now.Add(-29 * 24 * time.Hour), balance: 1000000},
		{name: "expired custom role", product: ProductCustomRole, startedAt: now.Add(-month), balance: 1000000, wantErr: ErrNothingToRenew},
		{name: "unknown product", product: "boost", startedAt: now, balance: 1, wantErr: ErrUnknownProduct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db, _ := setupShop(t)
			ctx := context.Background()
			fund(t, db, buyer.UserId, tt.balance)
			require.NoError(t, db.Mutate(ctx, func(s *models.Snapshot) error {
				s.Subscription[buyer.UserId] = tt.startedAt
				s.ShopRole[buyer.UserId] = &models.CustomRoleGrant{GuildId: "g", RoleId: "r", StartedAt: tt.startedAt}
				return nil
			}))

			receipt, err := svc.Renew(ctx, buyer.UserId, tt.product)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, tt.balance, db.GetBalance(ctx, buyer.UserId))
				return
			}
			require.NoError(t, err)
			require.Zero(t, receipt.NewBalance)

			db.View(func(s *models.Snapshot) {
				if tt.product == ProductSubscription {
					require.True(t, s.Subscription[buyer.UserId].Equal(now))
				} else {
					require.True(t, s.ShopRole[buyer.UserId].StartedAt.Equal(now))
				}
			})
		})
	}
}

func TestRenewalStatus(t *testing.T) {
	svc, db, _ := setupShop(t)
	ctx := context.Background()
	fund(t, db, buyer.UserId, 42)
	require.NoError(t, db.StartSubscription(ctx, buyer.UserId, now.Add(-20*24*time.Hour)))

	status := svc.RenewalStatus(ctx, buyer.UserId)
	require.Equal(t, int64(42), status.Balance)
	require.Len(t, status.Items, 2)
	require.Equal(t, "active", status.Items[0].State)
	require.Equal(t, 10*24*time.Hour, status.Items[0].Remaining)
	require.Equal(t, "none", status.Items[1].State)
}

func TestCustomRoleName(t *testing.T) {
	require.Regexp(t, `^bob \d{4}$`, CustomRoleName("Bob#1234"))
	require.Regexp(t, `^member \d{4}$`, CustomRoleName("  "))
}
