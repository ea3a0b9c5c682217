package shop

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/aliasqar1/tets/internal/common"
	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/platform"
	"github.com/aliasqar1/tets/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Renewable products
const (
	ProductSubscription = "sub"
	ProductCustomRole   = "shoprole"
)

var (
	ErrUnknownProduct  = errors.New("unknown product")
	ErrAlreadyOwned    = errors.New("custom role already owned")
	ErrNothingToRenew  = errors.New("no active purchase to renew")
	ErrRoleUnavailable = errors.New("custom role could not be created")
)

// InsufficientFundsError carries the numbers shown to the buyer
type InsufficientFundsError struct {
	Balance int64
	Price   int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("balance %d is below the price %d", e.Balance, e.Price)
}

func (e *InsufficientFundsError) Unwrap() error {
	return store.ErrInsufficientFunds
}

// Config contains configuration for Service
type Config struct {
	Store                store.StateStore
	Platform             platform.Platform
	Catalog              *common.Catalog
	SubscriptionLifetime time.Duration
	CustomRoleLifetime   time.Duration
	Now                  func() time.Time
}

// Service sells subscriptions, custom roles and special orders. Every
// purchase checks and debits the balance in the same mutation that records
// the product.
type Service struct {
	store                store.StateStore
	platform             platform.Platform
	catalog              *common.Catalog
	subscriptionLifetime time.Duration
	customRoleLifetime   time.Duration
	now                  func() time.Time
}

func NewService(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = common.DefaultCatalog()
	}
	return &Service{
		store:                cfg.Store,
		platform:             cfg.Platform,
		catalog:              catalog,
		subscriptionLifetime: cfg.SubscriptionLifetime,
		customRoleLifetime:   cfg.CustomRoleLifetime,
		now:                  now,
	}
}

func (s *Service) Catalog() *common.Catalog {
	return s.catalog
}

// debit takes price from the buyer inside a running mutation
func debit(snap *models.Snapshot, userId string, price int64) error {
	balance := snap.Wallet[userId]
	if balance < price {
		return &InsufficientFundsError{Balance: balance, Price: price}
	}
	snap.AddCoins(userId, -price)
	return nil
}

// BuySubscription sells a one-month subscription and grants the subscriber
// role when the guild has one
func (s *Service) BuySubscription(ctx context.Context, actor models.Actor) (*models.Receipt, error) {
	price := s.catalog.SubscriptionPrice
	receipt := &models.Receipt{Product: ProductSubscription, Price: price}

	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		if err := debit(snap, actor.UserId, price); err != nil {
			return err
		}
		snap.Subscription[actor.UserId] = s.now().UTC()
		receipt.NewBalance = snap.Wallet[actor.UserId]
		return nil
	})
	if err != nil {
		return nil, err
	}

	if roleId, err := s.platform.FindRoleByName(ctx, actor.GuildId, s.catalog.SubscriberRole); err == nil {
		if err := s.platform.AssignRole(ctx, actor.GuildId, actor.UserId, roleId); err != nil {
			zap.L().Warn("Failed to assign subscriber role",
				zap.String("user_id", actor.UserId),
				zap.Error(err))
		}
	}

	zap.L().Info("Subscription purchased",
		zap.String("user_id", actor.UserId),
		zap.Int64("price", price),
		zap.Int64("new_balance", receipt.NewBalance))
	return receipt, nil
}

// BuyCustomRole creates a personal role for the buyer. The role is created
// before the debit; if the purchase cannot be recorded the role is deleted.
func (s *Service) BuyCustomRole(ctx context.Context, actor models.Actor) (*models.Receipt, error) {
	price := s.catalog.CustomRolePrice

	var precheck error
	s.store.View(func(snap *models.Snapshot) {
		if _, ok := snap.ShopRole[actor.UserId]; ok {
			precheck = ErrAlreadyOwned
			return
		}
		if balance := snap.Wallet[actor.UserId]; balance < price {
			precheck = &InsufficientFundsError{Balance: balance, Price: price}
		}
	})
	if precheck != nil {
		return nil, precheck
	}

	name := CustomRoleName(actor.Username)
	roleId, err := s.platform.CreateRole(ctx, actor.GuildId, name)
	if err != nil {
		zap.L().Warn("Failed to create custom role",
			zap.String("user_id", actor.UserId),
			zap.String("role_name", name),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRoleUnavailable, err)
	}

	receipt := &models.Receipt{Product: ProductCustomRole, Price: price, RoleName: name}
	err = s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		if _, ok := snap.ShopRole[actor.UserId]; ok {
			return ErrAlreadyOwned
		}
		if err := debit(snap, actor.UserId, price); err != nil {
			return err
		}
		snap.ShopRole[actor.UserId] = &models.CustomRoleGrant{
			GuildId:   actor.GuildId,
			RoleId:    roleId,
			StartedAt: s.now().UTC(),
		}
		receipt.NewBalance = snap.Wallet[actor.UserId]
		return nil
	})
	if err != nil {
		if delErr := s.platform.DeleteRole(ctx, actor.GuildId, roleId); delErr != nil {
			zap.L().Warn("Failed to delete unsold custom role",
				zap.String("role_id", roleId),
				zap.Error(delErr))
		}
		return nil, err
	}

	if err := s.platform.AssignRole(ctx, actor.GuildId, actor.UserId, roleId); err != nil {
		zap.L().Warn("Failed to assign custom role",
			zap.String("user_id", actor.UserId),
			zap.String("role_id", roleId),
			zap.Error(err))
	}
	s.notifyAdmins(ctx, actor.GuildId, fmt.Sprintf("📢 <@%s> bought a custom role: `%s`", actor.UserId, name))

	zap.L().Info("Custom role purchased",
		zap.String("user_id", actor.UserId),
		zap.String("role_id", roleId),
		zap.String("role_name", name))
	return receipt, nil
}

// PlaceOrder records a special order and forwards it to the guild's admins
func (s *Service) PlaceOrder(ctx context.Context, actor models.Actor, category, key string) (*models.Receipt, error) {
	item, ok := s.catalog.FindOrder(category, key)
	if !ok {
		return nil, fmt.Errorf("order %s/%s: %w", category, key, ErrUnknownProduct)
	}

	order := models.Order{
		Id:        uuid.NewString(),
		UserId:    actor.UserId,
		GuildId:   actor.GuildId,
		Category:  category,
		Item:      item.Label,
		Price:     item.Price,
		CreatedAt: s.now().UTC(),
	}
	receipt := &models.Receipt{Product: item.Label, Price: item.Price, OrderId: order.Id}

	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		if err := debit(snap, actor.UserId, item.Price); err != nil {
			return err
		}
		snap.Orders = append(snap.Orders, order)
		receipt.NewBalance = snap.Wallet[actor.UserId]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, actor.GuildId, fmt.Sprintf("📥 New order from <@%s>\nOrder: %s\nPrice: %d coins\nId: %s",
		actor.UserId, item.Label, item.Price, order.Id))

	zap.L().Info("Special order placed",
		zap.String("order_id", order.Id),
		zap.String("user_id", actor.UserId),
		zap.String("category", category),
		zap.String("item", key))
	return receipt, nil
}

// RenewalStatus lists the buyer's renewable purchases
func (s *Service) RenewalStatus(ctx context.Context, userId string) models.RenewalStatus {
	now := s.now().UTC()
	var out models.RenewalStatus
	s.store.View(func(snap *models.Snapshot) {
		out.Balance = snap.Wallet[userId]

		sub := models.RenewableItem{Kind: ProductSubscription, Price: s.catalog.SubscriptionPrice, State: "none"}
		if started, ok := snap.Subscription[userId]; ok {
			sub.State, sub.Remaining = remaining(started, now, s.subscriptionLifetime)
		}

		role := models.RenewableItem{Kind: ProductCustomRole, Price: s.catalog.CustomRolePrice, State: "none"}
		if g, ok := snap.ShopRole[userId]; ok {
			role.State, role.Remaining = remaining(g.StartedAt, now, s.customRoleLifetime)
		}
		out.Items = []models.RenewableItem{sub, role}
	})
	return out
}

func remaining(started, now time.Time, lifetime time.Duration) (string, time.Duration) {
	left := started.Add(lifetime).Sub(now)
	if left <= 0 {
		return "expired", 0
	}
	return "active", left
}

// Renew restarts an active purchase at its original price
func (s *Service) Renew(ctx context.Context, userId, product string) (*models.Receipt, error) {
	var price int64
	switch product {
	case ProductSubscription:
		price = s.catalog.SubscriptionPrice
	case ProductCustomRole:
		price = s.catalog.CustomRolePrice
	default:
		return nil, fmt.Errorf("renew %q: %w", product, ErrUnknownProduct)
	}

	now := s.now().UTC()
	receipt := &models.Receipt{Product: product, Price: price}
	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		switch product {
		case ProductSubscription:
			if !snap.SubscriptionActive(userId, now, s.subscriptionLifetime) {
				return ErrNothingToRenew
			}
			if err := debit(snap, userId, price); err != nil {
				return err
			}
			snap.Subscription[userId] = now
		case ProductCustomRole:
			g, ok := snap.ShopRole[userId]
			if !ok || now.Sub(g.StartedAt) >= s.customRoleLifetime {
				return ErrNothingToRenew
			}
			if err := debit(snap, userId, price); err != nil {
				return err
			}
			g.StartedAt = now
		}
		receipt.NewBalance = snap.Wallet[userId]
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Purchase renewed",
		zap.String("user_id", userId),
		zap.String("product", product),
		zap.Int64("new_balance", receipt.NewBalance))
	return receipt, nil
}

func (s *Service) notifyAdmins(ctx context.Context, guildId, text string) {
	admins, err := s.platform.ListAdmins(ctx, guildId)
	if err != nil {
		zap.L().Warn("Failed to list admins", zap.String("guild_id", guildId), zap.Error(err))
		return
	}
	for _, adminId := range admins {
		if err := s.platform.SendDirect(ctx, adminId, platform.Message{Content: text}); err != nil {
			zap.L().Debug("Failed to notify admin",
				zap.String("admin_id", adminId),
				zap.Error(err))
		}
	}
}

// CustomRoleName is the buyer's lowercase name followed by four random digits
func CustomRoleName(username string) string {
	base := strings.ToLower(strings.TrimSpace(username))
	if i := strings.Index(base, "#"); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		base = "member"
	}
	return fmt.Sprintf("%s %04d", base, rand.IntN(10000))
}
