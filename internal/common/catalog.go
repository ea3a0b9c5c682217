package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Order categories
const (
	CategoryStreamer = "streamer"
	CategoryMember   = "member"
)

type CatalogItem struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
	Price int64  `yaml:"price"`
}

// Catalog holds shop prices, special-order items and the role names the bot
// looks up by name
type Catalog struct {
	SubscriptionPrice int64         `yaml:"subscription_price"`
	CustomRolePrice   int64         `yaml:"custom_role_price"`
	SubscriberRole    string        `yaml:"subscriber_role"`
	AdminRoles        []string      `yaml:"admin_roles"`
	StreamerRoles     []string      `yaml:"streamer_roles"`
	StreamerOrders    []CatalogItem `yaml:"streamer_orders"`
	MemberOrders      []CatalogItem `yaml:"member_orders"`
}

func DefaultCatalog() *Catalog {
	return &Catalog{
		SubscriptionPrice: 75000,
		CustomRolePrice:   1000000,
		SubscriberRole:    "sub (1)",
		AdminRoles:        []string{"ادمین", "Admin", "admin"},
		StreamerRoles:     []string{"استریمر", "استریمر پلاسما"},
		StreamerOrders: []CatalogItem{
			{Key: "logo", Label: "Logo design", Price: 10000},
			{Key: "offline-banner", Label: "Off-stream banner design", Price: 2000},
			{Key: "description-image", Label: "Stream description image", Price: 5000},
			{Key: "start-info", Label: "Start-stream info change", Price: 3000},
			{Key: "stream-pack", Label: "Stream pack design", Price: 10000},
		},
		MemberOrders: []CatalogItem{
			{Key: "badge-number", Label: "Custom badge number", Price: 20000},
			{Key: "profile-logo", Label: "Profile logo design", Price: 5000},
			{Key: "master-money", Label: "Master money", Price: 50000},
		},
	}
}

// LoadCatalog reads the shop catalog. A missing file yields the built-in
// defaults; a present but invalid file is an error.
func LoadCatalog(catalogFile string) (*Catalog, error) {
	if catalogFile == "" {
		return DefaultCatalog(), nil
	}

	var catalogPath string
	if filepath.IsAbs(catalogFile) {
		catalogPath = catalogFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		catalogPath = filepath.Join(wd, catalogFile)
	}

	data, err := os.ReadFile(catalogPath)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Info("No catalog file, using built-in prices", zap.String("file", catalogPath))
		return DefaultCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", catalogFile, err)
	}

	catalog := DefaultCatalog()
	if err := yaml.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", catalogFile, err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", catalogFile, err)
	}
	return catalog, nil
}

func (c *Catalog) Validate() error {
	if c.SubscriptionPrice <= 0 {
		return fmt.Errorf("subscription_price must be positive")
	}
	if c.CustomRolePrice <= 0 {
		return fmt.Errorf("custom_role_price must be positive")
	}
	if len(c.AdminRoles) == 0 {
		return fmt.Errorf("admin_roles must not be empty")
	}
	for category, items := range map[string][]CatalogItem{
		CategoryStreamer: c.StreamerOrders,
		CategoryMember:   c.MemberOrders,
	} {
		seen := make(map[string]bool, len(items))
		for i, item := range items {
			if item.Key == "" {
				return fmt.Errorf("%s order at index %d missing key", category, i)
			}
			if seen[item.Key] {
				return fmt.Errorf("%s order %q listed twice", category, item.Key)
			}
			seen[item.Key] = true
			if item.Price <= 0 {
				return fmt.Errorf("%s order %q needs a positive price", category, item.Key)
			}
		}
	}
	return nil
}

// Orders returns the special-order items of a category
func (c *Catalog) Orders(category string) ([]CatalogItem, bool) {
	switch category {
	case CategoryStreamer:
		return c.StreamerOrders, true
	case CategoryMember:
		return c.MemberOrders, true
	}
	return nil, false
}

// FindOrder looks up one special-order item
func (c *Catalog) FindOrder(category, key string) (CatalogItem, bool) {
	items, ok := c.Orders(category)
	if !ok {
		return CatalogItem{}, false
	}
	for _, item := range items {
		if item.Key == key {
			return item, true
		}
	}
	return CatalogItem{}, false
}

// IsAdmin reports whether any of roleNames is an admin role
func (c *Catalog) IsAdmin(roleNames []string) bool {
	return hasAnyRole(roleNames, c.AdminRoles)
}

// IsStreamer reports whether any of roleNames is a streamer role
func (c *Catalog) IsStreamer(roleNames []string) bool {
	return hasAnyRole(roleNames, c.StreamerRoles)
}

func hasAnyRole(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if strings.TrimSpace(h) == w {
				return true
			}
		}
	}
	return false
}
