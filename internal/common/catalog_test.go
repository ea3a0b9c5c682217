package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCatalog_MissingFileUsesDefaults(t *testing.T) {
	catalog, err := LoadCatalog(filepath.Join(t.TempDir(), "catalog.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultCatalog(), catalog)
}

func TestLoadCatalog_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
subscription_price: 100
member_orders:
  - key: badge-number
    label: Custom badge
    price: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Equal(t, int64(100), catalog.SubscriptionPrice)
	require.Equal(t, int64(1000000), catalog.CustomRolePrice)
	require.Len(t, catalog.MemberOrders, 1)

	item, ok := catalog.FindOrder(CategoryMember, "badge-number")
	require.True(t, ok)
	require.Equal(t, int64(7), item.Price)
	_, ok = catalog.FindOrder(CategoryMember, "profile-logo")
	require.False(t, ok)
}

func TestLoadCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "subscription_price: [oops"},
		{name: "zero price", content: "custom_role_price: 0"},
		{name: "missing key", content: "streamer_orders:\n  - label: Logo\n    price: 5\n"},
		{name: "duplicate key", content: "member_orders:\n  - {key: a, price: 1}\n  - {key: a, price: 2}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadCatalog(path)
			require.Error(t, err)
		})
	}
}

func TestCatalogRoles(t *testing.T) {
	c := DefaultCatalog()
	require.True(t, c.IsAdmin([]string{"member", "Admin"}))
	require.False(t, c.IsAdmin([]string{"Administrator"}))
	require.True(t, c.IsStreamer([]string{"استریمر"}))
	require.False(t, c.IsStreamer(nil))
}
