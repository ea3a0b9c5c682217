package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Discord DiscordConfig
	Store   StoreConfig
	Sweeper SweeperConfig
	Contest ContestConfig
	Economy EconomyConfig
	Timer   TimerConfig
	Shop    ShopConfig
}

// DiscordConfig holds gateway credentials and command registration scope
type DiscordConfig struct {
	Token         string
	ApplicationId string
	GuildId       string // empty registers commands globally
	RemoveOnStop  bool
}

// StoreConfig holds the locations of the two state documents
type StoreConfig struct {
	DataFile   string
	StreamFile string
	Indent     bool
}

// SweeperConfig holds expiry sweep settings
type SweeperConfig struct {
	Interval             time.Duration
	SubscriptionLifetime time.Duration
	CustomRoleLifetime   time.Duration
}

// ContestConfig holds contest lifecycle settings
type ContestConfig struct {
	StepTimeout     time.Duration
	MonitorInterval time.Duration
	RunnerUpShare   decimal.Decimal
}

// EconomyConfig holds listener reward loop settings
type EconomyConfig struct {
	VoiceTickInterval time.Duration
	DedupRetention    time.Duration
	CleanupInterval   time.Duration
}

// TimerConfig holds countdown timer settings
type TimerConfig struct {
	Duration        time.Duration
	RefreshInterval time.Duration
	WarnBefore      time.Duration
}

// ShopConfig holds the catalog location
type ShopConfig struct {
	CatalogFile string
}
