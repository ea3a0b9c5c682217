package store

import (
	"context"
	"errors"
	"time"

	"github.com/aliasqar1/tets/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound            = errors.New("record not found")
	ErrAlreadyExists       = errors.New("record already exists")
	ErrInsufficientFunds   = errors.New("insufficient balance")
	ErrInvalidInput        = errors.New("invalid input")
	ErrBadgeSpaceExhausted = errors.New("no free badge codes left")
	ErrBadgeTaken          = errors.New("badge code already assigned")
	ErrContestClosed       = errors.New("contest is closed")
	ErrClosed              = errors.New("store is closed")
)

// Badge code range, inclusive
const (
	MinBadgeCode = 2000
	MaxBadgeCode = 9999
)

// SnapshotFunc mutates the primary document. Returning an error discards every change it made.
type SnapshotFunc func(s *models.Snapshot) error

// StreamFunc mutates the stream document. Returning an error discards every change it made.
type StreamFunc func(d *models.StreamDocument) error

// BothFunc mutates both documents as one unit.
type BothFunc func(s *models.Snapshot, d *models.StreamDocument) error

// RegisterStreamerParams contains the fields collected when registering a streamer.
type RegisterStreamerParams struct {
	UserId     string
	BannerUrl  string
	InviteLink string
	StreamLink string
	Now        time.Time
}

// ExpiredGrant is a custom role grant removed by an expiry pass.
type ExpiredGrant struct {
	UserId string
	Grant  models.CustomRoleGrant
}

// DepartedMember lists what a membership-departure cleanup removed.
type DepartedMember struct {
	UserId      string
	Balance     int64
	Badge       int
	CustomRole  *models.CustomRoleGrant
	WasStreamer bool
}

// StateStore defines the contract every state backend must satisfy. Every
// mutation runs under one exclusive section covering read, modify and flush.
type StateStore interface {
	// --- Generic access ---
	View(fn func(s *models.Snapshot))
	ViewStreams(fn func(d *models.StreamDocument))
	Mutate(ctx context.Context, fn SnapshotFunc) error
	MutateStreams(ctx context.Context, fn StreamFunc) error
	MutateBoth(ctx context.Context, fn BothFunc) error

	// --- Wallet ---
	GetBalance(ctx context.Context, userId string) int64
	AdjustBalance(ctx context.Context, userId string, delta int64) (int64, error)
	CreditMany(ctx context.Context, deltas map[string]int64) error
	Debit(ctx context.Context, userId string, amount int64) (int64, error)

	// --- Warnings ---
	GetWarns(ctx context.Context, userId string) int
	AdjustWarns(ctx context.Context, userId string, delta int) (before, after int, err error)
	ResetWarns(ctx context.Context, userId string) (before int, err error)

	// --- Badges ---
	EnsureBadge(ctx context.Context, userId string) (code int, created bool, err error)
	SetBadge(ctx context.Context, userId string, code int) error

	// --- Subscriptions and custom roles ---
	StartSubscription(ctx context.Context, userId string, at time.Time) error
	ExpireSubscriptions(ctx context.Context, now time.Time, lifetime time.Duration) ([]string, error)
	ExpireCustomRoles(ctx context.Context, now time.Time, lifetime time.Duration) ([]ExpiredGrant, error)

	// --- Server settings ---
	GetServerSettings(ctx context.Context, guildId string) models.ServerSettings
	UpdateServerSettings(ctx context.Context, guildId string, fn func(ss *models.ServerSettings)) error

	// --- Contests ---
	GetContest(ctx context.Context, contestId string) (*models.Contest, error)
	OpenContests(ctx context.Context) []models.Contest
	AppendSubmission(ctx context.Context, contestId string, sub models.Submission) (int, error)

	// --- Streamers ---
	RegisterStreamer(ctx context.Context, params RegisterStreamerParams) (*models.StreamerProfile, error)
	GetStreamer(ctx context.Context, userId string) (*models.StreamerProfile, error)
	AdjustViolations(ctx context.Context, userId string, delta int) (int, error)
	RecordStreamStart(ctx context.Context, userId string, reward int64) (*models.StreamerProfile, error)
	AttributeInvite(ctx context.Context, code string, reward int64) (string, bool, error)
	SetStartStreamChannel(ctx context.Context, guildId, channelId string) error
	SetStartStreamMessage(ctx context.Context, guildId, messageId string) error
	GetStartStreamMessage(ctx context.Context, guildId string) (models.StartStreamMessage, bool)

	// --- Members ---
	RemoveMember(ctx context.Context, userId string) (*DepartedMember, error)

	// --- Lifecycle ---
	Flush(ctx context.Context) error
	Close() error
}
