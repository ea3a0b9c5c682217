package models

import (
	"math"
	"time"
)

// Contest duration kinds
const (
	DurationSeconds = "seconds"
	DurationDays    = "days"
)

// Contest statuses
const (
	ContestOpen   = "open"
	ContestClosed = "closed"
)

// Snapshot is the primary state document (data.json)
type Snapshot struct {
	Wallet         map[string]int64            `json:"wallet"`
	Subscription   map[string]time.Time        `json:"subscription"`
	Warns          map[string]int              `json:"warns"`
	Badges         map[string]int              `json:"badges"`
	Contests       map[string]*Contest         `json:"contests"`
	ServerSettings map[string]*ServerSettings  `json:"server_settings"`
	ShopRole       map[string]*CustomRoleGrant `json:"shoprole"`
	Orders         []Order                     `json:"orders"`
}

// CustomRoleGrant is a purchased, per-user role created for that user
type CustomRoleGrant struct {
	GuildId   string    `json:"guild_id"`
	RoleId    string    `json:"role_id"`
	StartedAt time.Time `json:"start_date"`
}

// ServerSettings holds per-guild channel configuration. Empty means unconfigured.
type ServerSettings struct {
	GameChannelId   string `json:"game_channel_id,omitempty"`
	ResultChannelId string `json:"result_channel_id,omitempty"`
	NewsChannelId   string `json:"stream_news_channel_id,omitempty"`
	StartChannelId  string `json:"stream_start_channel_id,omitempty"`
}

// Contest is a time-boxed code-guessing event
type Contest struct {
	ContestId     string       `json:"contest_id"`
	CreatorId     string       `json:"creator_id"`
	GuildId       string       `json:"guild_id"`
	ImageUrl      string       `json:"image_url"`
	AttachmentUrl string       `json:"attachment_url,omitempty"`
	SecretCode    string       `json:"secret_code"`
	Prize         int64        `json:"prize"`
	DurationKind  string       `json:"duration_type"`
	DurationValue int64        `json:"duration_value"`
	CreatedAt     time.Time    `json:"created_at"`
	Submissions   []Submission `json:"submissions"`
	Winners       []Winner     `json:"winners"`
	MessageId     string       `json:"message_id,omitempty"`
	ChannelId     string       `json:"channel_id,omitempty"`
	Status        string       `json:"status,omitempty"`
	ClosedAt      *time.Time   `json:"closed_at,omitempty"`
}

// Submission is one entry in a contest's append-only submission log
type Submission struct {
	UserId string    `json:"user_id"`
	Code   string    `json:"code"`
	Time   time.Time `json:"time"`
}

// Winner is a paid contest placement
type Winner struct {
	UserId string    `json:"user_id"`
	Place  int       `json:"place"`
	Amount int64     `json:"amount"`
	Time   time.Time `json:"time"`
}

// Order is a confirmed special-order purchase awaiting admin fulfilment
type Order struct {
	Id        string    `json:"id"`
	UserId    string    `json:"user_id"`
	GuildId   string    `json:"guild_id"`
	Category  string    `json:"category"`
	Item      string    `json:"item"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// EndsAt returns the wall-clock close time of the contest
func (c *Contest) EndsAt() time.Time {
	if c.DurationKind == DurationDays {
		return c.CreatedAt.Add(time.Duration(c.DurationValue) * 24 * time.Hour)
	}
	return c.CreatedAt.Add(time.Duration(c.DurationValue) * time.Second)
}

// IsClosed reports whether the contest has been paid out
func (c *Contest) IsClosed() bool {
	return c.Status == ContestClosed
}

// NewSnapshot returns a document with every top-level collection present
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.Normalize()
	return s
}

// Normalize fills in collections missing from an older or partial document
func (s *Snapshot) Normalize() {
	if s.Wallet == nil {
		s.Wallet = make(map[string]int64)
	}
	if s.Subscription == nil {
		s.Subscription = make(map[string]time.Time)
	}
	if s.Warns == nil {
		s.Warns = make(map[string]int)
	}
	if s.Badges == nil {
		s.Badges = make(map[string]int)
	}
	if s.Contests == nil {
		s.Contests = make(map[string]*Contest)
	}
	if s.ServerSettings == nil {
		s.ServerSettings = make(map[string]*ServerSettings)
	}
	if s.ShopRole == nil {
		s.ShopRole = make(map[string]*CustomRoleGrant)
	}
	if s.Orders == nil {
		s.Orders = []Order{}
	}
	for id, c := range s.Contests {
		if c == nil {
			delete(s.Contests, id)
			continue
		}
		if c.Submissions == nil {
			c.Submissions = []Submission{}
		}
		if c.Winners == nil {
			c.Winners = []Winner{}
		}
		if c.Status == "" {
			c.Status = ContestOpen
		}
	}
	for id, g := range s.ShopRole {
		if g == nil {
			delete(s.ShopRole, id)
		}
	}
	for id, ss := range s.ServerSettings {
		if ss == nil {
			delete(s.ServerSettings, id)
		}
	}
	for uid, bal := range s.Wallet {
		if bal < 0 {
			s.Wallet[uid] = 0
		}
	}
	for uid, n := range s.Warns {
		if n < 0 {
			s.Warns[uid] = 0
		}
	}
}

// AddCoins applies a wallet delta, clamping at zero and saturating at
// math.MaxInt64, and returns the new balance
func (s *Snapshot) AddCoins(userId string, delta int64) int64 {
	cur := s.Wallet[userId]
	bal := cur + delta
	switch {
	case delta > 0 && bal < cur:
		bal = math.MaxInt64
	case bal < 0:
		bal = 0
	}
	s.Wallet[userId] = bal
	return bal
}

// Settings returns the guild's settings record, creating it when absent
func (s *Snapshot) Settings(guildId string) *ServerSettings {
	ss, ok := s.ServerSettings[guildId]
	if !ok {
		ss = &ServerSettings{}
		s.ServerSettings[guildId] = ss
	}
	return ss
}

// SubscriptionActive reports whether userId holds an unexpired subscription at now
func (s *Snapshot) SubscriptionActive(userId string, now time.Time, lifetime time.Duration) bool {
	started, ok := s.Subscription[userId]
	return ok && now.Sub(started) < lifetime
}

// Clone returns a deep copy of the contest
func (c *Contest) Clone() *Contest {
	out := *c
	out.Submissions = append([]Submission(nil), c.Submissions...)
	out.Winners = append([]Winner(nil), c.Winners...)
	if c.ClosedAt != nil {
		closedAt := *c.ClosedAt
		out.ClosedAt = &closedAt
	}
	return &out
}
