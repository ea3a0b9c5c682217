package contest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/platform"
	"github.com/aliasqar1/tets/internal/store"

	"github.com/puzpuzpuz/xsync"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Contest ids are four digit numbers
const (
	minContestId = 1000
	maxContestId = 9999
)

var (
	// ErrNoGameChannel means the guild has not configured a contest channel
	ErrNoGameChannel = errors.New("contest channel is not configured")
	// ErrAnnounceFailed means the contest was stored but its announcement could not be posted
	ErrAnnounceFailed = errors.New("failed to post contest announcement")
	// ErrNoContestIds means every four digit id is in use
	ErrNoContestIds = errors.New("no free contest ids left")
)

// Draft is a contest collected from its creator but not yet registered
type Draft struct {
	CreatorId     string
	GuildId       string
	ImageUrl      string
	AttachmentUrl string
	SecretCode    string
	Prize         int64
	DurationKind  string
	DurationValue int64
}

// CoordinatorConfig contains configuration for Coordinator
type CoordinatorConfig struct {
	Store           store.StateStore
	Platform        platform.Platform
	MonitorInterval time.Duration
	RunnerUpShare   decimal.Decimal
	Now             func() time.Time
}

// SubmitResult reports how a participation attempt was recorded
type SubmitResult struct {
	Correct      bool
	Participants int
}

// Coordinator drives registered contests from open to closed. It never owns
// contest data; every read and write goes through the store by contest id.
type Coordinator struct {
	store           store.StateStore
	platform        platform.Platform
	monitorInterval time.Duration
	share           decimal.Decimal
	now             func() time.Time

	monitors *xsync.MapOf[string, context.CancelFunc]
	wg       sync.WaitGroup
}

func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	share := cfg.RunnerUpShare
	if share.IsZero() {
		share = DefaultRunnerUpShare
	}
	return &Coordinator{
		store:           cfg.Store,
		platform:        cfg.Platform,
		monitorInterval: cfg.MonitorInterval,
		share:           share,
		now:             now,
		monitors:        xsync.NewMapOf[context.CancelFunc](),
	}
}

func (c *Coordinator) RunnerUpShare() decimal.Decimal {
	return c.share
}

// Register stores a confirmed draft, posts its announcement to the game
// channel and starts its monitor. When the announcement fails the contest
// stays registered and will still close and pay out; the returned error
// wraps ErrAnnounceFailed.
func (c *Coordinator) Register(ctx context.Context, d Draft) (*models.Contest, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	settings := c.store.GetServerSettings(ctx, d.GuildId)
	if settings.GameChannelId == "" {
		return nil, ErrNoGameChannel
	}

	var contest *models.Contest
	err := c.store.Mutate(ctx, func(snap *models.Snapshot) error {
		id, err := newContestId(snap.Contests)
		if err != nil {
			return err
		}
		contest = &models.Contest{
			ContestId:     id,
			CreatorId:     d.CreatorId,
			GuildId:       d.GuildId,
			ImageUrl:      d.ImageUrl,
			AttachmentUrl: d.AttachmentUrl,
			SecretCode:    d.SecretCode,
			Prize:         d.Prize,
			DurationKind:  d.DurationKind,
			DurationValue: d.DurationValue,
			CreatedAt:     c.now().UTC(),
			Submissions:   []models.Submission{},
			Winners:       []models.Winner{},
			Status:        models.ContestOpen,
		}
		snap.Contests[id] = contest.Clone()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register contest: %w", err)
	}

	zap.L().Info("Contest registered",
		zap.String("contest_id", contest.ContestId),
		zap.String("creator_id", contest.CreatorId),
		zap.String("guild_id", contest.GuildId),
		zap.Int64("prize", contest.Prize),
		zap.Time("ends_at", contest.EndsAt()))

	var announceErr error
	messageId, err := c.platform.SendMessage(ctx, settings.GameChannelId, AnnouncementMessage(contest, c.share))
	if err != nil {
		zap.L().Error("Failed to post contest announcement",
			zap.String("contest_id", contest.ContestId),
			zap.String("channel_id", settings.GameChannelId),
			zap.Error(err))
		announceErr = fmt.Errorf("%w: %v", ErrAnnounceFailed, err)
	} else {
		contest.MessageId = messageId
		contest.ChannelId = settings.GameChannelId
		err := c.store.Mutate(ctx, func(snap *models.Snapshot) error {
			stored, ok := snap.Contests[contest.ContestId]
			if !ok {
				return fmt.Errorf("contest %s: %w", contest.ContestId, store.ErrNotFound)
			}
			stored.MessageId = messageId
			stored.ChannelId = settings.GameChannelId
			return nil
		})
		if err != nil {
			zap.L().Error("Failed to record contest announcement",
				zap.String("contest_id", contest.ContestId),
				zap.Error(err))
		}
	}

	c.startMonitor(ctx, contest.ContestId)
	return contest, announceErr
}

// Submit appends a participation attempt. The code is compared after trimming.
func (c *Coordinator) Submit(ctx context.Context, contestId, userId, code string) (SubmitResult, error) {
	code = strings.TrimSpace(code)
	contest, err := c.store.GetContest(ctx, contestId)
	if err != nil {
		return SubmitResult{}, err
	}
	if contest.IsClosed() || !c.now().Before(contest.EndsAt()) {
		return SubmitResult{}, fmt.Errorf("contest %s: %w", contestId, store.ErrContestClosed)
	}

	count, err := c.store.AppendSubmission(ctx, contestId, models.Submission{
		UserId: userId,
		Code:   code,
		Time:   c.now().UTC(),
	})
	if err != nil {
		return SubmitResult{}, err
	}

	correct := code == contest.SecretCode
	zap.L().Debug("Contest submission recorded",
		zap.String("contest_id", contestId),
		zap.String("user_id", userId),
		zap.Bool("correct", correct),
		zap.Int("participants", count))
	return SubmitResult{Correct: correct, Participants: count}, nil
}

// Close pays out a contest exactly once. closed is false when another caller
// already closed it.
func (c *Coordinator) Close(ctx context.Context, contestId string) (*models.Contest, bool, error) {
	var (
		out    *models.Contest
		closed bool
	)
	err := c.store.Mutate(ctx, func(snap *models.Snapshot) error {
		contest, ok := snap.Contests[contestId]
		if !ok {
			return fmt.Errorf("contest %s: %w", contestId, store.ErrNotFound)
		}
		if contest.IsClosed() {
			out = contest.Clone()
			return nil
		}

		at := c.now().UTC()
		contest.Winners = Payouts(contest, c.share, at)
		for _, w := range contest.Winners {
			snap.AddCoins(w.UserId, w.Amount)
		}
		contest.Status = models.ContestClosed
		contest.ClosedAt = &at
		out = contest.Clone()
		closed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !closed {
		return out, false, nil
	}

	fields := []zap.Field{
		zap.String("contest_id", contestId),
		zap.Int("participants", len(out.Submissions)),
	}
	for _, w := range out.Winners {
		fields = append(fields, zap.String("place_"+strconv.Itoa(w.Place), w.UserId))
	}
	zap.L().Info("Contest closed", fields...)

	c.announceResult(ctx, out)
	return out, true, nil
}

func (c *Coordinator) announceResult(ctx context.Context, contest *models.Contest) {
	channelId := c.store.GetServerSettings(ctx, contest.GuildId).ResultChannelId
	if channelId == "" {
		channelId = contest.ChannelId
	}
	if channelId != "" {
		if _, err := c.platform.SendMessage(ctx, channelId, ResultMessage(contest, c.share)); err != nil {
			zap.L().Warn("Failed to post contest result",
				zap.String("contest_id", contest.ContestId),
				zap.String("channel_id", channelId),
				zap.Error(err))
		}
	} else {
		zap.L().Warn("No channel to post contest result",
			zap.String("contest_id", contest.ContestId))
	}

	if contest.MessageId != "" {
		if err := c.platform.EditMessage(ctx, contest.ChannelId, contest.MessageId, FinishedMessage(contest, c.share)); err != nil {
			zap.L().Warn("Failed to mark contest announcement finished",
				zap.String("contest_id", contest.ContestId),
				zap.Error(err))
		}
	}
}

// Resume restarts monitors for every contest still open in the store.
// Contests whose end time passed while offline close on the first check.
func (c *Coordinator) Resume(ctx context.Context) int {
	open := c.store.OpenContests(ctx)
	for _, contest := range open {
		c.startMonitor(ctx, contest.ContestId)
	}
	if len(open) > 0 {
		zap.L().Info("Resumed contest monitors", zap.Int("count", len(open)))
	}
	return len(open)
}

// Stop cancels every monitor and waits for them to exit
func (c *Coordinator) Stop() {
	c.monitors.Range(func(id string, cancel context.CancelFunc) bool {
		cancel()
		return true
	})
	c.wg.Wait()
}

// Monitoring reports whether a monitor is running for the contest
func (c *Coordinator) Monitoring(contestId string) bool {
	_, ok := c.monitors.Load(contestId)
	return ok
}

func (c *Coordinator) startMonitor(parent context.Context, contestId string) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	if _, loaded := c.monitors.LoadOrStore(contestId, cancel); loaded {
		cancel()
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.monitors.Delete(contestId)
		defer cancel()
		c.monitor(ctx, contestId)
	}()
}

// monitor refreshes the participant counter until the contest ends, then closes it
func (c *Coordinator) monitor(ctx context.Context, contestId string) {
	ticker := time.NewTicker(c.monitorInterval)
	defer ticker.Stop()

	lastCount := -1
	for {
		contest, err := c.store.GetContest(ctx, contestId)
		if err != nil {
			zap.L().Warn("Contest monitor stopping, contest unavailable",
				zap.String("contest_id", contestId),
				zap.Error(err))
			return
		}
		if contest.IsClosed() {
			return
		}

		remaining := contest.EndsAt().Sub(c.now())
		if remaining <= 0 {
			if _, _, err := c.Close(ctx, contestId); err != nil {
				zap.L().Error("Failed to close contest",
					zap.String("contest_id", contestId),
					zap.Error(err))
			}
			return
		}

		if count := len(contest.Submissions); count != lastCount && contest.MessageId != "" {
			if err := c.platform.EditMessage(ctx, contest.ChannelId, contest.MessageId, CounterMessage(contest, c.share)); err != nil {
				zap.L().Debug("Failed to refresh contest counter",
					zap.String("contest_id", contestId),
					zap.Error(err))
			} else {
				lastCount = count
			}
		}

		end := time.NewTimer(remaining)
		select {
		case <-ticker.C:
		case <-end.C:
		case <-ctx.Done():
			end.Stop()
			return
		}
		end.Stop()
	}
}

// Validate checks a draft before it is registered
func (d Draft) Validate() error {
	switch {
	case d.CreatorId == "" || d.GuildId == "":
		return fmt.Errorf("contest needs a creator and a guild: %w", store.ErrInvalidInput)
	case strings.TrimSpace(d.SecretCode) == "":
		return fmt.Errorf("secret code is empty: %w", store.ErrInvalidInput)
	case d.Prize < 0:
		return fmt.Errorf("prize must not be negative: %w", store.ErrInvalidInput)
	case d.DurationKind != models.DurationSeconds && d.DurationKind != models.DurationDays:
		return fmt.Errorf("unknown duration kind %q: %w", d.DurationKind, store.ErrInvalidInput)
	case d.DurationValue <= 0:
		return fmt.Errorf("duration must be positive: %w", store.ErrInvalidInput)
	}
	return nil
}

func newContestId(existing map[string]*models.Contest) (string, error) {
	span := maxContestId - minContestId + 1
	start := rand.IntN(span)
	for i := 0; i < span; i++ {
		id := strconv.Itoa(minContestId + (start+i)%span)
		if _, taken := existing[id]; !taken {
			return id, nil
		}
	}
	return "", ErrNoContestIds
}
