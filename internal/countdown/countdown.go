package countdown

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aliasqar1/tets/internal/platform"
	"github.com/aliasqar1/tets/internal/store"

	"github.com/puzpuzpuz/xsync"
	"go.uber.org/zap"
)

const day = 24 * time.Hour

// ErrStopped is returned by Start and Reset once Stop has been called
var ErrStopped = errors.New("countdown manager is stopped")

// Config contains configuration for Manager
type Config struct {
	Store           store.StateStore
	Messenger       platform.Messenger
	Duration        time.Duration
	RefreshInterval time.Duration
	WarnBefore      time.Duration
	Now             func() time.Time
}

// Timer is one member's running countdown and the message that displays it
type Timer struct {
	UserId    string
	ChannelId string
	MessageId string
	StartedAt time.Time
	EndsAt    time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Manager runs at most one countdown per member
type Manager struct {
	store      store.StateStore
	messenger  platform.Messenger
	duration   time.Duration
	refresh    time.Duration
	warnBefore time.Duration
	cells      int
	now        func() time.Time

	// mu guards timer replacement and stopping; wg.Add only happens under it
	mu       sync.Mutex
	stopping bool
	timers   *xsync.MapOf[string, *Timer]
	wg       sync.WaitGroup
}

func NewManager(cfg Config) *Manager {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	cells := int(cfg.Duration / day)
	if cells < 1 {
		cells = 1
	}
	return &Manager{
		store:      cfg.Store,
		messenger:  cfg.Messenger,
		duration:   cfg.Duration,
		refresh:    cfg.RefreshInterval,
		warnBefore: cfg.WarnBefore,
		cells:      cells,
		now:        now,
		timers:     xsync.NewMapOf[*Timer](),
	}
}

// Start records a fresh subscription start for userId and posts a countdown
// in channelId. A countdown already running for the member is stopped.
func (m *Manager) Start(ctx context.Context, channelId, userId string) (*Timer, error) {
	if old, ok := m.detach(userId); ok {
		m.halt(old)
	}
	return m.start(ctx, channelId, userId)
}

// Reset stops the member's countdown, marks its message as reset by actorId
// and starts a new one
func (m *Manager) Reset(ctx context.Context, channelId, userId, actorId string) (*Timer, error) {
	if old, ok := m.detach(userId); ok {
		m.halt(old)
		text := fmt.Sprintf("⏳ Timer for <@%s> was reset by <@%s>", userId, actorId)
		if err := m.messenger.EditMessage(ctx, old.ChannelId, old.MessageId, platform.Message{Content: text}); err != nil {
			zap.L().Warn("Failed to mark countdown as reset",
				zap.String("user_id", userId),
				zap.String("message_id", old.MessageId),
				zap.Error(err))
		}
	}
	return m.start(ctx, channelId, userId)
}

// Active reports whether a countdown is running for userId
func (m *Manager) Active(userId string) bool {
	_, ok := m.timers.Load(userId)
	return ok
}

// Stop refuses new countdowns, cancels every running one and waits for them
// to exit
func (m *Manager) Stop() {
	m.mu.Lock()
	m.stopping = true
	m.mu.Unlock()

	m.timers.Range(func(userId string, t *Timer) bool {
		t.cancel()
		return true
	})
	m.wg.Wait()
}

func (m *Manager) isStopping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopping
}

func (m *Manager) start(ctx context.Context, channelId, userId string) (*Timer, error) {
	if m.isStopping() {
		return nil, ErrStopped
	}

	started := m.now().UTC()
	if err := m.store.StartSubscription(ctx, userId, started); err != nil {
		return nil, fmt.Errorf("failed to record timer start: %w", err)
	}

	messageId, err := m.messenger.SendMessage(ctx, channelId, platform.Message{
		Content: fmt.Sprintf("⏳ Timer for <@%s> is starting...", userId),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to post countdown: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &Timer{
		UserId:    userId,
		ChannelId: channelId,
		MessageId: messageId,
		StartedAt: started,
		EndsAt:    started.Add(m.duration),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		cancel()
		zap.L().Warn("Countdown posted during shutdown will not run",
			zap.String("user_id", userId),
			zap.String("message_id", messageId))
		return nil, ErrStopped
	}
	previous, replaced := m.timers.Load(userId)
	m.timers.Store(userId, t)
	m.wg.Add(1)
	m.mu.Unlock()
	if replaced {
		m.halt(previous)
	}

	go m.run(runCtx, t)

	zap.L().Info("Countdown started",
		zap.String("user_id", userId),
		zap.String("channel_id", channelId),
		zap.Time("ends_at", t.EndsAt))
	return t, nil
}

func (m *Manager) detach(userId string) (*Timer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timers.LoadAndDelete(userId)
}

func (m *Manager) release(t *Timer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.timers.Load(t.UserId); ok && cur == t {
		m.timers.Delete(t.UserId)
	}
}

func (m *Manager) halt(t *Timer) {
	t.cancel()
	<-t.done
}

func (m *Manager) run(ctx context.Context, t *Timer) {
	defer m.wg.Done()
	defer close(t.done)

	ticker := time.NewTicker(m.refresh)
	defer ticker.Stop()

	warned := false
	for {
		remaining := t.EndsAt.Sub(m.now())
		if remaining <= 0 {
			m.edit(ctx, t, fmt.Sprintf("⏳ Timer for <@%s>: time is up!", t.UserId))
			m.release(t)
			zap.L().Info("Countdown finished", zap.String("user_id", t.UserId))
			return
		}

		m.edit(ctx, t, Render(t.UserId, remaining, m.cells))

		if !warned && remaining <= m.warnBefore {
			warned = true
			days := int(m.warnBefore / day)
			warning := platform.Message{Content: fmt.Sprintf("⚠️ Only %d days left for <@%s>!", days, t.UserId)}
			if _, err := m.messenger.SendMessage(ctx, t.ChannelId, warning); err != nil {
				zap.L().Warn("Failed to post countdown warning",
					zap.String("user_id", t.UserId),
					zap.Error(err))
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) edit(ctx context.Context, t *Timer, content string) {
	if err := m.messenger.EditMessage(ctx, t.ChannelId, t.MessageId, platform.Message{Content: content}); err != nil && ctx.Err() == nil {
		zap.L().Debug("Failed to refresh countdown",
			zap.String("user_id", t.UserId),
			zap.String("message_id", t.MessageId),
			zap.Error(err))
	}
}

// Render formats the remaining time as "D days HH:MM:SS" above a bar with
// one cell per day, green for elapsed days
func Render(userId string, remaining time.Duration, cells int) string {
	if remaining < 0 {
		remaining = 0
	}
	days := int(remaining / day)
	rest := remaining % day
	hours := int(rest / time.Hour)
	minutes := int(rest % time.Hour / time.Minute)
	seconds := int(rest % time.Minute / time.Second)

	progress := cells - days
	if progress < 0 {
		progress = 0
	}
	if progress > cells {
		progress = cells
	}
	bar := strings.Repeat("🟩", progress) + strings.Repeat("🟥", cells-progress)

	return fmt.Sprintf("⏳ Remaining for <@%s>: %d days %02d:%02d:%02d\n%s (%d/%d days)",
		userId, days, hours, minutes, seconds, bar, progress, cells)
}
