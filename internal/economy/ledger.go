package economy

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync"
	"go.uber.org/zap"
)

// MessageLedger remembers which message ids have already been rewarded so a
// redelivered event is not counted twice.
type MessageLedger struct {
	seen *xsync.MapOf[string, time.Time]
}

func NewMessageLedger() *MessageLedger {
	return &MessageLedger{seen: xsync.NewMapOf[time.Time]()}
}

// Claim returns true the first time a message id is offered
func (l *MessageLedger) Claim(messageId string) bool {
	if messageId == "" {
		return false
	}
	_, loaded := l.seen.LoadOrStore(messageId, time.Now())
	return !loaded
}

// Release forgets a claim so the message can be rewarded later
func (l *MessageLedger) Release(messageId string) {
	l.seen.Delete(messageId)
}

// Cleanup drops claims older than retention and returns how many were removed
func (l *MessageLedger) Cleanup(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)
	cleaned := 0
	l.seen.Range(func(id string, claimedAt time.Time) bool {
		if claimedAt.Before(cutoff) {
			l.seen.Delete(id)
			cleaned++
		}
		return true
	})
	if cleaned > 0 {
		zap.L().Debug("Cleaned up rewarded message ids",
			zap.Int("cleaned", cleaned),
			zap.Int("remaining", l.seen.Size()))
	}
	return cleaned
}

func (l *MessageLedger) Size() int {
	return l.seen.Size()
}

type reactionEntry struct {
	level   atomic.Int64
	touched atomic.Int64
}

// ReactionLedger tracks the last rewarded reaction level per message
type ReactionLedger struct {
	entries *xsync.MapOf[string, *reactionEntry]
}

func NewReactionLedger() *ReactionLedger {
	return &ReactionLedger{entries: xsync.NewMapOf[*reactionEntry]()}
}

// Advance records the current reaction count for a message and returns the
// payout for every multiple of ReactionStep crossed for the first time.
// Removing and re-adding reactions around the same multiple pays once.
func (l *ReactionLedger) Advance(messageId string, count int) int64 {
	entry, _ := l.entries.LoadOrStore(messageId, &reactionEntry{})
	entry.touched.Store(time.Now().UnixNano())

	level := int64(ReactionLevel(count))
	for {
		last := entry.level.Load()
		if level <= last {
			return 0
		}
		if entry.level.CompareAndSwap(last, level) {
			return ReactionPayout(int(last), count)
		}
	}
}

// Level returns the last rewarded level for a message
func (l *ReactionLedger) Level(messageId string) int {
	entry, ok := l.entries.Load(messageId)
	if !ok {
		return 0
	}
	return int(entry.level.Load())
}

// Cleanup drops messages with no reaction activity within retention
func (l *ReactionLedger) Cleanup(retention time.Duration) int {
	cutoff := time.Now().Add(-retention).UnixNano()
	cleaned := 0
	l.entries.Range(func(id string, entry *reactionEntry) bool {
		if entry.touched.Load() < cutoff {
			l.entries.Delete(id)
			cleaned++
		}
		return true
	})
	return cleaned
}
