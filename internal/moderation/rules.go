package moderation

import (
	"fmt"
	"time"
)

// Warning thresholds
const (
	SuppressThreshold = 3
	BanThreshold      = 5
)

// SuppressDuration is how long a member is timed out once they reach SuppressThreshold
const SuppressDuration = 7 * 24 * time.Hour

// Action is the enforcement that follows a warning count change
type Action int

const (
	ActionNone Action = iota
	ActionSuppress
	ActionLift
	ActionBan
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionSuppress:
		return "suppress"
	case ActionLift:
		return "lift"
	case ActionBan:
		return "ban"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Decision is an action plus the timeout window it applies, if any
type Decision struct {
	Action   Action
	Duration time.Duration
}

// Evaluate maps a warning transition to an enforcement decision.
// Reaching the ban threshold bans without suppressing first; re-applying a
// suppression while already suppressed refreshes the window.
func Evaluate(before, after int) Decision {
	switch {
	case after >= BanThreshold:
		return Decision{Action: ActionBan}
	case after >= SuppressThreshold:
		return Decision{Action: ActionSuppress, Duration: SuppressDuration}
	case before >= SuppressThreshold:
		return Decision{Action: ActionLift}
	default:
		return Decision{Action: ActionNone}
	}
}

// BanReason is the audit log reason attached to an automatic ban
func BanReason(count int) string {
	return fmt.Sprintf("reached %d warnings", count)
}
