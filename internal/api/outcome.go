package api

import (
	"errors"

	"github.com/aliasqar1/tets/internal/common"
	"github.com/aliasqar1/tets/internal/contest"
	"github.com/aliasqar1/tets/internal/platform"
	"github.com/aliasqar1/tets/internal/shop"
	"github.com/aliasqar1/tets/internal/store"
)

var (
	// ErrForbidden means the invoking member lacks the capability a command needs
	ErrForbidden = errors.New("not allowed")
	// ErrNotStreamer means the member has no streamer role or no streamer profile
	ErrNotStreamer = errors.New("member is not a streamer")
	// ErrNoNewsChannel means the guild has not configured a stream news channel
	ErrNoNewsChannel = errors.New("stream news channel is not configured")
)

// Kind classifies how a command ended
type Kind int

const (
	KindOK Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindPersistence
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindPersistence:
		return "persistence"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Outcome is what the dispatch layer shows for a finished command
type Outcome struct {
	Kind    Kind
	Message string
	Err     error
}

// OK reports whether the command succeeded
func (o Outcome) OK() bool {
	return o.Kind == KindOK
}

// OutcomeOf classifies an error returned by a service operation. Errors that
// match no known sentinel are treated as persistence failures, since every
// core mutation ends in a flush.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return Outcome{Kind: KindOK}
	}

	var funds *shop.InsufficientFundsError
	switch {
	case errors.As(err, &funds):
		return Outcome{Kind: KindValidation, Message: "❌ Not enough coins. Balance: " + common.FormatCoins(funds.Balance) + ", price: " + common.FormatCoins(funds.Price), Err: err}

	case errors.Is(err, ErrForbidden), errors.Is(err, contest.ErrNotCreator):
		return Outcome{Kind: KindForbidden, Message: "❌ You are not allowed to do this.", Err: err}

	case errors.Is(err, ErrNotStreamer):
		return Outcome{Kind: KindForbidden, Message: "❌ You are not a streamer.", Err: err}

	case errors.Is(err, store.ErrInvalidInput),
		errors.Is(err, store.ErrInsufficientFunds),
		errors.Is(err, store.ErrAlreadyExists),
		errors.Is(err, store.ErrBadgeTaken),
		errors.Is(err, store.ErrBadgeSpaceExhausted),
		errors.Is(err, store.ErrContestClosed),
		errors.Is(err, shop.ErrUnknownProduct),
		errors.Is(err, shop.ErrAlreadyOwned),
		errors.Is(err, shop.ErrNothingToRenew),
		errors.Is(err, contest.ErrWrongStep),
		errors.Is(err, contest.ErrSessionActive),
		errors.Is(err, contest.ErrNoContestIds):
		return Outcome{Kind: KindValidation, Message: "❌ " + err.Error(), Err: err}

	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, platform.ErrNotFound),
		errors.Is(err, contest.ErrSessionNotFound),
		errors.Is(err, contest.ErrNoGameChannel),
		errors.Is(err, ErrNoNewsChannel):
		return Outcome{Kind: KindNotFound, Message: "❌ " + err.Error(), Err: err}

	case errors.Is(err, shop.ErrRoleUnavailable), errors.Is(err, contest.ErrAnnounceFailed):
		return Outcome{Kind: KindExternal, Message: "⚠️ " + err.Error(), Err: err}

	default:
		return Outcome{Kind: KindPersistence, Message: "❌ The change could not be saved, please try again.", Err: err}
	}
}
