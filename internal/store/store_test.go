package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// Compile-time checks that the interface is importable and usable.
func TestStateStoreInterfaceExists(t *testing.T) {
	errs := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInsufficientFunds,
		ErrInvalidInput,
		ErrBadgeSpaceExhausted,
		ErrBadgeTaken,
		ErrContestClosed,
		ErrClosed,
	}
	for i, a := range errs {
		for j, b := range errs {
			if i != j {
				require.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
	_ = RegisterStreamerParams{}

	var _ StateStore
}

func TestBadgeRange(t *testing.T) {
	require.Equal(t, 2000, MinBadgeCode)
	require.Equal(t, 9999, MaxBadgeCode)
}
