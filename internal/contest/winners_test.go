package contest

import (
	"testing"
	"time"

	"github.com/aliasqar1/tets/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func subs(pairs ...string) []models.Submission {
	out := make([]models.Submission, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.Submission{UserId: pairs[i], Code: pairs[i+1]})
	}
	return out
}

func TestSelectWinners(t *testing.T) {
	tests := []struct {
		name        string
		submissions []models.Submission
		secret      string
		expected    []string
	}{
		{
			name:        "wrong first guess and duplicate correct guess",
			submissions: subs("u1", "wrong", "u2", "abc", "u1", "abc", "u3", "abc"),
			secret:      "abc",
			expected:    []string{"u2", "u1"},
		},
		{
			name:        "repeat correct guesses from one user",
			submissions: subs("u1", "abc", "u1", "abc", "u1", "abc"),
			secret:      "abc",
			expected:    []string{"u1"},
		},
		{
			name:        "no correct guesses",
			submissions: subs("u1", "x", "u2", "y"),
			secret:      "abc",
			expected:    nil,
		},
		{
			name:        "case sensitive",
			submissions: subs("u1", "ABC", "u2", "abc"),
			secret:      "abc",
			expected:    []string{"u2"},
		},
		{
			name:        "empty secret never matches",
			submissions: subs("u1", ""),
			secret:      "",
			expected:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, SelectWinners(tt.submissions, tt.secret))
		})
	}
}

func TestPlacePrize(t *testing.T) {
	tests := []struct {
		name     string
		prize    int64
		place    int
		share    decimal.Decimal
		expected int64
	}{
		{name: "first place full prize", prize: 1001, place: 1, share: DefaultRunnerUpShare, expected: 1001},
		{name: "second place floors half", prize: 1001, place: 2, share: DefaultRunnerUpShare, expected: 500},
		{name: "custom share", prize: 1000, place: 2, share: decimal.RequireFromString("0.25"), expected: 250},
		{name: "third place unpaid", prize: 1000, place: 3, share: DefaultRunnerUpShare, expected: 0},
		{name: "zero prize", prize: 0, place: 2, share: DefaultRunnerUpShare, expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, PlacePrize(tt.prize, tt.place, tt.share))
		})
	}
}

func TestPayouts(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &models.Contest{
		SecretCode:  "abc",
		Prize:       300,
		Submissions: subs("u1", "wrong", "u2", "abc", "u1", "abc", "u3", "abc"),
	}

	winners := Payouts(c, DefaultRunnerUpShare, at)
	require.Equal(t, []models.Winner{
		{UserId: "u2", Place: 1, Amount: 300, Time: at},
		{UserId: "u1", Place: 2, Amount: 150, Time: at},
	}, winners)
}
