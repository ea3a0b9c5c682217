package contest

import (
	"time"

	"github.com/aliasqar1/tets/internal/models"

	"github.com/shopspring/decimal"
)

// MaxWinners is the number of paid places
const MaxWinners = 2

// DefaultRunnerUpShare is the fraction of the prize paid to second place
var DefaultRunnerUpShare = decimal.NewFromFloat(0.5)

// SelectWinners scans submissions in order and returns the first MaxWinners
// distinct users whose code matches secret. A wrong guess does not
// disqualify a later correct one.
func SelectWinners(submissions []models.Submission, secret string) []string {
	if secret == "" {
		return nil
	}
	var winners []string
	seen := make(map[string]bool, MaxWinners)
	for _, s := range submissions {
		if s.Code != secret || seen[s.UserId] {
			continue
		}
		seen[s.UserId] = true
		winners = append(winners, s.UserId)
		if len(winners) == MaxWinners {
			break
		}
	}
	return winners
}

// PlacePrize returns the payout for a 1-based place
func PlacePrize(prize int64, place int, runnerUpShare decimal.Decimal) int64 {
	switch place {
	case 1:
		return prize
	case 2:
		return decimal.NewFromInt(prize).Mul(runnerUpShare).Floor().IntPart()
	default:
		return 0
	}
}

// Payouts turns a contest's submissions into paid placements
func Payouts(c *models.Contest, runnerUpShare decimal.Decimal, at time.Time) []models.Winner {
	userIds := SelectWinners(c.Submissions, c.SecretCode)
	winners := make([]models.Winner, 0, len(userIds))
	for i, userId := range userIds {
		winners = append(winners, models.Winner{
			UserId: userId,
			Place:  i + 1,
			Amount: PlacePrize(c.Prize, i+1, runnerUpShare),
			Time:   at,
		})
	}
	return winners
}
