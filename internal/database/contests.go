package database

import (
	"context"
	"fmt"
	"sort"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/store"
)

// GetContest returns a copy of the contest record
func (s *Service) GetContest(ctx context.Context, contestId string) (*models.Contest, error) {
	var out *models.Contest
	s.View(func(snap *models.Snapshot) {
		if c, ok := snap.Contests[contestId]; ok {
			out = c.Clone()
		}
	})
	if out == nil {
		return nil, fmt.Errorf("contest %s: %w", contestId, store.ErrNotFound)
	}
	return out, nil
}

// OpenContests returns copies of every contest not yet paid out, oldest first
func (s *Service) OpenContests(ctx context.Context) []models.Contest {
	var out []models.Contest
	s.View(func(snap *models.Snapshot) {
		for _, c := range snap.Contests {
			if !c.IsClosed() {
				out = append(out, *c.Clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// AppendSubmission appends to the contest's ordered log and returns the new submission count
func (s *Service) AppendSubmission(ctx context.Context, contestId string, sub models.Submission) (int, error) {
	var count int
	err := s.Mutate(ctx, func(snap *models.Snapshot) error {
		c, ok := snap.Contests[contestId]
		if !ok {
			return fmt.Errorf("contest %s: %w", contestId, store.ErrNotFound)
		}
		if c.IsClosed() {
			return fmt.Errorf("contest %s: %w", contestId, store.ErrContestClosed)
		}
		c.Submissions = append(c.Submissions, sub)
		count = len(c.Submissions)
		return nil
	})
	return count, err
}
