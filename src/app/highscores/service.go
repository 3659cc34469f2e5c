package highscores

import (
	"context"

	"github.com/critterbyte/arcade-api/src/domain/score"
)

// TopSize is how many entries the public leaderboard shows.
const TopSize = 10

type Repository interface {
	score.Repository
}

// Service coordinates high-score reads, submissions, and the qualification
// check. It holds no state of its own; everything lives in the repository,
// which also assigns ids and timestamps.
type Service struct {
	Repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{Repo: repo}
}

// SubmitCommand contains parameters for recording an end-of-game score.
type SubmitCommand struct {
	Initials string
	Score    int64
	Email    *string
}

// GetTop10 returns the current leaderboard, highest score first.
func (s *Service) GetTop10(ctx context.Context) ([]*score.Entry, error) {
	return s.Repo.TopN(ctx, TopSize)
}

// Submit validates and persists a score. Validation runs before any store
// interaction, so a rejected submission leaves no partial state behind.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*score.Entry, error) {
	submission := score.Submission{
		Initials: cmd.Initials,
		Score:    cmd.Score,
		Email:    cmd.Email,
	}
	if err := submission.Validate(); err != nil {
		return nil, err
	}
	return s.Repo.Insert(ctx, submission.Normalize())
}

// CheckQualifies reports whether candidate would currently place in the top
// ten. With fewer than ten entries any candidate qualifies; otherwise it must
// strictly beat the tenth-ranked score. The check is advisory only: it does
// not reserve a slot, and a concurrent submission can make the answer stale
// by the time the caller acts on it.
func (s *Service) CheckQualifies(ctx context.Context, candidate int64) (bool, error) {
	if candidate < 0 {
		return false, score.ErrInvalidScore
	}
	top, err := s.Repo.TopN(ctx, TopSize)
	if err != nil {
		return false, err
	}
	if len(top) < TopSize {
		return true, nil
	}
	return candidate > top[len(top)-1].Score, nil
}
