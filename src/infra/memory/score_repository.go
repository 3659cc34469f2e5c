package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/critterbyte/arcade-api/src/domain/score"
	"github.com/critterbyte/arcade-api/src/domain/shared"
)

// ScoreRepository implements score.Repository using in-memory storage. It is
// used in tests and for local development without Postgres. Entries are
// append-only; ranked reads re-sort on every call so results always match the
// full-sort definition.
type ScoreRepository struct {
	mu      sync.RWMutex
	nextID  shared.EntryID
	entries []*score.Entry

	// Clock is the timestamp source for CreatedAt; tests override it to
	// pin timestamps.
	Clock func() time.Time
}

// NewScoreRepository creates a new in-memory score repository.
func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{
		nextID: 1,
		Clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Insert appends one entry under the write lock, so concurrent inserts each
// get a distinct ID and none are lost.
func (r *ScoreRepository) Insert(ctx context.Context, submission score.Submission) (*score.Entry, error) {
	if err := submission.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &score.Entry{
		ID:        r.nextID,
		Initials:  submission.Initials,
		Score:     submission.Score,
		Email:     submission.Email,
		CreatedAt: r.Clock(),
	}
	r.nextID++
	r.entries = append(r.entries, entry)
	return entry, nil
}

// TopN returns up to n entries ranked by score descending, earlier CreatedAt,
// then smaller ID. Fewer than n entries is not an error.
func (r *ScoreRepository) TopN(ctx context.Context, n int) ([]*score.Entry, error) {
	if n <= 0 {
		return []*score.Entry{}, nil
	}

	r.mu.RLock()
	ranked := make([]*score.Entry, len(r.entries))
	copy(ranked, r.entries)
	r.mu.RUnlock()

	sort.Slice(ranked, func(i, j int) bool { return score.Less(ranked[i], ranked[j]) })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}
