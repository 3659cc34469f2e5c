package score

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/critterbyte/arcade-api/src/domain/shared"
)

const initialsLength = 3

// Entry is one persisted leaderboard record. Entries are append-only: the
// store assigns ID and CreatedAt at insert time and never mutates them after.
type Entry struct {
	ID        shared.EntryID
	Initials  string
	Score     int64
	Email     *string
	CreatedAt time.Time
}

// Submission carries a candidate entry before it is persisted.
type Submission struct {
	Initials string
	Score    int64
	Email    *string
}

// Validate checks the submission against the storage contract: initials of
// exactly three characters as given (no trimming), a non-negative score, and
// an email that is either absent or plausibly shaped.
func (s Submission) Validate() error {
	if utf8.RuneCountInString(s.Initials) != initialsLength {
		return ErrInvalidInitials
	}
	if s.Score < 0 {
		return ErrInvalidScore
	}
	if s.Email != nil {
		if at := strings.IndexByte(*s.Email, '@'); at <= 0 || at == len(*s.Email)-1 {
			return ErrInvalidEmail
		}
	}
	return nil
}

// Normalize uppercases initials and maps an empty email to absent. It returns
// a copy; submissions themselves are immutable values.
func (s Submission) Normalize() Submission {
	out := s
	out.Initials = strings.ToUpper(s.Initials)
	if s.Email != nil && strings.TrimSpace(*s.Email) == "" {
		out.Email = nil
	}
	return out
}

// Less reports whether a ranks ahead of b. The ordering is total: score
// descending, then earlier CreatedAt, then smaller ID. CreatedAt alone is not
// enough because two inserts can land within the same timer resolution.
func Less(a, b *Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
