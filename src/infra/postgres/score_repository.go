package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/critterbyte/arcade-api/src/domain/score"
	"github.com/critterbyte/arcade-api/src/domain/shared"
)

const schema = `
CREATE TABLE IF NOT EXISTS high_scores (
	id         BIGSERIAL PRIMARY KEY,
	initials   VARCHAR(3) NOT NULL,
	score      INTEGER NOT NULL CHECK (score >= 0),
	email      VARCHAR(255),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// ScoreRepository implements score.Repository on a pgx connection pool. The
// BIGSERIAL sequence is the atomic id allocator: concurrent inserts never
// race in application code.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// Connect opens a pool and verifies the connection.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the high_scores table when it does not exist yet.
func (r *ScoreRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", storeErr(err))
	}
	return nil
}

// Ping reports store reachability for health checks.
func (r *ScoreRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return storeErr(err)
	}
	return nil
}

// Insert persists one submission in a single statement. The RETURNING clause
// hands back the id and timestamp the database assigned, so a failed insert
// leaves nothing behind and a successful one is immediately visible to reads.
func (r *ScoreRepository) Insert(ctx context.Context, submission score.Submission) (*score.Entry, error) {
	if err := submission.Validate(); err != nil {
		return nil, err
	}

	entry := &score.Entry{
		Initials: submission.Initials,
		Score:    submission.Score,
		Email:    submission.Email,
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO high_scores (initials, score, email)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		submission.Initials, submission.Score, submission.Email,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert high score: %w", storeErr(err))
	}
	return entry, nil
}

// TopN ranks by score descending with created_at and id as tie-breaks, the
// same total order the domain comparator defines.
func (r *ScoreRepository) TopN(ctx context.Context, n int) ([]*score.Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, initials, score, email, created_at
		 FROM high_scores
		 ORDER BY score DESC, created_at ASC, id ASC
		 LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query top scores: %w", storeErr(err))
	}
	defer rows.Close()

	entries := make([]*score.Entry, 0, n)
	for rows.Next() {
		entry := &score.Entry{}
		if err := rows.Scan(&entry.ID, &entry.Initials, &entry.Score, &entry.Email, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan high score: %w", storeErr(err))
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read top scores: %w", storeErr(err))
	}
	return entries, nil
}

// storeErr maps database failures onto the domain taxonomy. Constraint
// violations mean invalid data slipped past validation; anything else is
// infrastructure.
func storeErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.CheckViolation:
			return score.ErrInvalidScore
		case pgerrcode.StringDataRightTruncationDataException:
			return score.ErrInvalidInitials
		}
	}
	return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
}
