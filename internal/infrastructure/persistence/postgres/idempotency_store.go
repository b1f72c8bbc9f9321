package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// IdempotencyStore caches serialized responses keyed by the caller-supplied
// idempotency key. Rows are write-once: the unique constraint arbitrates
// concurrent writers and the first response wins.
type IdempotencyStore struct {
	q Executor
}

func NewIdempotencyStore(db *DB) *IdempotencyStore {
	return &IdempotencyStore{q: db.Pool}
}

// GetCachedResponse returns the stored response or (nil, nil) on a miss.
func (s *IdempotencyStore) GetCachedResponse(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT response_body FROM idempotency_keys WHERE key = $1`

	var body []byte
	err := s.q.QueryRow(ctx, query, key).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}

	return body, nil
}

func (s *IdempotencyStore) SaveResponse(ctx context.Context, key string, response []byte) error {
	query := `
		INSERT INTO idempotency_keys (key, response_body, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := s.q.Exec(ctx, query, key, response, time.Now().UTC())
	if err != nil {
		if IsUniqueViolation(err) {
			// a concurrent request already recorded this key
			return nil
		}
		return fmt.Errorf("failed to save idempotent response: %w", err)
	}

	return nil
}
