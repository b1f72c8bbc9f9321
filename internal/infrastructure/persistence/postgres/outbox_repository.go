package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gamehub/payment-service/internal/domain"
)

// OutboxRepository stores integration events next to the state change that
// produced them and tracks delivery.
type OutboxRepository struct {
	q Executor
}

func NewOutboxRepository(db *DB) *OutboxRepository {
	return &OutboxRepository{q: db.Pool}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	query := `
		INSERT INTO outbox_messages (id, type, payload, occurred_at, sent_at, attempts)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.Exec(ctx, query,
		msg.ID,
		msg.Type,
		msg.Payload,
		msg.OccurredAt,
		msg.SentAt,
		msg.Attempts,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox message: %w", err)
	}

	return nil
}

// FindUnsent selects undelivered messages, oldest occurred-time first.
func (r *OutboxRepository) FindUnsent(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	query := `
		SELECT id, type, payload, occurred_at, sent_at, attempts
		FROM outbox_messages
		WHERE sent_at IS NULL
		ORDER BY occurred_at ASC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unsent outbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.OutboxMessage, error) {
		var m domain.OutboxMessage
		err := row.Scan(&m.ID, &m.Type, &m.Payload, &m.OccurredAt, &m.SentAt, &m.Attempts)
		return &m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan unsent outbox messages: %w", err)
	}

	return messages, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE outbox_messages SET sent_at = $1 WHERE id = $2`

	result, err := r.q.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox message sent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("outbox message %s not found", id)
	}

	return nil
}

func (r *OutboxRepository) RecordFailure(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE outbox_messages SET attempts = attempts + 1 WHERE id = $1`

	if _, err := r.q.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to record outbox delivery failure: %w", err)
	}

	return nil
}
