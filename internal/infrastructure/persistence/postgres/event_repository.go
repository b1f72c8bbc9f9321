package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gamehub/payment-service/internal/domain"
)

// EventLogRepository persists the append-only lifecycle event log.
type EventLogRepository struct {
	q Executor
}

func NewEventLogRepository(db *DB) *EventLogRepository {
	return &EventLogRepository{q: db.Pool}
}

func (r *EventLogRepository) Append(ctx context.Context, event *domain.PaymentEvent) error {
	query := `
		INSERT INTO payment_events (id, stream_id, event_type, snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.Exec(ctx, query,
		event.ID,
		event.StreamID,
		string(event.Type),
		event.Snapshot,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append payment event: %w", err)
	}

	return nil
}

func (r *EventLogRepository) ListByStream(ctx context.Context, streamID uuid.UUID) ([]*domain.PaymentEvent, error) {
	query := `
		SELECT id, stream_id, event_type, snapshot, created_at
		FROM payment_events WHERE stream_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.q.Query(ctx, query, streamID)
	if err != nil {
		return nil, fmt.Errorf("query payment events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.PaymentEvent, error) {
		var e domain.PaymentEvent
		var eventType string
		err := row.Scan(&e.ID, &e.StreamID, &eventType, &e.Snapshot, &e.CreatedAt)
		e.Type = domain.PaymentEventType(eventType)
		return &e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan payment events: %w", err)
	}

	return events, nil
}
