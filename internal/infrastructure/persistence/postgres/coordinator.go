package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamehub/payment-service/internal/application"
)

// TransactionCoordinator implements application.UnitOfWork: every repository
// handed to the callback shares one pgx transaction, so aggregate mutation,
// outbox row and event-log row commit or roll back together.
type TransactionCoordinator struct {
	pool *pgxpool.Pool
}

func NewTransactionCoordinator(db *DB) *TransactionCoordinator {
	return &TransactionCoordinator{pool: db.Pool}
}

type txRepositories struct {
	payments *PaymentRepository
	events   *EventLogRepository
	outbox   *OutboxRepository
}

func (t *txRepositories) Payments() application.PaymentRepository { return t.payments }
func (t *txRepositories) Events() application.EventLogRepository  { return t.events }
func (t *txRepositories) Outbox() application.OutboxRepository    { return t.outbox }

func (tc *TransactionCoordinator) WithTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx application.Repositories) error,
) error {
	tx, err := tc.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	repos := &txRepositories{
		payments: &PaymentRepository{q: tx},
		events:   &EventLogRepository{q: tx},
		outbox:   &OutboxRepository{q: tx},
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
