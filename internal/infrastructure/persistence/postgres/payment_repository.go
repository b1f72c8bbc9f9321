package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gamehub/payment-service/internal/domain"
)

type PaymentRepository struct {
	q Executor
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{q: db.Pool}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, user_id, currency, status, psp_reference, failure_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	p, items := toDBModel(payment)
	_, err := r.q.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.Currency,
		p.Status,
		p.PspReference,
		p.FailureReason,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	itemQuery := `
		INSERT INTO payment_items (payment_id, game_id, unit_price_cents, position)
		VALUES ($1, $2, $3, $4)
	`
	for _, item := range items {
		if _, err := r.q.Exec(ctx, itemQuery, item.PaymentID, item.GameID, item.UnitPriceCents, item.Position); err != nil {
			return fmt.Errorf("failed to create payment item: %w", err)
		}
	}

	return nil
}

// Update writes the mutable part of the aggregate. Items are immutable
// after first persistence and are not touched.
func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, psp_reference = $2, failure_reason = $3, updated_at = $4
		WHERE id = $5
	`

	p, _ := toDBModel(payment)
	result, err := r.q.Exec(ctx, query,
		p.Status,
		p.PspReference,
		p.FailureReason,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewPaymentNotFoundError(p.ID.String())
	}

	return nil
}

// FindByID retrieves a payment with its items
func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `
		SELECT id, user_id, currency, status, psp_reference, failure_reason, created_at, updated_at
		FROM payments WHERE id = $1
	`

	return r.scanPaymentWithItems(ctx, r.q.QueryRow(ctx, query, id), id.String())
}

// FindByPspReferenceForUpdate retrieves a payment with a row-level lock so
// concurrent webhook deliveries for the same reference serialize.
func (r *PaymentRepository) FindByPspReferenceForUpdate(ctx context.Context, pspReference string) (*domain.Payment, error) {
	query := `
		SELECT id, user_id, currency, status, psp_reference, failure_reason, created_at, updated_at
		FROM payments WHERE psp_reference = $1
		FOR UPDATE
	`

	return r.scanPaymentWithItems(ctx, r.q.QueryRow(ctx, query, pspReference), pspReference)
}

func (r *PaymentRepository) scanPaymentWithItems(ctx context.Context, row pgx.Row, ref string) (*domain.Payment, error) {
	var m PaymentModel
	err := row.Scan(
		&m.ID, &m.UserID, &m.Currency, &m.Status,
		&m.PspReference, &m.FailureReason, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewPaymentNotFoundError(ref)
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	items, err := r.findItems(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	return toDomainModel(m, items), nil
}

func (r *PaymentRepository) findItems(ctx context.Context, paymentID uuid.UUID) ([]PaymentItemModel, error) {
	query := `
		SELECT payment_id, game_id, unit_price_cents, position
		FROM payment_items WHERE payment_id = $1
		ORDER BY position ASC
	`

	rows, err := r.q.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("query payment items: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PaymentItemModel, error) {
		var m PaymentItemModel
		err := row.Scan(&m.PaymentID, &m.GameID, &m.UnitPriceCents, &m.Position)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan payment items: %w", err)
	}

	return items, nil
}
