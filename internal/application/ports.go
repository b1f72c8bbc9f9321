package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gamehub/payment-service/internal/domain"
)

// CheckoutSession is what the PSP hands back when a checkout is created.
type CheckoutSession struct {
	CheckoutURL  string
	PspReference string
}

// PspNotification is a parsed webhook delivery.
type PspNotification struct {
	EventType    string
	PspReference string
	Status       domain.PaymentStatus
}

// PspClient is the port for the external payment service provider.
type PspClient interface {
	CreateCheckout(ctx context.Context, payment *domain.Payment) (*CheckoutSession, error)
	ValidateSignature(rawBody []byte, signatureHeader string) bool
	ParseNotification(rawBody []byte) (*PspNotification, error)
}

// PaymentRepository is the port for aggregate persistence.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	Update(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	// FindByPspReferenceForUpdate loads with a row-level lock; only valid
	// inside a transaction.
	FindByPspReferenceForUpdate(ctx context.Context, pspReference string) (*domain.Payment, error)
}

// EventLogRepository appends immutable lifecycle snapshots.
type EventLogRepository interface {
	Append(ctx context.Context, event *domain.PaymentEvent) error
	ListByStream(ctx context.Context, streamID uuid.UUID) ([]*domain.PaymentEvent, error)
}

// OutboxRepository records and drains integration events.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg *domain.OutboxMessage) error
	FindUnsent(ctx context.Context, limit int) ([]*domain.OutboxMessage, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordFailure(ctx context.Context, id uuid.UUID) error
}

// IdempotencyStore caches the serialized response of a guarded operation,
// write-once per key. A miss returns (nil, nil).
type IdempotencyStore interface {
	GetCachedResponse(ctx context.Context, key string) ([]byte, error)
	SaveResponse(ctx context.Context, key string, response []byte) error
}

// Repositories is the transaction-scoped view handed to WithTransaction
// callbacks. Everything touched through it commits or rolls back together.
type Repositories interface {
	Payments() PaymentRepository
	Events() EventLogRepository
	Outbox() OutboxRepository
}

// UnitOfWork is the persistence transaction boundary.
type UnitOfWork interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

// QueuePublisher is the port for the external message queue. Trace context
// travels in ctx; implementations annotate the outgoing message with it and
// never let it affect control flow.
type QueuePublisher interface {
	Publish(ctx context.Context, body []byte, attributes map[string]string, groupID, dedupID string) error
}
