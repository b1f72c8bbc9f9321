package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gamehub/payment-service/internal/application"
	"github.com/gamehub/payment-service/internal/domain"
)

// mockPaymentRepository
type mockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*domain.Payment

	CreateCalls int
	UpdateCalls int

	CreateFn                      func(ctx context.Context, payment *domain.Payment) error
	UpdateFn                      func(ctx context.Context, payment *domain.Payment) error
	FindByIDFn                    func(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	FindByPspReferenceForUpdateFn func(ctx context.Context, ref string) (*domain.Payment, error)
}

func newMockPaymentRepository() *mockPaymentRepository {
	return &mockPaymentRepository{payments: make(map[uuid.UUID]*domain.Payment)}
}

func (m *mockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateFn != nil {
		return m.CreateFn(ctx, payment)
	}
	m.payments[payment.ID] = payment
	return nil
}

func (m *mockPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, payment)
	}
	m.payments[payment.ID] = payment
	return nil
}

func (m *mockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	if p, ok := m.payments[id]; ok {
		return p, nil
	}
	return nil, domain.NewPaymentNotFoundError(id.String())
}

func (m *mockPaymentRepository) FindByPspReferenceForUpdate(ctx context.Context, ref string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindByPspReferenceForUpdateFn != nil {
		return m.FindByPspReferenceForUpdateFn(ctx, ref)
	}
	for _, p := range m.payments {
		if p.PspReference != nil && *p.PspReference == ref {
			return p, nil
		}
	}
	return nil, domain.NewPaymentNotFoundError(ref)
}

// mockEventLogRepository
type mockEventLogRepository struct {
	mu     sync.RWMutex
	events []*domain.PaymentEvent

	AppendFn func(ctx context.Context, event *domain.PaymentEvent) error
}

func (m *mockEventLogRepository) Append(ctx context.Context, event *domain.PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendFn != nil {
		return m.AppendFn(ctx, event)
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventLogRepository) ListByStream(ctx context.Context, streamID uuid.UUID) ([]*domain.PaymentEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.PaymentEvent
	for _, e := range m.events {
		if e.StreamID == streamID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEventLogRepository) Types(streamID uuid.UUID) []domain.PaymentEventType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var types []domain.PaymentEventType
	for _, e := range m.events {
		if e.StreamID == streamID {
			types = append(types, e.Type)
		}
	}
	return types
}

// mockOutboxRepository
type mockOutboxRepository struct {
	mu       sync.RWMutex
	messages []*domain.OutboxMessage

	EnqueueFn    func(ctx context.Context, msg *domain.OutboxMessage) error
	FindUnsentFn func(ctx context.Context, limit int) ([]*domain.OutboxMessage, error)
}

func (m *mockOutboxRepository) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EnqueueFn != nil {
		return m.EnqueueFn(ctx, msg)
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockOutboxRepository) FindUnsent(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindUnsentFn != nil {
		return m.FindUnsentFn(ctx, limit)
	}
	var out []*domain.OutboxMessage
	for _, msg := range m.messages {
		if msg.SentAt == nil {
			out = append(out, msg)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockOutboxRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			msg.MarkSent(at)
			return nil
		}
	}
	return domain.NewPaymentNotFoundError(id.String())
}

func (m *mockOutboxRepository) RecordFailure(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			msg.RecordFailure()
			return nil
		}
	}
	return domain.NewPaymentNotFoundError(id.String())
}

func (m *mockOutboxRepository) All() []*domain.OutboxMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxMessage(nil), m.messages...)
}

// mockIdempotencyStore
type mockIdempotencyStore struct {
	mu        sync.RWMutex
	responses map[string][]byte

	SaveCalls int

	GetCachedResponseFn func(ctx context.Context, key string) ([]byte, error)
	SaveResponseFn      func(ctx context.Context, key string, response []byte) error
}

func newMockIdempotencyStore() *mockIdempotencyStore {
	return &mockIdempotencyStore{responses: make(map[string][]byte)}
}

func (m *mockIdempotencyStore) GetCachedResponse(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetCachedResponseFn != nil {
		return m.GetCachedResponseFn(ctx, key)
	}
	return m.responses[key], nil
}

func (m *mockIdempotencyStore) SaveResponse(ctx context.Context, key string, response []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveResponseFn != nil {
		return m.SaveResponseFn(ctx, key, response)
	}
	if _, exists := m.responses[key]; !exists {
		m.responses[key] = response
	}
	return nil
}

// mockUnitOfWork hands its own repositories to the callback; there is no
// real transaction, errors simply propagate.
type mockUnitOfWork struct {
	payments *mockPaymentRepository
	events   *mockEventLogRepository
	outbox   *mockOutboxRepository

	TxCalls int

	WithTransactionFn func(ctx context.Context, fn func(ctx context.Context, tx application.Repositories) error) error
}

func newMockUnitOfWork() *mockUnitOfWork {
	return &mockUnitOfWork{
		payments: newMockPaymentRepository(),
		events:   &mockEventLogRepository{},
		outbox:   &mockOutboxRepository{},
	}
}

func (m *mockUnitOfWork) Payments() application.PaymentRepository { return m.payments }
func (m *mockUnitOfWork) Events() application.EventLogRepository  { return m.events }
func (m *mockUnitOfWork) Outbox() application.OutboxRepository    { return m.outbox }

func (m *mockUnitOfWork) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx application.Repositories) error) error {
	m.TxCalls++
	if m.WithTransactionFn != nil {
		return m.WithTransactionFn(ctx, fn)
	}
	return fn(ctx, m)
}

// mockPspClient
type mockPspClient struct {
	mu sync.Mutex

	CheckoutCalls int

	CreateCheckoutFn    func(ctx context.Context, payment *domain.Payment) (*application.CheckoutSession, error)
	ValidateSignatureFn func(rawBody []byte, signatureHeader string) bool
	ParseNotificationFn func(rawBody []byte) (*application.PspNotification, error)
}

func (m *mockPspClient) CreateCheckout(ctx context.Context, payment *domain.Payment) (*application.CheckoutSession, error) {
	m.mu.Lock()
	m.CheckoutCalls++
	m.mu.Unlock()
	if m.CreateCheckoutFn != nil {
		return m.CreateCheckoutFn(ctx, payment)
	}
	return &application.CheckoutSession{
		CheckoutURL:  "https://psp.example/checkout/" + payment.ID.String(),
		PspReference: "psp-" + payment.ID.String(),
	}, nil
}

func (m *mockPspClient) ValidateSignature(rawBody []byte, signatureHeader string) bool {
	if m.ValidateSignatureFn != nil {
		return m.ValidateSignatureFn(rawBody, signatureHeader)
	}
	return true
}

func (m *mockPspClient) ParseNotification(rawBody []byte) (*application.PspNotification, error) {
	if m.ParseNotificationFn != nil {
		return m.ParseNotificationFn(rawBody)
	}
	return nil, nil
}
