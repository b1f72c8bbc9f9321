package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamehub/payment-service/internal/domain"
	"github.com/gamehub/payment-service/internal/worker"
)

type mockOutboxRepository struct {
	mu       sync.Mutex
	messages []*domain.OutboxMessage
	findErr  error
	markErr  error
	sent     []uuid.UUID
	failures []uuid.UUID
}

func (m *mockOutboxRepository) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockOutboxRepository) FindUnsent(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var unsent []*domain.OutboxMessage
	for _, msg := range m.messages {
		if msg.SentAt == nil {
			unsent = append(unsent, msg)
		}
		if len(unsent) == limit {
			break
		}
	}
	return unsent, nil
}

func (m *mockOutboxRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	for _, msg := range m.messages {
		if msg.ID == id {
			msg.MarkSent(at)
		}
	}
	m.sent = append(m.sent, id)
	return nil
}

func (m *mockOutboxRepository) RecordFailure(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, id)
	return nil
}

type publishedMessage struct {
	body       []byte
	attributes map[string]string
	groupID    string
	dedupID    string
}

type mockPublisher struct {
	mu        sync.Mutex
	published []publishedMessage
	failFor   map[uuid.UUID]error
}

func (m *mockPublisher) Publish(ctx context.Context, body []byte, attributes map[string]string, groupID, dedupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[uuid.MustParse(dedupID)]; ok {
		return err
	}
	m.published = append(m.published, publishedMessage{body, attributes, groupID, dedupID})
	return nil
}

func newDispatcher(repo *mockOutboxRepository, pub *mockPublisher) *worker.OutboxDispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return worker.NewOutboxDispatcher(repo, pub, 10*time.Millisecond, 10, logger)
}

func enqueue(t *testing.T, repo *mockOutboxRepository, payload string) *domain.OutboxMessage {
	t.Helper()
	msg, err := domain.NewOutboxMessage("payment.confirmed", json.RawMessage(payload))
	require.NoError(t, err)
	require.NoError(t, repo.Enqueue(context.Background(), msg))
	return msg
}

func TestOutboxDispatcherDispatch(t *testing.T) {
	t.Run("publishes unsent messages and marks them sent", func(t *testing.T) {
		repo := &mockOutboxRepository{}
		pub := &mockPublisher{}
		first := enqueue(t, repo, `{"purchaseId":"p-1"}`)
		second := enqueue(t, repo, `{"purchaseId":"p-2"}`)

		require.NoError(t, newDispatcher(repo, pub).Dispatch(context.Background()))

		require.Len(t, pub.published, 2)
		assert.Equal(t, "purchase-p-1", pub.published[0].groupID)
		assert.Equal(t, first.ID.String(), pub.published[0].dedupID)
		assert.Equal(t, "payment.confirmed", pub.published[0].attributes["Type"])
		assert.Equal(t, []uuid.UUID{first.ID, second.ID}, repo.sent)
		assert.NotNil(t, first.SentAt)
	})

	t.Run("a sent message is not dispatched again", func(t *testing.T) {
		repo := &mockOutboxRepository{}
		pub := &mockPublisher{}
		enqueue(t, repo, `{"purchaseId":"p-1"}`)

		dispatcher := newDispatcher(repo, pub)
		require.NoError(t, dispatcher.Dispatch(context.Background()))
		require.NoError(t, dispatcher.Dispatch(context.Background()))

		assert.Len(t, pub.published, 1)
	})

	t.Run("a publish failure leaves the message unsent for the next cycle", func(t *testing.T) {
		repo := &mockOutboxRepository{}
		failing := enqueue(t, repo, `{"purchaseId":"p-1"}`)
		healthy := enqueue(t, repo, `{"purchaseId":"p-2"}`)
		pub := &mockPublisher{failFor: map[uuid.UUID]error{failing.ID: errors.New("queue unavailable")}}

		dispatcher := newDispatcher(repo, pub)
		require.NoError(t, dispatcher.Dispatch(context.Background()))

		require.Len(t, pub.published, 1)
		assert.Equal(t, healthy.ID.String(), pub.published[0].dedupID)
		assert.Equal(t, []uuid.UUID{failing.ID}, repo.failures)
		assert.Nil(t, failing.SentAt)

		// The queue recovers and the stuck message goes out.
		pub.failFor = nil
		require.NoError(t, dispatcher.Dispatch(context.Background()))
		assert.Len(t, pub.published, 2)
	})

	t.Run("a store error aborts the cycle", func(t *testing.T) {
		repo := &mockOutboxRepository{findErr: errors.New("connection refused")}
		pub := &mockPublisher{}

		err := newDispatcher(repo, pub).Dispatch(context.Background())

		assert.Error(t, err)
		assert.Empty(t, pub.published)
	})

	t.Run("a mark-sent failure keeps the dedup id stable across retries", func(t *testing.T) {
		repo := &mockOutboxRepository{markErr: errors.New("connection reset")}
		pub := &mockPublisher{}
		msg := enqueue(t, repo, `{"purchaseId":"p-1"}`)

		dispatcher := newDispatcher(repo, pub)
		require.NoError(t, dispatcher.Dispatch(context.Background()))
		repo.markErr = nil
		require.NoError(t, dispatcher.Dispatch(context.Background()))

		require.Len(t, pub.published, 2)
		assert.Equal(t, pub.published[0].dedupID, pub.published[1].dedupID)
		assert.Equal(t, msg.ID.String(), pub.published[0].dedupID)
	})
}

func TestOutboxDispatcherStart(t *testing.T) {
	t.Run("stops when the context is cancelled", func(t *testing.T) {
		repo := &mockOutboxRepository{}
		pub := &mockPublisher{}
		enqueue(t, repo, `{"purchaseId":"p-1"}`)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			newDispatcher(repo, pub).Start(ctx)
			close(done)
		}()

		assert.Eventually(t, func() bool {
			pub.mu.Lock()
			defer pub.mu.Unlock()
			return len(pub.published) == 1
		}, time.Second, 5*time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("dispatcher did not stop")
		}
	})
}
