// Package worker hosts the background loops that run beside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/gamehub/payment-service/internal/application"
	"github.com/gamehub/payment-service/internal/infrastructure/messaging"
)

// OutboxDispatcher drains the transactional outbox. Every tick it loads a
// batch of unsent rows in insertion order, publishes each to the queue and
// marks it sent. A row that fails to publish stays unsent and is retried on
// a later tick, so delivery is at least once.
type OutboxDispatcher struct {
	outboxRepo application.OutboxRepository
	publisher  application.QueuePublisher
	interval   time.Duration
	batchSize  int
	logger     *slog.Logger
}

func NewOutboxDispatcher(
	outboxRepo application.OutboxRepository,
	publisher application.QueuePublisher,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *OutboxDispatcher {
	return &OutboxDispatcher{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		interval:   interval,
		batchSize:  batchSize,
		logger:     logger,
	}
}

func (d *OutboxDispatcher) Start(ctx context.Context) {
	d.logger.Info("outbox dispatcher started", "interval", d.interval, "batchSize", d.batchSize)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopping")
			return
		case <-ticker.C:
			if err := d.Dispatch(ctx); err != nil {
				d.logger.Error("outbox dispatch cycle failed", "error", err)
			}
		}
	}
}

// Dispatch runs one cycle. A store error aborts the whole cycle; a publish
// error skips only the affected message.
func (d *OutboxDispatcher) Dispatch(ctx context.Context) error {
	messages, err := d.outboxRepo.FindUnsent(ctx, d.batchSize)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		groupID, dedupID := messaging.FifoMetadata(msg)
		attributes := messaging.MessageAttributes(msg)

		if err := d.publisher.Publish(ctx, msg.Payload, attributes, groupID, dedupID); err != nil {
			d.logger.Error("failed to publish outbox message",
				"messageId", msg.ID,
				"type", msg.Type,
				"attempts", msg.Attempts,
				"error", err)
			if ferr := d.outboxRepo.RecordFailure(ctx, msg.ID); ferr != nil {
				d.logger.Error("failed to record outbox failure", "messageId", msg.ID, "error", ferr)
			}
			continue
		}

		if err := d.outboxRepo.MarkSent(ctx, msg.ID, time.Now().UTC()); err != nil {
			// The message went out but the row stays unsent. The FIFO
			// deduplication id absorbs the duplicate on the next cycle.
			d.logger.Error("failed to mark outbox message sent", "messageId", msg.ID, "error", err)
			continue
		}

		d.logger.Info("outbox message dispatched", "messageId", msg.ID, "type", msg.Type, "groupId", groupID)
	}
	return nil
}
