package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/gamehub/payment-service/internal/domain"
)

// WebhookHandler reconciles asynchronous PSP notifications with the payment
// aggregate and announces confirmed payments through the outbox.
type WebhookHandler struct {
	uow    UnitOfWork
	psp    PspClient
	logger *slog.Logger
}

func NewWebhookHandler(uow UnitOfWork, psp PspClient, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		uow:    uow,
		psp:    psp,
		logger: logger,
	}
}

// HandleNotification validates, parses and applies a PSP notification. The
// aggregate mutation, the outbox row and the event-log entry commit in one
// transaction. Replays for payments already in a terminal state succeed
// without touching anything.
func (h *WebhookHandler) HandleNotification(ctx context.Context, rawBody []byte, signatureHeader string) error {
	if !h.psp.ValidateSignature(rawBody, signatureHeader) {
		return NewInvalidSignatureError()
	}

	notif, err := h.psp.ParseNotification(rawBody)
	if err != nil {
		return NewValidationError("malformed PSP notification: " + err.Error())
	}

	return h.uow.WithTransaction(ctx, func(ctx context.Context, tx Repositories) error {
		// Row lock serializes concurrent deliveries for the same reference
		// for the duration of the transaction.
		payment, err := tx.Payments().FindByPspReferenceForUpdate(ctx, notif.PspReference)
		if err != nil {
			return fromDomainError(err)
		}

		if payment.IsTerminal() {
			h.logger.Info("duplicate PSP delivery for terminal payment, ignoring",
				"payment_id", payment.ID,
				"status", payment.Status,
				"psp_reference", notif.PspReference,
			)
			return nil
		}

		captured := false
		switch notif.Status {
		case domain.StatusAuthorized:
			_, err = payment.MarkAuthorized(notif.PspReference)
		case domain.StatusCaptured:
			captured, err = payment.MarkCaptured(notif.PspReference)
		case domain.StatusFailed:
			_, err = payment.MarkFailed("PSP reported failure", notif.PspReference)
		case domain.StatusRefunded:
			_, err = payment.MarkRefunded(notif.PspReference)
		case domain.StatusPending:
			return NewUnsupportedStatusError(string(notif.Status))
		default:
			return NewUnsupportedStatusError(string(notif.Status))
		}
		if err != nil {
			return fromDomainError(err)
		}

		// Single trigger point: only a capture that actually changed state
		// emits the integration event, so replays cannot duplicate it.
		if captured {
			confirmed := NewPaymentConfirmed(payment, time.Now().UTC())
			msg, err := domain.NewOutboxMessage(EventTypePaymentConfirmed, confirmed)
			if err != nil {
				return err
			}
			if err := tx.Outbox().Enqueue(ctx, msg); err != nil {
				return err
			}
		}

		eventType, ok := domain.EventTypeForStatus(notif.Status)
		if !ok {
			return NewUnsupportedStatusError(string(notif.Status))
		}
		event, err := domain.NewPaymentEvent(payment, eventType)
		if err != nil {
			return err
		}
		if err := tx.Events().Append(ctx, event); err != nil {
			return err
		}

		if err := tx.Payments().Update(ctx, payment); err != nil {
			return err
		}

		h.logger.Info("PSP notification applied",
			"payment_id", payment.ID,
			"status", payment.Status,
			"confirmed", captured,
		)
		return nil
	})
}
