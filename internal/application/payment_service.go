package application

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gamehub/payment-service/internal/domain"
)

// PaymentService orchestrates payment creation and read access.
type PaymentService struct {
	uow         UnitOfWork
	paymentRepo PaymentRepository
	eventRepo   EventLogRepository
	idempotency IdempotencyStore
	psp         PspClient
	logger      *slog.Logger
}

func NewPaymentService(
	uow UnitOfWork,
	paymentRepo PaymentRepository,
	eventRepo EventLogRepository,
	idempotency IdempotencyStore,
	psp PspClient,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		uow:         uow,
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		idempotency: idempotency,
		psp:         psp,
		logger:      logger,
	}
}

// Create runs the creation flow: idempotency check, aggregate construction,
// persist + created event, PSP checkout, reference bind, persist + bound
// event, response caching. Retries with the same key replay the cached
// response byte for byte without touching the PSP or the database again.
func (s *PaymentService) Create(ctx context.Context, req CreatePaymentRequest, idempotencyKey string) (*CreatePaymentResponse, error) {
	if idempotencyKey == "" {
		return nil, NewValidationError("idempotency key is required")
	}

	cached, err := s.idempotency.GetCachedResponse(ctx, idempotencyKey)
	if err != nil {
		return nil, NewInternalError(err)
	}
	if cached != nil {
		var resp CreatePaymentResponse
		if err := json.Unmarshal(cached, &resp); err != nil {
			return nil, NewInternalError(err)
		}
		s.logger.Info("idempotency hit, replaying cached response",
			"payment_id", resp.PaymentID,
		)
		return &resp, nil
	}

	if len(req.Items) == 0 {
		return nil, NewValidationError("payment must have at least one item")
	}

	payment, err := domain.NewPayment(req.UserID, req.Currency)
	if err != nil {
		return nil, fromDomainError(err)
	}
	for _, item := range req.Items {
		if err := payment.AddItem(item.GameID, item.UnitPriceCents); err != nil {
			return nil, fromDomainError(err)
		}
	}

	err = s.uow.WithTransaction(ctx, func(ctx context.Context, tx Repositories) error {
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return err
		}
		createdEvent, err := domain.NewPaymentEvent(payment, domain.EventPaymentCreated)
		if err != nil {
			return err
		}
		return tx.Events().Append(ctx, createdEvent)
	})
	if err != nil {
		return nil, NewInternalError(err)
	}

	// From here on the aggregate is durable. A PSP failure leaves it PENDING
	// with no reference; reconciling that orphan is out-of-band.
	session, err := s.psp.CreateCheckout(ctx, payment)
	if err != nil {
		s.logger.Error("PSP checkout failed after initial persist",
			"payment_id", payment.ID,
			"error", err,
		)
		return nil, NewInternalError(err)
	}

	if err := payment.BindPspReference(session.PspReference); err != nil {
		return nil, fromDomainError(err)
	}

	err = s.uow.WithTransaction(ctx, func(ctx context.Context, tx Repositories) error {
		if err := tx.Payments().Update(ctx, payment); err != nil {
			return err
		}
		boundEvent, err := domain.NewPaymentEvent(payment, domain.EventPspReferenceBind)
		if err != nil {
			return err
		}
		return tx.Events().Append(ctx, boundEvent)
	})
	if err != nil {
		return nil, NewInternalError(err)
	}

	resp := &CreatePaymentResponse{PaymentID: payment.ID, CheckoutURL: session.CheckoutURL}

	body, err := json.Marshal(resp)
	if err != nil {
		return nil, NewInternalError(err)
	}
	// Best effort: all side effects are committed, so a lost cache write only
	// costs a duplicate-create on retry, which the PSP reference conflict
	// guard surfaces downstream.
	if err := s.idempotency.SaveResponse(ctx, idempotencyKey, body); err != nil {
		s.logger.Error("failed to cache idempotent response",
			"payment_id", payment.ID,
			"error", err,
		)
	}

	s.logger.Info("payment created",
		"payment_id", payment.ID,
		"user_id", payment.UserID,
		"amount_cents", payment.AmountCents(),
		"currency", payment.Currency,
	)

	return resp, nil
}

// GetByID retrieves a payment view.
func (s *PaymentService) GetByID(ctx context.Context, id uuid.UUID) (*PaymentView, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fromDomainError(err)
	}
	return NewPaymentView(payment), nil
}

// ListEvents returns the lifecycle audit trail for a payment, oldest first.
func (s *PaymentService) ListEvents(ctx context.Context, paymentID uuid.UUID) ([]PaymentEventView, error) {
	if _, err := s.paymentRepo.FindByID(ctx, paymentID); err != nil {
		return nil, fromDomainError(err)
	}

	events, err := s.eventRepo.ListByStream(ctx, paymentID)
	if err != nil {
		return nil, NewInternalError(err)
	}

	views := make([]PaymentEventView, 0, len(events))
	for _, event := range events {
		views = append(views, PaymentEventView{
			ID:        event.ID,
			Type:      event.Type,
			Snapshot:  event.Snapshot,
			CreatedAt: event.CreatedAt,
		})
	}
	return views, nil
}
