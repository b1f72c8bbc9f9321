package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/gamehub/payment-service/internal/domain"
)

// EventTypePaymentConfirmed tags the only integration event this service
// emits, produced when a capture actually transitions the aggregate.
const EventTypePaymentConfirmed = "payment.confirmed"

type PaymentConfirmedItem struct {
	GameID         string `json:"gameId"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

// PaymentConfirmed is the integration event payload announced to downstream
// consumers through the outbox.
type PaymentConfirmed struct {
	PurchaseID  uuid.UUID              `json:"purchaseId"`
	UserID      uuid.UUID              `json:"userId"`
	AmountCents int64                  `json:"amountCents"`
	Currency    string                 `json:"currency"`
	OccurredAt  time.Time              `json:"occurredAt"`
	Items       []PaymentConfirmedItem `json:"items"`
}

func NewPaymentConfirmed(payment *domain.Payment, occurredAt time.Time) PaymentConfirmed {
	items := make([]PaymentConfirmedItem, 0, len(payment.Items))
	for _, item := range payment.Items {
		items = append(items, PaymentConfirmedItem{GameID: item.GameID, UnitPriceCents: item.UnitPriceCents})
	}

	return PaymentConfirmed{
		PurchaseID:  payment.ID,
		UserID:      payment.UserID,
		AmountCents: payment.AmountCents(),
		Currency:    payment.Currency,
		OccurredAt:  occurredAt,
		Items:       items,
	}
}
