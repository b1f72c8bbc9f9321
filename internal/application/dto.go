package application

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/gamehub/payment-service/internal/domain"
)

type CreatePaymentItem struct {
	GameID         string `json:"gameId" validate:"required"`
	UnitPriceCents int64  `json:"unitPriceCents" validate:"gte=0"`
}

type CreatePaymentRequest struct {
	UserID   uuid.UUID           `json:"userId" validate:"required"`
	Currency string              `json:"currency"`
	Items    []CreatePaymentItem `json:"items" validate:"required,min=1,dive"`
}

type CreatePaymentResponse struct {
	PaymentID   uuid.UUID `json:"paymentId"`
	CheckoutURL string    `json:"checkoutUrl"`
}

type PaymentItemView struct {
	GameID         string `json:"gameId"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

type PaymentView struct {
	PaymentID    uuid.UUID            `json:"paymentId"`
	UserID       uuid.UUID            `json:"userId"`
	AmountCents  int64                `json:"amountCents"`
	Currency     string               `json:"currency"`
	Status       domain.PaymentStatus `json:"status"`
	PspReference *string              `json:"pspReference,omitempty"`
	Items        []PaymentItemView    `json:"items"`
}

func NewPaymentView(payment *domain.Payment) *PaymentView {
	items := make([]PaymentItemView, 0, len(payment.Items))
	for _, item := range payment.Items {
		items = append(items, PaymentItemView{GameID: item.GameID, UnitPriceCents: item.UnitPriceCents})
	}

	return &PaymentView{
		PaymentID:    payment.ID,
		UserID:       payment.UserID,
		AmountCents:  payment.AmountCents(),
		Currency:     payment.Currency,
		Status:       payment.Status,
		PspReference: payment.PspReference,
		Items:        items,
	}
}

type PaymentEventView struct {
	ID        uuid.UUID               `json:"id"`
	Type      domain.PaymentEventType `json:"type"`
	Snapshot  json.RawMessage         `json:"snapshot"`
	CreatedAt time.Time               `json:"createdAt"`
}
