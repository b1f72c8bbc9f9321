package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PaymentEventType tags an entry in the payment lifecycle event log.
type PaymentEventType string

const (
	EventPaymentCreated   PaymentEventType = "created"
	EventPspReferenceBind PaymentEventType = "psp-reference-bound"
	EventPaymentAuthorized PaymentEventType = "authorized"
	EventPaymentCaptured  PaymentEventType = "captured"
	EventPaymentFailed    PaymentEventType = "failed"
	EventPaymentRefunded  PaymentEventType = "refunded"
)

// EventTypeForStatus maps a status reached by a webhook transition to the
// event type recorded in the log.
func EventTypeForStatus(status PaymentStatus) (PaymentEventType, bool) {
	switch status {
	case StatusAuthorized:
		return EventPaymentAuthorized, true
	case StatusCaptured:
		return EventPaymentCaptured, true
	case StatusFailed:
		return EventPaymentFailed, true
	case StatusRefunded:
		return EventPaymentRefunded, true
	default:
		return "", false
	}
}

// PaymentEvent is an append-only snapshot of the aggregate at the moment a
// lifecycle transition was committed. It is a denormalized audit trail;
// current state is always read from the payments table, never rebuilt by
// replaying these.
type PaymentEvent struct {
	ID        uuid.UUID
	StreamID  uuid.UUID
	Type      PaymentEventType
	Snapshot  []byte
	CreatedAt time.Time
}

func NewPaymentEvent(payment *Payment, eventType PaymentEventType) (*PaymentEvent, error) {
	if payment == nil || payment.ID == uuid.Nil {
		return nil, NewValidationError("payment ID must be set before logging events")
	}

	snapshot, err := json.Marshal(payment)
	if err != nil {
		return nil, err
	}

	return &PaymentEvent{
		ID:        uuid.New(),
		StreamID:  payment.ID,
		Type:      eventType,
		Snapshot:  snapshot,
		CreatedAt: time.Now().UTC(),
	}, nil
}
