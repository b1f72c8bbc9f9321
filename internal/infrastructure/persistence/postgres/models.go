package postgres

import (
	"time"

	"github.com/google/uuid"
)

type PaymentModel struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Currency      string
	Status        string
	PspReference  *string
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PaymentItemModel struct {
	PaymentID      uuid.UUID
	GameID         string
	UnitPriceCents int64
	Position       int
}
