// Package domain encodes the payment aggregate and its lifecycle invariants.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the current state of a payment in its lifecycle
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "PENDING"
	StatusAuthorized PaymentStatus = "AUTHORIZED"
	StatusCaptured   PaymentStatus = "CAPTURED"
	StatusFailed     PaymentStatus = "FAILED"
	StatusRefunded   PaymentStatus = "REFUNDED"
)

const defaultCurrency = "BRL"

type Payment struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"userId"`
	Currency      string        `json:"currency"`
	Status        PaymentStatus `json:"status"`
	PspReference  *string       `json:"pspReference,omitempty"`
	FailureReason *string       `json:"failureReason,omitempty"`
	Items         []PaymentItem `json:"items"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PaymentItem is a single unit of the purchased product. There is no
// quantity field; buying two copies means two items.
type PaymentItem struct {
	GameID         string `json:"gameId"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

func NewPayment(userID uuid.UUID, currency string) (*Payment, error) {
	if userID == uuid.Nil {
		return nil, NewValidationError("user ID is required")
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if len(currency) != 3 {
		return nil, NewValidationError("currency must be a 3-letter code")
	}

	now := time.Now().UTC()
	return &Payment{
		ID:        uuid.New(),
		UserID:    userID,
		Currency:  currency,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddItem appends a line item. Intended only while the payment is still
// being assembled, before first persistence.
func (p *Payment) AddItem(gameID string, unitPriceCents int64) error {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return NewValidationError("game ID is required")
	}
	if unitPriceCents < 0 {
		return NewValidationError("unit price cannot be negative")
	}
	for _, item := range p.Items {
		if item.GameID == gameID {
			return NewValidationError("duplicate game ID " + gameID)
		}
	}

	p.Items = append(p.Items, PaymentItem{GameID: gameID, UnitPriceCents: unitPriceCents})
	return nil
}

// AmountCents is derived, never stored: the sum of item unit prices.
func (p *Payment) AmountCents() int64 {
	var total int64
	for _, item := range p.Items {
		total += item.UnitPriceCents
	}
	return total
}

// MarkAuthorized moves PENDING -> AUTHORIZED. The returned bool reports
// whether the state actually changed; re-invoking from AUTHORIZED or any
// later state is a benign no-op so webhook replays stay side-effect free.
// Only a conflicting PSP reference is an error.
func (p *Payment) MarkAuthorized(pspReference string) (bool, error) {
	if p.Status != StatusPending {
		return false, nil
	}
	if err := p.BindPspReference(pspReference); err != nil {
		return false, err
	}
	p.setStatus(StatusAuthorized)
	return true, nil
}

// MarkCaptured moves PENDING or AUTHORIZED -> CAPTURED. The true return is
// the single trigger for emitting the integration event.
func (p *Payment) MarkCaptured(pspReference string) (bool, error) {
	if p.Status != StatusPending && p.Status != StatusAuthorized {
		return false, nil
	}
	if err := p.BindPspReference(pspReference); err != nil {
		return false, err
	}
	p.setStatus(StatusCaptured)
	return true, nil
}

// MarkFailed is allowed from any state except FAILED, CAPTURED and REFUNDED.
func (p *Payment) MarkFailed(reason, pspReference string) (bool, error) {
	switch p.Status {
	case StatusFailed, StatusCaptured, StatusRefunded:
		return false, nil
	}
	if err := p.BindPspReference(pspReference); err != nil {
		return false, err
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		p.FailureReason = &reason
	}
	p.setStatus(StatusFailed)
	return true, nil
}

// MarkRefunded moves CAPTURED -> REFUNDED.
func (p *Payment) MarkRefunded(pspReference string) (bool, error) {
	if p.Status != StatusCaptured {
		return false, nil
	}
	if err := p.BindPspReference(pspReference); err != nil {
		return false, err
	}
	p.setStatus(StatusRefunded)
	return true, nil
}

// BindPspReference sets the PSP reference if unset and is a no-op when the
// incoming value matches the bound one. A different incoming value means
// upstream inconsistency, not a retry, and is a hard conflict error.
func (p *Payment) BindPspReference(pspReference string) error {
	pspReference = strings.TrimSpace(pspReference)
	if pspReference == "" {
		return NewValidationError("PSP reference is required")
	}

	if p.PspReference == nil || *p.PspReference == "" {
		p.PspReference = &pspReference
		return nil
	}

	if *p.PspReference != pspReference {
		return NewPspReferenceConflictError(*p.PspReference, pspReference)
	}
	return nil
}

// IsTerminal reports whether the webhook flow has nothing left to do for
// this payment. CAPTURED counts as terminal here even though a refund can
// still follow; duplicate PSP deliveries for a captured payment must not
// re-run transitions.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case StatusCaptured, StatusFailed, StatusRefunded:
		return true
	default:
		return false
	}
}

func (p *Payment) setStatus(target PaymentStatus) {
	p.Status = target
	p.UpdatedAt = time.Now().UTC()
}

// Reconstitute - special constructor for loading from DB
func Reconstitute(
	id, userID uuid.UUID,
	currency string,
	status PaymentStatus,
	pspReference, failureReason *string,
	items []PaymentItem,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		ID:            id,
		UserID:        userID,
		Currency:      currency,
		Status:        status,
		PspReference:  pspReference,
		FailureReason: failureReason,
		Items:         items,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}
