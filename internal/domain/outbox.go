package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxMessage is an integration event recorded in the same transaction as
// the state change that produced it. Rows are never deleted; a non-nil
// SentAt doubles as the delivery audit trail.
type OutboxMessage struct {
	ID         uuid.UUID
	Type       string
	Payload    []byte
	OccurredAt time.Time
	SentAt     *time.Time
	Attempts   int
}

func NewOutboxMessage(eventType string, event any) (*OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		ID:         uuid.New(),
		Type:       eventType,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// MarkSent stamps the delivery time. A sent message is never re-selected.
func (m *OutboxMessage) MarkSent(at time.Time) {
	m.SentAt = &at
}

// RecordFailure counts a failed publish attempt and leaves the message
// selectable on the next poll.
func (m *OutboxMessage) RecordFailure() {
	m.Attempts++
}
