package messaging

import (
	"encoding/json"

	"github.com/gamehub/payment-service/internal/domain"
)

// fallbackGroup is used when the payload carries neither a purchase nor a
// user id. One shared group serializes such messages, which is acceptable
// because they are rare.
const fallbackGroup = "payments"

type payloadIdentity struct {
	PurchaseID string `json:"purchaseId"`
	UserID     string `json:"userId"`
}

// FifoMetadata derives the SQS FIFO group and deduplication ids for an
// outbox message. Grouping by purchase keeps events for one payment in
// order; the outbox row id doubles as the deduplication id so the same row
// published twice collapses to one delivery.
func FifoMetadata(msg *domain.OutboxMessage) (groupID, dedupID string) {
	dedupID = msg.ID.String()

	var identity payloadIdentity
	if err := json.Unmarshal(msg.Payload, &identity); err != nil {
		return fallbackGroup, dedupID
	}

	switch {
	case identity.PurchaseID != "":
		groupID = "purchase-" + identity.PurchaseID
	case identity.UserID != "":
		groupID = "user-" + identity.UserID
	default:
		groupID = fallbackGroup
	}
	return groupID, dedupID
}

// MessageAttributes builds the routing attributes consumers filter on.
func MessageAttributes(msg *domain.OutboxMessage) map[string]string {
	return map[string]string{
		"Type":          msg.Type,
		"CorrelationId": msg.ID.String(),
		"ContentType":   "application/json",
	}
}
