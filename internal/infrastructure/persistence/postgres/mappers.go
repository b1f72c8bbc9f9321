package postgres

import (
	"strings"

	"github.com/gamehub/payment-service/internal/domain"
)

// toDomainModel: maps db rows to the domain aggregate
func toDomainModel(m PaymentModel, items []PaymentItemModel) *domain.Payment {
	domainItems := make([]domain.PaymentItem, 0, len(items))
	for _, item := range items {
		domainItems = append(domainItems, domain.PaymentItem{
			GameID:         item.GameID,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	return domain.Reconstitute(
		m.ID,
		m.UserID,
		strings.TrimSpace(m.Currency),
		domain.PaymentStatus(m.Status),
		m.PspReference,
		m.FailureReason,
		domainItems,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// toDBModel: maps the domain aggregate to db rows
func toDBModel(p *domain.Payment) (PaymentModel, []PaymentItemModel) {
	items := make([]PaymentItemModel, 0, len(p.Items))
	for i, item := range p.Items {
		items = append(items, PaymentItemModel{
			PaymentID:      p.ID,
			GameID:         item.GameID,
			UnitPriceCents: item.UnitPriceCents,
			Position:       i,
		})
	}

	return PaymentModel{
		ID:            p.ID,
		UserID:        p.UserID,
		Currency:      p.Currency,
		Status:        string(p.Status),
		PspReference:  p.PspReference,
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, items
}
