package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/gamehub/payment-service/internal/application"
	"github.com/gamehub/payment-service/internal/interfaces/rest"
)

// CreatePayment starts a checkout. The Idempotency-Key header is mandatory;
// retrying with the same key replays the original response.
func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		rest.WriteError(w, application.NewValidationError("Idempotency-Key header is required"), h.logger)
		return
	}

	var req application.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewValidationError("invalid request body"), h.logger)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		rest.WriteError(w, application.NewValidationError(err.Error()), h.logger)
		return
	}

	resp, err := h.paymentService.Create(r.Context(), req, idempotencyKey)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, application.NewValidationError("invalid payment id"), h.logger)
		return
	}

	view, err := h.paymentService.GetByID(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, view)
}

func (h *Handlers) ListPaymentEvents(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, application.NewValidationError("invalid payment id"), h.logger)
		return
	}

	events, err := h.paymentService.ListEvents(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, events)
}
