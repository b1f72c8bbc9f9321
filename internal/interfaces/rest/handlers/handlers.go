// Package handlers wires the application services to HTTP routes.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/gamehub/payment-service/internal/application"
)

type Handlers struct {
	paymentService *application.PaymentService
	webhookHandler *application.WebhookHandler
	validate       *validator.Validate
	logger         *slog.Logger
}

func NewHandlers(
	paymentService *application.PaymentService,
	webhookHandler *application.WebhookHandler,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		paymentService: paymentService,
		webhookHandler: webhookHandler,
		validate:       validator.New(),
		logger:         logger,
	}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /payments", h.CreatePayment)
	mux.HandleFunc("GET /payments/{id}", h.GetPayment)
	mux.HandleFunc("GET /payments/{id}/events", h.ListPaymentEvents)
	mux.HandleFunc("POST /webhooks/psp", h.HandlePspWebhook)
	mux.HandleFunc("GET /health", h.Health)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
