package handlers

import (
	"io"
	"net/http"

	"github.com/gamehub/payment-service/internal/application"
	"github.com/gamehub/payment-service/internal/interfaces/rest"
)

// maxWebhookBody caps notification payloads at 1 MiB.
const maxWebhookBody = 1 << 20

// HandlePspWebhook receives status notifications from the PSP. The raw body
// is passed through untouched because the signature covers the exact bytes.
func (h *Handlers) HandlePspWebhook(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		rest.WriteError(w, application.NewValidationError("unable to read request body"), h.logger)
		return
	}

	signature := r.Header.Get("X-Psp-Signature")
	if err := h.webhookHandler.HandleNotification(r.Context(), rawBody, signature); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success":true}`))
}
