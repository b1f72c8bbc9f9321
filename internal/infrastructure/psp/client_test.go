package psp_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamehub/payment-service/internal/config"
	"github.com/gamehub/payment-service/internal/domain"
	"github.com/gamehub/payment-service/internal/infrastructure/psp"
)

func newClient(t *testing.T, baseURL string) *psp.HTTPPspClient {
	t.Helper()
	return psp.NewHTTPPspClient(config.PspConfig{
		BaseURL:       baseURL,
		WebhookSecret: "test-secret",
		ConnTimeout:   5 * time.Second,
	})
}

func testPayment(t *testing.T) *domain.Payment {
	t.Helper()
	payment, err := domain.NewPayment(uuid.New(), "USD")
	require.NoError(t, err)
	require.NoError(t, payment.AddItem("game-a", 1000))
	require.NoError(t, payment.AddItem("game-b", 550))
	return payment
}

func TestCreateCheckout(t *testing.T) {
	t.Run("posts the payment and returns the session", func(t *testing.T) {
		payment := testPayment(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/psp/checkout/sessions", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, payment.UserID.String(), body["userId"])
			assert.Equal(t, "USD", body["currency"])
			assert.Len(t, body["items"], 2)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{
				"sessionId":    "sess-1",
				"checkoutUrl":  "https://psp.example/checkout/sess-1",
				"pspReference": "psp-ref-1",
			})
		}))
		defer server.Close()

		client := newClient(t, server.URL)
		session, err := client.CreateCheckout(context.Background(), payment)

		require.NoError(t, err)
		assert.Equal(t, "https://psp.example/checkout/sess-1", session.CheckoutURL)
		assert.Equal(t, "psp-ref-1", session.PspReference)
	})

	t.Run("surfaces non-2xx responses as psp errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		}))
		defer server.Close()

		client := newClient(t, server.URL)
		_, err := client.CreateCheckout(context.Background(), testPayment(t))

		require.Error(t, err)
		pspErr, ok := psp.IsPspError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadGateway, pspErr.StatusCode)
		assert.True(t, pspErr.IsRetryable())
	})

	t.Run("rejects incomplete sessions", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"sessionId": "sess-1"})
		}))
		defer server.Close()

		client := newClient(t, server.URL)
		_, err := client.CreateCheckout(context.Background(), testPayment(t))

		assert.Error(t, err)
	})
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	client := newClient(t, "http://psp.local")
	body := []byte(`{"eventType":"payment_captured","pspReference":"psp-ref-1"}`)

	t.Run("accepts a valid signature", func(t *testing.T) {
		assert.True(t, client.ValidateSignature(body, sign("test-secret", body)))
	})

	t.Run("accepts the sha256 prefix form", func(t *testing.T) {
		assert.True(t, client.ValidateSignature(body, "sha256="+sign("test-secret", body)))
	})

	t.Run("rejects a signature over a different body", func(t *testing.T) {
		assert.False(t, client.ValidateSignature([]byte(`{}`), sign("test-secret", body)))
	})

	t.Run("rejects a signature from the wrong secret", func(t *testing.T) {
		assert.False(t, client.ValidateSignature(body, sign("other-secret", body)))
	})

	t.Run("rejects empty and malformed headers", func(t *testing.T) {
		assert.False(t, client.ValidateSignature(body, ""))
		assert.False(t, client.ValidateSignature(body, "not-hex"))
	})
}

func TestParseNotification(t *testing.T) {
	client := newClient(t, "http://psp.local")

	tests := []struct {
		eventType string
		want      domain.PaymentStatus
	}{
		{"payment_authorized", domain.StatusAuthorized},
		{"payment_captured", domain.StatusCaptured},
		{"payment_failed", domain.StatusFailed},
		{"payment_refunded", domain.StatusRefunded},
		{"payment_disputed", domain.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			body := []byte(`{"eventType":"` + tt.eventType + `","pspReference":"psp-ref-1"}`)

			notif, err := client.ParseNotification(body)

			require.NoError(t, err)
			assert.Equal(t, tt.eventType, notif.EventType)
			assert.Equal(t, "psp-ref-1", notif.PspReference)
			assert.Equal(t, tt.want, notif.Status)
		})
	}

	t.Run("rejects malformed bodies", func(t *testing.T) {
		_, err := client.ParseNotification([]byte("not json"))
		assert.Error(t, err)
	})

	t.Run("rejects a missing reference", func(t *testing.T) {
		_, err := client.ParseNotification([]byte(`{"eventType":"payment_captured"}`))
		assert.Error(t, err)
	})
}
