// Package psp implements the PSP port over HTTP.
package psp

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gamehub/payment-service/internal/application"
	"github.com/gamehub/payment-service/internal/config"
	"github.com/gamehub/payment-service/internal/domain"
)

type HTTPPspClient struct {
	baseURL       string
	webhookSecret []byte
	httpClient    *http.Client
}

func NewHTTPPspClient(cfg config.PspConfig) *HTTPPspClient {
	return &HTTPPspClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		webhookSecret: []byte(cfg.WebhookSecret),
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

type checkoutRequest struct {
	UserID   string             `json:"userId"`
	Currency string             `json:"currency"`
	Items    []checkoutItem     `json:"items"`
}

type checkoutItem struct {
	GameID         string `json:"gameId"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

type checkoutResponse struct {
	SessionID    string `json:"sessionId"`
	CheckoutURL  string `json:"checkoutUrl"`
	PspReference string `json:"pspReference"`
}

// CreateCheckout opens a checkout session at the PSP and returns the
// redirect URL together with the external reference.
func (c *HTTPPspClient) CreateCheckout(ctx context.Context, payment *domain.Payment) (*application.CheckoutSession, error) {
	items := make([]checkoutItem, 0, len(payment.Items))
	for _, item := range payment.Items {
		items = append(items, checkoutItem{GameID: item.GameID, UnitPriceCents: item.UnitPriceCents})
	}

	payload := checkoutRequest{
		UserID:   payment.UserID.String(),
		Currency: payment.Currency,
		Items:    items,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling checkout request: %w", err)
	}

	url := c.baseURL + "/psp/checkout/sessions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &PspError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	var checkout checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&checkout); err != nil {
		return nil, fmt.Errorf("error decoding checkout response: %w", err)
	}
	if checkout.CheckoutURL == "" || checkout.PspReference == "" {
		return nil, fmt.Errorf("PSP returned incomplete checkout session")
	}

	return &application.CheckoutSession{
		CheckoutURL:  checkout.CheckoutURL,
		PspReference: checkout.PspReference,
	}, nil
}

// ValidateSignature verifies the webhook HMAC-SHA256 signature. The header
// carries the hex digest, optionally prefixed with "sha256=".
func (c *HTTPPspClient) ValidateSignature(rawBody []byte, signatureHeader string) bool {
	signatureHeader = strings.TrimPrefix(strings.TrimSpace(signatureHeader), "sha256=")
	if signatureHeader == "" {
		return false
	}

	provided, err := hex.DecodeString(signatureHeader)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, c.webhookSecret)
	mac.Write(rawBody)
	return hmac.Equal(mac.Sum(nil), provided)
}

type notificationBody struct {
	EventType    string `json:"eventType"`
	PspReference string `json:"pspReference"`
}

// ParseNotification maps the PSP event type onto the reported status. An
// unknown event type maps to PENDING, which callers reject as unsupported.
func (c *HTTPPspClient) ParseNotification(rawBody []byte) (*application.PspNotification, error) {
	var body notificationBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil, fmt.Errorf("error decoding notification: %w", err)
	}
	if body.PspReference == "" {
		return nil, fmt.Errorf("notification is missing pspReference")
	}

	var status domain.PaymentStatus
	switch body.EventType {
	case "payment_authorized":
		status = domain.StatusAuthorized
	case "payment_captured":
		status = domain.StatusCaptured
	case "payment_failed":
		status = domain.StatusFailed
	case "payment_refunded":
		status = domain.StatusRefunded
	default:
		status = domain.StatusPending
	}

	return &application.PspNotification{
		EventType:    body.EventType,
		PspReference: body.PspReference,
		Status:       status,
	}, nil
}
