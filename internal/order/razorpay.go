package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/impulse-eee/impulse-api/internal/resilience"
)

// GatewayOrder is the subset of the gateway's order object the API consumes.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type gatewayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// GatewayError carries the upstream failure description for the client.
type GatewayError struct {
	StatusCode  int
	Description string
}

func (e *GatewayError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("razorpay: %s", e.Description)
	}
	return fmt.Sprintf("razorpay: status %d", e.StatusCode)
}

// RazorpayClient creates orders against the Razorpay Orders API using HTTP
// basic auth with the key pair.
type RazorpayClient struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	HTTP      resilience.HTTPClient
}

// Configured reports whether both halves of the key pair are present.
func (c *RazorpayClient) Configured() bool {
	return c != nil && strings.TrimSpace(c.KeyID) != "" && strings.TrimSpace(c.KeySecret) != ""
}

// CreateOrder posts a new order. Amount is in the smallest currency unit
// (paise for INR). The call is made exactly once; a failed order creation is
// surfaced to the caller rather than retried, since the checkout widget
// drives its own retry loop.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (GatewayOrder, error) {
	if !c.Configured() {
		return GatewayOrder{}, errors.New("razorpay: key pair not configured")
	}
	body := map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		body["notes"] = notes
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return GatewayOrder{}, err
	}

	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = "https://api.razorpay.com"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/orders", bytes.NewReader(raw))
	if err != nil {
		return GatewayOrder{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.KeyID, c.KeySecret)

	client := c.HTTP
	if client.Client == nil {
		client.Client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(ctx, req)
	if err != nil {
		return GatewayOrder{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return GatewayOrder{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gerr := &GatewayError{StatusCode: resp.StatusCode}
		var parsed gatewayError
		if err := json.Unmarshal(payload, &parsed); err == nil {
			gerr.Description = parsed.Error.Description
		}
		return GatewayOrder{}, gerr
	}

	var created GatewayOrder
	if err := json.Unmarshal(payload, &created); err != nil {
		return GatewayOrder{}, fmt.Errorf("razorpay: decode order: %w", err)
	}
	if created.ID == "" {
		return GatewayOrder{}, errors.New("razorpay: order response missing id")
	}
	return created, nil
}
