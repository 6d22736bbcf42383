package notify

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

// BrevoSender delivers transactional email through the Brevo SMTP API.
// Implements common.EmailSender.
type BrevoSender struct {
	BaseURL     string
	APIKey      string
	SenderName  string
	SenderEmail string
	HTTP        resilience.HTTPClient
}

type brevoRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoMessage struct {
	Sender      brevoRecipient   `json:"sender"`
	To          []brevoRecipient `json:"to"`
	Subject     string           `json:"subject"`
	HTMLContent string           `json:"htmlContent"`
}

// Send posts a single message. Non-2xx responses surface the provider's
// message field so queue retries log something actionable.
func (s *BrevoSender) Send(to, toName, subject, html string) error {
	if s == nil || strings.TrimSpace(s.APIKey) == "" {
		return errors.New("brevo: api key not configured")
	}
	msg := brevoMessage{
		Sender:      brevoRecipient{Name: s.SenderName, Email: s.SenderEmail},
		To:          []brevoRecipient{{Email: to, Name: toName}},
		Subject:     subject,
		HTMLContent: html,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	base := strings.TrimRight(s.BaseURL, "/")
	if base == "" {
		base = "https://api.brevo.com"
	}
	req, err := http.NewRequest(http.MethodPost, base+"/v3/smtp/email", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.APIKey)

	client := s.HTTP
	if client.Client == nil {
		client.Client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(context.Background(), req)
	if err != nil {
		return fmt.Errorf("brevo: send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &parsed); err == nil && parsed.Message != "" {
		return fmt.Errorf("brevo: status %d: %s", resp.StatusCode, parsed.Message)
	}
	return fmt.Errorf("brevo: status %d", resp.StatusCode)
}
