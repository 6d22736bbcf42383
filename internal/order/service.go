package order

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/impulse-eee/impulse-api/internal/common"
	"github.com/impulse-eee/impulse-api/internal/obs"
)

// Gateway creates orders at the payment provider.
type Gateway interface {
	Configured() bool
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (GatewayOrder, error)
}

// CreateInput is the checkout order request.
type CreateInput struct {
	// Amount is in whole currency units (rupees). Converted to the smallest
	// unit before hitting the gateway, which owns amount validation: a zero or
	// negative amount is forwarded and the gateway's rejection is what the
	// caller sees.
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency" validate:"omitempty,len=3,alpha"`
	Receipt        string `json:"receipt" validate:"omitempty,max=40"`
	RegistrationID string `json:"registrationId" validate:"omitempty,max=80"`
}

// CreateOutput is what the checkout widget needs to open the payment form.
type CreateOutput struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// Service creates gateway orders for registrations.
type Service struct {
	Gateway         Gateway
	KeyID           string
	DefaultCurrency string
	Log             zerolog.Logger
}

// Create converts the amount to the smallest currency unit and creates the
// order at the gateway in a single attempt.
func (s *Service) Create(ctx context.Context, input CreateInput) (CreateOutput, error) {
	ctx, span := otel.Tracer("order").Start(ctx, "order.create")
	defer span.End()

	if s.Gateway == nil || !s.Gateway.Configured() {
		if obs.OrderCreateTotal != nil {
			obs.OrderCreateTotal.WithLabelValues("not_configured").Inc()
		}
		return CreateOutput{}, common.NewAppError(
			"PAYMENT_NOT_CONFIGURED", "payment gateway is not configured",
			http.StatusInternalServerError, nil)
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.DefaultCurrency
	}
	if currency == "" {
		currency = "INR"
	}
	subunits := input.Amount * 100
	span.SetAttributes(
		attribute.Int64("order.amount_subunits", subunits),
		attribute.String("order.currency", currency),
	)

	var notes map[string]string
	if strings.TrimSpace(input.RegistrationID) != "" {
		notes = map[string]string{"registrationId": input.RegistrationID}
	}
	created, err := s.Gateway.CreateOrder(ctx, subunits, currency, input.Receipt, notes)
	if err != nil {
		if obs.OrderCreateTotal != nil {
			obs.OrderCreateTotal.WithLabelValues("gateway_error").Inc()
		}
		span.RecordError(err)
		message := "unable to create payment order"
		var gerr *GatewayError
		if errors.As(err, &gerr) && gerr.Description != "" {
			message = gerr.Description
		}
		s.Log.Error().Err(err).Int64("amount", input.Amount).Msg("order create failed")
		return CreateOutput{}, common.NewAppError(
			"ORDER_CREATE_FAILED", message, http.StatusBadGateway, err)
	}

	if obs.OrderCreateTotal != nil {
		obs.OrderCreateTotal.WithLabelValues("created").Inc()
	}
	s.Log.Info().Str("order_id", created.ID).Int64("amount", created.Amount).Msg("order created")
	return CreateOutput{
		OrderID:  created.ID,
		Amount:   created.Amount,
		Currency: created.Currency,
		KeyID:    s.KeyID,
	}, nil
}
