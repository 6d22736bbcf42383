package payment

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/impulse-eee/impulse-api/internal/common"
	"github.com/impulse-eee/impulse-api/internal/obs"
)

// RecordStore is the subset of the registration store the verifier needs.
type RecordStore interface {
	MarkCompleted(ctx context.Context, id, orderID, paymentID string) (bool, error)
	MarkFailed(ctx context.Context, id string) (bool, error)
}

// Notifier dispatches the confirmation email after a first successful
// verification. Failures are the notifier's problem; verification never
// depends on it.
type Notifier interface {
	EnqueueConfirmation(ctx context.Context, registrationID string) error
}

// VerifyInput carries the checkout callback fields.
type VerifyInput struct {
	OrderID        string
	PaymentID      string
	Signature      string
	RegistrationID string
}

// VerifyResult reports the outcome of a verification attempt.
type VerifyResult struct {
	Valid     bool
	PaymentID string
}

// Service verifies payment signatures and applies the resulting status
// transition.
type Service struct {
	Secret    string
	Store     RecordStore
	Notify    Notifier
	Redis     *redis.Client
	ReplayTTL time.Duration
	Prefix    string
	Log       zerolog.Logger
}

// Verify checks the gateway signature over "<orderID>|<paymentID>". A valid
// signature transitions the registration to completed through a guarded
// update, so duplicate callbacks for the same payment succeed without a
// second transition or a second confirmation email. An invalid signature
// touches nothing.
func (s *Service) Verify(ctx context.Context, input VerifyInput) (VerifyResult, error) {
	ctx, span := otel.Tracer("payment").Start(ctx, "payment.verify")
	defer span.End()
	span.SetAttributes(attribute.String("payment.order_id", input.OrderID))

	if strings.TrimSpace(s.Secret) == "" {
		s.countVerify("not_configured")
		return VerifyResult{}, common.NewAppError(
			"PAYMENT_NOT_CONFIGURED", "payment gateway is not configured",
			http.StatusInternalServerError, nil)
	}

	if !VerifySignature(s.Secret, input.OrderID, input.PaymentID, input.Signature) {
		s.countVerify("invalid")
		s.Log.Warn().
			Str("order_id", input.OrderID).
			Str("registration_id", input.RegistrationID).
			Msg("payment signature mismatch")
		return VerifyResult{Valid: false}, nil
	}

	if s.seenBefore(ctx, input) {
		s.countVerify("replay")
		return VerifyResult{Valid: true, PaymentID: input.PaymentID}, nil
	}

	transitioned, err := s.Store.MarkCompleted(ctx, input.RegistrationID, input.OrderID, input.PaymentID)
	if err == nil {
		s.markSeen(ctx, input)
	}
	if err != nil {
		// The payment is genuine even though the row update failed. Report
		// success to the client and leave a loud trail for reconciliation.
		s.countVerify("store_error")
		span.RecordError(err)
		s.Log.Error().Err(err).
			Str("registration_id", input.RegistrationID).
			Str("order_id", input.OrderID).
			Str("payment_id", input.PaymentID).
			Msg("verified payment could not be recorded, needs reconciliation")
		return VerifyResult{Valid: true, PaymentID: input.PaymentID}, nil
	}

	if transitioned {
		s.countVerify("verified")
		if s.Notify != nil {
			if err := s.Notify.EnqueueConfirmation(ctx, input.RegistrationID); err != nil {
				s.Log.Error().Err(err).
					Str("registration_id", input.RegistrationID).
					Msg("confirmation email enqueue failed")
			}
		}
		s.Log.Info().
			Str("registration_id", input.RegistrationID).
			Str("payment_id", input.PaymentID).
			Msg("payment verified")
	} else {
		s.countVerify("replay")
	}
	return VerifyResult{Valid: true, PaymentID: input.PaymentID}, nil
}

// Cancel records a dismissed checkout. Only pending registrations move to
// failed; completed is terminal.
func (s *Service) Cancel(ctx context.Context, registrationID string) (bool, error) {
	transitioned, err := s.Store.MarkFailed(ctx, registrationID)
	if err != nil {
		return false, err
	}
	if transitioned {
		s.Log.Info().Str("registration_id", registrationID).Msg("registration marked failed")
	}
	return transitioned, nil
}

// seenBefore short-circuits exact replays of an already accepted callback so
// they never reach the database. The key is only claimed by markSeen once the
// store update went through, so a callback that hit a store error can retry
// and heal the row.
func (s *Service) seenBefore(ctx context.Context, input VerifyInput) bool {
	if s.Redis == nil {
		return false
	}
	n, err := s.Redis.Exists(ctx, s.seenKey(input)).Result()
	if err != nil {
		// Redis being down must not block verification.
		s.Log.Warn().Err(err).Msg("replay guard unavailable")
		return false
	}
	return n > 0
}

func (s *Service) markSeen(ctx context.Context, input VerifyInput) {
	if s.Redis == nil {
		return
	}
	ttl := s.ReplayTTL
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	if err := s.Redis.SetNX(ctx, s.seenKey(input), "1", ttl).Err(); err != nil {
		s.Log.Warn().Err(err).Msg("replay guard unavailable")
	}
}

func (s *Service) seenKey(input VerifyInput) string {
	digest := common.Sha256Hex(input.OrderID + "|" + input.PaymentID + "|" + strings.ToLower(input.Signature))
	key := "verify:seen:" + digest
	if s.Prefix != "" {
		key = s.Prefix + ":" + key
	}
	return key
}

func (s *Service) countVerify(result string) {
	if obs.PaymentVerifyTotal != nil {
		obs.PaymentVerifyTotal.WithLabelValues(result).Inc()
	}
}
