package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/impulse-eee/impulse-api/internal/common"
	"github.com/impulse-eee/impulse-api/internal/obs"
	"github.com/impulse-eee/impulse-api/internal/queue"
	"github.com/impulse-eee/impulse-api/internal/registration"
)

// RegistrationReader loads the registration a queued email task refers to.
type RegistrationReader interface {
	GetByID(ctx context.Context, id string) (registration.Registration, error)
}

// DeliveryWorker renders and sends queued email tasks.
type DeliveryWorker struct {
	Store     RegistrationReader
	Sender    common.EmailSender
	EventDate string
	Log       zerolog.Logger
}

// Handle processes one task. Returning an error requeues the task with
// backoff until the queue's max attempts, after which it lands in the DLQ.
func (w *DeliveryWorker) Handle(ctx context.Context, task queue.Task) error {
	var payload emailTaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		// Undecodable payloads would fail forever; drop them.
		w.Log.Error().Err(err).Str("kind", task.Kind).Msg("dropping malformed email task")
		return nil
	}

	reg, err := w.Store.GetByID(ctx, payload.RegistrationID)
	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			w.Log.Warn().Str("registration_id", payload.RegistrationID).Msg("email task for missing registration")
			return nil
		}
		return err
	}

	var subject, html string
	switch task.Kind {
	case KindConfirmationEmail:
		subject = ConfirmationSubject(reg.EventName)
		html, err = RenderConfirmation(ConfirmationData{
			Name:          reg.Name,
			Event:         reg.EventName,
			College:       reg.College,
			Year:          reg.Year,
			Amount:        reg.Amount,
			TransactionID: reg.TransactionID,
		})
	case KindODLetter:
		subject = ODLetterSubject(reg.EventName)
		html, err = RenderODLetter(ODLetterData{
			Name:      reg.Name,
			College:   reg.College,
			Year:      reg.Year,
			Event:     reg.EventName,
			EventDate: w.EventDate,
		})
	default:
		w.Log.Error().Str("kind", task.Kind).Msg("unknown email task kind")
		return nil
	}
	if err != nil {
		return err
	}

	start := time.Now()
	err = w.Sender.Send(reg.Email, reg.Name, subject, html)
	w.observe(task.Kind, time.Since(start), err)
	if err != nil {
		w.Log.Warn().Err(err).
			Str("kind", task.Kind).
			Str("registration_id", reg.ID).
			Msg("email delivery attempt failed")
		return fmt.Errorf("send %s: %w", task.Kind, err)
	}
	w.Log.Info().Str("kind", task.Kind).Str("registration_id", reg.ID).Msg("email delivered")
	return nil
}

func (w *DeliveryWorker) observe(kind string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	if obs.EmailDeliveriesTotal != nil {
		obs.EmailDeliveriesTotal.WithLabelValues(kind, result).Inc()
	}
	if obs.EmailAttemptLatency != nil {
		obs.EmailAttemptLatency.WithLabelValues(result).Observe(obs.DurationMillis(elapsed))
	}
}
