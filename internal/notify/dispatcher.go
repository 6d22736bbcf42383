package notify

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/impulse-eee/impulse-api/internal/queue"
)

// Task kinds consumed by the email delivery worker.
const (
	KindConfirmationEmail = "confirmation-email"
	KindODLetter          = "od-letter"
)

type emailTaskPayload struct {
	RegistrationID string `json:"registrationId"`
}

// Dispatcher enqueues email delivery tasks. Dispatch is fire-and-forget from
// the caller's perspective: enqueue failures are returned so callers can log
// them, but no delivery outcome ever reaches a request path.
type Dispatcher struct {
	Q           queue.Enqueuer
	MaxAttempts int
	Enabled     bool
	Log         zerolog.Logger
}

// EnqueueConfirmation schedules the registration receipt email. The dedup key
// is the registration id, so a completed registration gets at most one
// confirmation regardless of how many verified callbacks arrive.
func (d *Dispatcher) EnqueueConfirmation(ctx context.Context, registrationID string) error {
	return d.enqueue(ctx, KindConfirmationEmail, "confirm:"+registrationID, registrationID)
}

// EnqueueODLetter schedules an on-duty letter. No dedup key: a participant
// may legitimately request the letter more than once.
func (d *Dispatcher) EnqueueODLetter(ctx context.Context, registrationID string) error {
	return d.enqueue(ctx, KindODLetter, "", registrationID)
}

func (d *Dispatcher) enqueue(ctx context.Context, kind, dedupKey, registrationID string) error {
	if !d.Enabled {
		d.Log.Debug().Str("kind", kind).Str("registration_id", registrationID).Msg("email disabled, dropping task")
		return nil
	}
	payload, err := json.Marshal(emailTaskPayload{RegistrationID: registrationID})
	if err != nil {
		return err
	}
	return d.Q.Enqueue(ctx, queue.Task{
		Kind:           kind,
		Payload:        payload,
		IdempotencyKey: dedupKey,
		MaxAttempts:    d.MaxAttempts,
	})
}
