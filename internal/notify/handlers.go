package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/impulse-eee/impulse-api/internal/common"
)

// Handler exposes explicit notification triggers. Both endpoints enqueue and
// return 202; delivery happens in the worker.
type Handler struct {
	Dispatcher *Dispatcher
}

// NewHandler constructs a notification handler.
func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{Dispatcher: dispatcher}
}

type triggerRequest struct {
	RegistrationID string `json:"registrationId"`
}

// Confirmation handles POST /api/v1/notifications/confirmation.
func (h *Handler) Confirmation(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.Dispatcher.EnqueueConfirmation)
}

// ODLetter handles POST /api/v1/notifications/od-letter.
func (h *Handler) ODLetter(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.Dispatcher.EnqueueODLetter)
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request, enqueue func(context.Context, string) error) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	id := strings.TrimSpace(req.RegistrationID)
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "registrationId is required", nil)
		return
	}
	if err := enqueue(r.Context(), id); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "ENQUEUE_FAILED", "unable to queue notification", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"queued": true})
}
