package registration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/impulse-eee/impulse-api/internal/common"
	"github.com/impulse-eee/impulse-api/internal/obs"
)

// RecordStore is the persistence contract required by the HTTP handlers.
type RecordStore interface {
	InsertPending(ctx context.Context, input CreateInput) (Registration, error)
	GetByID(ctx context.Context, id string) (Registration, error)
	GetByEmail(ctx context.Context, email string) ([]Registration, error)
	List(ctx context.Context, filter Filter) ([]Registration, error)
	SetAttendance(ctx context.Context, id string, marked bool) (Registration, error)
	Delete(ctx context.Context, id string) error
}

// Handler exposes registration endpoints.
type Handler struct {
	Store    RecordStore
	Validate *validator.Validate
}

// NewHandler constructs a registration handler with a ready validator.
func NewHandler(store RecordStore) *Handler {
	return &Handler{Store: store, Validate: validator.New()}
}

// Create inserts a pending registration from the public form.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "STORE_NOT_CONFIGURED", "registration store unavailable", nil)
		return
	}
	var input CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.College = strings.TrimSpace(input.College)
	if err := h.Validate.Struct(input); err != nil {
		if obs.RegistrationTotal != nil {
			obs.RegistrationTotal.WithLabelValues("invalid").Inc()
		}
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid registration fields", fieldErrors(err))
		return
	}
	reg, err := h.Store.InsertPending(r.Context(), input)
	if err != nil {
		if obs.RegistrationTotal != nil {
			obs.RegistrationTotal.WithLabelValues("error").Inc()
		}
		common.JSONError(w, http.StatusInternalServerError, "REGISTRATION_CREATE_FAILED", "unable to create registration", nil)
		return
	}
	if obs.RegistrationTotal != nil {
		obs.RegistrationTotal.WithLabelValues("created").Inc()
	}
	common.JSON(w, http.StatusCreated, reg)
}

// Get returns a single registration by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	reg, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "registration not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "STORE_ERROR", "unable to fetch registration", nil)
		return
	}
	common.JSON(w, http.StatusOK, reg)
}

// List returns registrations for the admin table. Supports event, status and
// email filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if email := strings.TrimSpace(q.Get("email")); email != "" {
		regs, err := h.Store.GetByEmail(r.Context(), email)
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "STORE_ERROR", "unable to list registrations", nil)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"registrations": regs})
		return
	}
	filter := Filter{
		EventID: strings.TrimSpace(q.Get("eventId")),
		Limit:   parseQueryInt(q.Get("limit"), 100),
		Offset:  parseQueryInt(q.Get("offset"), 0),
	}
	switch status := Status(strings.TrimSpace(q.Get("status"))); status {
	case StatusPending, StatusCompleted, StatusFailed:
		filter.Status = status
	case "":
	default:
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown status filter", nil)
		return
	}
	regs, err := h.Store.List(r.Context(), filter)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "STORE_ERROR", "unable to list registrations", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"registrations": regs})
}

type attendanceReq struct {
	Marked bool `json:"marked"`
}

// Attendance marks or unmarks a participant as present.
func (h *Handler) Attendance(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	var req attendanceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	reg, err := h.Store.SetAttendance(r.Context(), id, req.Marked)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "registration not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "STORE_ERROR", "unable to update attendance", nil)
		return
	}
	common.JSON(w, http.StatusOK, reg)
}

// Delete removes a registration. The only hard delete in the system.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "registration not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "STORE_ERROR", "unable to delete registration", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseQueryInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func fieldErrors(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
