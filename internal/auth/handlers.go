package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/impulse-eee/impulse-api/internal/common"
)

// Handler exposes the admin login endpoint.
type Handler struct {
	Service *Service
}

// NewHandler constructs an auth handler.
func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login handles POST /api/v1/admin/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "email and password are required", nil)
		return
	}
	token, expiresAt, err := h.Service.Login(req.Email, req.Password)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password", nil)
		return
	}
	common.JSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}
