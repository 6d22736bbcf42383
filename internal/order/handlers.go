package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/impulse-eee/impulse-api/internal/common"
)

// Handler exposes the order creation endpoint.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

// NewHandler constructs an order handler.
func NewHandler(service *Service) *Handler {
	return &Handler{Service: service, Validate: validator.New()}
}

// Create handles POST /api/v1/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if err := h.Validate.Struct(input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request parameters", nil)
		return
	}
	out, err := h.Service.Create(r.Context(), input)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusBadGateway, "ORDER_CREATE_FAILED", "unable to create payment order", nil)
		return
	}
	common.JSON(w, http.StatusOK, out)
}
