package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/impulse-eee/impulse-api/internal/common"
	"github.com/impulse-eee/impulse-api/internal/registration"
)

// verifyRequest mirrors the field names the Razorpay checkout widget emits.
type verifyRequest struct {
	OrderID        string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
	RegistrationID string `json:"registrationId"`
}

// Handler exposes the verification and cancellation endpoints.
type Handler struct {
	Service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

// Verify handles POST /api/v1/payments/verify. The response shape is the one
// the checkout frontend expects: {"success":true,"paymentId":...} or
// {"success":false,"error":...} rather than the API error envelope.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid body",
		})
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.PaymentID = strings.TrimSpace(req.PaymentID)
	req.Signature = strings.TrimSpace(req.Signature)
	req.RegistrationID = strings.TrimSpace(req.RegistrationID)
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" || req.RegistrationID == "" {
		common.JSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "missing payment verification fields",
		})
		return
	}

	result, err := h.Service.Verify(r.Context(), VerifyInput{
		OrderID:        req.OrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
		RegistrationID: req.RegistrationID,
	})
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "VERIFY_FAILED", "unable to verify payment", nil)
		return
	}
	if !result.Valid {
		common.JSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Invalid payment signature",
		})
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"paymentId": result.PaymentID,
	})
}

// Cancel handles POST /api/v1/payments/{registrationId}/cancel, recording a
// dismissed checkout.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "registrationId"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "registrationId is required", nil)
		return
	}
	transitioned, err := h.Service.Cancel(r.Context(), id)
	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "registration not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "STORE_ERROR", "unable to cancel registration", nil)
		return
	}
	if !transitioned {
		common.JSONError(w, http.StatusConflict, "CANNOT_CANCEL", "registration is not pending", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"success": true, "status": "failed"})
}
