package payment_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/impulse-eee/impulse-api/internal/payment"
)

func verifyBody(secret string) string {
	sig := payment.ComputeSignature(secret, "order_abc", "pay_xyz")
	return `{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_xyz","razorpay_signature":"` + sig + `","registrationId":"reg-1"}`
}

func TestVerifyEndpointSuccess(t *testing.T) {
	store := &stubStore{transitioned: true}
	handler := payment.NewHandler(&payment.Service{Secret: "s3cr3t", Store: store})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(verifyBody("s3cr3t")))
	rr := httptest.NewRecorder()
	handler.Verify(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, true, resp["success"])
	require.Equal(t, "pay_xyz", resp["paymentId"])
}

func TestVerifyEndpointInvalidSignature(t *testing.T) {
	store := &stubStore{transitioned: true}
	handler := payment.NewHandler(&payment.Service{Secret: "other-secret", Store: store})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(verifyBody("s3cr3t")))
	rr := httptest.NewRecorder()
	handler.Verify(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, false, resp["success"])
	require.Equal(t, "Invalid payment signature", resp["error"])
	require.Zero(t, store.completedCalls)
}

func TestVerifyEndpointMissingFields(t *testing.T) {
	handler := payment.NewHandler(&payment.Service{Secret: "s3cr3t", Store: &stubStore{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify",
		strings.NewReader(`{"razorpay_order_id":"order_abc"}`))
	rr := httptest.NewRecorder()
	handler.Verify(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, false, resp["success"])
}

func TestVerifyEndpointNotConfigured(t *testing.T) {
	handler := payment.NewHandler(&payment.Service{Store: &stubStore{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(verifyBody("s3cr3t")))
	rr := httptest.NewRecorder()
	handler.Verify(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Contains(t, rr.Body.String(), "PAYMENT_NOT_CONFIGURED")
}
