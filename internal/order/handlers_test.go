package order_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/impulse-eee/impulse-api/internal/order"
)

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func postOrder(t *testing.T, h *order.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Create(rr, req)
	return rr
}

func TestCreateEndpointSuccess(t *testing.T) {
	gw := &stubGateway{
		configured: true,
		out:        order.GatewayOrder{ID: "order_abc", Amount: 15000, Currency: "INR"},
	}
	h := order.NewHandler(&order.Service{Gateway: gw, KeyID: "rzp_test_key", DefaultCurrency: "INR"})

	rr := postOrder(t, h, `{"amount":150,"registrationId":"reg-1"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var out order.CreateOutput
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "order_abc", out.OrderID)
	require.Equal(t, int64(15000), out.Amount)
	require.Equal(t, "rzp_test_key", out.KeyID)
}

func TestCreateEndpointForwardsZeroAmount(t *testing.T) {
	gw := &stubGateway{
		configured: true,
		err:        &order.GatewayError{StatusCode: 400, Description: "Order amount less than minimum amount allowed"},
	}
	h := order.NewHandler(&order.Service{Gateway: gw, KeyID: "key"})

	rr := postOrder(t, h, `{"amount":0,"registrationId":"reg-1"}`)
	require.Equal(t, http.StatusBadGateway, rr.Code)
	require.Equal(t, 1, gw.calls)
	require.Equal(t, int64(0), gw.lastAmount)

	var resp errorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "ORDER_CREATE_FAILED", resp.Error.Code)
	require.Equal(t, "Order amount less than minimum amount allowed", resp.Error.Message)
}

func TestCreateEndpointBadJSON(t *testing.T) {
	h := order.NewHandler(&order.Service{Gateway: &stubGateway{configured: true}})

	rr := postOrder(t, h, `{"amount":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp errorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "BAD_REQUEST", resp.Error.Code)
}

func TestCreateEndpointInvalidCurrency(t *testing.T) {
	gw := &stubGateway{configured: true}
	h := order.NewHandler(&order.Service{Gateway: gw})

	rr := postOrder(t, h, `{"amount":150,"currency":"RUPEES"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Zero(t, gw.calls)
}
