package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/impulse-eee/impulse-api/internal/auth"
	"github.com/impulse-eee/impulse-api/internal/common"
)

func TestRequireAdminRejectsMissingToken(t *testing.T) {
	svc := newService(t, "password")
	mw := auth.Middleware{Service: svc}

	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/registrations", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAdminAttachesSubject(t *testing.T) {
	svc := newService(t, "password")
	token, _, err := svc.Login("admin@example.com", "password")
	require.NoError(t, err)

	mw := auth.Middleware{Service: svc}
	var gotSubject string
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = common.AdminSubject(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/registrations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "admin@example.com", gotSubject)
}

func TestRequireAdminRejectsTamperedToken(t *testing.T) {
	svc := newService(t, "password")
	token, _, err := svc.Login("admin@example.com", "password")
	require.NoError(t, err)

	mw := auth.Middleware{Service: svc}
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/registrations", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
