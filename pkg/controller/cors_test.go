package controller_test

import (
	"net/http"
	"net/http/httptest"
	"phishvault/pkg/controller"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithCORS_PreflightWildcard(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	controller.WithCORS("", next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/scans", nil))

	require.False(t, called, "preflight must not reach the handler")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestWithCORS_ExplicitOrigin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	controller.WithCORS("https://app.phishvault.test", next).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scans", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "https://app.phishvault.test", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	require.Equal(t, "Origin", rec.Header().Get("Vary"))
	require.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Location")
}
