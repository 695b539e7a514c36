package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"zapcast/platform/config"
	"zapcast/platform/logger"
)

func authHandler(t *testing.T, apiKey string) (http.Handler, *string) {
	t.Helper()

	cfg := &config.Config{GlobalAPIKey: apiKey}
	log := logger.New(logger.TestConfig())

	var seenUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	return APIKeyAuth(cfg, log)(next), &seenUserID
}

func TestAPIKeyAuthRejectsMissingKey(t *testing.T) {
	handler, _ := authHandler(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/session/numbers", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyAuthRejectsWrongKey(t *testing.T) {
	handler, _ := authHandler(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/session/numbers", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyAuthRequiresUserID(t *testing.T) {
	handler, _ := authHandler(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/session/numbers", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyAuthPropagatesUserID(t *testing.T) {
	handler, seenUserID := authHandler(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/session/numbers", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if *seenUserID != "u1" {
		t.Errorf("userID = %q, want u1", *seenUserID)
	}
}

func TestHealthIsPublic(t *testing.T) {
	handler, _ := authHandler(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for public route", rec.Code)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("short"); got != "*****" {
		t.Errorf("maskAPIKey(short) = %q", got)
	}
	if got := maskAPIKey("0123456789abcdef"); got != "0123********cdef" {
		t.Errorf("maskAPIKey = %q", got)
	}
}
