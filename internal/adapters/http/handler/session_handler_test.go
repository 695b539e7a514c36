package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"zapcast/internal/adapters/http/middleware"
	"zapcast/internal/core/session"
	"zapcast/platform/config"
	"zapcast/platform/logger"
)

// ===== FAKES =====

type nopAuthStore struct{}

func (nopAuthStore) Create(sessionID, ownerID string) (string, error) {
	return "auth/session_" + sessionID, nil
}
func (nopAuthStore) ListExisting() ([]session.StoredSession, error) { return nil, nil }
func (nopAuthStore) Delete(path string)                             {}
func (nopAuthStore) WipeOwner(ownerID string) error                 { return nil }

type nopClient struct{}

func (nopClient) Start(ctx context.Context) error  { return nil }
func (nopClient) Disconnect()                      {}
func (nopClient) Logout(ctx context.Context) error { return nil }
func (nopClient) Destroy()                         {}
func (nopClient) IsConnected() bool                { return true }

type nopFactory struct{}

func (nopFactory) NewClient(ctx context.Context, sessionID, authPath string, transitions session.Transitions) (session.Client, error) {
	return nopClient{}, nil
}

type nopSink struct{}

func (nopSink) SessionConnecting(sessionID string)                             {}
func (nopSink) SessionQRReady(sessionID, qrPayload string)                     {}
func (nopSink) SessionConnected(sessionID, phoneNumber string)                 {}
func (nopSink) SessionDisconnected(sessionID, message string, canRetry bool)   {}
func (nopSink) SessionError(sessionID, message string)                         {}

// ===== HELPERS =====

func newStartEndpoint(t *testing.T) (http.Handler, *session.Orchestrator) {
	t.Helper()

	log := logger.New(logger.TestConfig())
	orchestrator := session.NewOrchestrator(
		session.NewRegistry(),
		nopAuthStore{},
		nopFactory{},
		nopSink{},
		nil,
		session.Config{},
		log,
	)

	h := NewSessionHandler(orchestrator, log)
	cfg := &config.Config{GlobalAPIKey: "secret"}
	endpoint := middleware.APIKeyAuth(cfg, log)(http.HandlerFunc(h.StartSession))

	return endpoint, orchestrator
}

func postStart(t *testing.T, endpoint http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(http.MethodPost, "/session/start", reader)
	req.Header.Set("X-API-Key", "secret")
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	endpoint.ServeHTTP(rec, req)
	return rec
}

func decodeStartResponse(t *testing.T, rec *httptest.ResponseRecorder) StartSessionResponse {
	t.Helper()

	var envelope struct {
		Success bool                 `json:"success"`
		Data    StartSessionResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not valid JSON: %v (%s)", err, rec.Body.String())
	}
	if !envelope.Success {
		t.Fatalf("success = false: %s", rec.Body.String())
	}
	return envelope.Data
}

// ===== TESTS =====

func TestStartSessionGeneratesIDForEmptyBody(t *testing.T) {
	endpoint, orchestrator := newStartEndpoint(t)

	rec := postStart(t, endpoint, "{}")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decodeStartResponse(t, rec)
	if resp.SessionID == "" {
		t.Fatal("sessionId must be generated when the caller omits it")
	}

	snap, err := orchestrator.Status(resp.SessionID)
	if err != nil {
		t.Fatalf("generated session not registered: %v", err)
	}
	if snap.OwnerID != "u1" {
		t.Errorf("ownerID = %s, want u1", snap.OwnerID)
	}
}

func TestStartSessionAcceptsMissingBody(t *testing.T) {
	endpoint, _ := newStartEndpoint(t)

	rec := postStart(t, endpoint, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decodeStartResponse(t, rec)
	if resp.SessionID == "" {
		t.Fatal("sessionId must be generated for an empty body")
	}
}

func TestStartSessionKeepsCallerProvidedID(t *testing.T) {
	endpoint, _ := newStartEndpoint(t)

	rec := postStart(t, endpoint, `{"sessionId":"my-session"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decodeStartResponse(t, rec)
	if resp.SessionID != "my-session" {
		t.Errorf("sessionId = %s, want my-session", resp.SessionID)
	}
}

func TestStartSessionRejectsOversizedID(t *testing.T) {
	endpoint, _ := newStartEndpoint(t)

	rec := postStart(t, endpoint, `{"sessionId":"`+strings.Repeat("x", 65)+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStartSessionRejectsMalformedBody(t *testing.T) {
	endpoint, _ := newStartEndpoint(t)

	rec := postStart(t, endpoint, "{broken")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
