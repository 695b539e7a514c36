package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"zapcast/internal/adapters/http/middleware"
	"zapcast/internal/adapters/http/shared"
	"zapcast/internal/core/session"
	"zapcast/platform/logger"
)

// SessionHandler implementa handlers REST para sessões WhatsApp
type SessionHandler struct {
	orchestrator *session.Orchestrator
	writer       *shared.ResponseWriter
	validator    *validator.Validate
	logger       *logger.Logger
}

// NewSessionHandler cria nova instância do handler de sessões
func NewSessionHandler(orchestrator *session.Orchestrator, appLogger *logger.Logger) *SessionHandler {
	return &SessionHandler{
		orchestrator: orchestrator,
		writer:       shared.NewResponseWriter(appLogger),
		validator:    validator.New(),
		logger:       appLogger.WithModule("http"),
	}
}

// StartSessionRequest representa request para início de sessão. O id é
// opcional: ausente, o servidor gera um.
type StartSessionRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,min=1,max=64"`
}

// StartSessionResponse resposta de início de sessão
type StartSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// ConnectedNumbersResponse resposta com os números conectados do usuário
type ConnectedNumbersResponse struct {
	Numbers []string `json:"numbers"`
}

// StartSession inicia (ou reinicia) uma sessão do usuário autenticado
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	// Corpo vazio é válido: `POST /session/start {}` gera o id no servidor
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writer.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.writer.WriteValidationError(w, validationErrors(err))
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	if err := h.orchestrator.StartSession(r.Context(), req.SessionID, userID); err != nil {
		switch {
		case errors.Is(err, session.ErrNotSessionOwner):
			h.writer.WriteForbidden(w, "Session belongs to another user")
		case errors.Is(err, session.ErrStartRateLimited):
			h.writer.WriteTooManyRequests(w, "Too many connection attempts, try again later")
		default:
			h.logger.WithError(err).WithSession(req.SessionID).Error("Failed to start session")
			h.writer.WriteInternalError(w, "Failed to start session")
		}
		return
	}

	h.writer.WriteSuccess(w, StartSessionResponse{SessionID: req.SessionID})
}

// GetStatus retorna o estado atual de uma sessão
func (h *SessionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		h.writer.WriteBadRequest(w, "Session ID is required")
		return
	}

	if err := h.orchestrator.Authorize(sessionID, userID); err != nil {
		h.writer.WriteForbidden(w, "Session belongs to another user")
		return
	}

	snapshot, err := h.orchestrator.Status(sessionID)
	if err != nil {
		h.writer.WriteNotFound(w, "Session not found")
		return
	}

	h.writer.WriteSuccess(w, snapshot)
}

// ListSessions lista as sessões registradas do usuário autenticado
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	h.writer.WriteSuccess(w, h.orchestrator.Sessions(userID))
}

// ConnectedNumbers retorna os números de telefone conectados do usuário
func (h *SessionHandler) ConnectedNumbers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	numbers := h.orchestrator.ConnectedNumbers(userID)
	h.writer.WriteSuccess(w, ConnectedNumbersResponse{Numbers: numbers})
}

// DeleteSession remove uma sessão e seu material de autenticação
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		h.writer.WriteBadRequest(w, "Session ID is required")
		return
	}

	if err := h.orchestrator.Authorize(sessionID, userID); err != nil {
		h.writer.WriteForbidden(w, "Session belongs to another user")
		return
	}

	if err := h.orchestrator.Delete(r.Context(), sessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			h.writer.WriteNotFound(w, "Session not found")
			return
		}
		h.logger.WithError(err).WithSession(sessionID).Error("Failed to delete session")
		h.writer.WriteInternalError(w, "Failed to delete session")
		return
	}

	h.writer.WriteSuccess(w, nil, "Session deleted")
}

// ClearCache desconecta e remove todas as sessões do usuário autenticado
func (h *SessionHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if err := h.orchestrator.ClearOwner(r.Context(), userID); err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to clear sessions")
		h.writer.WriteInternalError(w, "Failed to clear sessions")
		return
	}

	h.writer.WriteSuccess(w, nil, "Sessions cleared")
}

// validationErrors converte erros do validator no formato da API
func validationErrors(err error) []shared.ValidationError {
	var out []shared.ValidationError

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fe := range fieldErrors {
			out = append(out, shared.ValidationError{
				Field:   fe.Field(),
				Message: fe.Tag(),
			})
		}
		return out
	}

	return []shared.ValidationError{{Field: "", Message: err.Error()}}
}
