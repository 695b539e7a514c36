package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"zapcast/internal/adapters/http/middleware"
	"zapcast/internal/adapters/http/shared"
	"zapcast/internal/core/inbox"
	"zapcast/platform/logger"
)

// InboxHandler implementa handlers REST de leitura do inbox
type InboxHandler struct {
	service *inbox.Service
	writer  *shared.ResponseWriter
	logger  *logger.Logger
}

// NewInboxHandler cria nova instância do handler do inbox
func NewInboxHandler(service *inbox.Service, appLogger *logger.Logger) *InboxHandler {
	return &InboxHandler{
		service: service,
		writer:  shared.NewResponseWriter(appLogger),
		logger:  appLogger.WithModule("http"),
	}
}

// ListContacts lista os contatos do usuário autenticado
func (h *InboxHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	limit, offset := parsePagination(r)

	contacts, err := h.service.ListContacts(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to list contacts")
		h.writer.WriteInternalError(w, "Failed to list contacts")
		return
	}

	h.writer.WriteSuccess(w, contacts)
}

// ListConversations lista as conversas do usuário autenticado
func (h *InboxHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	limit, offset := parsePagination(r)

	conversations, err := h.service.ListConversations(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to list conversations")
		h.writer.WriteInternalError(w, "Failed to list conversations")
		return
	}

	h.writer.WriteSuccess(w, conversations)
}

// ListMessages lista as mensagens de uma conversa
func (h *InboxHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationId"))
	if err != nil {
		h.writer.WriteBadRequest(w, "Invalid conversation ID")
		return
	}
	limit, offset := parsePagination(r)

	messages, err := h.service.ListMessages(r.Context(), conversationID, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list messages")
		h.writer.WriteInternalError(w, "Failed to list messages")
		return
	}

	h.writer.WriteSuccess(w, messages)
}

// parsePagination extrai limit e offset da query string
func parsePagination(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
