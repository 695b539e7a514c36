package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zapcast/internal/adapters/http/handler"
	"zapcast/platform/config"
	"zapcast/platform/logger"
)

// Handlers agrupa os handlers montados pelo router
type Handlers struct {
	Session   *handler.SessionHandler
	Inbox     *handler.InboxHandler
	WebSocket *handler.WebSocketHandler
}

// SetupRoutes configura todas as rotas da aplicação
func SetupRoutes(cfg *config.Config, appLogger *logger.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()

	setupMiddlewares(r, cfg, appLogger)
	setupHealthRoutes(r)

	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.Session.ListSessions)
		r.Post("/start", h.Session.StartSession)
		r.Post("/clear-cache", h.Session.ClearCache)
		r.Get("/numbers", h.Session.ConnectedNumbers)
		r.Get("/{sessionId}/status", h.Session.GetStatus)
		r.Delete("/{sessionId}", h.Session.DeleteSession)
	})

	r.Get("/contacts", h.Inbox.ListContacts)
	r.Get("/conversations", h.Inbox.ListConversations)
	r.Get("/conversations/{conversationId}/messages", h.Inbox.ListMessages)

	r.Get("/ws", h.WebSocket.Serve)

	return r
}

// setupHealthRoutes configura rotas de health check
func setupHealthRoutes(r *chi.Mux) {
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"zapcast"}`))
	})
}
