package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"zapcast/internal/adapters/http/middleware"
	"zapcast/internal/adapters/notifier"
	"zapcast/platform/logger"
)

// WebSocketHandler faz o upgrade das conexões do dashboard para o hub
type WebSocketHandler struct {
	hub        *notifier.Hub
	controller notifier.SessionController
	upgrader   websocket.Upgrader
	logger     *logger.Logger
}

// NewWebSocketHandler cria nova instância do handler WebSocket
func NewWebSocketHandler(hub *notifier.Hub, controller notifier.SessionController, appLogger *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		controller: controller,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// O dashboard roda em outra origem; a autenticação é por API key
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: appLogger.WithModule("ws"),
	}
}

// Serve atende GET /ws
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := notifier.NewClient(h.hub, conn, userID, h.controller, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
