package notifier

import (
	"time"

	"zapcast/platform/logger"
)

// subscription pedido de inscrição de um cliente em uma sessão
type subscription struct {
	client    *Client
	sessionID string
}

// outbound frame destinado a todos os inscritos de uma sessão
type outbound struct {
	sessionID string
	frame     ServerFrame
}

// directFrame resposta endereçada a um único cliente
type directFrame struct {
	client *Client
	frame  ServerFrame
}

// Hub roteia frames de transição para os clientes WebSocket inscritos.
// Todas as mutações de estado passam pelo loop de Run, preservando a
// ordem dos frames por sessão.
type Hub struct {
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan outbound
	direct      chan directFrame
	logger      *logger.Logger

	// Cool-down anunciado ao dashboard em desconexões não-retryable
	authRejectCooldown time.Duration
}

func NewHub(log *logger.Logger, authRejectCooldown time.Duration) *Hub {
	return &Hub{
		clients:            make(map[*Client]bool),
		register:           make(chan *Client),
		unregister:         make(chan *Client),
		subscribe:          make(chan subscription),
		unsubscribe:        make(chan subscription),
		broadcast:          make(chan outbound, 256),
		direct:             make(chan directFrame, 64),
		logger:             log.WithModule("notifier"),
		authRejectCooldown: authRejectCooldown,
	}
}

// Run processa registros, inscrições e broadcasts em um único goroutine
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.DebugWithFields("WebSocket client registered", map[string]interface{}{
				"user_id": client.userID,
				"clients": len(h.clients),
			})

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.DebugWithFields("WebSocket client unregistered", map[string]interface{}{
					"user_id": client.userID,
					"clients": len(h.clients),
				})
			}

		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; ok {
				sub.client.sessions[sub.sessionID] = true
			}

		case sub := <-h.unsubscribe:
			if _, ok := h.clients[sub.client]; ok {
				delete(sub.client.sessions, sub.sessionID)
			}

		case df := <-h.direct:
			if _, ok := h.clients[df.client]; ok {
				select {
				case df.client.send <- df.frame:
				default:
					delete(h.clients, df.client)
					close(df.client.send)
				}
			}

		case out := <-h.broadcast:
			for client := range h.clients {
				if !client.sessions[out.sessionID] {
					continue
				}
				select {
				case client.send <- out.frame:
				default:
					// Cliente lento: descarta a conexão, não o frame dos demais
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Register registra uma nova conexão no hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Publish enfileira um frame para os inscritos da sessão
func (h *Hub) Publish(sessionID string, frame ServerFrame) {
	frame.SessionID = sessionID
	h.broadcast <- outbound{sessionID: sessionID, frame: frame}
}

// reply envia um frame apenas ao cliente informado
func (h *Hub) reply(client *Client, frame ServerFrame) {
	h.direct <- directFrame{client: client, frame: frame}
}

// SessionConnecting implementa session.EventSink
func (h *Hub) SessionConnecting(sessionID string) {
	h.Publish(sessionID, ServerFrame{Type: FrameConnecting})
}

// SessionQRReady implementa session.EventSink
func (h *Hub) SessionQRReady(sessionID, qrPayload string) {
	h.Publish(sessionID, ServerFrame{Type: FrameQRReady, QRCode: qrPayload})
}

// SessionConnected implementa session.EventSink
func (h *Hub) SessionConnected(sessionID, phoneNumber string) {
	h.Publish(sessionID, ServerFrame{Type: FrameConnected, PhoneNumber: phoneNumber})
}

// SessionDisconnected implementa session.EventSink. Desconexões
// não-retryable carregam o cool-down que o dashboard deve esperar antes
// de oferecer um novo pareamento; o servidor não aplica timer algum.
func (h *Hub) SessionDisconnected(sessionID, message string, canRetry bool) {
	frame := ServerFrame{Type: FrameDisconnected, Message: message, CanRetry: boolPtr(canRetry)}
	if !canRetry {
		frame.RetryAfterSeconds = int(h.authRejectCooldown.Seconds())
	}
	h.Publish(sessionID, frame)
}

// SessionError implementa session.EventSink
func (h *Hub) SessionError(sessionID, message string) {
	h.Publish(sessionID, ServerFrame{Type: FrameError, Message: message})
}
