package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"zapcast/internal/core/session"
	"zapcast/platform/logger"
)

var validate = validator.New()

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// SessionController operações de sessão expostas ao canal WebSocket
type SessionController interface {
	StartSession(ctx context.Context, sessionID, ownerID string) error
	Disconnect(sessionID string) error
	Status(sessionID string) (session.Snapshot, error)
	Authorize(sessionID, ownerID string) error
}

// Client uma conexão WebSocket autenticada do dashboard
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan ServerFrame
	sessions   map[string]bool
	userID     string
	controller SessionController
	logger     *logger.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, controller SessionController, log *logger.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan ServerFrame, 256),
		sessions:   make(map[string]bool),
		userID:     userID,
		controller: controller,
		logger:     log.WithModule("notifier").WithField("user_id", userID),
	}
}

// ReadPump consome frames do cliente e despacha para o orquestrador.
// Uma goroutine por conexão; encerra no primeiro erro de leitura.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithError(err).Debug("WebSocket read error")
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.hub.reply(c, ServerFrame{Type: FrameError, Message: "invalid frame"})
			continue
		}
		c.dispatch(frame)
	}
}

// WritePump serializa frames pendentes e mantém o keepalive
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(frame ClientFrame) {
	if err := validate.Struct(&frame); err != nil {
		c.hub.reply(c, ServerFrame{Type: FrameError, SessionID: frame.SessionID, Message: "invalid frame"})
		return
	}

	switch frame.Type {
	case FrameConnect:
		c.handleConnect(frame)
	case FrameDisconnect:
		c.handleDisconnect(frame)
	case FrameCheckStatus:
		c.handleCheckStatus(frame)
	}
}

func (c *Client) handleConnect(frame ClientFrame) {
	if frame.UserID != "" && frame.UserID != c.userID {
		c.hub.reply(c, ServerFrame{Type: FrameError, SessionID: frame.SessionID, Message: "userId does not match authenticated user"})
		return
	}
	if err := c.controller.Authorize(frame.SessionID, c.userID); err != nil {
		c.hub.reply(c, ServerFrame{Type: FrameError, SessionID: frame.SessionID, Message: "session belongs to another user"})
		return
	}

	// Inscreve antes de iniciar para não perder os primeiros frames
	c.hub.subscribe <- subscription{client: c, sessionID: frame.SessionID}

	sessionID := frame.SessionID
	go func() {
		err := c.controller.StartSession(context.Background(), sessionID, c.userID)
		switch {
		case err == nil:
		case errors.Is(err, session.ErrNotSessionOwner):
			// Diretório de autenticação persistido pertence a outro usuário
			c.hub.reply(c, ServerFrame{Type: FrameError, SessionID: sessionID, Message: "session belongs to another user"})
		case errors.Is(err, session.ErrStartRateLimited):
			c.hub.reply(c, ServerFrame{Type: FrameError, SessionID: sessionID, Message: "too many connection attempts, try again later"})
		case errors.Is(err, session.ErrAdapterInit):
			// O orquestrador já emitiu o frame de erro para os inscritos
		default:
			c.hub.reply(c, ServerFrame{Type: FrameError, SessionID: sessionID, Message: "failed to start session"})
		}
	}()
}

func (c *Client) handleDisconnect(frame ClientFrame) {
	if err := c.controller.Authorize(frame.SessionID, c.userID); err != nil {
		c.hub.reply(c, ServerFrame{Type: FrameError, SessionID: frame.SessionID, Message: "session belongs to another user"})
		return
	}
	if err := c.controller.Disconnect(frame.SessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.hub.reply(c, ServerFrame{Type: FrameError, SessionID: frame.SessionID, Message: "session not found"})
			return
		}
		c.hub.reply(c, ServerFrame{Type: FrameError, SessionID: frame.SessionID, Message: "failed to disconnect session"})
	}
}

func (c *Client) handleCheckStatus(frame ClientFrame) {
	if err := c.controller.Authorize(frame.SessionID, c.userID); err != nil {
		c.hub.reply(c, ServerFrame{Type: FrameError, SessionID: frame.SessionID, Message: "session belongs to another user"})
		return
	}
	snap, err := c.controller.Status(frame.SessionID)
	if err != nil {
		c.hub.reply(c, ServerFrame{Type: FrameError, SessionID: frame.SessionID, Message: "session not found"})
		return
	}
	c.hub.reply(c, ServerFrame{
		Type:        FrameStatusUpdate,
		SessionID:   frame.SessionID,
		Status:      string(snap.Status),
		PhoneNumber: snap.PhoneNumber,
	})
}
