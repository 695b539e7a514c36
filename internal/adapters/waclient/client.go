package waclient

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"

	"zapcast/internal/core/session"
	"zapcast/platform/logger"
)

// Client implementa session.Client: uma instância por sessão, dona do handle
// whatsmeow, traduzindo seus callbacks em transições nomeadas do Orchestrator.
// Após Destroy nenhum evento é mais despachado, mesmo que o whatsmeow ainda
// entregue callbacks atrasados.
type Client struct {
	sessionID   string
	client      *whatsmeow.Client
	transitions session.Transitions
	qr          *QRRenderer
	logger      *logger.Logger

	destroyed atomic.Bool
	cancel    context.CancelFunc
	handlerID uint32
}

func newClient(
	sessionID string,
	whatsmeowClient *whatsmeow.Client,
	transitions session.Transitions,
	qr *QRRenderer,
	appLogger *logger.Logger,
) *Client {
	c := &Client{
		sessionID:   sessionID,
		client:      whatsmeowClient,
		transitions: transitions,
		qr:          qr,
		logger:      appLogger.WithSession(sessionID),
	}

	c.handlerID = whatsmeowClient.AddEventHandler(c.handleEvent)
	return c
}

// Start conecta ao WhatsApp. Registro novo entra no fluxo de QR; device já
// pareado reconecta direto com as credenciais persistidas.
func (c *Client) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	if c.client.Store.ID == nil {
		// GetQRChannel precisa ser chamado antes de Connect
		qrChan, err := c.client.GetQRChannel(runCtx)
		if err != nil {
			cancel()
			return fmt.Errorf("failed to get QR channel: %w", err)
		}

		if err := c.client.Connect(); err != nil {
			cancel()
			return fmt.Errorf("failed to connect: %w", err)
		}

		go c.qrLoop(runCtx, qrChan)
		return nil
	}

	if err := c.client.Connect(); err != nil {
		cancel()
		return fmt.Errorf("failed to connect: %w", err)
	}

	return nil
}

// Disconnect encerra o transporte preservando as credenciais
func (c *Client) Disconnect() {
	c.client.Disconnect()
}

// Logout desvincula o aparelho no WhatsApp
func (c *Client) Logout(ctx context.Context) error {
	if c.client.Store.ID == nil {
		return nil
	}
	if err := c.client.Logout(ctx); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// Destroy encerra o handle e bloqueia qualquer despacho posterior de eventos.
// Protege contra eventos atrasados vazando para um session id reutilizado.
func (c *Client) Destroy() {
	if !c.destroyed.CompareAndSwap(false, true) {
		return
	}

	if c.cancel != nil {
		c.cancel()
	}

	c.client.RemoveEventHandler(c.handlerID)
	c.client.Disconnect()

	c.logger.Debug("Client handle destroyed")
}

// IsConnected indica se o transporte está ativo
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// qrLoop consome o canal de QR do whatsmeow até o pareamento resolver
func (c *Client) qrLoop(ctx context.Context, qrChan <-chan whatsmeow.QRChannelItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-qrChan:
			if !ok {
				return
			}
			if c.destroyed.Load() {
				return
			}

			switch item.Event {
			case "code":
				dataURI, err := c.qr.DataURI(item.Code)
				if err != nil {
					c.logger.ErrorWithFields("Failed to render QR code", map[string]interface{}{
						"error": err.Error(),
					})
					continue
				}
				c.qr.Display(item.Code, c.sessionID)
				c.transitions.PairingChallenge(c.sessionID, dataURI)

			case whatsmeow.QRChannelSuccess.Event:
				// Pareamento aceito; events.Connected fecha a transição
				c.logger.Debug("QR pairing succeeded")

			case whatsmeow.QRChannelTimeout.Event:
				c.transitions.SessionDropped(c.sessionID, session.ReasonPairingTimeout)
				return

			default:
				c.transitions.SessionFailed(c.sessionID, fmt.Errorf("pairing failed: %s", item.Event))
				return
			}
		}
	}
}

// handleEvent traduz eventos do whatsmeow em transições do Orchestrator
func (c *Client) handleEvent(evt interface{}) {
	if c.destroyed.Load() {
		return
	}

	switch v := evt.(type) {
	case *events.Connected:
		phone := ""
		if c.client.Store.ID != nil {
			phone = c.client.Store.ID.User
		}
		c.transitions.SessionReady(c.sessionID, phone)

	case *events.PairSuccess:
		c.logger.InfoWithFields("Device paired", map[string]interface{}{
			"device_jid": v.ID.String(),
		})

	case *events.LoggedOut:
		// WhatsApp invalidou as credenciais; novo pareamento é necessário
		c.transitions.SessionDropped(c.sessionID, session.ReasonAuthRejected)

	case *events.StreamReplaced:
		c.transitions.SessionDropped(c.sessionID, session.ReasonTransportLost)

	case *events.Disconnected:
		c.transitions.SessionDropped(c.sessionID, session.ReasonTransportLost)

	case *events.Message:
		c.handleMessage(v)

	default:
		c.logger.DebugWithFields("Unhandled whatsapp event", map[string]interface{}{
			"event_type": fmt.Sprintf("%T", evt),
		})
	}
}

// handleMessage converte mensagem recebida e repassa ao Orchestrator
func (c *Client) handleMessage(evt *events.Message) {
	if evt.Info.IsFromMe || evt.Info.IsGroup {
		return
	}

	content, messageType := extractContent(evt.Message)

	c.transitions.MessageReceived(c.sessionID, session.InboundMessage{
		From:        evt.Info.Sender.User,
		Content:     content,
		MessageType: messageType,
		WaMessageID: evt.Info.ID,
		Timestamp:   evt.Info.Timestamp,
	})
}
