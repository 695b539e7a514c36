package session

import (
	"context"
	"time"
)

// AuthStore persistência durável do material de autenticação por sessão
type AuthStore interface {
	// Create cria (ou reusa) o diretório da sessão e grava os metadados.
	// Idempotente: metadados existentes nunca são sobrescritos.
	Create(sessionID, ownerID string) (string, error)

	// ListExisting enumera sessões persistidas de execuções anteriores.
	// Entradas com metadados ausentes ou corrompidos são ignoradas (logadas).
	ListExisting() ([]StoredSession, error)

	// Delete remove recursivamente o diretório da sessão. Best-effort:
	// falhas são logadas, nunca propagadas.
	Delete(path string)

	// WipeOwner remove todo material de autenticação de um usuário
	WipeOwner(ownerID string) error
}

// StoredSession sessão encontrada no AuthStore durante a restauração
type StoredSession struct {
	SessionID string
	OwnerID   string
	Path      string
}

// Client handle vivo do cliente WhatsApp externo de uma sessão.
// No máximo um Client vivo por sessão; o Orchestrator destrói o handle
// anterior antes de criar um novo.
type Client interface {
	// Start inicia conexão/pareamento de forma assíncrona; eventos chegam
	// via Transitions
	Start(ctx context.Context) error

	// Disconnect encerra a conexão preservando o material de autenticação
	Disconnect()

	// Logout desvincula o aparelho no WhatsApp (invalida as credenciais)
	Logout(ctx context.Context) error

	// Destroy encerra o handle e garante que nenhum evento posterior será
	// entregue para esta instância
	Destroy()

	// IsConnected indica se o transporte está ativo
	IsConnected() bool
}

// ClientFactory cria um Client por sessão a partir do material em authPath
type ClientFactory interface {
	NewClient(ctx context.Context, sessionID, authPath string, transitions Transitions) (Client, error)
}

// Transitions funções de transição nomeadas do Orchestrator, chamadas pelo
// adapter ao traduzir eventos do cliente externo. Permite dirigir a máquina
// de estados em testes sem um cliente real.
type Transitions interface {
	PairingChallenge(sessionID, qrPayload string)
	SessionReady(sessionID, phoneNumber string)
	SessionDropped(sessionID string, reason DisconnectReason)
	SessionFailed(sessionID string, err error)
	MessageReceived(sessionID string, msg InboundMessage)
}

// EventSink recebe cada transição para repasse aos assinantes (WebSocket).
// Para uma mesma sessão os eventos chegam na ordem observada pelo adapter.
type EventSink interface {
	SessionConnecting(sessionID string)
	SessionQRReady(sessionID, qrPayload string)
	SessionConnected(sessionID, phoneNumber string)
	SessionDisconnected(sessionID, message string, canRetry bool)
	SessionError(sessionID, message string)
}

// InboundMessage mensagem recebida do WhatsApp, já normalizada pelo adapter
type InboundMessage struct {
	From        string
	Content     string
	MessageType string
	WaMessageID string
	Timestamp   time.Time
}

// InboundHandler destino das mensagens recebidas (ponte de ingestão)
type InboundHandler interface {
	HandleInbound(ctx context.Context, ownerID string, msg InboundMessage) error
}
