package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"zapcast/platform/logger"
)

// Config políticas de ciclo de vida aplicadas pelo Orchestrator
type Config struct {
	// Sessões em connecting/qr_ready ociosas além deste tempo são desconectadas
	IdleTimeout time.Duration
	// Intervalo de varredura do reaper
	ReapInterval time.Duration
	// Start requests permitidos por usuário por minuto (0 desabilita o limite)
	StartRatePerMinute int
}

// Orchestrator dono da máquina de estados das sessões: cria, restaura,
// desconecta e destrói handles de cliente, e repassa cada transição ao sink.
type Orchestrator struct {
	registry *Registry
	store    AuthStore
	factory  ClientFactory
	sink     EventSink
	inbound  InboundHandler
	logger   *logger.Logger
	config   Config

	// Cache por usuário dos números conectados, invalidado a cada transição
	// de conexão (o dashboard consulta com frequência)
	numbersMu    sync.Mutex
	numbersCache map[string][]string

	// Limitador de start requests por usuário
	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

// NewOrchestrator cria o orquestrador de sessões
func NewOrchestrator(
	registry *Registry,
	store AuthStore,
	factory ClientFactory,
	sink EventSink,
	inbound InboundHandler,
	config Config,
	appLogger *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		registry:     registry,
		store:        store,
		factory:      factory,
		sink:         sink,
		inbound:      inbound,
		config:       config,
		logger:       appLogger.WithModule("orchestrator"),
		numbersCache: make(map[string][]string),
		limiters:     make(map[string]*rate.Limiter),
	}
}

// StartSession cria (ou reinicia) a tentativa de pareamento de uma sessão.
// Se já existe um handle vivo para o mesmo id, ele é destruído antes: o
// cliente externo não tolera dois handles sobre o mesmo material de
// autenticação.
func (o *Orchestrator) StartSession(ctx context.Context, sessionID, ownerID string) error {
	if sessionID == "" || ownerID == "" {
		return fmt.Errorf("session id and owner id are required")
	}

	if !o.allowStart(ownerID) {
		o.logger.WarnWithFields("Session start rate limited", map[string]interface{}{
			"owner_id": ownerID,
		})
		return ErrStartRateLimited
	}

	authPath, err := o.store.Create(sessionID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to prepare auth material: %w", err)
	}

	entry := o.registry.GetOrCreate(sessionID, func() *Session {
		return NewSession(sessionID, ownerID, authPath)
	})

	entry.Lock()
	defer entry.Unlock()

	if entry.Session.OwnerID != ownerID {
		return ErrNotSessionOwner
	}

	// Handle anterior é destruído por inteiro antes do novo ser criado
	if entry.Client != nil {
		o.logger.InfoWithFields("Destroying previous client handle", map[string]interface{}{
			"session_id": sessionID,
		})
		entry.Client.Destroy()
		entry.Client = nil
	}

	entry.Session.SetConnecting()
	o.sink.SessionConnecting(sessionID)

	client, err := o.factory.NewClient(ctx, sessionID, authPath, o)
	if err != nil {
		o.logger.ErrorWithFields("Failed to create whatsapp client", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		o.sink.SessionError(sessionID, "failed to initialize whatsapp client")
		return fmt.Errorf("%w: %v", ErrAdapterInit, err)
	}

	entry.Client = client

	if err := client.Start(ctx); err != nil {
		o.logger.ErrorWithFields("Failed to start whatsapp client", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		client.Destroy()
		entry.Client = nil
		o.sink.SessionError(sessionID, "failed to start whatsapp client")
		return fmt.Errorf("%w: %v", ErrAdapterInit, err)
	}

	o.logger.InfoWithFields("Session started", map[string]interface{}{
		"session_id": sessionID,
		"owner_id":   ownerID,
	})

	return nil
}

// RestoreAll varre o AuthStore e tenta reconectar cada sessão persistida.
// Falhas individuais são logadas e a sessão descartada; nunca bloqueiam a
// restauração das demais.
func (o *Orchestrator) RestoreAll(ctx context.Context) {
	stored, err := o.store.ListExisting()
	if err != nil {
		o.logger.ErrorWithFields("Failed to list persisted sessions", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	o.logger.InfoWithFields("Restoring persisted sessions", map[string]interface{}{
		"count": len(stored),
	})

	for _, s := range stored {
		if err := o.restoreOne(ctx, s); err != nil {
			o.logger.WarnWithFields("Failed to restore session, dropping", map[string]interface{}{
				"session_id": s.SessionID,
				"error":      err.Error(),
			})
			if entry, ok := o.registry.Remove(s.SessionID); ok {
				entry.Lock()
				if entry.Client != nil {
					entry.Client.Destroy()
				}
				entry.Unlock()
			}
		}
	}
}

func (o *Orchestrator) restoreOne(ctx context.Context, s StoredSession) error {
	entry := o.registry.GetOrCreate(s.SessionID, func() *Session {
		return NewSession(s.SessionID, s.OwnerID, s.Path)
	})

	entry.Lock()
	defer entry.Unlock()

	if entry.Client != nil {
		// Sessão já viva (start request chegou antes da restauração terminar)
		return nil
	}

	entry.Session.SetConnecting()

	client, err := o.factory.NewClient(ctx, s.SessionID, s.Path, o)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Start(ctx); err != nil {
		client.Destroy()
		return fmt.Errorf("failed to start client: %w", err)
	}

	entry.Client = client
	return nil
}

// Disconnect encerra a conexão de uma sessão preservando o material de
// autenticação; uma reconexão posterior dispensa novo QR.
func (o *Orchestrator) Disconnect(sessionID string) error {
	entry, ok := o.registry.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	entry.Lock()
	defer entry.Unlock()

	if entry.Client != nil {
		entry.Client.Destroy()
		entry.Client = nil
	}

	ownerID := entry.Session.OwnerID
	entry.Session.SetDisconnected(ReasonRequested.Message)
	o.invalidateNumbers(ownerID)
	o.sink.SessionDisconnected(sessionID, ReasonRequested.Message, ReasonRequested.Retryable)

	o.logger.InfoWithFields("Session disconnected by request", map[string]interface{}{
		"session_id": sessionID,
	})

	return nil
}

// Delete destrói o handle, remove a entrada do registro e apaga o material
// de autenticação. Válido em qualquer estado.
func (o *Orchestrator) Delete(ctx context.Context, sessionID string) error {
	entry, ok := o.registry.Remove(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	entry.Lock()
	defer entry.Unlock()

	if entry.Client != nil {
		if err := entry.Client.Logout(ctx); err != nil {
			o.logger.WarnWithFields("Failed to logout before delete", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		entry.Client.Destroy()
		entry.Client = nil
	}

	o.store.Delete(entry.Session.AuthPath)
	o.invalidateNumbers(entry.Session.OwnerID)

	o.logger.InfoWithFields("Session deleted", map[string]interface{}{
		"session_id": sessionID,
	})

	return nil
}

// ClearOwner remove todas as sessões e material de autenticação de um
// usuário. Ação manual de recuperação quando o WhatsApp rejeita tentativas
// repetidas de pareamento.
func (o *Orchestrator) ClearOwner(ctx context.Context, ownerID string) error {
	for _, snap := range o.registry.List() {
		if snap.OwnerID != ownerID {
			continue
		}
		if err := o.Delete(ctx, snap.ID); err != nil && err != ErrSessionNotFound {
			o.logger.WarnWithFields("Failed to delete session during clear", map[string]interface{}{
				"session_id": snap.ID,
				"error":      err.Error(),
			})
		}
	}

	// Diretórios órfãos de execuções anteriores também são limpos
	if err := o.store.WipeOwner(ownerID); err != nil {
		return fmt.Errorf("failed to wipe auth material: %w", err)
	}

	o.invalidateNumbers(ownerID)
	return nil
}

// Status retorna uma cópia do estado corrente da sessão
func (o *Orchestrator) Status(sessionID string) (Snapshot, error) {
	snap, ok := o.registry.Snapshot(sessionID)
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	return snap, nil
}

// Authorize valida que a sessão pertence ao usuário. Sessão inexistente é
// autorizada: um start request vai criá-la para este usuário.
func (o *Orchestrator) Authorize(sessionID, ownerID string) error {
	snap, ok := o.registry.Snapshot(sessionID)
	if !ok {
		return nil
	}
	if snap.OwnerID != ownerID {
		return ErrNotSessionOwner
	}
	return nil
}

// ConnectedNumbers retorna os números conectados de um usuário, com cache
func (o *Orchestrator) ConnectedNumbers(ownerID string) []string {
	o.numbersMu.Lock()
	if cached, ok := o.numbersCache[ownerID]; ok {
		o.numbersMu.Unlock()
		return cached
	}
	o.numbersMu.Unlock()

	var numbers []string
	for _, snap := range o.registry.List() {
		if snap.OwnerID == ownerID && snap.Status == StatusConnected && snap.PhoneNumber != "" {
			numbers = append(numbers, snap.PhoneNumber)
		}
	}

	o.numbersMu.Lock()
	o.numbersCache[ownerID] = numbers
	o.numbersMu.Unlock()

	return numbers
}

// Sessions retorna as sessões de um usuário
func (o *Orchestrator) Sessions(ownerID string) []Snapshot {
	var owned []Snapshot
	for _, snap := range o.registry.List() {
		if snap.OwnerID == ownerID {
			owned = append(owned, snap)
		}
	}
	return owned
}

// DrainAll desconecta todos os handles vivos. Chamado no shutdown; o
// material de autenticação é preservado para o próximo boot restaurar.
func (o *Orchestrator) DrainAll() {
	for _, snap := range o.registry.List() {
		entry, ok := o.registry.Remove(snap.ID)
		if !ok {
			continue
		}
		entry.Lock()
		if entry.Client != nil {
			entry.Client.Destroy()
			entry.Client = nil
		}
		entry.Unlock()
	}

	o.logger.Info("All session handles drained")
}

// StartReaper agenda a varredura de sessões ociosas até ctx ser cancelado
func (o *Orchestrator) StartReaper(ctx context.Context) {
	if o.config.IdleTimeout <= 0 || o.config.ReapInterval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(o.config.ReapInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.reapIdle()
			}
		}
	}()
}

// reapIdle desconecta sessões paradas em connecting/qr_ready além do limite.
// Sessões conectadas nunca são colhidas.
func (o *Orchestrator) reapIdle() {
	cutoff := time.Now().Add(-o.config.IdleTimeout)

	for _, snap := range o.registry.List() {
		if snap.Status != StatusConnecting && snap.Status != StatusQRReady {
			continue
		}
		if snap.LastActivity.After(cutoff) {
			continue
		}

		o.logger.InfoWithFields("Reaping idle session", map[string]interface{}{
			"session_id": snap.ID,
			"status":     string(snap.Status),
		})

		if err := o.Disconnect(snap.ID); err != nil && err != ErrSessionNotFound {
			o.logger.WarnWithFields("Failed to reap session", map[string]interface{}{
				"session_id": snap.ID,
				"error":      err.Error(),
			})
		}
	}
}

// ===== TRANSIÇÕES (chamadas pelo adapter) =====

// PairingChallenge transição connecting → qr_ready
func (o *Orchestrator) PairingChallenge(sessionID, qrPayload string) {
	entry, ok := o.registry.Get(sessionID)
	if !ok {
		return
	}

	entry.Lock()
	entry.Session.SetQRReady(qrPayload)
	entry.Unlock()

	o.sink.SessionQRReady(sessionID, qrPayload)
}

// SessionReady transição connecting/qr_ready → connected. No caminho de
// restauração não há passo de QR.
func (o *Orchestrator) SessionReady(sessionID, phoneNumber string) {
	entry, ok := o.registry.Get(sessionID)
	if !ok {
		return
	}

	entry.Lock()
	entry.Session.SetConnected(phoneNumber)
	ownerID := entry.Session.OwnerID
	phone := entry.Session.PhoneNumber
	entry.Unlock()

	o.invalidateNumbers(ownerID)
	o.sink.SessionConnected(sessionID, phone)

	o.logger.InfoWithFields("Session connected", map[string]interface{}{
		"session_id":   sessionID,
		"phone_number": phone,
	})
}

// SessionDropped transição de qualquer estado → disconnected. O material de
// autenticação é preservado; auth_rejected apenas sinaliza canRetry=false ao
// chamador.
func (o *Orchestrator) SessionDropped(sessionID string, reason DisconnectReason) {
	entry, ok := o.registry.Get(sessionID)
	if !ok {
		return
	}

	entry.Lock()
	entry.Session.SetDisconnected(reason.Message)
	ownerID := entry.Session.OwnerID
	entry.Unlock()

	o.invalidateNumbers(ownerID)
	o.sink.SessionDisconnected(sessionID, reason.Message, reason.Retryable)

	o.logger.WarnWithFields("Session dropped", map[string]interface{}{
		"session_id": sessionID,
		"reason":     reason.Code,
		"retryable":  reason.Retryable,
	})
}

// SessionFailed falha de inicialização do adapter; a sessão permanece em
// connecting e o chamador decide reemitir o start request.
func (o *Orchestrator) SessionFailed(sessionID string, err error) {
	if entry, ok := o.registry.Get(sessionID); ok {
		entry.Lock()
		entry.Session.Touch()
		entry.Unlock()
	}

	o.sink.SessionError(sessionID, err.Error())

	o.logger.ErrorWithFields("Session adapter failure", map[string]interface{}{
		"session_id": sessionID,
		"error":      err.Error(),
	})
}

// MessageReceived repassa mensagem recebida à ponte de ingestão
func (o *Orchestrator) MessageReceived(sessionID string, msg InboundMessage) {
	entry, ok := o.registry.Get(sessionID)
	if !ok {
		return
	}

	entry.Lock()
	entry.Session.Touch()
	ownerID := entry.Session.OwnerID
	entry.Unlock()

	if o.inbound == nil {
		return
	}

	// Falha de escrita não é retentada: o cliente externo reentrega no
	// próximo sync
	if err := o.inbound.HandleInbound(context.Background(), ownerID, msg); err != nil {
		o.logger.ErrorWithFields("Failed to ingest inbound message", map[string]interface{}{
			"session_id":    sessionID,
			"wa_message_id": msg.WaMessageID,
			"error":         err.Error(),
		})
	}
}

// ===== AUXILIARES =====

func (o *Orchestrator) invalidateNumbers(ownerID string) {
	o.numbersMu.Lock()
	delete(o.numbersCache, ownerID)
	o.numbersMu.Unlock()
}

func (o *Orchestrator) allowStart(ownerID string) bool {
	if o.config.StartRatePerMinute <= 0 {
		return true
	}

	o.limitersMu.Lock()
	limiter, ok := o.limiters[ownerID]
	if !ok {
		perSecond := rate.Limit(float64(o.config.StartRatePerMinute) / 60.0)
		limiter = rate.NewLimiter(perSecond, o.config.StartRatePerMinute)
		o.limiters[ownerID] = limiter
	}
	o.limitersMu.Unlock()

	return limiter.Allow()
}
