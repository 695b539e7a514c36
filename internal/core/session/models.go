package session

import (
	"time"
)

// Status estado de uma sessão dentro de uma tentativa de pareamento
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusQRReady      Status = "qr_ready"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Session representa uma tentativa de vínculo de uma conta WhatsApp e sua vida útil.
// Mutação de Status/QRPayload/PhoneNumber é exclusiva do Orchestrator; demais
// componentes leem via Snapshot.
type Session struct {
	ID           string
	OwnerID      string
	Status       Status
	QRPayload    string
	PhoneNumber  string
	LastError    string
	AuthPath     string
	CreatedAt    time.Time
	LastActivity time.Time
}

// NewSession cria uma nova sessão em estado connecting
func NewSession(id, ownerID, authPath string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		OwnerID:      ownerID,
		Status:       StatusConnecting,
		AuthPath:     authPath,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Touch atualiza o timestamp de última atividade
func (s *Session) Touch() {
	s.LastActivity = time.Now()
}

// SetConnecting reinicia a sessão para uma nova tentativa de pareamento
func (s *Session) SetConnecting() {
	s.Status = StatusConnecting
	s.QRPayload = ""
	s.LastError = ""
	s.Touch()
}

// SetQRReady registra o desafio de pareamento corrente.
// Invariante: QRPayload é não-vazio se e somente se Status == qr_ready.
func (s *Session) SetQRReady(qrPayload string) {
	s.Status = StatusQRReady
	s.QRPayload = qrPayload
	s.Touch()
}

// SetConnected registra pareamento aceito; limpa o QR e fixa o número
func (s *Session) SetConnected(phoneNumber string) {
	s.Status = StatusConnected
	s.QRPayload = ""
	if phoneNumber != "" {
		s.PhoneNumber = phoneNumber
	}
	s.LastError = ""
	s.Touch()
}

// SetDisconnected registra queda ou encerramento; o número é mantido para exibição
func (s *Session) SetDisconnected(reason string) {
	s.Status = StatusDisconnected
	s.QRPayload = ""
	s.LastError = reason
	s.Touch()
}

// IsLive indica se a sessão possui uma tentativa de pareamento ou conexão em curso
func (s *Session) IsLive() bool {
	return s.Status == StatusConnecting || s.Status == StatusQRReady || s.Status == StatusConnected
}

// Snapshot cópia imutável de uma sessão para leitura fora do Orchestrator
type Snapshot struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Status       Status    `json:"status"`
	QRPayload    string    `json:"qrPayload,omitempty"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	LastError    string    `json:"lastError,omitempty"`
	AuthPath     string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// Snapshot retorna uma cópia dos campos visíveis da sessão
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:           s.ID,
		OwnerID:      s.OwnerID,
		Status:       s.Status,
		QRPayload:    s.QRPayload,
		PhoneNumber:  s.PhoneNumber,
		LastError:    s.LastError,
		AuthPath:     s.AuthPath,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
	}
}
