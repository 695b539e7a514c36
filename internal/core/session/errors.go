package session

import (
	"errors"
)

// Erros de operações de sessão
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotSessionOwner  = errors.New("session does not belong to this user")
	ErrStartRateLimited = errors.New("too many session start requests")
	ErrAdapterInit      = errors.New("failed to initialize whatsapp client")
)

// DisconnectReason descreve por que uma sessão caiu e se o chamador pode tentar de novo
type DisconnectReason struct {
	Code      string
	Message   string
	Retryable bool
}

// Razões de desconexão padronizadas. AuthRejected carrega Retryable=false: o
// cool-down até nova tentativa é política do chamador, não do core.
var (
	ReasonPairingTimeout = DisconnectReason{
		Code:      "pairing_timeout",
		Message:   "pairing window expired before the QR code was scanned",
		Retryable: true,
	}
	ReasonAuthRejected = DisconnectReason{
		Code:      "auth_rejected",
		Message:   "whatsapp rejected the credentials for this session",
		Retryable: false,
	}
	ReasonTransportLost = DisconnectReason{
		Code:      "transport_lost",
		Message:   "connection to whatsapp was lost",
		Retryable: true,
	}
	ReasonRequested = DisconnectReason{
		Code:      "requested",
		Message:   "session disconnected by request",
		Retryable: true,
	}
)
