package notifier

// Tipos de frame cliente→servidor
const (
	FrameConnect     = "connect"
	FrameDisconnect  = "disconnect"
	FrameCheckStatus = "check_status"
)

// Tipos de frame servidor→cliente
const (
	FrameConnecting   = "connecting"
	FrameQRReady      = "qr_ready"
	FrameConnected    = "connected"
	FrameDisconnected = "disconnected"
	FrameError        = "error"
	FrameStatusUpdate = "status_update"
)

// ClientFrame requisição recebida de um cliente do dashboard
type ClientFrame struct {
	Type      string `json:"type" validate:"required,oneof=connect disconnect check_status"`
	SessionID string `json:"sessionId" validate:"required,min=1,max=64"`
	UserID    string `json:"userId,omitempty"`
}

// ServerFrame frame emitido a cada transição da sessão. RetryAfterSeconds
// acompanha desconexões não-retryable: é o cool-down que o dashboard deve
// respeitar antes de oferecer um novo pareamento.
type ServerFrame struct {
	Type              string `json:"type"`
	SessionID         string `json:"sessionId"`
	QRCode            string `json:"qrCode,omitempty"`
	PhoneNumber       string `json:"phoneNumber,omitempty"`
	Status            string `json:"status,omitempty"`
	Message           string `json:"message,omitempty"`
	CanRetry          *bool  `json:"canRetry,omitempty"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

func boolPtr(v bool) *bool {
	return &v
}
