package waclient

import (
	"context"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"zapcast/internal/core/session"
	"zapcast/platform/config"
	"zapcast/platform/logger"
)

const credentialDBFile = "whatsmeow.db"

// WaLogger adapta o logger da aplicação para a interface de log do whatsmeow
type WaLogger struct {
	logger *logger.Logger
	module string
}

// NewWaLogger cria o adapter de log do whatsmeow
func NewWaLogger(appLogger *logger.Logger) waLog.Logger {
	return &WaLogger{
		logger: appLogger,
		module: "whatsmeow",
	}
}

func (w *WaLogger) Errorf(msg string, args ...interface{}) {
	w.logger.ErrorWithFields(fmt.Sprintf(msg, args...), map[string]interface{}{
		"module": w.module,
	})
}

func (w *WaLogger) Warnf(msg string, args ...interface{}) {
	w.logger.WarnWithFields(fmt.Sprintf(msg, args...), map[string]interface{}{
		"module": w.module,
	})
}

func (w *WaLogger) Infof(msg string, args ...interface{}) {
	w.logger.InfoWithFields(fmt.Sprintf(msg, args...), map[string]interface{}{
		"module": w.module,
	})
}

func (w *WaLogger) Debugf(msg string, args ...interface{}) {
	w.logger.DebugWithFields(fmt.Sprintf(msg, args...), map[string]interface{}{
		"module": w.module,
	})
}

func (w *WaLogger) Sub(module string) waLog.Logger {
	return &WaLogger{
		logger: w.logger,
		module: fmt.Sprintf("%s.%s", w.module, module),
	}
}

// Factory implementa session.ClientFactory sobre whatsmeow. As credenciais de
// cada sessão vivem em um container sqlite dentro do próprio authPath, de modo
// que o diretório da sessão é autocontido e sobrevive a restarts.
type Factory struct {
	logger *logger.Logger
	qr     *QRRenderer
	config config.WhatsAppConfig
}

// NewFactory cria a fábrica de clientes WhatsApp
func NewFactory(cfg config.WhatsAppConfig, appLogger *logger.Logger) *Factory {
	return &Factory{
		logger: appLogger.WithModule("waclient"),
		qr:     NewQRRenderer(appLogger, cfg.QRInTerminal),
		config: cfg,
	}
}

// NewClient implementa session.ClientFactory.NewClient
func (f *Factory) NewClient(ctx context.Context, sessionID, authPath string, transitions session.Transitions) (session.Client, error) {
	waLogger := NewWaLogger(f.logger)

	dbPath := filepath.Join(authPath, credentialDBFile)
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath), waLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential container: %w", err)
	}

	// Reusa o device persistido quando a sessão já pareou antes
	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		deviceStore = container.NewDevice()
	}

	store.DeviceProps.Os = proto.String(f.config.DeviceName)

	whatsmeowClient := whatsmeow.NewClient(deviceStore, waLogger)

	return newClient(sessionID, whatsmeowClient, transitions, f.qr, f.logger), nil
}
