package waclient

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/mdp/qrterminal/v3"
	"github.com/skip2/go-qrcode"

	"zapcast/platform/logger"
)

// QRRenderer converte o código de pareamento em artefatos exibíveis
type QRRenderer struct {
	logger     *logger.Logger
	inTerminal bool
}

// NewQRRenderer cria o renderizador de QR codes
func NewQRRenderer(appLogger *logger.Logger, inTerminal bool) *QRRenderer {
	return &QRRenderer{
		logger:     appLogger.WithModule("qr"),
		inTerminal: inTerminal,
	}
}

// DataURI gera o QR code como imagem PNG em data URI, pronto para um <img>
func (r *QRRenderer) DataURI(code string) (string, error) {
	pngBytes, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}

	base64Image := base64.StdEncoding.EncodeToString(pngBytes)
	return fmt.Sprintf("data:image/png;base64,%s", base64Image), nil
}

// Display exibe o QR code no terminal quando habilitado (conveniência de dev)
func (r *QRRenderer) Display(code, sessionID string) {
	if !r.inTerminal {
		return
	}

	config := qrterminal.Config{
		Level:     qrterminal.M,
		Writer:    os.Stdout,
		BlackChar: qrterminal.BLACK,
		WhiteChar: qrterminal.WHITE,
		QuietZone: 1,
	}
	qrterminal.GenerateWithConfig(code, config)

	r.logger.InfoWithFields("QR code displayed in terminal", map[string]interface{}{
		"session_id": sessionID,
	})
}
