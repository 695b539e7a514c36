package waclient

import (
	"fmt"

	"go.mau.fi/whatsmeow/proto/waE2E"
)

// extractContent extrai texto e tipo de uma mensagem do WhatsApp
func extractContent(message *waE2E.Message) (string, string) {
	if message == nil {
		return "", "unknown"
	}

	switch {
	case message.GetConversation() != "":
		return message.GetConversation(), "text"

	case message.GetExtendedTextMessage() != nil:
		return message.GetExtendedTextMessage().GetText(), "text"

	case message.GetImageMessage() != nil:
		return message.GetImageMessage().GetCaption(), "image"

	case message.GetVideoMessage() != nil:
		return message.GetVideoMessage().GetCaption(), "video"

	case message.GetAudioMessage() != nil:
		return "[Audio]", "audio"

	case message.GetDocumentMessage() != nil:
		return fmt.Sprintf("[Document: %s]", message.GetDocumentMessage().GetFileName()), "document"

	case message.GetStickerMessage() != nil:
		return "[Sticker]", "sticker"

	case message.GetLocationMessage() != nil:
		return "[Location]", "location"

	case message.GetContactMessage() != nil:
		return fmt.Sprintf("[Contact: %s]", message.GetContactMessage().GetDisplayName()), "contact"

	default:
		return "[Unknown message type]", "unknown"
	}
}
