package waclient

import (
	"testing"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"google.golang.org/protobuf/proto"

	"zapcast/platform/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.TestConfig())
}

func TestExtractContent(t *testing.T) {
	cases := []struct {
		name        string
		message     *waE2E.Message
		wantContent string
		wantType    string
	}{
		{
			name:        "nil message",
			message:     nil,
			wantContent: "",
			wantType:    "unknown",
		},
		{
			name:        "plain conversation",
			message:     &waE2E.Message{Conversation: proto.String("oi")},
			wantContent: "oi",
			wantType:    "text",
		},
		{
			name: "extended text",
			message: &waE2E.Message{
				ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("link http://x")},
			},
			wantContent: "link http://x",
			wantType:    "text",
		},
		{
			name: "image with caption",
			message: &waE2E.Message{
				ImageMessage: &waE2E.ImageMessage{Caption: proto.String("foto")},
			},
			wantContent: "foto",
			wantType:    "image",
		},
		{
			name:        "audio",
			message:     &waE2E.Message{AudioMessage: &waE2E.AudioMessage{}},
			wantContent: "[Audio]",
			wantType:    "audio",
		},
		{
			name: "document",
			message: &waE2E.Message{
				DocumentMessage: &waE2E.DocumentMessage{FileName: proto.String("nota.pdf")},
			},
			wantContent: "[Document: nota.pdf]",
			wantType:    "document",
		},
		{
			name:        "empty message",
			message:     &waE2E.Message{},
			wantContent: "[Unknown message type]",
			wantType:    "unknown",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			content, messageType := extractContent(tc.message)
			if content != tc.wantContent || messageType != tc.wantType {
				t.Errorf("extractContent() = (%q, %q), want (%q, %q)",
					content, messageType, tc.wantContent, tc.wantType)
			}
		})
	}
}

func TestQRRendererDataURI(t *testing.T) {
	renderer := NewQRRenderer(newTestLogger(t), false)

	uri, err := renderer.DataURI("2@abc,def,ghi")
	if err != nil {
		t.Fatalf("DataURI: %v", err)
	}

	const prefix = "data:image/png;base64,"
	if len(uri) <= len(prefix) || uri[:len(prefix)] != prefix {
		t.Errorf("uri = %.40s..., want %s prefix", uri, prefix)
	}
}
