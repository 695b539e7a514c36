package inbox

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Erros de repositório
var (
	ErrNotFound  = errors.New("resource not found")
	ErrDuplicate = errors.New("resource already exists")
)

// ContactRepository persistência de contatos
type ContactRepository interface {
	Create(ctx context.Context, contact *Contact) error
	GetByPhone(ctx context.Context, ownerID, phoneNumber string) (*Contact, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Contact, error)
}

// ConversationRepository persistência de conversas
type ConversationRepository interface {
	Create(ctx context.Context, conversation *Conversation) error
	GetByContact(ctx context.Context, ownerID string, contactID uuid.UUID) (*Conversation, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Conversation, error)
	RecordIncoming(ctx context.Context, id uuid.UUID) error
}

// MessageRepository persistência de mensagens
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, error)
}
