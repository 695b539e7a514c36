package inbox

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"zapcast/internal/core/session"
	"zapcast/platform/logger"
)

// Service ponte de ingestão: transforma mensagens recebidas do WhatsApp em
// registros de contato, conversa e mensagem. Find-or-create idempotente;
// nenhuma deduplicação além da aplicada pelo armazenamento.
type Service struct {
	contacts      ContactRepository
	conversations ConversationRepository
	messages      MessageRepository
	logger        *logger.Logger
}

// NewService cria a ponte de ingestão
func NewService(
	contacts ContactRepository,
	conversations ConversationRepository,
	messages MessageRepository,
	appLogger *logger.Logger,
) *Service {
	return &Service{
		contacts:      contacts,
		conversations: conversations,
		messages:      messages,
		logger:        appLogger.WithModule("inbox"),
	}
}

// HandleInbound implementa session.InboundHandler
func (s *Service) HandleInbound(ctx context.Context, ownerID string, msg session.InboundMessage) error {
	phone := NormalizePhone(msg.From)
	if phone == "" {
		return fmt.Errorf("inbound message without sender phone")
	}

	contact, err := s.findOrCreateContact(ctx, ownerID, phone)
	if err != nil {
		return fmt.Errorf("failed to resolve contact: %w", err)
	}

	conversation, err := s.findOrCreateConversation(ctx, ownerID, contact.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve conversation: %w", err)
	}

	messageType := msg.MessageType
	if messageType == "" {
		messageType = "text"
	}

	waID := msg.WaMessageID
	message := &Message{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		Content:        msg.Content,
		Direction:      DirectionIncoming,
		Status:         "received",
		MessageType:    messageType,
		Timestamp:      msg.Timestamp,
	}
	if waID != "" {
		message.WaMessageID = &waID
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	if err := s.conversations.RecordIncoming(ctx, conversation.ID); err != nil {
		// Mensagem já persistida; contador desatualizado é tolerável
		s.logger.WarnWithFields("Failed to update conversation counters", map[string]interface{}{
			"conversation_id": conversation.ID.String(),
			"error":           err.Error(),
		})
	}

	s.logger.DebugWithFields("Inbound message ingested", map[string]interface{}{
		"owner_id":        ownerID,
		"conversation_id": conversation.ID.String(),
		"message_type":    messageType,
	})

	return nil
}

func (s *Service) findOrCreateContact(ctx context.Context, ownerID, phone string) (*Contact, error) {
	contact, err := s.contacts.GetByPhone(ctx, ownerID, phone)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	contact = NewContact(ownerID, phone, phone)
	if err := s.contacts.Create(ctx, contact); err != nil {
		// Corrida com outra mensagem do mesmo remetente: relê
		if existing, getErr := s.contacts.GetByPhone(ctx, ownerID, phone); getErr == nil {
			return existing, nil
		}
		return nil, err
	}

	return contact, nil
}

func (s *Service) findOrCreateConversation(ctx context.Context, ownerID string, contactID uuid.UUID) (*Conversation, error) {
	conversation, err := s.conversations.GetByContact(ctx, ownerID, contactID)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	conversation = NewConversation(ownerID, contactID)
	if err := s.conversations.Create(ctx, conversation); err != nil {
		if existing, getErr := s.conversations.GetByContact(ctx, ownerID, contactID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}

	return conversation, nil
}

// ListContacts leitura paginada para o dashboard
func (s *Service) ListContacts(ctx context.Context, ownerID string, limit, offset int) ([]*Contact, error) {
	limit, offset = clampPage(limit, offset)
	return s.contacts.ListByOwner(ctx, ownerID, limit, offset)
}

// ListConversations leitura paginada para o dashboard
func (s *Service) ListConversations(ctx context.Context, ownerID string, limit, offset int) ([]*Conversation, error) {
	limit, offset = clampPage(limit, offset)
	return s.conversations.ListByOwner(ctx, ownerID, limit, offset)
}

// ListMessages leitura paginada das mensagens de uma conversa
func (s *Service) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, error) {
	limit, offset = clampPage(limit, offset)
	return s.messages.ListByConversation(ctx, conversationID, limit, offset)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// NormalizePhone reduz um identificador de remetente (JID ou número) ao
// formato de telefone do sistema: apenas dígitos, sem sufixo de servidor
func NormalizePhone(raw string) string {
	if idx := strings.Index(raw, "@"); idx >= 0 {
		raw = raw[:idx]
	}
	if idx := strings.Index(raw, ":"); idx >= 0 {
		raw = raw[:idx]
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
