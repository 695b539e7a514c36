package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"zapcast/internal/core/inbox"
)

// MessageRepository implementa inbox.MessageRepository para PostgreSQL
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository cria uma nova instância do repositório de mensagens
func NewMessageRepository(db *sqlx.DB) inbox.MessageRepository {
	return &MessageRepository{
		db: db,
	}
}

// Create insere uma nova mensagem
func (r *MessageRepository) Create(ctx context.Context, message *inbox.Message) error {
	query := `
		INSERT INTO "zcMessages" (
			id, "conversationId", content, direction, status,
			"messageType", "waMessageId", timestamp, "createdAt"
		) VALUES (
			:id, :conversationId, :content, :direction, :status,
			:messageType, :waMessageId, :timestamp, :createdAt
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, message)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return inbox.ErrDuplicate
		}
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// ListByConversation lista as mensagens de uma conversa em ordem cronológica
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*inbox.Message, error) {
	messages := []*inbox.Message{}
	query := `
		SELECT * FROM "zcMessages"
		WHERE "conversationId" = $1
		ORDER BY timestamp ASC
		LIMIT $2 OFFSET $3
	`

	err := r.db.SelectContext(ctx, &messages, query, conversationID.String(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}
