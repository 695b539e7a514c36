package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"zapcast/internal/core/inbox"
)

// ConversationRepository implementa inbox.ConversationRepository para PostgreSQL
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository cria uma nova instância do repositório de conversas
func NewConversationRepository(db *sqlx.DB) inbox.ConversationRepository {
	return &ConversationRepository{
		db: db,
	}
}

// Create insere uma nova conversa
func (r *ConversationRepository) Create(ctx context.Context, conversation *inbox.Conversation) error {
	query := `
		INSERT INTO "zcConversations" (
			id, "ownerId", "contactId", "lastMessageAt", "unreadCount", "createdAt", "updatedAt"
		) VALUES (
			:id, :ownerId, :contactId, :lastMessageAt, :unreadCount, :createdAt, :updatedAt
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, conversation)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return inbox.ErrDuplicate
		}
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

// GetByContact busca a conversa de um contato do dono
func (r *ConversationRepository) GetByContact(ctx context.Context, ownerID string, contactID uuid.UUID) (*inbox.Conversation, error) {
	var conversation inbox.Conversation
	query := `SELECT * FROM "zcConversations" WHERE "ownerId" = $1 AND "contactId" = $2`

	err := r.db.GetContext(ctx, &conversation, query, ownerID, contactID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, inbox.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation by contact: %w", err)
	}

	return &conversation, nil
}

// ListByOwner lista as conversas de um dono, atividade mais recente primeiro
func (r *ConversationRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*inbox.Conversation, error) {
	conversations := []*inbox.Conversation{}
	query := `
		SELECT * FROM "zcConversations"
		WHERE "ownerId" = $1
		ORDER BY "lastMessageAt" DESC NULLS LAST, "createdAt" DESC
		LIMIT $2 OFFSET $3
	`

	err := r.db.SelectContext(ctx, &conversations, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	return conversations, nil
}

// RecordIncoming avança os contadores da conversa após uma mensagem recebida
func (r *ConversationRepository) RecordIncoming(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE "zcConversations"
		SET "lastMessageAt" = NOW(),
		    "unreadCount" = "unreadCount" + 1,
		    "updatedAt" = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("failed to record incoming message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return inbox.ErrNotFound
	}

	return nil
}
