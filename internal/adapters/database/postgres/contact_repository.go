package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"zapcast/internal/core/inbox"
)

// ContactRepository implementa inbox.ContactRepository para PostgreSQL
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository cria uma nova instância do repositório de contatos
func NewContactRepository(db *sqlx.DB) inbox.ContactRepository {
	return &ContactRepository{
		db: db,
	}
}

// Create insere um novo contato
func (r *ContactRepository) Create(ctx context.Context, contact *inbox.Contact) error {
	query := `
		INSERT INTO "zcContacts" (
			id, "ownerId", name, "phoneNumber", status, "createdAt", "updatedAt"
		) VALUES (
			:id, :ownerId, :name, :phoneNumber, :status, :createdAt, :updatedAt
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, contact)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return inbox.ErrDuplicate
		}
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

// GetByPhone busca um contato pelo telefone normalizado do dono
func (r *ContactRepository) GetByPhone(ctx context.Context, ownerID, phoneNumber string) (*inbox.Contact, error) {
	var contact inbox.Contact
	query := `SELECT * FROM "zcContacts" WHERE "ownerId" = $1 AND "phoneNumber" = $2`

	err := r.db.GetContext(ctx, &contact, query, ownerID, phoneNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, inbox.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact by phone: %w", err)
	}

	return &contact, nil
}

// ListByOwner lista os contatos de um dono, mais recentes primeiro
func (r *ContactRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*inbox.Contact, error) {
	contacts := []*inbox.Contact{}
	query := `
		SELECT * FROM "zcContacts"
		WHERE "ownerId" = $1
		ORDER BY "updatedAt" DESC
		LIMIT $2 OFFSET $3
	`

	err := r.db.SelectContext(ctx, &contacts, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return contacts, nil
}
