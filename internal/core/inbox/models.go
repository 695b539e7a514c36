package inbox

import (
	"time"

	"github.com/google/uuid"
)

// Direções de mensagem
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// Contact contato do CRM vinculado a um usuário do dashboard
type Contact struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     string    `json:"ownerId" db:"ownerId"`
	Name        string    `json:"name" db:"name"`
	PhoneNumber string    `json:"phoneNumber" db:"phoneNumber"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updatedAt"`
}

// NewContact cria um contato ativo
func NewContact(ownerID, name, phoneNumber string) *Contact {
	now := time.Now()
	return &Contact{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		PhoneNumber: phoneNumber,
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Conversation conversa entre um contato e o usuário do dashboard
type Conversation struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	OwnerID       string     `json:"ownerId" db:"ownerId"`
	ContactID     uuid.UUID  `json:"contactId" db:"contactId"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty" db:"lastMessageAt"`
	UnreadCount   int        `json:"unreadCount" db:"unreadCount"`
	CreatedAt     time.Time  `json:"createdAt" db:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updatedAt"`
}

// NewConversation cria uma conversa vazia
func NewConversation(ownerID string, contactID uuid.UUID) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		ContactID: contactID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Message mensagem persistida de uma conversa
type Message struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ConversationID uuid.UUID `json:"conversationId" db:"conversationId"`
	Content        string    `json:"content" db:"content"`
	Direction      string    `json:"direction" db:"direction"`
	Status         string    `json:"status" db:"status"`
	MessageType    string    `json:"messageType" db:"messageType"`
	WaMessageID    *string   `json:"waMessageId,omitempty" db:"waMessageId"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
	CreatedAt      time.Time `json:"createdAt" db:"createdAt"`
}
