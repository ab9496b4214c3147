package events

import (
	"time"

	"github.com/ticketdesk/ticket-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketClosed        EventType = "ticket_closed"
	EventConversationAdded   EventType = "conversation_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title     string                `json:"title"`
	Category  domain.TicketCategory `json:"category"`
	Priority  domain.TicketPriority `json:"priority"`
	Status    domain.TicketStatus   `json:"status"`
	CreatedBy string                `json:"created_by"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Priority        domain.TicketPriority `json:"priority"`
	Severity        string                `json:"severity"`
	MatchedKeywords []string              `json:"matched_keywords,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// ConversationAddedPayload payload.
type ConversationAddedPayload struct {
	EntryID     string            `json:"entry_id"`
	AuthorRole  domain.AuthorRole `json:"author_role"`
	AuthorName  string            `json:"author_name"`
	TextPreview string            `json:"text_preview"`
}
