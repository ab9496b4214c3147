package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/ticketdesk/ticket-core/pkg/util"

	"github.com/ticketdesk/ticket-core/internal/assist"
	"github.com/ticketdesk/ticket-core/internal/domain"
)

// AssistService generates AI-suggested replies and appends them to the
// ticket thread as assistant entries. Unavailable when no LLM is
// configured.
type AssistService struct {
	tickets *TicketService
	client  assist.Client
}

// NewAssistService constructs the service. client may be nil.
func NewAssistService(tickets *TicketService, client assist.Client) *AssistService {
	return &AssistService{tickets: tickets, client: client}
}

// Enabled reports whether an LLM backend is configured.
func (s *AssistService) Enabled() bool {
	return s.client != nil
}

// SuggestReply asks the LLM for a reply to the latest customer message and
// records it on the ticket as an assistant conversation entry.
func (s *AssistService) SuggestReply(ctx context.Context, ticketID, message string) (*domain.ConversationEntry, error) {
	if !s.Enabled() {
		return nil, apperrors.NewDependencyError("assist llm", nil)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}

	ticket, entries, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	reply, err := s.client.Complete(ctx, buildReplyPrompt(ticket, entries, message))
	if err != nil {
		return nil, apperrors.NewDependencyError("assist llm", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, apperrors.NewDependencyError("assist llm", fmt.Errorf("empty completion"))
	}

	return s.tickets.AppendConversation(ctx, ticket.ID, ConversationInput{
		AuthorRole: domain.RoleAssistant,
		AuthorName: "assistant",
		Text:       reply,
	})
}

// buildReplyPrompt renders the ticket and its thread into a single support
// prompt. Only the most recent entries are included to bound prompt size.
func buildReplyPrompt(ticket *domain.Ticket, entries []domain.ConversationEntry, message string) string {
	const maxEntries = 10

	var b strings.Builder
	b.WriteString("You are a support agent drafting a reply to a customer ticket.\n")
	fmt.Fprintf(&b, "Ticket: %s\n", ticket.Title)
	fmt.Fprintf(&b, "Category: %s, priority: %s, status: %s\n", ticket.Category, ticket.Priority, ticket.Status)
	fmt.Fprintf(&b, "Description: %s\n", ticket.Description)

	if start := len(entries) - maxEntries; start > 0 {
		entries = entries[start:]
	}
	if len(entries) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, entry := range entries {
			fmt.Fprintf(&b, "[%s] %s\n", entry.AuthorRole, entry.Text)
		}
	}

	fmt.Fprintf(&b, "Latest customer message: %s\n", message)
	b.WriteString("Write a concise, helpful reply. Do not invent account details.")
	return b.String()
}
