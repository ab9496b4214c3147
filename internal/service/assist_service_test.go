package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/ticketdesk/ticket-core/pkg/util"

	"github.com/ticketdesk/ticket-core/internal/domain"
	"github.com/ticketdesk/ticket-core/internal/events"
)

type cannedCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (c *cannedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func TestSuggestReplyAppendsAssistantEntry(t *testing.T) {
	tickets, recorder := newTestService()
	ctx := context.Background()

	ticket, err := tickets.CreateTicket(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := tickets.AppendConversation(ctx, ticket.ID, ConversationInput{
		AuthorRole: domain.RoleUser,
		AuthorName: "alex",
		Text:       "still cannot log in after clearing cookies",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	completer := &cannedCompleter{reply: "Please try the password reset link we just issued."}
	svc := NewAssistService(tickets, completer)

	entry, err := svc.SuggestReply(ctx, ticket.ID, "customer says reset email never arrives")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if entry.AuthorRole != domain.RoleAssistant {
		t.Fatalf("expected assistant entry, got %s", entry.AuthorRole)
	}
	if entry.Text != "Please try the password reset link we just issued." {
		t.Fatalf("unexpected reply text: %q", entry.Text)
	}

	// the prompt carries the ticket context and the thread
	if len(completer.prompts) != 1 {
		t.Fatalf("expected one completion call, got %d", len(completer.prompts))
	}
	prompt := completer.prompts[0]
	for _, want := range []string{ticket.Title, "still cannot log in", "reset email never arrives"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}

	// the assistant entry lands in the stored thread and emits an event
	_, entries, err := tickets.GetTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	last := entries[len(entries)-1]
	if last.AuthorRole != domain.RoleAssistant || last.ID != entry.ID {
		t.Fatalf("assistant entry not persisted last: %+v", entries)
	}
	if len(recorder.ofType(events.EventConversationAdded)) != 2 {
		t.Fatalf("expected conversation events for both entries")
	}
}

func TestSuggestReplyUnavailableWithoutClient(t *testing.T) {
	tickets, _ := newTestService()
	svc := NewAssistService(tickets, nil)

	_, err := svc.SuggestReply(context.Background(), "any", "help")
	if apperrors.ToDomainError(err).Code != "DEPENDENCY_UNAVAILABLE" {
		t.Fatalf("expected dependency error when llm not configured, got %v", err)
	}
}

func TestSuggestReplySurfacesLLMFailure(t *testing.T) {
	tickets, _ := newTestService()
	ctx := context.Background()

	ticket, err := tickets.CreateTicket(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	svc := NewAssistService(tickets, &cannedCompleter{err: errors.New("rate limited")})
	_, err = svc.SuggestReply(ctx, ticket.ID, "please draft a reply")
	if apperrors.ToDomainError(err).Code != "DEPENDENCY_UNAVAILABLE" {
		t.Fatalf("expected dependency error on llm failure, got %v", err)
	}

	// a failed completion must not leave a partial assistant entry
	_, entries, err := tickets.GetTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, entry := range entries {
		if entry.AuthorRole == domain.RoleAssistant {
			t.Fatalf("unexpected assistant entry: %+v", entry)
		}
	}
}

func TestSuggestReplyValidatesInput(t *testing.T) {
	tickets, _ := newTestService()
	svc := NewAssistService(tickets, &cannedCompleter{reply: "ok"})

	_, err := svc.SuggestReply(context.Background(), "any", "   ")
	if apperrors.ToDomainError(err).Code != "VALIDATION_FAILED" {
		t.Fatalf("expected validation error for empty message, got %v", err)
	}
}
