package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ticketdesk/ticket-core/internal/domain"
)

func newTicket(id, title, description string) *domain.Ticket {
	return &domain.Ticket{
		ID:          id,
		Title:       title,
		Description: description,
		Category:    domain.CategoryTechnical,
		Priority:    domain.TicketPriorityMedium,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   "alex",
	}
}

func TestMemoryRepositoryCreateAndGet(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	ticket := newTicket("t1", "Printer broken", "The office printer jams")
	if err := repo.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.Version != 1 || ticket.CreatedAt.IsZero() {
		t.Fatalf("expected version 1 and timestamps set, got %+v", ticket)
	}

	got, err := repo.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Printer broken" {
		t.Fatalf("unexpected ticket: %+v", got)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows for missing ticket, got %v", err)
	}
}

func TestMemoryRepositoryVersionCheck(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	ticket := newTicket("t1", "A", "B")
	if err := repo.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}

	stale := *ticket
	ticket.Status = domain.TicketStatusInProgress
	if err := repo.Update(ctx, ticket); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if ticket.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", ticket.Version)
	}

	stale.Status = domain.TicketStatusClosed
	if err := repo.Update(ctx, &stale); !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}
}

func TestMemoryRepositorySearch(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	_ = repo.Create(ctx, newTicket("t1", "VPN is flaky", "Connection drops hourly"))
	_ = repo.Create(ctx, newTicket("t2", "Billing question", "Invoice looks wrong"))

	query := "vpn"
	result, err := repo.Search(ctx, TicketFilter{Query: &query})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result) != 1 || result[0].ID != "t1" {
		t.Fatalf("expected only t1, got %+v", result)
	}

	query = "nothing matches this"
	result, err = repo.Search(ctx, TicketFilter{Query: &query})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestMemoryRepositoryEntriesOrdered(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	_ = repo.Create(ctx, newTicket("t1", "A", "B"))
	base := time.Now().UTC()
	for i, text := range []string{"first", "second", "third"} {
		entry := &domain.ConversationEntry{
			ID:         text,
			TicketID:   "t1",
			AuthorRole: domain.RoleUser,
			AuthorName: "alex",
			Text:       text,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.AppendEntry(ctx, entry); err != nil {
			t.Fatalf("append %s: %v", text, err)
		}
	}

	entries, err := repo.ListEntries(ctx, "t1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"first", "second", "third"} {
		if entries[i].Text != want {
			t.Fatalf("entries out of order: %+v", entries)
		}
	}

	if err := repo.AppendEntry(ctx, &domain.ConversationEntry{ID: "x", TicketID: "missing"}); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows appending to missing ticket, got %v", err)
	}
}
