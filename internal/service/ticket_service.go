package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/ticketdesk/ticket-core/pkg/util"

	"github.com/ticketdesk/ticket-core/internal/domain"
	"github.com/ticketdesk/ticket-core/internal/events"
	"github.com/ticketdesk/ticket-core/internal/observability"
	"github.com/ticketdesk/ticket-core/internal/repository"
	"github.com/ticketdesk/ticket-core/internal/triage"
)

// TicketService coordinates ticket workflows: creation with automatic
// triage, status transitions, conversation threads and search.
type TicketService struct {
	tickets    repository.TicketRepository
	engine     *triage.Engine
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Engine     *triage.Engine
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	Category     domain.TicketCategory
	Priority     domain.TicketPriority
	CreatedBy    string
	ContactEmail *string
}

// TicketUpdateInput describes a partial ticket update. Nil fields are left
// untouched. ExpectedVersion, when set, rejects writes against a newer
// revision of the ticket.
type TicketUpdateInput struct {
	Status          *domain.TicketStatus
	Priority        *domain.TicketPriority
	Title           *string
	Description     *string
	ExpectedVersion *int64
}

// ConversationInput describes an entry to append.
type ConversationInput struct {
	AuthorRole domain.AuthorRole
	AuthorName string
	Text       string
	Attachment *domain.AttachmentReference
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		engine:     deps.Engine,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
	}
}

// CreateTicket validates input, persists the ticket and runs triage.
// Tickets the triage engine flags are persisted already escalated, so the
// caller sees the final status in the creation response.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	createdBy := strings.TrimSpace(input.CreatedBy)
	if title == "" || description == "" || createdBy == "" || input.Category == "" {
		return nil, apperrors.NewValidationError("title, description, category, created_by required", nil)
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	ticket := &domain.Ticket{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  description,
		Category:     input.Category,
		Priority:     priority,
		Status:       domain.TicketStatusOpen,
		CreatedBy:    createdBy,
		ContactEmail: input.ContactEmail,
	}

	decision := s.engine.Evaluate(ticket.Priority, ticket.Title, ticket.Description)
	if decision.Escalate {
		ticket.Status = domain.TicketStatusEscalated
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, storeErr(err)
	}
	s.metrics.Incr("tickets_created")

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Title:     ticket.Title,
			Category:  ticket.Category,
			Priority:  ticket.Priority,
			Status:    ticket.Status,
			CreatedBy: ticket.CreatedBy,
		},
	})
	if decision.Escalate {
		s.noteEscalation(ctx, ticket, decision)
	}
	return ticket, nil
}

// GetTicket fetches a ticket with its conversation thread.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, []domain.ConversationEntry, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, nil, ticketErr(id, err)
	}
	entries, err := s.tickets.ListEntries(ctx, ticket.ID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	return ticket, entries, nil
}

// SearchTickets resolves a query to tickets. A query matching a ticket id
// exactly returns that ticket alone; otherwise the query is a substring
// match over title and description. An empty query lists recent tickets.
func (s *TicketService) SearchTickets(ctx context.Context, query string, limit, offset int) ([]domain.Ticket, error) {
	query = strings.TrimSpace(query)
	if query != "" {
		if _, parseErr := uuid.Parse(query); parseErr == nil {
			ticket, err := s.tickets.GetByID(ctx, query)
			if err == nil {
				return []domain.Ticket{*ticket}, nil
			}
			if !errors.Is(err, pgx.ErrNoRows) {
				return nil, storeErr(err)
			}
			return []domain.Ticket{}, nil
		}
	}

	filter := repository.TicketFilter{Limit: limit, Offset: offset}
	if query != "" {
		filter.Query = &query
	}
	result, err := s.tickets.Search(ctx, filter)
	if err != nil {
		return nil, storeErr(err)
	}
	if result == nil {
		result = []domain.Ticket{}
	}
	return result, nil
}

// UpdateTicket applies a partial update. Status changes must follow the
// transition graph; stale versions and invalid transitions fail with a
// conflict. An open ticket whose priority or text changes is re-triaged.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, input TicketUpdateInput, actorName string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, ticketErr(id, err)
	}
	if input.ExpectedVersion != nil && *input.ExpectedVersion != ticket.Version {
		return nil, apperrors.NewConflict("ticket was modified concurrently", map[string]any{
			"expected_version": *input.ExpectedVersion,
			"current_version":  ticket.Version,
		})
	}

	oldStatus := ticket.Status
	retriage := false

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.NewValidationError("title must not be empty", nil)
		}
		ticket.Title = strings.TrimSpace(*input.Title)
		retriage = true
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, apperrors.NewValidationError("description must not be empty", nil)
		}
		ticket.Description = strings.TrimSpace(*input.Description)
		retriage = true
	}
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
		retriage = true
	}
	if input.Status != nil {
		if !domain.ValidStatus(*input.Status) {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *input.Status})
		}
		if !domain.CanTransition(ticket.Status, *input.Status) {
			return nil, apperrors.NewConflict("invalid status transition", map[string]any{
				"from": ticket.Status,
				"to":   *input.Status,
			})
		}
		ticket.Status = *input.Status
	}

	var decision triage.Decision
	autoEscalated := false
	if retriage && input.Status == nil && ticket.Status == domain.TicketStatusOpen {
		decision = s.engine.Evaluate(ticket.Priority, ticket.Title, ticket.Description)
		if decision.Escalate {
			ticket.Status = domain.TicketStatusEscalated
			autoEscalated = true
		}
	}

	if ticket.Status == domain.TicketStatusClosed && ticket.ClosedAt == nil {
		now := time.Now().UTC()
		ticket.ClosedAt = &now
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, ticketErr(id, err)
	}

	if ticket.Status != oldStatus {
		s.recordStatusChange(ctx, ticket.ID, actorName, oldStatus, ticket.Status)
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
		if ticket.Status == domain.TicketStatusClosed {
			s.metrics.Incr("tickets_closed")
			s.publishEvent(ctx, events.Event{
				Type:     events.EventTicketClosed,
				TicketID: ticket.ID,
				Payload: events.TicketStatusChangedPayload{
					OldStatus: oldStatus,
					NewStatus: ticket.Status,
				},
			})
		}
	}
	if autoEscalated {
		s.noteEscalation(ctx, ticket, decision)
	}
	return ticket, nil
}

// AppendConversation appends an entry to the ticket thread.
func (s *TicketService) AppendConversation(ctx context.Context, ticketID string, input ConversationInput) (*domain.ConversationEntry, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperrors.NewValidationError("text required", nil)
	}
	role := input.AuthorRole
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("unknown author role", map[string]any{"author_role": role})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, ticketErr(ticketID, err)
	}

	entry := &domain.ConversationEntry{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		AuthorRole: role,
		AuthorName: strings.TrimSpace(input.AuthorName),
		Text:       text,
		Attachment: input.Attachment,
	}
	if err := s.tickets.AppendEntry(ctx, entry); err != nil {
		return nil, ticketErr(ticketID, err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventConversationAdded,
		TicketID: ticket.ID,
		Payload: events.ConversationAddedPayload{
			EntryID:     entry.ID,
			AuthorRole:  entry.AuthorRole,
			AuthorName:  entry.AuthorName,
			TextPreview: stringPreview(entry.Text, 120),
		},
	})
	return entry, nil
}

// RegisterAttachment records externally stored file metadata on a ticket.
func (s *TicketService) RegisterAttachment(ctx context.Context, ticketID, url string) (*domain.Ticket, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, apperrors.NewValidationError("attachment_url required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, ticketErr(ticketID, err)
	}
	ticket.AttachmentURL = &url
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, ticketErr(ticketID, err)
	}
	return ticket, nil
}

func (s *TicketService) noteEscalation(ctx context.Context, ticket *domain.Ticket, decision triage.Decision) {
	s.metrics.Incr("tickets_escalated")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: ticket.ID,
		Payload: events.TicketEscalatedPayload{
			Priority:        ticket.Priority,
			Severity:        decision.Severity.String(),
			MatchedKeywords: decision.MatchedKeywords,
		},
	})

	note := fmt.Sprintf("automatically escalated (severity %s)", decision.Severity)
	if len(decision.MatchedKeywords) > 0 {
		note += ": matched " + strings.Join(decision.MatchedKeywords, ", ")
	}
	entry := &domain.ConversationEntry{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		AuthorRole: domain.RoleSystem,
		AuthorName: "triage",
		Text:       note,
	}
	_ = s.tickets.AppendEntry(ctx, entry)
}

func (s *TicketService) recordStatusChange(ctx context.Context, ticketID, actorName string, oldStatus, newStatus domain.TicketStatus) {
	if actorName == "" {
		actorName = "system"
	}
	entry := &domain.ConversationEntry{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		AuthorRole: domain.RoleSystem,
		AuthorName: actorName,
		Text:       fmt.Sprintf("status changed from %s to %s", oldStatus, newStatus),
	}
	_ = s.tickets.AppendEntry(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// stringPreview truncates to at most max runes, never splitting a
// multi-byte character.
func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// ticketErr maps repository errors for a specific ticket id.
func ticketErr(id string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	case errors.Is(err, repository.ErrStaleVersion):
		return apperrors.NewConflict("ticket was modified concurrently", map[string]any{"id": id})
	default:
		return storeErr(err)
	}
}

// storeErr wraps unexpected repository failures as retryable dependency
// errors so the API surfaces 503 rather than 500 when the store is down.
func storeErr(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewDependencyError("ticket store", err)
}
