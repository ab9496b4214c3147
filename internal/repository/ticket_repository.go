package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketdesk/ticket-core/internal/domain"
)

// ErrStaleVersion indicates a concurrent write beat this update.
var ErrStaleVersion = errors.New("stale ticket version")

// TicketFilter captures search parameters.
type TicketFilter struct {
	Query      *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Categories []domain.TicketCategory
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Search(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// Update applies changes only when ticket.Version matches the stored
	// row, then bumps the version. Returns ErrStaleVersion on mismatch.
	Update(ctx context.Context, ticket *domain.Ticket) error
	AppendEntry(ctx context.Context, entry *domain.ConversationEntry) error
	ListEntries(ctx context.Context, ticketID string) ([]domain.ConversationEntry, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, title, description, category, priority, status, created_by, contact_email, attachment_url)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.CreatedBy,
		ticket.ContactEmail,
		ticket.AttachmentURL,
	).Scan(&ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, description, category, priority, status, created_by, contact_email,
               attachment_url, version, created_at, updated_at, closed_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CreatedBy,
		&ticket.ContactEmail,
		&ticket.AttachmentURL,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, priority=$4, status=$5,
            contact_email=$6, attachment_url=$7, closed_at=$8, version=version+1, updated_at=NOW()
        WHERE id=$9 AND version=$10
        RETURNING version, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.ContactEmail,
		ticket.AttachmentURL,
		ticket.ClosedAt,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version, &ticket.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	// distinguish a missing row from a version race
	var exists bool
	if checkErr := r.pool.QueryRow(ctx, `SELECT true FROM tickets WHERE id=$1`, ticket.ID).Scan(&exists); checkErr != nil {
		return checkErr
	}
	return ErrStaleVersion
}

func (r *ticketRepository) Search(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT id, title, description, category, priority, status, created_by, contact_email,
                    attachment_url, version, created_at, updated_at, closed_at
             FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, cat := range filter.Categories {
			args = append(args, cat)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Query != nil && strings.TrimSpace(*filter.Query) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Query)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) AppendEntry(ctx context.Context, entry *domain.ConversationEntry) error {
	const query = `
        INSERT INTO conversation_entries (id, ticket_id, author_role, author_name, text,
            attachment_storage_key, attachment_file_name, attachment_mime_type, attachment_size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at`
	var storageKey, fileName, mimeType *string
	var sizeBytes *int64
	if att := entry.Attachment; att != nil {
		storageKey = &att.StorageKey
		fileName = &att.FileName
		mimeType = &att.MimeType
		sizeBytes = &att.SizeBytes
	}
	return r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.TicketID,
		entry.AuthorRole,
		entry.AuthorName,
		entry.Text,
		storageKey,
		fileName,
		mimeType,
		sizeBytes,
	).Scan(&entry.CreatedAt)
}

func (r *ticketRepository) ListEntries(ctx context.Context, ticketID string) ([]domain.ConversationEntry, error) {
	const query = `
        SELECT id, ticket_id, author_role, author_name, text,
               attachment_storage_key, attachment_file_name, attachment_mime_type, attachment_size_bytes, created_at
        FROM conversation_entries WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ConversationEntry
	for rows.Next() {
		var entry domain.ConversationEntry
		var storageKey, fileName, mimeType *string
		var sizeBytes *int64
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.AuthorRole,
			&entry.AuthorName,
			&entry.Text,
			&storageKey,
			&fileName,
			&mimeType,
			&sizeBytes,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if storageKey != nil {
			entry.Attachment = &domain.AttachmentReference{
				StorageKey: *storageKey,
				FileName:   deref(fileName),
				MimeType:   deref(mimeType),
			}
			if sizeBytes != nil {
				entry.Attachment.SizeBytes = *sizeBytes
			}
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Category,
			&ticket.Priority,
			&ticket.Status,
			&ticket.CreatedBy,
			&ticket.ContactEmail,
			&ticket.AttachmentURL,
			&ticket.Version,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
