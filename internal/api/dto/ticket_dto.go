package dto

import (
	"strings"
	"time"

	"github.com/ticketdesk/ticket-core/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string  `json:"title" validate:"required,min=3"`
	Description  string  `json:"description" validate:"required"`
	Category     string  `json:"category" validate:"required"`
	Priority     string  `json:"priority" validate:"omitempty"`
	CreatedBy    string  `json:"created_by" validate:"required"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
}

// UpdateTicketRequest payload for PATCH. Nil fields are not touched.
type UpdateTicketRequest struct {
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Title       *string `json:"title" validate:"omitempty,min=3"`
	Description *string `json:"description"`
	Version     *int64  `json:"version"`
}

// CreateEntryRequest payload for conversation appends.
type CreateEntryRequest struct {
	AuthorRole string             `json:"author_role"`
	AuthorName string             `json:"author_name" validate:"required"`
	Text       string             `json:"text" validate:"required"`
	Attachment *AttachmentRequest `json:"attachment"`
}

// AttachmentRequest describes attachment metadata input.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key" validate:"required"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// RegisterAttachmentRequest payload for ticket-level attachment metadata.
type RegisterAttachmentRequest struct {
	AttachmentURL string `json:"attachment_url" validate:"required,url"`
}

// SuggestReplyRequest payload for AI-suggested replies.
type SuggestReplyRequest struct {
	Message string `json:"message" validate:"required"`
}

// AgentLoginRequest payload.
type AgentLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AgentLoginResponse result.
type AgentLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	AgentID   string    `json:"agent_id"`
	Name      string    `json:"name"`
}

// TicketResponse is the summary representation.
type TicketResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Category      domain.TicketCategory `json:"category"`
	Priority      domain.TicketPriority `json:"priority"`
	Status        domain.TicketStatus   `json:"status"`
	CreatedBy     string                `json:"created_by"`
	ContactEmail  *string               `json:"contact_email,omitempty"`
	AttachmentURL *string               `json:"attachment_url,omitempty"`
	Version       int64                 `json:"version"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ClosedAt      *time.Time            `json:"closed_at,omitempty"`
}

// TicketDetailResponse includes the conversation thread.
type TicketDetailResponse struct {
	TicketResponse
	Conversation []EntryResponse `json:"conversation"`
}

// EntryResponse represents a conversation entry.
type EntryResponse struct {
	ID         string              `json:"id"`
	AuthorRole domain.AuthorRole   `json:"author_role"`
	AuthorName string              `json:"author_name"`
	Text       string              `json:"text"`
	Attachment *AttachmentResponse `json:"attachment,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// NormalizeCategory maps loose intake spellings ("Bug Report") onto the
// canonical enum.
func NormalizeCategory(raw string) domain.TicketCategory {
	return domain.TicketCategory(normalize(raw))
}

// NormalizePriority maps loose intake spellings onto the canonical enum.
func NormalizePriority(raw string) domain.TicketPriority {
	return domain.TicketPriority(normalize(raw))
}

// NormalizeStatus maps loose intake spellings ("In Progress") onto the
// canonical enum.
func NormalizeStatus(raw string) domain.TicketStatus {
	return domain.TicketStatus(normalize(raw))
}

// NormalizeRole maps loose intake spellings onto the canonical enum.
func NormalizeRole(raw string) domain.AuthorRole {
	return domain.AuthorRole(normalize(raw))
}

func normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.ReplaceAll(trimmed, " ", "_")
	trimmed = strings.ReplaceAll(trimmed, "-", "_")
	return strings.ToUpper(trimmed)
}
