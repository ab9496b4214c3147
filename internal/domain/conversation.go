package domain

import "time"

// AuthorRole indicates who authored a conversation entry.
type AuthorRole string

const (
	RoleUser      AuthorRole = "USER"
	RoleAgent     AuthorRole = "AGENT"
	RoleAssistant AuthorRole = "ASSISTANT"
	RoleSystem    AuthorRole = "SYSTEM"
)

// ValidRole reports whether r is a known author role.
func ValidRole(r AuthorRole) bool {
	switch r {
	case RoleUser, RoleAgent, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ConversationEntry is a single message in a ticket thread. Entries are
// append-only and immutable once written.
type ConversationEntry struct {
	ID         string
	TicketID   string
	AuthorRole AuthorRole
	AuthorName string
	Text       string
	Attachment *AttachmentReference
	CreatedAt  time.Time
}

// AttachmentReference stores metadata for externally stored file content.
// The file bytes themselves never pass through this service.
type AttachmentReference struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}
