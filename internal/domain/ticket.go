package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusEscalated  TicketStatus = "ESCALATED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// TicketCategory enumerates intake categories.
type TicketCategory string

const (
	CategoryTechnical      TicketCategory = "TECHNICAL"
	CategoryBugReport      TicketCategory = "BUG_REPORT"
	CategoryFeatureRequest TicketCategory = "FEATURE_REQUEST"
	CategoryGeneralInquiry TicketCategory = "GENERAL_INQUIRY"
	CategoryAccountIssue   TicketCategory = "ACCOUNT_ISSUE"
)

// Ticket is the aggregate for reported issues. Version increments on every
// write and serializes concurrent updates to the same ticket.
type Ticket struct {
	ID            string
	Title         string
	Description   string
	Category      TicketCategory
	Priority      TicketPriority
	Status        TicketStatus
	CreatedBy     string
	ContactEmail  *string
	AttachmentURL *string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time
}

// ValidStatus reports whether s is a known ticket status.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusEscalated, TicketStatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c TicketCategory) bool {
	switch c {
	case CategoryTechnical, CategoryBugReport, CategoryFeatureRequest, CategoryGeneralInquiry, CategoryAccountIssue:
		return true
	}
	return false
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusEscalated, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusEscalated, TicketStatusClosed},
	TicketStatusEscalated:  {TicketStatusClosed},
	TicketStatusClosed:     {},
}

// CanTransition reports whether a status change from current to next is
// allowed. CLOSED is terminal.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
