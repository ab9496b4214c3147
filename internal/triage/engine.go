package triage

import (
	"strings"

	"github.com/ticketdesk/ticket-core/internal/domain"
)

// Severity tiers computed from ticket text signals.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityElevated
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeveritySevere:
		return "severe"
	case SeverityElevated:
		return "elevated"
	default:
		return "normal"
	}
}

// Decision is the outcome of evaluating a ticket.
type Decision struct {
	Escalate        bool
	Severity        Severity
	MatchedKeywords []string
}

// Default keyword lists. Placeholder policy until operations supplies a
// tuned rule set; override via configuration.
var (
	DefaultSevereKeywords = []string{
		"outage", "down", "unavailable", "data loss", "security", "breach",
		"cpu usage high", "memory exhausted", "disk full", "corrupt",
	}
	DefaultElevatedKeywords = []string{
		"cpu", "memory", "disk", "error", "fail", "crash", "timeout",
		"slow", "degraded", "urgent",
	}
)

// Engine computes escalation decisions. Evaluation is a pure function of
// the ticket fields and the configured keyword lists; identical input
// always yields an identical decision.
type Engine struct {
	severe   []string
	elevated []string
}

// NewEngine builds an engine from keyword lists, falling back to the
// defaults when a list is empty. Keywords are matched case-insensitively.
func NewEngine(severe, elevated []string) *Engine {
	if len(severe) == 0 {
		severe = DefaultSevereKeywords
	}
	if len(elevated) == 0 {
		elevated = DefaultElevatedKeywords
	}
	return &Engine{
		severe:   lowerAll(severe),
		elevated: lowerAll(elevated),
	}
}

// Evaluate computes the escalation decision for a ticket. Critical
// priority always escalates; severe keywords always escalate; high
// priority escalates when the text carries at least an elevated signal.
func (e *Engine) Evaluate(priority domain.TicketPriority, title, description string) Decision {
	text := strings.ToLower(title + " " + description)

	decision := Decision{Severity: SeverityNormal}
	for _, kw := range e.severe {
		if strings.Contains(text, kw) {
			decision.Severity = SeveritySevere
			decision.MatchedKeywords = append(decision.MatchedKeywords, kw)
		}
	}
	if decision.Severity < SeveritySevere {
		for _, kw := range e.elevated {
			if strings.Contains(text, kw) {
				decision.Severity = SeverityElevated
				decision.MatchedKeywords = append(decision.MatchedKeywords, kw)
			}
		}
	}

	switch {
	case priority == domain.TicketPriorityCritical:
		decision.Escalate = true
	case decision.Severity == SeveritySevere:
		decision.Escalate = true
	case priority == domain.TicketPriorityHigh && decision.Severity >= SeverityElevated:
		decision.Escalate = true
	}
	return decision
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
