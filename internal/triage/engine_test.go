package triage

import (
	"testing"

	"github.com/ticketdesk/ticket-core/internal/domain"
)

func TestCriticalPriorityAlwaysEscalates(t *testing.T) {
	engine := NewEngine(nil, nil)
	decision := engine.Evaluate(domain.TicketPriorityCritical, "Billing question", "How do I change my plan?")
	if !decision.Escalate {
		t.Fatalf("expected critical ticket to escalate, got %+v", decision)
	}
}

func TestSevereKeywordEscalatesRegardlessOfPriority(t *testing.T) {
	engine := NewEngine(nil, nil)
	decision := engine.Evaluate(domain.TicketPriorityLow, "Problem", "Production database is down since midnight")
	if !decision.Escalate {
		t.Fatalf("expected severe keyword to escalate, got %+v", decision)
	}
	if decision.Severity != SeveritySevere {
		t.Fatalf("expected severe severity, got %s", decision.Severity)
	}
}

func TestHighPriorityNeedsElevatedSignal(t *testing.T) {
	engine := NewEngine(nil, nil)
	plain := engine.Evaluate(domain.TicketPriorityHigh, "Question", "Where can I find the invoice archive?")
	if plain.Escalate {
		t.Fatalf("high priority without signal should not escalate, got %+v", plain)
	}
	signaled := engine.Evaluate(domain.TicketPriorityHigh, "Slow dashboard", "Every page load takes 30 seconds, looks degraded")
	if !signaled.Escalate {
		t.Fatalf("high priority with elevated signal should escalate, got %+v", signaled)
	}
}

func TestMediumPriorityStaysOpen(t *testing.T) {
	engine := NewEngine(nil, nil)
	decision := engine.Evaluate(domain.TicketPriorityMedium, "Feature idea", "Please add dark mode to the portal")
	if decision.Escalate || decision.Severity != SeverityNormal {
		t.Fatalf("expected no escalation, got %+v", decision)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	engine := NewEngine(nil, nil)
	first := engine.Evaluate(domain.TicketPriorityCritical, "Alert", "Server CPU usage high")
	second := engine.Evaluate(domain.TicketPriorityCritical, "Alert", "Server CPU usage high")
	if first.Escalate != second.Escalate || first.Severity != second.Severity {
		t.Fatalf("expected identical decisions, got %+v and %+v", first, second)
	}
	if !first.Escalate {
		t.Fatalf("expected the documented example to escalate")
	}
}

func TestCustomKeywordLists(t *testing.T) {
	engine := NewEngine([]string{"meltdown"}, []string{"warm"})
	if !engine.Evaluate(domain.TicketPriorityLow, "x", "total MELTDOWN in rack 4").Escalate {
		t.Fatalf("custom severe keyword should escalate")
	}
	if engine.Evaluate(domain.TicketPriorityLow, "x", "servers are down").Escalate {
		t.Fatalf("default keywords should be replaced by custom lists")
	}
}
