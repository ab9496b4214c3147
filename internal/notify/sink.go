package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ticketdesk/ticket-core/internal/events"
)

// Sink delivers a domain event to an external notification target.
type Sink interface {
	Name() string
	Publish(ctx context.Context, event events.Event) error
}

// emailSink records outbound mail intent. Actual SMTP delivery is handled
// by the external mail service; this service only emits the intent.
type emailSink struct {
	from   string
	logger *zap.Logger
}

// NewEmailSink builds the email sink. Returns nil when no sender address
// is configured.
func NewEmailSink(from string, logger *zap.Logger) Sink {
	if strings.TrimSpace(from) == "" {
		return nil
	}
	return &emailSink{from: from, logger: logger}
}

func (s *emailSink) Name() string { return "email" }

func (s *emailSink) Publish(ctx context.Context, event events.Event) error {
	s.logger.Info("email notification",
		zap.String("from", s.from),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
	return nil
}
