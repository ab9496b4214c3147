package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/ticketdesk/ticket-core/pkg/util"

	"github.com/ticketdesk/ticket-core/internal/events"
	"github.com/ticketdesk/ticket-core/internal/notify"
	"github.com/ticketdesk/ticket-core/internal/observability"
)

// NotificationService fans ticket events out to the configured sinks.
// Delivery is best effort: a sink failure is retried a bounded number of
// times when it looks transient, then logged and dropped. Ticket state is
// never rolled back on delivery failure.
type NotificationService struct {
	dispatcher  events.Dispatcher
	sinks       []notify.Sink
	logger      *zap.Logger
	metrics     *observability.Metrics
	maxAttempts int
	backoff     time.Duration
}

// NotificationOptions tunes retry behavior.
type NotificationOptions struct {
	MaxAttempts int
	Backoff     time.Duration
}

// NewNotificationService creates the service. Nil sinks are skipped.
func NewNotificationService(dispatcher events.Dispatcher, sinks []notify.Sink, logger *zap.Logger, metrics *observability.Metrics, opts NotificationOptions) *NotificationService {
	active := make([]notify.Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			active = append(active, sink)
		}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 250 * time.Millisecond
	}
	return &NotificationService{
		dispatcher:  dispatcher,
		sinks:       active,
		logger:      logger,
		metrics:     metrics,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
	}
}

// RegisterHandlers subscribes to the ticket lifecycle events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.handleEvent)
	n.dispatcher.Subscribe(events.EventConversationAdded, n.handleEvent)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	for _, sink := range n.sinks {
		n.deliver(ctx, sink, event)
	}
	return nil
}

func (n *NotificationService) deliver(ctx context.Context, sink notify.Sink, event events.Event) {
	var err error
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		err = sink.Publish(ctx, event)
		if err == nil {
			n.metrics.Incr("notifications_sent")
			return
		}
		if !apperrors.IsRetryable(err) {
			break
		}
		if attempt < n.maxAttempts {
			wait := n.backoff << (attempt - 1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				err = ctx.Err()
				attempt = n.maxAttempts
			}
		}
	}
	n.metrics.Incr("notifications_failed")
	n.logger.Warn("notification delivery failed",
		zap.String("sink", sink.Name()),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Error(err))
}
