package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/ticketdesk/ticket-core/pkg/util"

	"github.com/ticketdesk/ticket-core/internal/events"
)

// webhookSink POSTs events as JSON to a workflow automation endpoint.
type webhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink builds the webhook sink. Returns nil when no URL is
// configured.
func NewWebhookSink(url string, timeout time.Duration) Sink {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &webhookSink{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *webhookSink) Name() string { return "webhook" }

func (s *webhookSink) Publish(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.NewDependencyError("webhook sink", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return apperrors.NewDependencyError("webhook sink", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook rejected event: status %d", resp.StatusCode)
	}
	return nil
}
