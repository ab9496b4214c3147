package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ticketdesk/ticket-core/pkg/util"

	"github.com/ticketdesk/ticket-core/internal/assist"
	"github.com/ticketdesk/ticket-core/internal/auth"
	"github.com/ticketdesk/ticket-core/internal/events"
	"github.com/ticketdesk/ticket-core/internal/observability"
	"github.com/ticketdesk/ticket-core/internal/repository"
	"github.com/ticketdesk/ticket-core/internal/service"
	"github.com/ticketdesk/ticket-core/internal/triage"
)

// stubCompleter stands in for the LLM behind the ai-reply endpoint.
type stubCompleter struct {
	reply string
}

func (s *stubCompleter) Complete(context.Context, string) (string, error) {
	return s.reply, nil
}

func newTestApp(jwtSecret string, assistClient assist.Client) *fiber.App {
	metrics := observability.NewMetrics()
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repository.NewMemoryTicketRepository(),
		Engine:     triage.NewEngine(nil, nil),
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    metrics,
	})

	tokens := auth.NewTokenManager(jwtSecret, 60)
	middleware := auth.NewAuthMiddleware(tokens)
	handler := NewTicketsHandler(ticketService, service.NewAssistService(ticketService, assistClient))

	app := fiber.New()
	app.Use(errorEnvelope())
	app.Post("/tickets", handler.CreateTicket)
	app.Get("/tickets", handler.SearchTickets)
	app.Get("/tickets/:id", handler.GetTicket)
	app.Patch("/tickets/:id", middleware.Handle, handler.UpdateTicket)
	app.Post("/tickets/:id/conversation", handler.AppendConversation)
	app.Post("/tickets/:id/attachment", handler.RegisterAttachment)
	app.Post("/tickets/:id/ai-reply", middleware.Handle, handler.SuggestReply)
	return app
}

// errorEnvelope mirrors the production error middleware closely enough for
// handler tests: map DomainError to its status and JSON body.
func errorEnvelope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}
		domainErr := apperrors.ToDomainError(err)
		c.Status(domainErr.HTTPStatus)
		return c.JSON(fiber.Map{"error": fiber.Map{"code": domainErr.Code, "message": domainErr.Message}})
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, int(5*time.Second/time.Millisecond))
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func createTicket(t *testing.T, app *fiber.App) map[string]any {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/tickets", map[string]any{
		"title":       "Printer offline",
		"description": "Third floor printer does not respond",
		"category":    "Technical",
		"priority":    "Low",
		"created_by":  "alex",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	return body["data"].(map[string]any)
}

func TestCreateTicketEndpoint(t *testing.T) {
	app := newTestApp("", nil)
	data := createTicket(t, app)
	if data["id"] == "" {
		t.Fatalf("expected generated id, got %v", data)
	}
	if data["status"] != "OPEN" {
		t.Fatalf("expected OPEN status, got %v", data["status"])
	}
}

func TestCreateTicketValidationEndpoint(t *testing.T) {
	app := newTestApp("", nil)
	resp, body := doJSON(t, app, http.MethodPost, "/tickets", map[string]any{
		"title": "x",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%v)", resp.StatusCode, body)
	}
}

func TestCreateCriticalTicketComesBackEscalated(t *testing.T) {
	app := newTestApp("", nil)
	resp, body := doJSON(t, app, http.MethodPost, "/tickets", map[string]any{
		"title":       "Alert",
		"description": "Server CPU usage high",
		"category":    "Technical",
		"priority":    "Critical",
		"created_by":  "monitor",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	data := body["data"].(map[string]any)
	if data["status"] != "ESCALATED" {
		t.Fatalf("expected ESCALATED, got %v", data["status"])
	}
}

func TestGetTicketNotFoundEndpoint(t *testing.T) {
	app := newTestApp("", nil)
	resp, _ := doJSON(t, app, http.MethodGet, "/tickets/2f1a9c8e-0000-4000-8000-000000000000", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPatchInvalidTransitionConflicts(t *testing.T) {
	app := newTestApp("", nil)
	data := createTicket(t, app)
	id := data["id"].(string)

	resp, _ := doJSON(t, app, http.MethodPatch, "/tickets/"+id, map[string]any{"status": "Closed"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close should succeed, got %d", resp.StatusCode)
	}
	resp, body := doJSON(t, app, http.MethodPatch, "/tickets/"+id, map[string]any{"status": "Open"}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 reopening closed ticket, got %d (%v)", resp.StatusCode, body)
	}
}

func TestPatchRequiresTokenWhenAuthConfigured(t *testing.T) {
	app := newTestApp("test-secret", nil)
	data := createTicket(t, app)
	id := data["id"].(string)

	resp, _ := doJSON(t, app, http.MethodPatch, "/tickets/"+id, map[string]any{"status": "In Progress"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	tokens := auth.NewTokenManager("test-secret", 60)
	token, _, err := tokens.GenerateToken("agent-1", "agent@example.com")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	resp, _ = doJSON(t, app, http.MethodPatch, "/tickets/"+id, map[string]any{"status": "In Progress"}, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}

func TestConversationAndSearchFlow(t *testing.T) {
	app := newTestApp("", nil)
	data := createTicket(t, app)
	id := data["id"].(string)

	resp, body := doJSON(t, app, http.MethodPost, fmt.Sprintf("/tickets/%s/conversation", id), map[string]any{
		"author_role": "user",
		"author_name": "alex",
		"text":        "any update on this?",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 appending entry, got %d (%v)", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, http.MethodGet, "/tickets?query="+id, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	items := body["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected exactly one ticket for id query, got %d", len(items))
	}

	resp, body = doJSON(t, app, http.MethodGet, "/tickets/"+id, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	conversation := body["data"].(map[string]any)["conversation"].([]any)
	if len(conversation) != 1 {
		t.Fatalf("expected one conversation entry, got %d", len(conversation))
	}
}

func TestSuggestReplyEndpoint(t *testing.T) {
	app := newTestApp("", &stubCompleter{reply: "Try resetting your password from the login page."})
	data := createTicket(t, app)
	id := data["id"].(string)

	resp, body := doJSON(t, app, http.MethodPost, fmt.Sprintf("/tickets/%s/ai-reply", id), map[string]any{
		"message": "customer cannot receive the reset email",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	entry := body["data"].(map[string]any)
	if entry["author_role"] != "ASSISTANT" {
		t.Fatalf("expected assistant entry, got %v", entry)
	}
	if entry["text"] != "Try resetting your password from the login page." {
		t.Fatalf("unexpected reply: %v", entry)
	}
}

func TestSuggestReplyUnavailableEndpoint(t *testing.T) {
	app := newTestApp("", nil)
	data := createTicket(t, app)
	id := data["id"].(string)

	resp, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/tickets/%s/ai-reply", id), map[string]any{
		"message": "anything",
	}, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when llm not configured, got %d", resp.StatusCode)
	}
}

func TestRegisterAttachmentEndpoint(t *testing.T) {
	app := newTestApp("", nil)
	data := createTicket(t, app)
	id := data["id"].(string)

	resp, body := doJSON(t, app, http.MethodPost, fmt.Sprintf("/tickets/%s/attachment", id), map[string]any{
		"attachment_url": "https://files.example.com/bucket/screenshot.png",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["data"].(map[string]any)["attachment_url"] != "https://files.example.com/bucket/screenshot.png" {
		t.Fatalf("attachment url not recorded: %v", body["data"])
	}
}
