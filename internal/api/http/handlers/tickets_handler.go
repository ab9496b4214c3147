package handlers

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ticketdesk/ticket-core/pkg/util"

	"github.com/ticketdesk/ticket-core/internal/api/dto"
	"github.com/ticketdesk/ticket-core/internal/auth"
	"github.com/ticketdesk/ticket-core/internal/domain"
	"github.com/ticketdesk/ticket-core/internal/service"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service  *service.TicketService
	assist   *service.AssistService
	validate *validator.Validate
}

// NewTicketsHandler constructs handler. assistService may be nil when the
// LLM is not configured.
func NewTicketsHandler(ticketService *service.TicketService, assistService *service.AssistService) *TicketsHandler {
	return &TicketsHandler{
		service:  ticketService,
		assist:   assistService,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(err)
	}

	input := service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     dto.NormalizeCategory(req.Category),
		Priority:     dto.NormalizePriority(req.Priority),
		CreatedBy:    req.CreatedBy,
		ContactEmail: req.ContactEmail,
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// SearchTickets GET /tickets?query=.
func (h *TicketsHandler) SearchTickets(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	tickets, err := h.service.SearchTickets(c.UserContext(), c.Query("query"), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, entries, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, entries)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(err)
	}
	if req.Status == nil && req.Priority == nil && req.Title == nil && req.Description == nil {
		return apperrors.NewValidationError("no fields to update", nil)
	}

	input := service.TicketUpdateInput{
		Title:           req.Title,
		Description:     req.Description,
		ExpectedVersion: req.Version,
	}
	if req.Status != nil {
		status := dto.NormalizeStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := dto.NormalizePriority(*req.Priority)
		input.Priority = &priority
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), c.Params("id"), input, actorName(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AppendConversation POST /tickets/:id/conversation.
func (h *TicketsHandler) AppendConversation(c *fiber.Ctx) error {
	var req dto.CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(err)
	}

	input := service.ConversationInput{
		AuthorRole: dto.NormalizeRole(req.AuthorRole),
		AuthorName: req.AuthorName,
		Text:       req.Text,
	}
	if req.Attachment != nil {
		input.Attachment = &domain.AttachmentReference{
			StorageKey: req.Attachment.StorageKey,
			FileName:   req.Attachment.FileName,
			MimeType:   req.Attachment.MimeType,
			SizeBytes:  req.Attachment.SizeBytes,
		}
	}
	entry, err := h.service.AppendConversation(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": entryResponse(entry)})
}

// SuggestReply POST /tickets/:id/ai-reply.
func (h *TicketsHandler) SuggestReply(c *fiber.Ctx) error {
	var req dto.SuggestReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(err)
	}
	entry, err := h.assist.SuggestReply(c.UserContext(), c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": entryResponse(entry)})
}

// RegisterAttachment POST /tickets/:id/attachment.
func (h *TicketsHandler) RegisterAttachment(c *fiber.Ctx) error {
	var req dto.RegisterAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(err)
	}
	ticket, err := h.service.RegisterAttachment(c.UserContext(), c.Params("id"), req.AttachmentURL)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func actorName(c *fiber.Ctx) string {
	if principal, ok := auth.PrincipalFromContext(c); ok {
		return principal.Email
	}
	return ""
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func validationError(err error) error {
	details := map[string]any{}
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			details[fe.Field()] = fe.Tag()
		}
	}
	return apperrors.NewValidationError("invalid request", details)
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:            ticket.ID,
		Title:         ticket.Title,
		Description:   ticket.Description,
		Category:      ticket.Category,
		Priority:      ticket.Priority,
		Status:        ticket.Status,
		CreatedBy:     ticket.CreatedBy,
		ContactEmail:  ticket.ContactEmail,
		AttachmentURL: ticket.AttachmentURL,
		Version:       ticket.Version,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		ClosedAt:      ticket.ClosedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, entries []domain.ConversationEntry) dto.TicketDetailResponse {
	conversation := make([]dto.EntryResponse, 0, len(entries))
	for i := range entries {
		conversation = append(conversation, entryResponse(&entries[i]))
	}
	return dto.TicketDetailResponse{
		TicketResponse: ticketResponse(ticket),
		Conversation:   conversation,
	}
}

func entryResponse(entry *domain.ConversationEntry) dto.EntryResponse {
	resp := dto.EntryResponse{
		ID:         entry.ID,
		AuthorRole: entry.AuthorRole,
		AuthorName: entry.AuthorName,
		Text:       entry.Text,
		CreatedAt:  entry.CreatedAt,
	}
	if entry.Attachment != nil {
		resp.Attachment = &dto.AttachmentResponse{
			StorageKey: entry.Attachment.StorageKey,
			FileName:   entry.Attachment.FileName,
			MimeType:   entry.Attachment.MimeType,
			SizeBytes:  entry.Attachment.SizeBytes,
		}
	}
	return resp
}
