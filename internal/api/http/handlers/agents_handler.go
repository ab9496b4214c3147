package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ticketdesk/ticket-core/pkg/util"

	"github.com/ticketdesk/ticket-core/internal/api/dto"
	"github.com/ticketdesk/ticket-core/internal/service"
)

// AgentsHandler manages agent authentication endpoints.
type AgentsHandler struct {
	service  *service.AuthService
	validate *validator.Validate
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(authService *service.AuthService) *AgentsHandler {
	return &AgentsHandler{
		service:  authService,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Login POST /auth/agents/login.
func (h *AgentsHandler) Login(c *fiber.Ctx) error {
	var req dto.AgentLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(err)
	}

	token, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AgentLoginResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		AgentID:   token.AgentID,
		Name:      token.Name,
	}})
}
