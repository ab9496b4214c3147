package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/ticketdesk/ticket-core/pkg/util"

	"github.com/ticketdesk/ticket-core/internal/auth"
	"github.com/ticketdesk/ticket-core/internal/config"
	"github.com/ticketdesk/ticket-core/internal/repository"
)

// AuthService issues agent tokens.
type AuthService struct {
	tokens    *auth.TokenManager
	passwords auth.PasswordHasher
	agents    repository.AgentRepository
}

// NewAuthService constructs the service. agents may be nil when the
// service runs without a database; login then always fails.
func NewAuthService(cfg config.AuthConfig, agents repository.AgentRepository) *AuthService {
	return &AuthService{
		tokens:    auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		passwords: auth.NewPasswordHasher(cfg.BcryptCost),
		agents:    agents,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// AgentToken is a login result.
type AgentToken struct {
	Token     string
	ExpiresAt time.Time
	AgentID   string
	Name      string
}

// Login verifies agent credentials and issues a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AgentToken, error) {
	if !s.tokens.Enabled() || s.agents == nil {
		return nil, apperrors.NewUnauthorized("agent auth not configured")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	agent, err := s.agents.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.NewDependencyError("agent store", err)
	}
	if err := s.passwords.Verify(agent.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(agent.ID, agent.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AgentToken{Token: token, ExpiresAt: expiresAt, AgentID: agent.ID, Name: agent.Name}, nil
}
