package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Agent is a support agent account allowed to mutate tickets.
type Agent struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// AgentRepository encapsulates agent account persistence.
type AgentRepository interface {
	GetByEmail(ctx context.Context, email string) (*Agent, error)
	GetByID(ctx context.Context, id string) (*Agent, error)
}

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository instantiates the repository.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

func (r *agentRepository) GetByEmail(ctx context.Context, email string) (*Agent, error) {
	const query = `SELECT id, email, name, password_hash, created_at FROM agents WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*Agent, error) {
	const query = `SELECT id, email, name, password_hash, created_at FROM agents WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *agentRepository) fetchSingle(ctx context.Context, query string, arg any) (*Agent, error) {
	var agent Agent
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&agent.ID,
		&agent.Email,
		&agent.Name,
		&agent.PasswordHash,
		&agent.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &agent, nil
}
