package assist

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/ticketdesk/ticket-core/internal/config"
)

// Client completes a prompt against the configured LLM.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type llmClient struct {
	model     llms.Model
	maxTokens int
	timeout   time.Duration
}

// NewClient builds the LLM client. Returns nil when no API key is
// configured; suggested replies are then unavailable.
func NewClient(cfg config.AssistConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	switch cfg.Provider {
	case "openai", "azure":
	default:
		return nil, fmt.Errorf("unsupported assist provider: %s", cfg.Provider)
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init assist llm: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &llmClient{model: model, maxTokens: cfg.MaxTokens, timeout: timeout}, nil
}

func (c *llmClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithMaxTokens(c.maxTokens))
	if err != nil {
		return "", fmt.Errorf("assist generation failed: %w", err)
	}
	return completion, nil
}
