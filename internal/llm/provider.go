// ABOUTME: LLM provider capability for the chat service
// ABOUTME: OpenRouter and OpenAI chat completion clients behind one interface

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Message is a single turn sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider sends a conversation to an LLM and returns the assistant reply.
type Provider interface {
	SendMessage(ctx context.Context, messages []Message) (string, error)
}

// Config selects and configures a provider. The variant is chosen once at
// startup, not per call.
type Config struct {
	Provider string // "openrouter" or "openai"
	Model    string
	APIKey   string
	Timeout  time.Duration
	BaseURL  string // overrides the provider default, used in tests
}

// DefaultTimeout bounds a completion call when none is configured.
const DefaultTimeout = 60 * time.Second

// New constructs the configured provider. A missing API key is a
// construction-time error so misconfiguration surfaces at startup.
func New(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: api_key not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case "openai":
		return &openAIProvider{completionClient{
			baseURL: defaultString(cfg.BaseURL, "https://api.openai.com/v1"),
			model:   cfg.Model,
			apiKey:  cfg.APIKey,
			client:  client,
		}}, nil
	case "openrouter", "":
		return &openRouterProvider{completionClient{
			baseURL: defaultString(cfg.BaseURL, "https://openrouter.ai/api/v1"),
			model:   cfg.Model,
			apiKey:  cfg.APIKey,
			client:  client,
		}}, nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

func defaultString(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// completionClient speaks the OpenAI-compatible chat completions protocol
// that both providers share.
type completionClient struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// sendMessage posts the conversation to the chat completions endpoint and
// returns the first choice's content.
func (c *completionClient) sendMessage(ctx context.Context, messages []Message) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling LLM provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM provider returned status %d", resp.StatusCode)
	}

	var body completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(body.Choices) == 0 {
		return "", errors.New("LLM provider returned no choices")
	}

	return body.Choices[0].Message.Content, nil
}

type openRouterProvider struct {
	completionClient
}

func (p *openRouterProvider) SendMessage(ctx context.Context, messages []Message) (string, error) {
	return p.sendMessage(ctx, messages)
}

type openAIProvider struct {
	completionClient
}

func (p *openAIProvider) SendMessage(ctx context.Context, messages []Message) (string, error) {
	return p.sendMessage(ctx, messages)
}
