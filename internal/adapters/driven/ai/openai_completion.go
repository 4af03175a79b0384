package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/carbonledger/verify-core/internal/core/ports/driven"
)

// Ensure OpenAICompletion implements CompletionService
var _ driven.CompletionService = (*OpenAICompletion)(nil)

// OpenAICompletion implements CompletionService against an OpenAI-compatible
// chat completion API. Responses are forced into JSON object mode because
// every caller decodes the result against a pinned schema.
type OpenAICompletion struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// CompletionOptions configures the OpenAI completion adapter.
type CompletionOptions struct {
	APIKey  string
	Model   string
	BaseURL string

	// Temperature defaults to 0: extraction wants determinism, not flair.
	Temperature float32

	// MaxTokens caps the response size; 0 means the provider default.
	MaxTokens int

	// Timeout applies per request.
	Timeout time.Duration
}

// NewOpenAICompletion creates a new OpenAI completion service
func NewOpenAICompletion(opts CompletionOptions) (driven.CompletionService, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAICompletion{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}, nil
}

// Complete sends one instructed completion and returns the raw JSON body.
func (c *OpenAICompletion) Complete(ctx context.Context, instructions, content string) (json.RawMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	raw := json.RawMessage(resp.Choices[0].Message.Content)
	if !json.Valid(raw) {
		return nil, fmt.Errorf("chat completion returned invalid JSON")
	}
	return raw, nil
}

// Model returns the model name being used
func (c *OpenAICompletion) Model() string {
	return c.model
}

// Ping verifies the completion service is reachable
func (c *OpenAICompletion) Ping(ctx context.Context) error {
	_, err := c.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("completion service unreachable: %w", err)
	}
	return nil
}

// Close releases resources held by the completion service
func (c *OpenAICompletion) Close() error {
	return nil
}
