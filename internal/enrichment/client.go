package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sentipulse/sentipulse/internal/models"
)

// SentimentClassifier produces a verdict for one piece of text. Only the
// retrier calls implementations directly; it is the single place polling and
// backpressure against the enrichment API are enforced.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (*models.SentimentVerdict, error)
}

// OpenAIConfig holds configuration for the OpenAI-backed classifier.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultOpenAIConfig returns the classification defaults: low temperature
// for deterministic labeling, a small completion budget for the JSON verdict.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model:       openai.GPT4oMini,
		Temperature: 0.1,
		MaxTokens:   500,
		Timeout:     60 * time.Second,
	}
}

// OpenAIClassifier classifies tweets via the OpenAI chat completion API.
type OpenAIClassifier struct {
	client *openai.Client
	config OpenAIConfig
	logger *slog.Logger
}

// NewOpenAIClassifier creates a classifier. A missing API key is a
// configuration error and is rejected before any work happens.
func NewOpenAIClassifier(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIClassifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIConfig().Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultOpenAIConfig().MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultOpenAIConfig().Timeout
	}

	return &OpenAIClassifier{
		client: openai.NewClient(cfg.APIKey),
		config: cfg,
		logger: logger,
	}, nil
}

// Classify requests a JSON-mode completion and parses it into a verdict.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (*models.SentimentVerdict, error) {
	apiCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(apiCtx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildUserPrompt(text)},
		},
	})

	c.logger.Debug("classification call complete",
		"duration_ms", time.Since(start).Milliseconds(),
		"success", err == nil)

	if err != nil {
		return nil, classifyAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &FormatError{Reason: "response contained no choices"}
	}

	return ParseVerdict(resp.Choices[0].Message.Content)
}

// classifyAPIError maps transport failures onto the error taxonomy. Quota
// exhaustion on our own account is distinguished from provider throttling so
// the processor can apply its platform-budget pause.
func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			return &BudgetExhaustedError{Cause: err}
		}
		return &APIError{Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	return fmt.Errorf("enrichment request: %w", err)
}
