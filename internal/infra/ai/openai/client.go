package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bryanwahyu/cft-genai/internal/config"
	"github.com/bryanwahyu/cft-genai/internal/domain/ai"
	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/infra/ai/prompt"
	"github.com/bryanwahyu/cft-genai/internal/logging"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 2000
	defaultTemperature = 0.2
)

// Client is the completion client. It sends exactly one request per call:
// no retries and no streaming.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// NewClient builds a client from explicit configuration.
func NewClient(cfg config.OpenAIConfig, logger *zap.Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	c := &Client{
		api:         openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logging.OrNop(logger),
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.temperature == 0 {
		c.temperature = defaultTemperature
	}
	return c
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string { return c.model }

// Analyze builds the analysis prompt and completes it.
func (c *Client) Analyze(ctx context.Context, info company.Info, documentText string) (string, error) {
	return c.Complete(ctx, prompt.Build(info, documentText))
}

// Complete sends p as the user message and returns the trimmed text of the
// first choice. An empty prompt fails with ai.ErrInvalidPrompt before any
// network call.
func (c *Client) Complete(ctx context.Context, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", ai.ErrInvalidPrompt
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: p},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens and leave sampling at the server default
	if isReasoningModel(c.model) {
		req.MaxCompletionTokens = c.maxTokens
	} else {
		req.MaxTokens = c.maxTokens
		req.Temperature = c.temperature
		req.TopP = 1
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		mapped := mapError(err)
		var apiErr *ai.APIError
		if errors.As(mapped, &apiErr) {
			c.logger.Error("completion api error",
				zap.Int("status", apiErr.StatusCode),
				zap.String("code", apiErr.Code),
				zap.String("type", apiErr.Type),
				zap.String("message", apiErr.Message),
			)
		} else {
			c.logger.Error("completion request failed", zap.Error(err))
		}
		return "", mapped
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.logger.Error("invalid response structure from completion api",
			zap.String("id", resp.ID),
			zap.Int("choices", len(resp.Choices)),
		)
		return "", ai.ErrInvalidResponse
	}

	c.logger.Debug("completion finished",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// mapError converts go-openai errors into the domain taxonomy.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := &ai.APIError{
			StatusCode: apiErr.HTTPStatusCode,
			Type:       apiErr.Type,
			Message:    apiErr.Message,
		}
		if apiErr.Code != nil {
			e.Code = fmt.Sprint(apiErr.Code)
		}
		return e
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := reqErr.HTTPStatus
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &ai.APIError{StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	return fmt.Errorf("failed to create chat completion: %w", err)
}
