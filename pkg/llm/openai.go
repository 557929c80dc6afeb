package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

const (
	chatTemperature = 0.1
	chatMaxTokens   = 4000
)

// ChatCompletionClient speaks the OpenAI chat-completions dialect. It
// backs both the openai and groq providers, which share request and
// response shapes and differ only in endpoint and branding.
type ChatCompletionClient struct {
	api      *openai.Client
	provider string
	label    string
	model    string
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// NewOpenAIClient builds a client against the OpenAI chat-completions API.
func NewOpenAIClient(cfg Config) (*ChatCompletionClient, error) {
	return newChatCompletionClient(cfg, ProviderOpenAI, "OpenAI", "")
}

// NewGroqClient builds a client against Groq's OpenAI-compatible endpoint.
func NewGroqClient(cfg Config) (*ChatCompletionClient, error) {
	return newChatCompletionClient(cfg, ProviderGroq, "Groq", groqBaseURL)
}

func newChatCompletionClient(cfg Config, provider, label, defaultBaseURL string) (*ChatCompletionClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(provider + " api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.timeout()}
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	} else if defaultBaseURL != "" {
		clientConfig.BaseURL = defaultBaseURL
	}

	return &ChatCompletionClient{
		api:      openai.NewClientWithConfig(clientConfig),
		provider: provider,
		label:    label,
		model:    cfg.Model,
		tracer:   otel.Tracer("github.com/edugrade/grader-api/pkg/llm"),
		logger:   cfg.Logger.With().Str("component", provider+"_client").Logger(),
	}, nil
}

// Provider returns the backend name this client was constructed for.
func (c *ChatCompletionClient) Provider() string {
	return c.provider
}

// Complete sends the prompt as a single user message and returns the
// first choice's content.
func (c *ChatCompletionClient) Complete(parent context.Context, prompt string) Response {
	ctx, span := c.tracer.Start(parent, c.provider+".complete", trace.WithAttributes(
		attribute.String("model", c.model),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	elapsed := time.Since(start)

	result := Response{Elapsed: elapsed}
	switch {
	case err != nil:
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			result = statusFailure(c.label, apiErr.HTTPStatusCode, apiErr.Message, elapsed)
		} else {
			result = transportFailure(c.provider, err, elapsed)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case len(resp.Choices) == 0:
		result.ErrorMessage = c.label + " API error: no choices returned"
		span.SetStatus(codes.Error, result.ErrorMessage)
	default:
		result.Success = true
		result.RawText = strings.TrimSpace(resp.Choices[0].Message.Content)
	}

	observeRequest(c.provider, c.model, result)
	if !result.Success {
		c.logger.Error().Str("model", c.model).Msg(result.ErrorMessage)
	}
	return result
}

// Ping verifies connectivity and credentials with a fixed probe prompt.
func (c *ChatCompletionClient) Ping(ctx context.Context) error {
	return ping(ctx, c)
}
