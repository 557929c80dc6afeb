package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// AnthropicClient calls the Anthropic messages API directly over HTTP.
type AnthropicClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	tracer  trace.Tracer
	logger  zerolog.Logger
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// NewAnthropicClient builds a client against the Anthropic messages API.
func NewAnthropicClient(cfg Config) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}

	return &AnthropicClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.timeout()},
		tracer:  otel.Tracer("github.com/edugrade/grader-api/pkg/llm"),
		logger:  cfg.Logger.With().Str("component", "anthropic_client").Logger(),
	}, nil
}

// Provider returns "anthropic".
func (c *AnthropicClient) Provider() string {
	return ProviderAnthropic
}

// Complete sends the prompt as a single user message and returns the
// first content block's text.
func (c *AnthropicClient) Complete(parent context.Context, prompt string) Response {
	ctx, span := c.tracer.Start(parent, "anthropic.complete", trace.WithAttributes(
		attribute.String("model", c.model),
	))
	defer span.End()

	start := time.Now()
	result := c.post(ctx, prompt, start)
	if !result.Success {
		span.SetStatus(codes.Error, result.ErrorMessage)
		c.logger.Error().Str("model", c.model).Msg(result.ErrorMessage)
	}

	observeRequest(ProviderAnthropic, c.model, result)
	return result
}

func (c *AnthropicClient) post(ctx context.Context, prompt string, start time.Time) Response {
	payload := anthropicRequest{
		Model:     c.model,
		MaxTokens: chatMaxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return transportFailure(ProviderAnthropic, err, time.Since(start))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return transportFailure(ProviderAnthropic, err, time.Since(start))
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return transportFailure(ProviderAnthropic, err, time.Since(start))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return transportFailure(ProviderAnthropic, err, elapsed)
	}

	if resp.StatusCode != http.StatusOK {
		return statusFailure("Anthropic", resp.StatusCode, string(raw), elapsed)
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return transportFailure(ProviderAnthropic, err, elapsed)
	}
	if len(decoded.Content) == 0 {
		return Response{ErrorMessage: "Anthropic API error: empty content", Elapsed: elapsed}
	}

	return Response{
		Success: true,
		RawText: decoded.Content[0].Text,
		Elapsed: elapsed,
	}
}

// Ping verifies connectivity and credentials with a fixed probe prompt.
func (c *AnthropicClient) Ping(ctx context.Context) error {
	return ping(ctx, c)
}
