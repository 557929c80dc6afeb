// Package llm contains the provider clients used to send grading prompts
// to external LLM HTTP APIs and the helpers for decoding what comes back.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Supported provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderGroq      = "groq"
)

// DefaultTimeout bounds every provider call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

const connectionProbe = "Respond with exactly: 'Connection successful'"
const connectionToken = "Connection successful"

// ErrUnsupportedProvider indicates the requested provider name is not one
// of the known backends.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// Config defines construction options shared by all provider clients.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	// BaseURL overrides the provider endpoint, mainly for tests.
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Response carries the raw outcome of a single provider call. It is a
// value type and never mutated after the client returns it.
type Response struct {
	Success      bool
	RawText      string
	Elapsed      time.Duration
	ErrorMessage string
}

// Client is implemented once per provider. Complete reports transport and
// HTTP failures inside the Response rather than as an error; nothing this
// interface does retries.
type Client interface {
	// Provider returns the backend name ("openai", "gemini", ...).
	Provider() string

	// Complete sends the prompt and returns the raw completion text.
	Complete(ctx context.Context, prompt string) Response

	// Ping performs a liveness and credential check against the backend.
	Ping(ctx context.Context) error
}

// New selects and constructs the client for the named provider.
func New(cfg Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg)
	case ProviderGroq:
		return NewGroqClient(cfg)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg)
	case ProviderGemini:
		return NewGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}

// ping sends a fixed probe prompt and succeeds only when the completion
// echoes the expected literal back.
func ping(ctx context.Context, c Client) error {
	resp := c.Complete(ctx, connectionProbe)
	if resp.Success && strings.Contains(resp.RawText, connectionToken) {
		return nil
	}
	if resp.ErrorMessage != "" {
		return errors.New(resp.ErrorMessage)
	}
	return fmt.Errorf("%s connection test failed", c.Provider())
}

// transportFailure shapes a transport-level error into a failed Response.
func transportFailure(provider string, err error, elapsed time.Duration) Response {
	return Response{
		ErrorMessage: fmt.Sprintf("Error calling %s API: %v", provider, err),
		Elapsed:      elapsed,
	}
}

// statusFailure shapes a non-2xx reply into a failed Response, embedding
// the status code and the raw error body for diagnostics.
func statusFailure(label string, status int, body string, elapsed time.Duration) Response {
	return Response{
		ErrorMessage: fmt.Sprintf("%s API error: %d - %s", label, status, body),
		Elapsed:      elapsed,
	}
}
