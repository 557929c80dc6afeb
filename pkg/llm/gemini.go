package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Short model names are aliased to the "-latest" variants Google serves.
var geminiModelAliases = map[string]string{
	"gemini-1.5-flash": "gemini-1.5-flash-latest",
	"gemini-1.5-pro":   "gemini-1.5-pro-latest",
	"gemini-pro":       "gemini-pro",
}

// GeminiClient calls the Google Gemini generateContent API directly over
// HTTP. Authentication rides in the URL query string rather than headers.
type GeminiClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	tracer  trace.Tracer
	logger  zerolog.Logger
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewGeminiClient builds a client against the Gemini generateContent API.
func NewGeminiClient(cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geminiBaseURL
	}

	return &GeminiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   resolveGeminiModel(cfg.Model),
		client:  &http.Client{Timeout: cfg.timeout()},
		tracer:  otel.Tracer("github.com/edugrade/grader-api/pkg/llm"),
		logger:  cfg.Logger.With().Str("component", "gemini_client").Logger(),
	}, nil
}

func resolveGeminiModel(model string) string {
	if alias, ok := geminiModelAliases[model]; ok {
		return alias
	}
	return model
}

// Provider returns "gemini".
func (c *GeminiClient) Provider() string {
	return ProviderGemini
}

// Complete sends the prompt and returns the first candidate's first part.
func (c *GeminiClient) Complete(parent context.Context, prompt string) Response {
	ctx, span := c.tracer.Start(parent, "gemini.complete", trace.WithAttributes(
		attribute.String("model", c.model),
	))
	defer span.End()

	start := time.Now()
	result := c.post(ctx, prompt, start)
	if !result.Success {
		span.SetStatus(codes.Error, result.ErrorMessage)
		c.logger.Error().Str("model", c.model).Msg(result.ErrorMessage)
	}

	observeRequest(ProviderGemini, c.model, result)
	return result
}

func (c *GeminiClient) post(ctx context.Context, prompt string, start time.Time) Response {
	payload := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.1,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 8192,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return transportFailure(ProviderGemini, err, time.Since(start))
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return transportFailure(ProviderGemini, err, time.Since(start))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return transportFailure(ProviderGemini, err, time.Since(start))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return transportFailure(ProviderGemini, err, elapsed)
	}

	if resp.StatusCode != http.StatusOK {
		return statusFailure("Gemini", resp.StatusCode, string(raw), elapsed)
	}

	var decoded geminiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return transportFailure(ProviderGemini, err, elapsed)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return Response{ErrorMessage: "Gemini API error: empty candidates", Elapsed: elapsed}
	}

	return Response{
		Success: true,
		RawText: decoded.Candidates[0].Content.Parts[0].Text,
		Elapsed: elapsed,
	}
}

// Ping verifies connectivity and credentials with a fixed probe prompt.
func (c *GeminiClient) Ping(ctx context.Context) error {
	return ping(ctx, c)
}
