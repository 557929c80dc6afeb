package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/edugrade/grader-api/pkg/llm"
)

func testConfig(provider, model, baseURL string) llm.Config {
	return llm.Config{
		Provider: provider,
		Model:    model,
		APIKey:   "test-key",
		BaseURL:  baseURL,
		Timeout:  5 * time.Second,
		Logger:   zerolog.Nop(),
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := llm.New(testConfig("perplexity", "model", ""))
	require.ErrorIs(t, err, llm.ErrUnsupportedProvider)
}

func TestNewRequiresAPIKey(t *testing.T) {
	for _, provider := range []string{llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGemini, llm.ProviderGroq} {
		cfg := testConfig(provider, "model", "")
		cfg.APIKey = ""
		_, err := llm.New(cfg)
		require.Error(t, err, "provider %s should require a key", provider)
	}
}

func TestNewDispatchesByName(t *testing.T) {
	cases := map[string]string{
		"openai":    llm.ProviderOpenAI,
		"Anthropic": llm.ProviderAnthropic,
		" gemini ":  llm.ProviderGemini,
		"GROQ":      llm.ProviderGroq,
	}

	for name, want := range cases {
		client, err := llm.New(testConfig(name, "model", ""))
		require.NoError(t, err)
		require.Equal(t, want, client.Provider())
	}
}

func TestChatCompletionClientSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "gpt-3.5-turbo", payload["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"total_score\": 90}"}}]}`))
	}))
	defer server.Close()

	client, err := llm.NewOpenAIClient(testConfig(llm.ProviderOpenAI, "gpt-3.5-turbo", server.URL+"/v1"))
	require.NoError(t, err)

	resp := client.Complete(context.Background(), "grade this")
	require.True(t, resp.Success)
	require.Equal(t, `{"total_score": 90}`, resp.RawText)
	require.Greater(t, resp.Elapsed, time.Duration(0))
}

func TestChatCompletionClientNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client, err := llm.NewOpenAIClient(testConfig(llm.ProviderOpenAI, "gpt-3.5-turbo", server.URL+"/v1"))
	require.NoError(t, err)

	resp := client.Complete(context.Background(), "grade this")
	require.False(t, resp.Success)
	require.Contains(t, resp.ErrorMessage, "OpenAI API error: 401")
	require.Contains(t, resp.ErrorMessage, "invalid api key")
}

func TestAnthropicClientSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, float64(4000), payload["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Connection successful"}]}`))
	}))
	defer server.Close()

	client, err := llm.NewAnthropicClient(testConfig(llm.ProviderAnthropic, "claude-3-haiku-20240307", server.URL))
	require.NoError(t, err)

	resp := client.Complete(context.Background(), "ping")
	require.True(t, resp.Success)
	require.Equal(t, "Connection successful", resp.RawText)

	require.NoError(t, client.Ping(context.Background()))
}

func TestAnthropicClientNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	client, err := llm.NewAnthropicClient(testConfig(llm.ProviderAnthropic, "claude-3-haiku-20240307", server.URL))
	require.NoError(t, err)

	resp := client.Complete(context.Background(), "ping")
	require.False(t, resp.Success)
	require.Contains(t, resp.ErrorMessage, "Anthropic API error: 429")
	require.Contains(t, resp.ErrorMessage, "rate_limit_error")
}

func TestGeminiClientResolvesModelAlias(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Contains(t, payload, "generationConfig")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"TOTAL: 85/100"}]}}]}`))
	}))
	defer server.Close()

	client, err := llm.NewGeminiClient(testConfig(llm.ProviderGemini, "gemini-1.5-flash", server.URL))
	require.NoError(t, err)

	resp := client.Complete(context.Background(), "grade this")
	require.True(t, resp.Success)
	require.Equal(t, "TOTAL: 85/100", resp.RawText)
	require.Equal(t, "/gemini-1.5-flash-latest:generateContent", gotPath)
	require.Equal(t, "key=test-key", gotQuery)
}

func TestGeminiClientNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid model"}}`))
	}))
	defer server.Close()

	client, err := llm.NewGeminiClient(testConfig(llm.ProviderGemini, "gemini-pro", server.URL))
	require.NoError(t, err)

	resp := client.Complete(context.Background(), "grade this")
	require.False(t, resp.Success)
	require.Contains(t, resp.ErrorMessage, "Gemini API error: 400")
}

func TestPingFailsOnUnexpectedReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"hello there"}]}`))
	}))
	defer server.Close()

	client, err := llm.NewAnthropicClient(testConfig(llm.ProviderAnthropic, "claude-3-haiku-20240307", server.URL))
	require.NoError(t, err)

	require.Error(t, client.Ping(context.Background()))
}
