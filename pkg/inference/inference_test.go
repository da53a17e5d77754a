package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aijudge/pkg/config"
)

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func fakeServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if seen != nil {
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIInferencer_Infer(t *testing.T) {
	var req map[string]any
	srv := fakeServer(t, http.StatusOK, completion(`{"summary":"ok"}`), &req)

	inf := NewOpenAIInferencer("sk-test", "default-model", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	params := &openai.ChatCompletionNewParams{
		Temperature: openai.Float(0.2),
	}

	out, err := inf.Infer(context.Background(), params, "system prompt", "user story")
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, out)

	assert.Equal(t, "default-model", req["model"])
	assert.InDelta(t, 0.2, req["temperature"], 1e-9)
	msgs, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user story", msgs[1].(map[string]any)["content"])

	assert.Empty(t, params.Messages, "caller params must not be mutated")
	assert.Empty(t, params.Model)
}

func TestOpenAIInferencer_ExplicitModelWins(t *testing.T) {
	var req map[string]any
	srv := fakeServer(t, http.StatusOK, completion("x"), &req)

	inf := NewOpenAIInferencer("sk-test", "default-model", option.WithBaseURL(srv.URL))
	_, err := inf.Infer(context.Background(), &openai.ChatCompletionNewParams{Model: "override"}, "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "override", req["model"])
}

func TestOpenAIInferencer_EmptyContentIsNotAnError(t *testing.T) {
	srv := fakeServer(t, http.StatusOK, completion(""), nil)

	inf := NewOpenAIInferencer("sk-test", "m", option.WithBaseURL(srv.URL))
	out, err := inf.Infer(context.Background(), nil, "s", "u")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpenAIInferencer_HTTPError(t *testing.T) {
	srv := fakeServer(t, http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, nil)

	inf := NewOpenAIInferencer("sk-test", "m", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	_, err := inf.Infer(context.Background(), nil, "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai inference error")
}

func TestNew(t *testing.T) {
	t.Run("no credential", func(t *testing.T) {
		_, err := New(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI})
		assert.ErrorIs(t, err, ErrNoCredential)
	})

	t.Run("gemini uses its own key", func(t *testing.T) {
		_, err := New(context.Background(), config.LLMConfig{Provider: config.ProviderGemini, APIKey: "sk-openai"})
		assert.ErrorIs(t, err, ErrNoCredential)
	})

	t.Run("gemini preset model", func(t *testing.T) {
		inf, err := New(context.Background(), config.LLMConfig{Provider: config.ProviderGemini, GeminiAPIKey: "g-test"})
		require.NoError(t, err)
		g, ok := inf.(*GeminiInferencer)
		require.True(t, ok)
		assert.Equal(t, "gemini-2.5-flash", g.Model())
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(context.Background(), config.LLMConfig{Provider: "nope", APIKey: "k"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoCredential)
	})

	tests := []struct {
		provider string
		model    string
		want     string
	}{
		{config.ProviderOpenAI, "", "gpt-4o-mini"},
		{config.ProviderGrok, "", "grok-4-fast-reasoning"},
		{config.ProviderMoonshot, "", "kimi-k2-5"},
		{config.ProviderKimi, "", "kimi-for-coding"},
		{config.ProviderOpenAI, "gpt-4.1", "gpt-4.1"},
	}
	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.want, func(t *testing.T) {
			inf, err := New(context.Background(), config.LLMConfig{Provider: tt.provider, APIKey: "k", Model: tt.model})
			require.NoError(t, err)
			o, ok := inf.(*OpenAIInferencer)
			require.True(t, ok)
			assert.Equal(t, tt.want, o.Model())
		})
	}
}

func TestNew_BaseURLOverride(t *testing.T) {
	var req map[string]any
	srv := fakeServer(t, http.StatusOK, completion("hi"), &req)

	inf, err := New(context.Background(), config.LLMConfig{Provider: config.ProviderGrok, APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := inf.Infer(context.Background(), nil, "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
	assert.Equal(t, "grok-4-fast-reasoning", req["model"])
}

func TestGeminiConfig(t *testing.T) {
	params := &openai.ChatCompletionNewParams{
		MaxTokens:   openai.Int(700),
		Temperature: openai.Float(0.2),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{Name: "judgment"},
			},
		},
	}
	cfg := geminiConfig(params, "sys")
	assert.Equal(t, int32(700), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.2, *cfg.Temperature, 1e-6)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)

	plain := geminiConfig(&openai.ChatCompletionNewParams{}, "sys")
	assert.Empty(t, plain.ResponseMIMEType)
	assert.Nil(t, plain.Temperature)
	assert.Zero(t, plain.MaxOutputTokens)
}
