package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"aijudge/pkg/config"
)

// Inferencer runs one chat completion and returns the raw text of the first
// choice. An empty reply is returned as "" with a nil error; the caller decides
// whether that is usable.
type Inferencer interface {
	Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error)
}

// ErrNoCredential is returned by New when the selected provider has no API key.
var ErrNoCredential = errors.New("inference: no API key configured")

type preset struct {
	baseURL string
	model   string
}

var presets = map[string]preset{
	config.ProviderOpenAI:   {model: "gpt-4o-mini"},
	config.ProviderGrok:     {baseURL: "https://api.x.ai/v1", model: "grok-4-fast-reasoning"},
	config.ProviderMoonshot: {baseURL: "https://api.moonshot.ai/v1", model: "kimi-k2-5"},
	config.ProviderKimi:     {baseURL: "https://api.kimi.com/coding/v1", model: "kimi-for-coding"},
	config.ProviderGemini:   {model: "gemini-2.5-flash"},
}

// New builds the backend selected by cfg.Provider. The client is created once
// here and reused for the life of the process.
func New(ctx context.Context, cfg config.LLMConfig) (Inferencer, error) {
	key := cfg.Credential()
	if key == "" {
		return nil, ErrNoCredential
	}
	p, ok := presets[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("inference: unknown provider %q", cfg.Provider)
	}
	model := cfg.Model
	if model == "" {
		model = p.model
	}

	if cfg.Provider == config.ProviderGemini {
		g, err := NewGeminiInferencer(ctx, key, model)
		if err != nil {
			return nil, err
		}
		return g, nil
	}

	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if baseURL := cfg.BaseURL; baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	} else if p.baseURL != "" {
		opts = append(opts, option.WithBaseURL(p.baseURL))
	}
	return NewOpenAIInferencer(key, model, opts...), nil
}
