package inference

import (
	"cmp"
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

// GeminiInferencer adapts the chat completion params onto the Gemini API.
type GeminiInferencer struct {
	client *genai.Client
	model  string
}

func NewGeminiInferencer(ctx context.Context, apiKey, model string) (*GeminiInferencer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiInferencer{
		client: client,
		model:  model,
	}, nil
}

func (o *GeminiInferencer) Model() string { return o.model }

// Infer maps the chat params onto a single GenerateContent call. A structured
// response format becomes JSON mode; the schema itself is carried by the prompt.
func (o *GeminiInferencer) Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	if params == nil {
		params = new(openai.ChatCompletionNewParams)
	}
	config := geminiConfig(params, system)

	result, err := o.client.Models.GenerateContent(
		ctx,
		cmp.Or(params.Model, o.model),
		genai.Text(user),
		config,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return result.Text(), nil
}

func geminiConfig(params *openai.ChatCompletionNewParams, system string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
	switch {
	case params.MaxCompletionTokens.Valid():
		config.MaxOutputTokens = int32(params.MaxCompletionTokens.Value)
	case params.MaxTokens.Valid():
		config.MaxOutputTokens = int32(params.MaxTokens.Value)
	}
	if params.Temperature.Valid() {
		config.Temperature = genai.Ptr(float32(params.Temperature.Value))
	}
	if params.ResponseFormat.OfJSONSchema != nil || params.ResponseFormat.OfJSONObject != nil {
		config.ResponseMIMEType = "application/json"
	}
	return config
}
