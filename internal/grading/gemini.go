package grading

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// ProviderGemini selects the Gemini API.
const ProviderGemini = "gemini"

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiCompleter grades through Gemini generateContent.
type GeminiCompleter struct {
	models contentGenerator
	model  string
}

// NewGeminiCompleter creates a Gemini API client.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiCompleter{models: client.Models, model: model}, nil
}

// Name returns the provider and model.
func (g *GeminiCompleter) Name() string {
	return ProviderGemini + ":" + g.model
}

// Complete sends one request and returns the reply text.
func (g *GeminiCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}
