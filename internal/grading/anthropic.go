package grading

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ProviderAnthropic selects the Anthropic Messages API.
const ProviderAnthropic = "anthropic"

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = anthropic.ModelClaudeSonnet4_20250514

const anthropicMaxTokens = 8192

type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicCompleter grades through Claude.
type AnthropicCompleter struct {
	messages messageCreator
	model    anthropic.Model
}

// NewAnthropicCompleter creates a Messages API client. An empty key falls
// back to ANTHROPIC_API_KEY.
func NewAnthropicCompleter(apiKey, model string) (*AnthropicCompleter, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
	}
	m := anthropic.Model(model)
	if m == "" {
		m = DefaultAnthropicModel
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicCompleter{messages: &client.Messages, model: m}, nil
}

// Name returns the provider and model.
func (a *AnthropicCompleter) Name() string {
	return ProviderAnthropic + ":" + string(a.model)
}

// Complete sends one request and joins the text blocks of the reply.
func (a *AnthropicCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("anthropic returned no text")
	}
	return b.String(), nil
}
