package backend

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// AnthropicBackend runs completions against the Anthropic Messages API.
type AnthropicBackend struct {
	name   string
	model  string
	client sdk.Client
}

// NewAnthropic creates an Anthropic-backed inference backend.
func NewAnthropic(name, apiKey, model string) *AnthropicBackend {
	return &AnthropicBackend{
		name:   name,
		model:  model,
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Name implements Backend.
func (b *AnthropicBackend) Name() string { return b.name }

// Complete implements Backend.
func (b *AnthropicBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(b.model),
		MaxTokens: req.MaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}

	msg, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrapf(err, "backend %s: create message", b.name)
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}

	return &Response{
		Text:         strings.Join(parts, "\n"),
		Model:        string(msg.Model),
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}, nil
}
