package backend

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"google.golang.org/api/option"
)

// GeminiBackend runs completions against the Google Gemini API.
type GeminiBackend struct {
	name   string
	model  string
	client *genai.Client
}

// NewGemini creates a Gemini-backed inference backend.
func NewGemini(ctx context.Context, name, apiKey, model string) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrapf(err, "backend %s: create gemini client", name)
	}
	return &GeminiBackend{name: name, model: model, client: client}, nil
}

// Name implements Backend.
func (b *GeminiBackend) Name() string { return b.name }

// Complete implements Backend.
func (b *GeminiBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	m := b.client.GenerativeModel(b.model)
	if req.System != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.MaxTokens > 0 {
		tokens := int32(req.MaxTokens)
		m.MaxOutputTokens = &tokens
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		m.Temperature = &temp
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, eris.Wrapf(err, "backend %s: generate content", b.name)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return &Response{Model: b.model}, nil
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}

	out := &Response{Text: sb.String(), Model: b.model}
	if resp.UsageMetadata != nil {
		out.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// Close releases the underlying API client.
func (b *GeminiBackend) Close() error {
	return b.client.Close()
}
