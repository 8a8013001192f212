package backend

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/archivelab/docmeta/internal/resilience"
	"github.com/archivelab/docmeta/pkg/ollama"
)

// OllamaBackend runs completions against a local Ollama model.
type OllamaBackend struct {
	name   string
	model  string
	client ollama.Client
}

// NewOllama creates an Ollama-backed inference backend.
func NewOllama(name, model string, client ollama.Client) *OllamaBackend {
	return &OllamaBackend{name: name, model: model, client: client}
}

// Name implements Backend.
func (b *OllamaBackend) Name() string { return b.name }

// Complete implements Backend.
func (b *OllamaBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	genReq := ollama.GenerateRequest{
		Model:  b.model,
		Prompt: req.Prompt,
		System: req.System,
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		genReq.Options = &ollama.Options{
			Temperature: req.Temperature,
			NumPredict:  int(req.MaxTokens),
		}
	}

	resp, err := b.client.Generate(ctx, genReq)
	if err != nil {
		var se *ollama.StatusError
		if errors.As(err, &se) && resilience.IsTransientHTTPStatus(se.Code) {
			err = resilience.NewTransientError(err, se.Code)
		}
		return nil, eris.Wrapf(err, "backend %s: generate", b.name)
	}

	return &Response{
		Text:         resp.Response,
		Model:        resp.Model,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
	}, nil
}
