package backend

import (
	"context"
	"strings"
	"sync/atomic"
	"time"
)

// Compile-time interface checks.
var (
	_ Backend = (*AnthropicBackend)(nil)
	_ Backend = (*GeminiBackend)(nil)
	_ Backend = (*OllamaBackend)(nil)
	_ Backend = (*StubBackend)(nil)
	_ Backend = (*ResilientBackend)(nil)
)

// StubBackend implements Backend with canned responses. Used by dry runs
// and tests so the full extraction path can execute without any provider.
type StubBackend struct {
	name string
	// Delay simulates inference latency.
	Delay time.Duration
	// Err, when set, is returned from every Complete call.
	Err error
	// Respond, when set, overrides the canned response logic.
	Respond func(req Request) string

	calls atomic.Int64
}

// NewStub creates a stub backend with the given name.
func NewStub(name string) *StubBackend {
	return &StubBackend{name: name}
}

// Name implements Backend.
func (s *StubBackend) Name() string { return s.name }

// Calls returns how many Complete calls the stub has served.
func (s *StubBackend) Calls() int64 { return s.calls.Load() }

// Complete implements Backend.
func (s *StubBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	s.calls.Add(1)

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}

	text := ""
	if s.Respond != nil {
		text = s.Respond(req)
	} else {
		text = cannedAnswer(req)
	}

	return &Response{
		Text:         text,
		Model:        "stub",
		InputTokens:  int64(len(req.Prompt) / 4),
		OutputTokens: int64(len(text) / 4),
	}, nil
}

// cannedAnswer inspects the prompt and returns a plausible JSON answer for
// the field being asked about.
func cannedAnswer(req Request) string {
	prompt := strings.ToLower(req.System + " " + req.Prompt)
	switch {
	case strings.Contains(prompt, "document type"):
		return `{"document_type": "newsletter", "confidence": 0.9}`
	case strings.Contains(prompt, "date"):
		return `{"value": "1986-01-06", "confidence": 0.85}`
	case strings.Contains(prompt, "volume"):
		return `{"value": "Volume 3, Issue 1", "confidence": 0.8}`
	case strings.Contains(prompt, "summary"):
		return `{"value": "A short summary of the document contents.", "confidence": 0.7}`
	default:
		return `{"value": "Stub Extracted Title", "confidence": 0.75}`
	}
}
