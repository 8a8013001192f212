package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/archivelab/docmeta/internal/aggregate"
	"github.com/archivelab/docmeta/internal/analyzer"
	"github.com/archivelab/docmeta/internal/backend"
	"github.com/archivelab/docmeta/internal/catalog"
	"github.com/archivelab/docmeta/internal/engine"
	"github.com/archivelab/docmeta/internal/feedback"
	"github.com/archivelab/docmeta/internal/model"
	"github.com/archivelab/docmeta/internal/pipeline"
	"github.com/archivelab/docmeta/internal/resilience"
	"github.com/archivelab/docmeta/pkg/ollama"
)

// buildCatalog resolves the model catalog from config, falling back to
// the built-in set.
func buildCatalog() (*catalog.Catalog, error) {
	if cfg.Catalog.Path != "" {
		return catalog.Load(cfg.Catalog.Path)
	}
	if len(cfg.Catalog.Models) > 0 {
		return catalog.New(cfg.Catalog.Models)
	}
	return catalog.Default(), nil
}

// buildRegistry instantiates one live backend per catalog profile. With
// stub=true every profile gets a canned-answer stub instead, so the full
// path can run without any provider credentials.
func buildRegistry(ctx context.Context, cat *catalog.Catalog, stub bool) (*backend.Registry, func(), error) {
	reg := backend.NewRegistry()
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	ollamaClient := ollama.NewClient(ollama.WithBaseURL(cfg.Ollama.BaseURL))

	for _, p := range cat.Profiles() {
		var (
			b   backend.Backend
			err error
		)

		if stub {
			b = backend.NewStub(p.Name)
		} else {
			switch p.Provider {
			case "ollama":
				b = backend.NewOllama(p.Name, p.Model, ollamaClient)
			case "anthropic":
				if cfg.Anthropic.Key == "" {
					cleanup()
					return nil, nil, eris.Errorf("backend %s needs anthropic.key", p.Name)
				}
				b = backend.NewAnthropic(p.Name, cfg.Anthropic.Key, p.Model)
			case "gemini":
				if cfg.Gemini.Key == "" {
					cleanup()
					return nil, nil, eris.Errorf("backend %s needs gemini.key", p.Name)
				}
				var gb *backend.GeminiBackend
				gb, err = backend.NewGemini(ctx, p.Name, cfg.Gemini.Key, p.Model)
				if err != nil {
					cleanup()
					return nil, nil, err
				}
				closers = append(closers, func() { _ = gb.Close() })
				b = gb
			case "stub":
				b = backend.NewStub(p.Name)
			default:
				cleanup()
				return nil, nil, eris.Errorf("backend %s: unknown provider %q", p.Name, p.Provider)
			}
		}

		if cfg.Retry.Enabled {
			b = backend.WithResilience(b,
				resilience.RetryConfig{
					MaxAttempts:    cfg.Retry.MaxAttempts,
					InitialBackoff: time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond,
					MaxBackoff:     time.Duration(cfg.Retry.MaxBackoffMS) * time.Millisecond,
					Multiplier:     cfg.Retry.Multiplier,
				},
				resilience.BreakerConfig{
					FailureThreshold: cfg.Retry.FailureThreshold,
					ResetTimeout:     time.Duration(cfg.Retry.ResetTimeoutSecs) * time.Second,
				})
		}

		reg.Register(b)
	}

	return reg, cleanup, nil
}

// buildPipeline assembles a pipeline from config. The returned cleanup
// closes backend clients and the feedback store.
func buildPipeline(ctx context.Context, stub bool) (*pipeline.Pipeline, func(), error) {
	cat, err := buildCatalog()
	if err != nil {
		return nil, nil, err
	}

	reg, closeBackends, err := buildRegistry(ctx, cat, stub)
	if err != nil {
		return nil, nil, err
	}

	var analyzerOpts []analyzer.Option
	if name := cfg.Extraction.ClassifierBackend; name != "" {
		if b := reg.Get(name); b != nil {
			analyzerOpts = append(analyzerOpts, analyzer.WithClassifier(b))
		} else {
			zap.L().Warn("classifier backend not in catalog, skipping", zap.String("backend", name))
		}
	}

	eng := engine.New(reg,
		engine.WithWorkers(cfg.Extraction.MaxWorkers),
		engine.WithTaskTimeout(time.Duration(cfg.Extraction.TaskTimeoutSecs)*time.Second),
		engine.WithRateLimit(cfg.Extraction.RatePerSecond, cfg.Extraction.RateBurst),
	)

	pipeOpts := []pipeline.Option{
		pipeline.WithContextBudget(cfg.Extraction.ContextBudget),
	}

	if cfg.Extraction.FieldSpecPath != "" {
		fields, err := model.LoadFieldSpecs(cfg.Extraction.FieldSpecPath)
		if err != nil {
			closeBackends()
			return nil, nil, err
		}
		pipeOpts = append(pipeOpts, pipeline.WithFields(fields))
	}

	cleanup := closeBackends
	if cfg.Feedback.Path != "" {
		rec, err := feedback.NewSQLite(cfg.Feedback.Path)
		if err != nil {
			closeBackends()
			return nil, nil, err
		}
		pipeOpts = append(pipeOpts, pipeline.WithRecorder(rec))
		cleanup = func() {
			closeBackends()
			_ = rec.Close()
		}
	}

	p := pipeline.New(
		analyzer.New(analyzerOpts...),
		cat,
		eng,
		aggregate.New(cat, aggregate.WithEpsilon(cfg.Aggregate.Epsilon)),
		pipeOpts...,
	)
	return p, cleanup, nil
}

// openRecorder opens the feedback store for the inspection commands.
func openRecorder() (*feedback.SQLiteRecorder, error) {
	if cfg.Feedback.Path == "" {
		return nil, eris.New("feedback.path is not configured")
	}
	return feedback.NewSQLite(cfg.Feedback.Path)
}
