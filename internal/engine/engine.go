// Package engine executes extraction tasks against inference backends on
// a bounded worker pool. Attempt failures are data, not errors: a backend
// outage shows up as failed attempts in the report, never as a run abort.
package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/archivelab/docmeta/internal/backend"
	"github.com/archivelab/docmeta/internal/model"
)

const (
	defaultWorkers     = 4
	defaultTaskTimeout = 45 * time.Second
)

// Engine runs ExtractionTasks concurrently.
type Engine struct {
	registry    *backend.Registry
	limiter     *rate.Limiter
	workers     int
	taskTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds how many backend calls run at once.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithTaskTimeout sets the per-task deadline.
func WithTaskTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.taskTimeout = d
		}
	}
}

// WithRateLimit throttles backend calls globally across all workers.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(e *Engine) {
		if perSecond > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// New creates an Engine using the given backend registry.
func New(registry *backend.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:    registry,
		workers:     defaultWorkers,
		taskTimeout: defaultTaskTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute runs every task and groups the resulting attempts by field key.
// A field's attempts are complete when Execute returns; callers join per
// field from the returned map. Task failures never fail the call.
func (e *Engine) Execute(ctx context.Context, tasks []model.ExtractionTask) map[string][]model.ExtractionAttempt {
	attempts := make([]model.ExtractionAttempt, len(tasks))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, task := range tasks {
		g.Go(func() error {
			attempts[i] = e.runTask(ctx, task)
			return nil
		})
	}
	// Workers never return errors; Wait is just the join barrier.
	_ = g.Wait()

	byField := make(map[string][]model.ExtractionAttempt, len(tasks))
	for i, task := range tasks {
		byField[task.Field.Key] = append(byField[task.Field.Key], attempts[i])
	}
	return byField
}

// runTask executes one backend call and converts any failure into a
// failed attempt.
func (e *Engine) runTask(ctx context.Context, task model.ExtractionTask) model.ExtractionAttempt {
	attempt := model.ExtractionAttempt{
		Backend: task.Backend.Name,
		Model:   task.Backend.Model,
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			attempt.Reason = model.FailureCanceled
			attempt.Err = err.Error()
			return attempt
		}
	}

	b := e.registry.Get(task.Backend.Name)
	if b == nil {
		attempt.Reason = model.FailureBackendError
		attempt.Err = "backend not registered: " + task.Backend.Name
		return attempt
	}

	taskCtx, cancel := context.WithTimeout(ctx, e.taskTimeout)
	defer cancel()

	start := time.Now()
	resp, err := b.Complete(taskCtx, backend.Request{
		System:      answerSystemPrompt,
		Prompt:      userPrompt(task),
		MaxTokens:   task.Field.MaxTokens,
		Temperature: task.Backend.Temperature,
	})
	attempt.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		attempt.Reason = failureReason(ctx, taskCtx, err)
		attempt.Err = err.Error()
		zap.L().Warn("engine: attempt failed",
			zap.String("field", task.Field.Key),
			zap.String("backend", task.Backend.Name),
			zap.String("reason", string(attempt.Reason)),
			zap.Error(err),
		)
		return attempt
	}

	attempt.TokensIn = resp.InputTokens
	attempt.TokensOut = resp.OutputTokens

	if resp.Model != "" {
		attempt.Model = resp.Model
	}

	value, reported, hasReported := parseAnswer(resp.Text)
	if isEmptyAnswer(value) {
		attempt.Reason = model.FailureEmptyAnswer
		return attempt
	}

	attempt.OK = true
	attempt.Value = value
	if hasReported {
		attempt.Confidence = reported
		attempt.Reported = true
	} else {
		attempt.Confidence = deriveConfidence(task.Field.Key, value, task.Context)
	}
	return attempt
}

// failureReason distinguishes a per-task timeout from run cancellation.
func failureReason(runCtx, taskCtx context.Context, err error) model.FailureReason {
	switch {
	case runCtx.Err() != nil:
		return model.FailureCanceled
	case errors.Is(err, context.DeadlineExceeded) || taskCtx.Err() != nil:
		return model.FailureTimeout
	default:
		return model.FailureBackendError
	}
}
