package backend

import (
	"context"

	"github.com/archivelab/docmeta/internal/resilience"
)

// ResilientBackend decorates a Backend with retry and a circuit breaker.
// The extraction engine stays retry-free; wrapping happens at registration
// time when the operator opts in.
type ResilientBackend struct {
	inner   Backend
	retry   resilience.RetryConfig
	breaker *resilience.Breaker
}

// WithResilience wraps a backend. A zero RetryConfig gets the defaults.
func WithResilience(inner Backend, retry resilience.RetryConfig, breaker resilience.BreakerConfig) *ResilientBackend {
	return &ResilientBackend{
		inner:   inner,
		retry:   retry,
		breaker: resilience.NewBreaker(breaker),
	}
}

// Name implements Backend.
func (r *ResilientBackend) Name() string { return r.inner.Name() }

// Complete implements Backend. The breaker is consulted once per call, not
// per retry attempt, so a tripped circuit fails fast.
func (r *ResilientBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := r.breaker.Allow(); err != nil {
		return nil, err
	}

	resp, err := resilience.Do(ctx, r.retry, r.inner.Name(), func(ctx context.Context) (*Response, error) {
		return r.inner.Complete(ctx, req)
	})
	r.breaker.Record(err)
	return resp, err
}
