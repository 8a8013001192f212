package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivelab/docmeta/internal/resilience"
)

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
	}
}

func TestResilientBackendRetriesTransient(t *testing.T) {
	stub := NewStub("flaky")
	stub.Err = resilience.NewTransientError(errors.New("overloaded"), 503)

	wrapped := WithResilience(stub, fastRetry(3), resilience.DefaultBreakerConfig())

	_, err := wrapped.Complete(context.Background(), Request{Prompt: "extract the title"})
	require.Error(t, err)
	assert.Equal(t, int64(3), stub.Calls())
}

func TestResilientBackendNoRetryOnPermanent(t *testing.T) {
	stub := NewStub("broken")
	stub.Err = errors.New("invalid api key")

	wrapped := WithResilience(stub, fastRetry(5), resilience.DefaultBreakerConfig())

	_, err := wrapped.Complete(context.Background(), Request{Prompt: "extract the title"})
	require.Error(t, err)
	assert.Equal(t, int64(1), stub.Calls())
}

func TestResilientBackendBreakerFailsFast(t *testing.T) {
	stub := NewStub("down")
	stub.Err = errors.New("invalid api key")

	wrapped := WithResilience(stub, fastRetry(1), resilience.BreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
	})

	for range 2 {
		_, err := wrapped.Complete(context.Background(), Request{})
		require.Error(t, err)
	}

	_, err := wrapped.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int64(2), stub.Calls())
}

func TestResilientBackendPassesThrough(t *testing.T) {
	stub := NewStub("healthy")
	wrapped := WithResilience(stub, fastRetry(3), resilience.DefaultBreakerConfig())

	resp, err := wrapped.Complete(context.Background(), Request{Prompt: "extract the date"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "1986-01-06")
	assert.Equal(t, "healthy", wrapped.Name())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewStub("b"))
	reg.Register(NewStub("a"))

	assert.Equal(t, []string{"a", "b"}, reg.Names())
	assert.NotNil(t, reg.Get("a"))
	assert.Nil(t, reg.Get("missing"))
}
