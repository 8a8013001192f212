package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	boom := errors.New("boom")
	for range 3 {
		require.NoError(t, b.Allow())
		b.Record(boom)
	}

	assert.Equal(t, CircuitOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	boom := errors.New("boom")
	b.Record(boom)
	b.Record(boom)
	b.Record(nil)
	b.Record(boom)
	b.Record(boom)

	assert.Equal(t, CircuitClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestBreakerHalfOpenAfterReset(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	now := time.Now()
	b.now = func() time.Time { return now }

	b.Record(errors.New("boom"))
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, CircuitHalfOpen, b.State())
	assert.NoError(t, b.Allow())

	// Successful probe closes the circuit.
	b.Record(nil)
	assert.Equal(t, CircuitClosed, b.State())
}

func TestBreakerProbeFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	now := time.Now()
	b.now = func() time.Time { return now }

	b.Record(errors.New("boom"))
	now = now.Add(2 * time.Minute)
	require.NoError(t, b.Allow())

	b.Record(errors.New("still down"))
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}
