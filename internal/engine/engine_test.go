package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivelab/docmeta/internal/backend"
	"github.com/archivelab/docmeta/internal/model"
)

func newTask(fieldKey, backendName string) model.ExtractionTask {
	var spec model.FieldSpec
	for _, s := range model.DefaultFieldSpecs() {
		if s.Key == fieldKey {
			spec = s
			break
		}
	}
	if spec.Key == "" {
		spec = model.FieldSpec{Key: fieldKey, Type: model.ValueTypeText, Prompt: "Extract the " + fieldKey + "."}
	}
	return model.ExtractionTask{
		Field:   spec,
		Backend: model.ModelProfile{Name: backendName, Model: "stub-model"},
		Context: "COMMUNITY NEWSLETTER\nJanuary 6, 1986\nVolume 3, Issue 1",
	}
}

func TestExecuteSuccess(t *testing.T) {
	reg := backend.NewRegistry()
	reg.Register(backend.NewStub("local"))
	e := New(reg)

	got := e.Execute(context.Background(), []model.ExtractionTask{
		newTask("date", "local"),
		newTask("title", "local"),
	})

	require.Len(t, got, 2)
	dates := got["date"]
	require.Len(t, dates, 1)
	assert.True(t, dates[0].OK)
	assert.Equal(t, "1986-01-06", dates[0].Value)
	assert.True(t, dates[0].Reported)
	assert.InDelta(t, 0.85, dates[0].Confidence, 0.001)
}

func TestExecuteBackendErrorBecomesFailedAttempt(t *testing.T) {
	broken := backend.NewStub("broken")
	broken.Err = errors.New("connection refused")
	healthy := backend.NewStub("healthy")

	reg := backend.NewRegistry()
	reg.Register(broken)
	reg.Register(healthy)
	e := New(reg)

	got := e.Execute(context.Background(), []model.ExtractionTask{
		newTask("date", "broken"),
		newTask("title", "healthy"),
	})

	failed := got["date"][0]
	assert.False(t, failed.OK)
	assert.Equal(t, model.FailureBackendError, failed.Reason)
	assert.Contains(t, failed.Err, "connection refused")
	// No response means no token usage to account for.
	assert.Zero(t, failed.TokensIn)
	assert.Zero(t, failed.TokensOut)

	// One backend failing never blocks another field.
	assert.True(t, got["title"][0].OK)
}

func TestExecuteUnregisteredBackend(t *testing.T) {
	e := New(backend.NewRegistry())

	got := e.Execute(context.Background(), []model.ExtractionTask{newTask("title", "ghost")})

	attempt := got["title"][0]
	assert.False(t, attempt.OK)
	assert.Equal(t, model.FailureBackendError, attempt.Reason)
	assert.Contains(t, attempt.Err, "ghost")
}

func TestExecuteTaskTimeout(t *testing.T) {
	slow := backend.NewStub("slow")
	slow.Delay = 200 * time.Millisecond

	reg := backend.NewRegistry()
	reg.Register(slow)
	e := New(reg, WithTaskTimeout(20*time.Millisecond))

	got := e.Execute(context.Background(), []model.ExtractionTask{newTask("date", "slow")})

	attempt := got["date"][0]
	assert.False(t, attempt.OK)
	assert.Equal(t, model.FailureTimeout, attempt.Reason)
	assert.Empty(t, attempt.Value)
}

func TestExecuteRunCancellation(t *testing.T) {
	slow := backend.NewStub("slow")
	slow.Delay = 5 * time.Second

	reg := backend.NewRegistry()
	reg.Register(slow)
	e := New(reg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	got := e.Execute(ctx, []model.ExtractionTask{newTask("date", "slow")})

	attempt := got["date"][0]
	assert.False(t, attempt.OK)
	assert.Equal(t, model.FailureCanceled, attempt.Reason)
}

func TestExecuteNoRetries(t *testing.T) {
	flaky := backend.NewStub("flaky")
	flaky.Err = errors.New("boom")

	reg := backend.NewRegistry()
	reg.Register(flaky)
	e := New(reg)

	e.Execute(context.Background(), []model.ExtractionTask{newTask("date", "flaky")})
	assert.Equal(t, int64(1), flaky.Calls())
}

func TestExecuteBoundsConcurrency(t *testing.T) {
	var current, peak atomic.Int64
	b := backend.NewStub("local")
	b.Respond = func(backend.Request) string {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		current.Add(-1)
		return `{"value": "x y z title here", "confidence": 0.9}`
	}

	reg := backend.NewRegistry()
	reg.Register(b)
	e := New(reg, WithWorkers(2))

	tasks := make([]model.ExtractionTask, 8)
	for i := range tasks {
		tasks[i] = newTask("title", "local")
	}
	got := e.Execute(context.Background(), tasks)

	assert.Len(t, got["title"], 8)
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestExecuteConsensusFanOut(t *testing.T) {
	reg := backend.NewRegistry()
	reg.Register(backend.NewStub("a"))
	reg.Register(backend.NewStub("b"))
	e := New(reg)

	got := e.Execute(context.Background(), []model.ExtractionTask{
		newTask("date", "a"),
		newTask("date", "b"),
	})

	require.Len(t, got["date"], 2)
	assert.Equal(t, "a", got["date"][0].Backend)
	assert.Equal(t, "b", got["date"][1].Backend)
}

func TestExecuteEmptyAnswer(t *testing.T) {
	b := backend.NewStub("local")
	b.Respond = func(backend.Request) string {
		return `{"value": null, "confidence": 0.2}`
	}

	reg := backend.NewRegistry()
	reg.Register(b)
	e := New(reg)

	got := e.Execute(context.Background(), []model.ExtractionTask{newTask("title", "local")})

	attempt := got["title"][0]
	assert.False(t, attempt.OK)
	assert.Equal(t, model.FailureEmptyAnswer, attempt.Reason)
}

func TestExecuteDerivesConfidenceWhenUnreported(t *testing.T) {
	b := backend.NewStub("local")
	b.Respond = func(backend.Request) string {
		return `{"value": "1986-01-06"}`
	}

	reg := backend.NewRegistry()
	reg.Register(b)
	e := New(reg)

	got := e.Execute(context.Background(), []model.ExtractionTask{newTask("date", "local")})

	attempt := got["date"][0]
	require.True(t, attempt.OK)
	assert.False(t, attempt.Reported)
	// ISO date shape, not literally present in the context: 0.5 + 0.4.
	assert.InDelta(t, 0.9, attempt.Confidence, 0.001)
}
