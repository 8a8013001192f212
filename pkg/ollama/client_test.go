package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2:1b", req.Model)
		assert.False(t, req.Stream)
		require.NotNil(t, req.Options)
		assert.Equal(t, 32, req.Options.NumPredict)

		json.NewEncoder(w).Encode(GenerateResponse{
			Model:           req.Model,
			Response:        `{"value": "1986-01-06", "confidence": 0.9}`,
			Done:            true,
			PromptEvalCount: 120,
			EvalCount:       18,
		})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:   "llama3.2:1b",
		Prompt:  "Extract the date.",
		Options: &Options{NumPredict: 32},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Response, "1986-01-06")
	assert.Equal(t, int64(18), resp.EvalCount)
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model is loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3.2:1b"})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Contains(t, se.Body, "model is loading")
}

func TestGenerateContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Generate(ctx, GenerateRequest{Model: "llama3.2:1b"})
	require.Error(t, err)
}
