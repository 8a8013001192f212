package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		"anthropic": {
			"haiku":  {Input: 0.80, Output: 4.00},
			"sonnet": {Input: 3.00, Output: 15.00},
		},
		"gemini": {
			"flash": {Input: 0.075, Output: 0.30},
		},
	}
}

func TestCompletion(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name     string
		provider string
		model    string
		input    int64
		output   int64
		want     float64
	}{
		{
			name:     "haiku simple",
			provider: "anthropic", model: "haiku",
			input: 1000000, output: 100000,
			want: 0.80 + 0.40, // 0.80 input + 0.40 output
		},
		{
			name:     "sonnet",
			provider: "anthropic", model: "sonnet",
			input: 1000000, output: 100000,
			want: 3.00 + 1.50,
		},
		{
			name:     "gemini flash small call",
			provider: "gemini", model: "flash",
			input: 2000, output: 150,
			want: 2000.0/1e6*0.075 + 150.0/1e6*0.30,
		},
		{
			name:     "unknown model returns 0",
			provider: "anthropic", model: "unknown",
			input: 1000000, output: 1000000,
			want: 0,
		},
		{
			name:     "unpriced provider is free",
			provider: "ollama", model: "phi3.5:3.8b",
			input: 1000000, output: 1000000,
			want: 0,
		},
		{
			name:     "zero tokens returns 0",
			provider: "anthropic", model: "haiku",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := calc.Completion(tt.provider, tt.model, tt.input, tt.output)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	rates := DefaultRates()

	assert.Contains(t, rates["anthropic"], "claude-sonnet-4-5")
	assert.Contains(t, rates["gemini"], "gemini-1.5-flash")
	_, hasOllama := rates["ollama"]
	assert.False(t, hasOllama)
}
