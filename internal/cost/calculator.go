package cost

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates maps provider -> model -> pricing. Providers or models with no
// entry are billed at zero, which covers local ollama backends.
type Rates map[string]map[string]ModelRate

// Calculator computes spend for inference API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Completion computes the cost of one completion call in USD.
func (c *Calculator) Completion(provider, model string, inputTokens, outputTokens int64) float64 {
	models, ok := c.rates[provider]
	if !ok {
		return 0
	}
	rate, ok := models[model]
	if !ok {
		return 0
	}

	inCost := (float64(inputTokens) / 1e6) * rate.Input
	outCost := (float64(outputTokens) / 1e6) * rate.Output
	return inCost + outCost
}

// DefaultRates returns the default pricing rates for the hosted
// providers. Local models are free and have no entry.
func DefaultRates() Rates {
	return Rates{
		"anthropic": {
			"claude-haiku-4-5":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5": {Input: 3.00, Output: 15.00},
		},
		"gemini": {
			"gemini-1.5-flash": {Input: 0.075, Output: 0.30},
			"gemini-1.5-pro":   {Input: 1.25, Output: 5.00},
		},
	}
}
