// Package cost turns provider token usage into an estimated USD spend.
package cost

import "strings"

// Rates holds per-model pricing keyed by model name.
type Rates struct {
	Models map[string]ModelRate `yaml:"models" mapstructure:"models"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Rate returns the pricing for model. Dated snapshots such as
// "gpt-4-0613" fall back to the longest priced prefix.
func (c *Calculator) Rate(model string) (ModelRate, bool) {
	if c == nil {
		return ModelRate{}, false
	}
	if rate, ok := c.rates.Models[model]; ok {
		return rate, true
	}

	var (
		best    ModelRate
		bestLen int
	)
	for name, rate := range c.rates.Models {
		if len(name) > bestLen && strings.HasPrefix(model, name+"-") {
			best, bestLen = rate, len(name)
		}
	}
	return best, bestLen > 0
}

// Completion computes the cost of one chat completion. Unknown models cost 0.
func (c *Calculator) Completion(model string, input, output int64) float64 {
	rate, ok := c.Rate(model)
	if !ok {
		return 0
	}
	inCost := (float64(input) / 1e6) * rate.Input
	outCost := (float64(output) / 1e6) * rate.Output
	return inCost + outCost
}

// DefaultRates returns list prices for the models the service is
// configured with out of the box.
func DefaultRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"gpt-4":                      {Input: 30.00, Output: 60.00},
			"gpt-4-turbo":                {Input: 10.00, Output: 30.00},
			"gpt-4o":                     {Input: 2.50, Output: 10.00},
			"gpt-4o-mini":                {Input: 0.15, Output: 0.60},
			"claude-haiku-4-5-20251001":  {Input: 1.00, Output: 5.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
	}
}
