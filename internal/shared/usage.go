package shared

import (
	"strings"
	"time"
)

// TokenUsage tracks the tokens consumed by a single model request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta holds operational metadata for one external call made on behalf
// of a generation attempt.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}

// Usage accumulates external-call counts, token totals and estimated cost
// across a whole generation attempt. It is only ever touched sequentially
// within one attempt, so it carries no locking.
type Usage struct {
	Calls            int     `json:"calls"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	CostCents        float64 `json:"cost_cents"`
}

// Cents per 1K tokens. Rough published rates; close enough for budget
// tracking, not billing.
type modelRate struct {
	prompt     float64
	completion float64
}

var modelRates = map[string]modelRate{
	"gemini": {prompt: 0.0075, completion: 0.03},
	"llama":  {prompt: 0.0059, completion: 0.0079},
}

var defaultRate = modelRate{prompt: 0.01, completion: 0.03}

func rateFor(model string) modelRate {
	lower := strings.ToLower(model)
	for prefix, r := range modelRates {
		if strings.Contains(lower, prefix) {
			return r
		}
	}
	return defaultRate
}

// Add folds one call's metadata into the running totals.
func (u *Usage) Add(meta AgentMeta) {
	u.Calls++
	u.PromptTokens += meta.Usage.PromptTokens
	u.CompletionTokens += meta.Usage.CompletionTokens

	r := rateFor(meta.Usage.Model)
	u.CostCents += float64(meta.Usage.PromptTokens)/1000*r.prompt +
		float64(meta.Usage.CompletionTokens)/1000*r.completion
}

// Merge combines another accumulated Usage into this one.
func (u *Usage) Merge(other Usage) {
	u.Calls += other.Calls
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.CostCents += other.CostCents
}
