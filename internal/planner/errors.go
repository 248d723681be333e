package planner

import "errors"

// ErrCompleteFailure is the only truly fatal generation outcome: the
// circuit breaker tripped and even the fallback recipe pool was empty.
var ErrCompleteFailure = errors.New("complete failure: fallback recipe pool is empty")

// Round-failure reasons, reported to the caller as human-readable text
// rather than raw errors.
const (
	reasonSelectionFailed   = "candidate selection failed"
	reasonAssemblyFailed    = "plan assembly produced invalid structure"
	reasonNutritionExceeded = "nutrition deviation exceeded threshold"
	reasonCoherenceTooLow   = "plan coherence rated below threshold"
	reasonStageTimedOut     = "a generation stage timed out"
	reasonRetriesExhausted  = "all generation rounds failed"
)
