package caseflow

import (
	"context"
	"encoding/json"
	"math"
	"time"
)

// JSONHandler exposes step parameters and the workflow context as one merged
// map and marshals the returned map as the step result.
type JSONHandler struct {
	name string
	fn   func(ctx context.Context, stepCtx StepContext, data map[string]any) (map[string]any, error)
}

func NewJSONHandler(
	name string,
	fn func(ctx context.Context, stepCtx StepContext, data map[string]any) (map[string]any, error),
) *JSONHandler {
	return &JSONHandler{
		name: name,
		fn:   fn,
	}
}

func (h *JSONHandler) Name() string {
	return h.name
}

func (h *JSONHandler) Execute(ctx context.Context, stepCtx StepContext) (json.RawMessage, error) {
	data := stepCtx.CloneContext()
	if data == nil {
		data = make(map[string]any)
	}
	for k, v := range stepCtx.CloneParameters() {
		data[k] = v
	}

	result, err := h.fn(ctx, stepCtx, data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(result)
}

// CalculateRetryDelay returns the backoff before attempt retryAttempt+1,
// where retryAttempt counts the failed attempts so far (1-based).
func CalculateRetryDelay(strategy RetryStrategy, baseDelay time.Duration, retryAttempt int) time.Duration {
	switch strategy {
	case RetryStrategyExponential:
		// Exponential backoff: baseDelay * 2^(retryAttempt-1)
		multiplier := math.Pow(2, float64(max(retryAttempt-1, 0)))
		return time.Duration(float64(baseDelay) * multiplier)

	case RetryStrategyLinear:
		// Linear backoff: baseDelay * retryAttempt
		return baseDelay * time.Duration(max(retryAttempt, 1))

	case RetryStrategyFixed:
		fallthrough
	default:
		// Fixed delay: always use baseDelay
		return baseDelay
	}
}
