package executor

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to the wrapped executor with a token bucket.
type RateLimited struct {
	next    ToolExecutor
	limiter *rate.Limiter
}

// NewRateLimited allows requestsPerSecond calls with the given burst.
// A non-positive rate disables throttling.
func NewRateLimited(next ToolExecutor, requestsPerSecond float64, burst int) *RateLimited {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Execute implements ToolExecutor; waiting for a token honours ctx.
func (r *RateLimited) Execute(ctx context.Context, toolName string, params map[string]interface{}) (*ToolResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", toolName, err)
	}
	return r.next.Execute(ctx, toolName, params)
}
