// Package retry executes a single proof component: it serves cached results,
// calls the tool with bounded attempts and backoff, and caches passes.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/viant/composer/internal/clock"
	"github.com/viant/composer/metrics"
	"github.com/viant/composer/model"
	"github.com/viant/composer/runtime/execution"
	"github.com/viant/composer/service/cache"
	"github.com/viant/composer/service/executor"
	"github.com/viant/composer/tracing"
)

// Listener observes cache hits and retries.
type Listener interface {
	CacheHit(ctx context.Context, component *model.ProofComponent, key string)
	Retrying(ctx context.Context, component *model.ProofComponent, retry int, delay time.Duration, err error)
}

// Request describes one component execution.
type Request struct {
	Component *model.ProofComponent
	Globals   map[string]interface{}
	Policy    *model.RetryPolicy
	UseCache  bool
	Listener  Listener
}

// Service executes components against a ToolExecutor.
type Service struct {
	executor executor.ToolExecutor
	cache    cache.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
	maxDelay time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option customises the service.
type Option func(s *Service)

// WithCache enables result caching.
func WithCache(store cache.Store) Option {
	return func(s *Service) { s.cache = store }
}

// WithMetrics records component metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMaxDelay caps any computed backoff delay.
func WithMaxDelay(maxDelay time.Duration) Option {
	return func(s *Service) { s.maxDelay = maxDelay }
}

// New creates a service calling toolExecutor.
func New(toolExecutor executor.ToolExecutor, opts ...Option) *Service {
	ret := &Service{executor: toolExecutor, logger: slog.Default(), sleep: sleep}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Execute runs the component. Business failures yield a FAIL result and a
// nil error. When every attempt raised an error the ERROR result is returned
// together with a *model.ComponentExecutionError.
func (s *Service) Execute(ctx context.Context, request *Request) (*execution.ComponentResult, error) {
	component := request.Component
	policy := request.Policy
	if policy == nil {
		policy = model.DefaultRetryPolicy()
	}
	params := model.MergeParameters(request.Globals, component.Parameters)

	ctx, span := tracing.StartComponent(ctx, component.ID, component.ToolName)

	key, keyOK := "", false
	if request.UseCache && s.cache != nil {
		key, keyOK = cache.Key(component, params)
	}
	if keyOK {
		if result, ok := s.lookup(ctx, request, key); ok {
			span.Set("cache_hit", true).End(nil)
			return result, nil
		}
	}

	started := clock.Now()
	result := &execution.ComponentResult{ComponentID: component.ID, ToolName: component.ToolName}
	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.delay(policy, attempt)
			if request.Listener != nil {
				request.Listener.Retrying(ctx, component, attempt, delay, lastErr)
			}
			s.metrics.RecordRetry(component.ToolName)
			span.Retry(attempt, delay)
			if err := s.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}
		attempts++
		toolResult, err := s.call(ctx, component, params)
		if err == nil && toolResult == nil {
			err = fmt.Errorf("tool %s returned no result", component.ToolName)
		}
		if err != nil {
			lastErr = err
			s.logger.Debug("component attempt failed", "component_id", component.ID, "tool", component.ToolName, "attempt", attempts, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		lastErr = nil
		result.ZKProofGenerated = toolResult.ZKProofGenerated
		result.Output = toolResult.Output
		result.Error = toolResult.Error
		if toolResult.Success {
			result.Status = execution.ComponentPass
		} else {
			result.Status = execution.ComponentFail
		}
		break
	}
	result.RetryCount = attempts - 1
	if result.RetryCount < 0 {
		result.RetryCount = 0
	}
	result.ExecutionTime = clock.Now().Sub(started)
	result.Timestamp = clock.Now()

	if lastErr != nil {
		result.Status = execution.ComponentError
		result.Error = lastErr.Error()
		s.metrics.RecordComponent(component.ToolName, string(result.Status), result.ExecutionTime)
		err := &model.ComponentExecutionError{ComponentID: component.ID, Attempts: attempts, Err: lastErr}
		span.Set("retry_count", result.RetryCount).End(err)
		return result, err
	}

	s.metrics.RecordComponent(component.ToolName, string(result.Status), result.ExecutionTime)
	if keyOK && result.Status == execution.ComponentPass {
		result.CacheKey = key
		if err := s.cache.Store(ctx, key, result); err != nil {
			s.logger.Warn("failed to cache component result", "component_id", component.ID, "cache_key", key, "error", err)
		}
	}
	span.Set("retry_count", result.RetryCount).End(nil)
	return result, nil
}

func (s *Service) lookup(ctx context.Context, request *Request, key string) (*execution.ComponentResult, bool) {
	entry, ok, err := s.cache.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn("cache lookup failed", "component_id", request.Component.ID, "cache_key", key, "error", err)
		return nil, false
	}
	s.metrics.RecordCacheLookup(ok)
	if !ok || entry.Result == nil {
		return nil, false
	}
	if request.Listener != nil {
		request.Listener.CacheHit(ctx, request.Component, key)
	}
	result := entry.Result.Clone()
	result.ComponentID = request.Component.ID
	result.CacheHit = true
	result.CacheKey = key
	result.RetryCount = 0
	result.ExecutionTime = 0
	result.Timestamp = clock.Now()
	return result, true
}

// call performs one attempt, bounded by the component timeout. The attempt
// returns as soon as ctx is done even if the tool ignores cancellation.
func (s *Service) call(ctx context.Context, component *model.ProofComponent, params map[string]interface{}) (*executor.ToolResult, error) {
	if component.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, component.Timeout)
		defer cancel()
	}
	type outcome struct {
		result *executor.ToolResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool %s panicked: %v", component.ToolName, r)}
			}
		}()
		result, err := s.executor.Execute(ctx, component.ToolName, model.CloneParameters(params))
		done <- outcome{result: result, err: err}
	}()
	var ret outcome
	select {
	case ret = <-done:
	case <-ctx.Done():
		ret.err = ctx.Err()
	}
	if errors.Is(ret.err, context.DeadlineExceeded) && component.Timeout > 0 {
		ret.err = fmt.Errorf("component %s timed out after %s: %w", component.ID, component.Timeout, ret.err)
	}
	return ret.result, ret.err
}

func (s *Service) delay(policy *model.RetryPolicy, retry int) time.Duration {
	delay := policy.Delay(retry)
	if s.maxDelay > 0 && delay > s.maxDelay {
		return s.maxDelay
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
