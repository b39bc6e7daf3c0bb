package execution

import (
	"context"
	"sync"
	"time"

	"github.com/viant/composer/audit"
	"github.com/viant/composer/model"
	"github.com/viant/composer/progress"
)

// Publisher receives a snapshot of the execution after every change.
type Publisher func(ctx context.Context, snapshot *Execution)

// Tracker owns the mutable execution of one run. Hooks may be called from
// component goroutines; they are serialised under the tracker lock, and
// snapshots are published in the order the changes were applied.
type Tracker struct {
	mux       sync.Mutex
	execution *Execution
	progress  *progress.Progress
	audit     *audit.Log
	publish   Publisher
	started   map[string]bool
	cacheHits int
	retries   int
}

// NewTracker creates a tracker for execution.
func NewTracker(execution *Execution, log *audit.Log, publish Publisher) *Tracker {
	ret := &Tracker{
		execution: execution,
		audit:     log,
		publish:   publish,
		started:   map[string]bool{},
	}
	ret.progress = progress.New(execution.ID, execution.Progress.Total, nil)
	return ret
}

// Snapshot returns a clone of the execution.
func (t *Tracker) Snapshot() *Execution {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.execution.Clone()
}

// Audit returns the audit log of the execution.
func (t *Tracker) Audit() *audit.Log { return t.audit }

// CacheHits returns the number of components served from cache.
func (t *Tracker) CacheHits() int {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.cacheHits
}

// Retries returns the number of retries performed across components.
func (t *Tracker) Retries() int {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.retries
}

// Start records the start of the execution.
func (t *Tracker) Start(ctx context.Context, details map[string]interface{}) {
	t.mux.Lock()
	t.execution.CurrentPhase = PhaseExecuting
	t.audit.Info(ctx, audit.ExecutionStarted, "", details)
	t.emit(ctx, t.execution.Clone())
	t.mux.Unlock()
}

// Phase updates the current phase.
func (t *Tracker) Phase(ctx context.Context, phase string) {
	t.mux.Lock()
	t.execution.CurrentPhase = phase
	t.emit(ctx, t.execution.Clone())
	t.mux.Unlock()
}

// Started records that a component was dispatched.
func (t *Tracker) Started(ctx context.Context, component *model.ProofComponent) {
	t.mux.Lock()
	t.started[component.ID] = true
	t.progress.Update(progress.Delta{Running: 1, Pending: -1})
	t.execution.Progress = t.progress.Snapshot()
	t.audit.Info(ctx, audit.ComponentStarted, component.ID, map[string]interface{}{"toolName": component.ToolName})
	t.emit(ctx, t.execution.Clone())
	t.mux.Unlock()
}

// CacheHit records that a component result was served from cache.
func (t *Tracker) CacheHit(ctx context.Context, component *model.ProofComponent, key string) {
	t.mux.Lock()
	t.cacheHits++
	t.audit.Info(ctx, audit.ComponentCacheHit, component.ID, map[string]interface{}{"cacheKey": key})
	t.mux.Unlock()
}

// Retrying records a retry about to happen after delay.
func (t *Tracker) Retrying(ctx context.Context, component *model.ProofComponent, retry int, delay time.Duration, err error) {
	t.mux.Lock()
	t.retries++
	details := map[string]interface{}{"attempt": retry, "delayMs": delay.Milliseconds()}
	if err != nil {
		details["error"] = err.Error()
	}
	t.audit.Warn(ctx, audit.ComponentRetry, component.ID, details)
	t.mux.Unlock()
}

// Settled records the final result of a component.
func (t *Tracker) Settled(ctx context.Context, component *model.ProofComponent, result *ComponentResult) {
	t.mux.Lock()
	delta := progress.Delta{}
	if t.started[component.ID] {
		delta.Running = -1
	} else {
		delta.Pending = -1
	}
	details := map[string]interface{}{
		"status":          string(result.Status),
		"executionTimeMs": result.ExecutionTime.Milliseconds(),
		"retryCount":      result.RetryCount,
		"cacheHit":        result.CacheHit,
	}
	switch result.Status {
	case ComponentSkipped:
		delta.Skipped = 1
		t.audit.Warn(ctx, audit.ComponentSkipped, component.ID, details)
	case ComponentError:
		delta.Completed = 1
		delta.Failed = 1
		details["error"] = result.Error
		details["optional"] = component.Optional
		t.audit.Error(ctx, audit.ComponentError, component.ID, details)
	case ComponentFail:
		delta.Completed = 1
		delta.Failed = 1
		t.audit.Info(ctx, audit.ComponentCompleted, component.ID, details)
	default:
		delta.Completed = 1
		t.audit.Info(ctx, audit.ComponentCompleted, component.ID, details)
	}
	t.progress.Update(delta)
	t.execution.Progress = t.progress.Snapshot()
	t.execution.Results = append(t.execution.Results, result.Clone())
	t.emit(ctx, t.execution.Clone())
	t.mux.Unlock()
}

// Aggregated records the aggregation outcome.
func (t *Tracker) Aggregated(ctx context.Context, details map[string]interface{}) {
	t.mux.Lock()
	t.audit.Info(ctx, audit.AggregationCompleted, "", details)
	t.mux.Unlock()
}

// Complete marks the execution completed.
func (t *Tracker) Complete(ctx context.Context, details map[string]interface{}) {
	t.mux.Lock()
	t.execution.Complete()
	t.audit.Info(ctx, audit.ExecutionCompleted, "", details)
	t.emit(ctx, t.execution.Clone())
	t.mux.Unlock()
}

// Fail marks the execution failed.
func (t *Tracker) Fail(ctx context.Context, err error, details map[string]interface{}) {
	t.mux.Lock()
	t.execution.Fail(err)
	if details == nil {
		details = map[string]interface{}{}
	}
	if err != nil {
		details["error"] = err.Error()
	}
	t.audit.Error(ctx, audit.ExecutionFailed, "", details)
	t.emit(ctx, t.execution.Clone())
	t.mux.Unlock()
}

func (t *Tracker) emit(ctx context.Context, snapshot *Execution) {
	if t.publish != nil {
		t.publish(ctx, snapshot)
	}
}
