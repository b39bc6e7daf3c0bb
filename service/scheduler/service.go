// Package scheduler executes a validated component graph in waves: every
// component whose dependencies have results is dispatched, up to the
// parallelism bound, and the next wave starts once the whole wave settled.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/composer/internal/clock"
	"github.com/viant/composer/model"
	"github.com/viant/composer/runtime/execution"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxParallelism bounds concurrent components of one run.
const DefaultMaxParallelism = 3

// Runner executes a single component. It returns a result in every case;
// a non-nil error marks an execution-level failure (status ERROR).
type Runner interface {
	Run(ctx context.Context, component *model.ProofComponent) (*execution.ComponentResult, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, component *model.ProofComponent) (*execution.ComponentResult, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, component *model.ProofComponent) (*execution.ComponentResult, error) {
	return f(ctx, component)
}

// Listener observes component dispatch and settlement.
type Listener interface {
	Started(ctx context.Context, component *model.ProofComponent)
	Settled(ctx context.Context, component *model.ProofComponent, result *execution.ComponentResult)
}

// Outcome summarises a run.
type Outcome struct {
	// Results in settlement order.
	Results []*execution.ComponentResult
	// PeakParallelism is the highest number of components in flight at once.
	PeakParallelism int
	// Waves is the number of dispatched waves.
	Waves int
}

// Service schedules component graphs.
type Service struct {
	maxParallelism int
	logger         *slog.Logger
}

// Option customises the scheduler.
type Option func(s *Service)

// WithMaxParallelism overrides DefaultMaxParallelism.
func WithMaxParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxParallelism = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a scheduler.
func New(opts ...Option) *Service {
	ret := &Service{maxParallelism: DefaultMaxParallelism, logger: slog.Default()}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// run holds the state of one Execute call.
type run struct {
	mux       sync.Mutex
	completed map[string]bool
	executing map[string]bool
	results   []*execution.ComponentResult
	inFlight  int
	peak      int
	abort     error
}

// Execute runs components in dependency order. It stops dispatching after a
// required component fails with an execution error and returns that
// *model.ComponentExecutionError; in-flight siblings are cancelled and
// recorded as SKIPPED. model.ErrDeadlock is returned when components remain
// but none can be scheduled. The outcome holds the results gathered so far
// in every case.
func (s *Service) Execute(ctx context.Context, components []*model.ProofComponent, runner Runner, listener Listener) (*Outcome, error) {
	state := &run{completed: map[string]bool{}, executing: map[string]bool{}}
	outcome := &Outcome{}
	total := len(components)
	for {
		if err := ctx.Err(); err != nil {
			return s.outcome(state, outcome), err
		}
		state.mux.Lock()
		done := len(state.completed)
		ready := s.ready(components, state)
		executing := len(state.executing)
		state.mux.Unlock()
		if done == total {
			return s.outcome(state, outcome), nil
		}
		if len(ready) == 0 {
			return s.outcome(state, outcome), model.ErrDeadlock
		}
		batch := s.maxParallelism - executing
		if batch > len(ready) {
			batch = len(ready)
		}
		outcome.Waves++
		if err := s.wave(ctx, ready[:batch], runner, listener, state); err != nil {
			return s.outcome(state, outcome), err
		}
	}
}

// ready returns pending components with all dependencies completed, in
// declaration order.
func (s *Service) ready(components []*model.ProofComponent, state *run) []*model.ProofComponent {
	var ret []*model.ProofComponent
	for _, component := range components {
		if state.completed[component.ID] || state.executing[component.ID] {
			continue
		}
		satisfied := true
		for _, dep := range component.Dependencies {
			if !state.completed[dep] {
				satisfied = false
				break
			}
		}
		if satisfied {
			ret = append(ret, component)
		}
	}
	return ret
}

func (s *Service) wave(ctx context.Context, batch []*model.ProofComponent, runner Runner, listener Listener, state *run) error {
	waveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group := new(errgroup.Group)
	group.SetLimit(s.maxParallelism)
	for _, component := range batch {
		state.mux.Lock()
		state.executing[component.ID] = true
		state.mux.Unlock()
		group.Go(func() error {
			s.execute(ctx, waveCtx, cancel, component, runner, listener, state)
			return nil
		})
	}
	_ = group.Wait()
	state.mux.Lock()
	defer state.mux.Unlock()
	return state.abort
}

func (s *Service) execute(ctx, waveCtx context.Context, cancel context.CancelFunc, component *model.ProofComponent, runner Runner, listener Listener, state *run) {
	state.mux.Lock()
	state.inFlight++
	if state.inFlight > state.peak {
		state.peak = state.inFlight
	}
	state.mux.Unlock()
	if listener != nil {
		listener.Started(waveCtx, component)
	}

	result, err := runner.Run(waveCtx, component)
	if result == nil {
		result = &execution.ComponentResult{
			ComponentID: component.ID,
			ToolName:    component.ToolName,
			Status:      execution.ComponentError,
			Timestamp:   clock.Now(),
		}
		if err == nil {
			err = fmt.Errorf("component %s produced no result", component.ID)
		}
	}

	state.mux.Lock()
	if err != nil {
		if result.Error == "" {
			result.Error = err.Error()
		}
		result.Status = execution.ComponentError
		switch {
		case ctx.Err() != nil:
			if state.abort == nil {
				state.abort = ctx.Err()
			}
		case state.abort != nil && errors.Is(err, context.Canceled):
			result.Status = execution.ComponentSkipped
			result.Error = "cancelled: " + state.abort.Error()
		case component.Optional:
			s.logger.Warn("optional component failed", "component_id", component.ID, "tool", component.ToolName, "error", err)
		default:
			var execErr *model.ComponentExecutionError
			if !errors.As(err, &execErr) {
				err = &model.ComponentExecutionError{ComponentID: component.ID, Attempts: result.RetryCount + 1, Err: err}
			}
			if state.abort == nil {
				state.abort = err
			}
			cancel()
		}
	}
	state.inFlight--
	delete(state.executing, component.ID)
	state.completed[component.ID] = true
	state.results = append(state.results, result)
	state.mux.Unlock()

	if listener != nil {
		listener.Settled(ctx, component, result)
	}
}

func (s *Service) outcome(state *run, outcome *Outcome) *Outcome {
	state.mux.Lock()
	defer state.mux.Unlock()
	outcome.Results = execution.CloneResults(state.results)
	outcome.PeakParallelism = state.peak
	return outcome
}
