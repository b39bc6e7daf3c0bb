package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTemplateNotFound is returned when a template id is not registered.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidRequest is returned when a request names neither or both of a
	// template id and a custom composition.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidTemplate is returned when a template is structurally incomplete.
	ErrInvalidTemplate = errors.New("invalid template")
	// ErrDependency matches every *DependencyError.
	ErrDependency = errors.New("dependency error")
	// ErrComponentExecution matches every *ComponentExecutionError.
	ErrComponentExecution = errors.New("component execution failed")
	// ErrAggregation matches every *AggregationError.
	ErrAggregation = errors.New("aggregation error")
	// ErrDeadlock is returned when no component can be scheduled but some remain.
	ErrDeadlock = errors.New("DEADLOCK_DETECTED: no ready components while some remain unexecuted")
)

// DependencyError reports a dependency graph problem.
type DependencyError struct {
	ComponentID string
	MissingID   string
	Cycle       bool
	Duplicate   bool
}

func (e *DependencyError) Error() string {
	switch {
	case e.Cycle:
		return fmt.Sprintf("circular dependency detected involving component %s", e.ComponentID)
	case e.Duplicate:
		return fmt.Sprintf("duplicate component id %s", e.ComponentID)
	default:
		return fmt.Sprintf("component %s depends on unknown component %s", e.ComponentID, e.MissingID)
	}
}

// Is reports whether target is ErrDependency.
func (e *DependencyError) Is(target error) bool { return target == ErrDependency }

// ComponentExecutionError reports a required component whose execution
// raised an exception after all retries.
type ComponentExecutionError struct {
	ComponentID string
	Attempts    int
	Err         error
}

func (e *ComponentExecutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("component %s failed", e.ComponentID)
	}
	return fmt.Sprintf("component %s failed after %d attempt(s): %v", e.ComponentID, e.Attempts, e.Err)
}

func (e *ComponentExecutionError) Is(target error) bool { return target == ErrComponentExecution }

func (e *ComponentExecutionError) Unwrap() error { return e.Err }

// AggregationError reports an aggregation that could not be computed.
type AggregationError struct {
	Type   AggregationType
	Reason string
}

func (e *AggregationError) Error() string {
	var sb strings.Builder
	sb.WriteString("aggregation")
	if e.Type != "" {
		sb.WriteString(" ")
		sb.WriteString(string(e.Type))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	return sb.String()
}

func (e *AggregationError) Is(target error) bool { return target == ErrAggregation }
