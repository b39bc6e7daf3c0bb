package execution

// ComponentStatus is the outcome of a single component.
type ComponentStatus string

const (
	ComponentPass    ComponentStatus = "PASS"
	ComponentFail    ComponentStatus = "FAIL"
	ComponentError   ComponentStatus = "ERROR"
	ComponentSkipped ComponentStatus = "SKIPPED"
)

// IsFailure reports FAIL or ERROR.
func (s ComponentStatus) IsFailure() bool {
	return s == ComponentFail || s == ComponentError
}

// Status is the lifecycle state of an execution.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Verdict is the overall outcome of a composed proof.
type Verdict string

const (
	VerdictPass    Verdict = "PASS"
	VerdictFail    Verdict = "FAIL"
	VerdictPartial Verdict = "PARTIAL"
	VerdictError   Verdict = "ERROR"
)

// Execution phases reported in CurrentPhase.
const (
	PhaseInitializing = "initializing"
	PhaseExecuting    = "executing"
	PhaseAggregating  = "aggregating"
	PhaseCompleted    = "completed"
	PhaseFailed       = "failed"
)
