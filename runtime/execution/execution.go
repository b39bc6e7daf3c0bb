package execution

import (
	"time"

	"github.com/viant/composer/internal/clock"
	"github.com/viant/composer/progress"
)

// Execution is the observable state of one composed proof run.
type Execution struct {
	ID           string             `json:"id" yaml:"id"`
	TemplateID   string             `json:"templateId" yaml:"templateId"`
	RequestID    string             `json:"requestId,omitempty" yaml:"requestId,omitempty"`
	ParentID     string             `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Status       Status             `json:"status" yaml:"status"`
	Progress     progress.Counts    `json:"progress" yaml:"progress"`
	Results      []*ComponentResult `json:"results,omitempty" yaml:"results,omitempty"`
	CurrentPhase string             `json:"currentPhase" yaml:"currentPhase"`
	StartTime    time.Time          `json:"startTime" yaml:"startTime"`
	EndTime      *time.Time         `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	Error        string             `json:"error,omitempty" yaml:"error,omitempty"`
}

// New creates a RUNNING execution.
func New(id, templateID, requestID string, total int) *Execution {
	return &Execution{
		ID:           id,
		TemplateID:   templateID,
		RequestID:    requestID,
		Status:       StatusRunning,
		Progress:     progress.Counts{Total: total, Pending: total},
		CurrentPhase: PhaseInitializing,
		StartTime:    clock.Now(),
	}
}

// Complete marks the execution as completed.
func (e *Execution) Complete() {
	now := clock.Now()
	e.EndTime = &now
	e.Status = StatusCompleted
	e.CurrentPhase = PhaseCompleted
}

// Fail marks the execution as failed.
func (e *Execution) Fail(err error) {
	now := clock.Now()
	e.EndTime = &now
	e.Status = StatusFailed
	e.CurrentPhase = PhaseFailed
	if err != nil {
		e.Error = err.Error()
	}
}

// Done reports whether the execution reached a terminal state.
func (e *Execution) Done() bool {
	return e.Status == StatusCompleted || e.Status == StatusFailed
}

// Clone returns a deep copy suitable for read-only publication.
func (e *Execution) Clone() *Execution {
	if e == nil {
		return nil
	}
	ret := *e
	ret.Results = CloneResults(e.Results)
	if e.EndTime != nil {
		end := *e.EndTime
		ret.EndTime = &end
	}
	return &ret
}
