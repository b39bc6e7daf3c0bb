package progress

import (
	"sync"
	"time"
)

// Delta represents an incremental counter change. Fields are signed and can
// be either positive (increment) or negative (decrement).
type Delta struct {
	Total     int
	Completed int
	Skipped   int
	Failed    int
	Running   int
	Pending   int
}

// Counts is a point-in-time copy of the counters.
type Counts struct {
	Total     int `json:"total" yaml:"total"`
	Completed int `json:"completed" yaml:"completed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`
	Running   int `json:"running" yaml:"running"`
	Pending   int `json:"pending" yaml:"pending"`
}

// Percent returns completed components as a percentage of the total.
func (c Counts) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Completed) * 100 / float64(c.Total)
}

// Progress tracks counters of one execution. It is safe for concurrent use.
type Progress struct {
	ExecutionID string
	StartedAt   time.Time

	mux      sync.Mutex
	counts   Counts
	onChange func(Counts)
}

// New creates a tracker with total pending components.
func New(executionID string, total int, onChange func(Counts)) *Progress {
	return &Progress{
		ExecutionID: executionID,
		StartedAt:   time.Now(),
		counts:      Counts{Total: total, Pending: total},
		onChange:    onChange,
	}
}

// Update applies the supplied delta. The onChange callback, if any, is
// invoked with the updated counters outside the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mux.Lock()
	p.counts.Total += d.Total
	p.counts.Completed += d.Completed
	p.counts.Skipped += d.Skipped
	p.counts.Failed += d.Failed
	p.counts.Running += d.Running
	p.counts.Pending += d.Pending
	snapshot := p.counts
	cb := p.onChange
	p.mux.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Counts {
	if p == nil {
		return Counts{}
	}
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.counts
}

// OnChange registers a callback invoked after every Update. Passing nil
// disables it.
func (p *Progress) OnChange(cb func(Counts)) {
	if p == nil {
		return
	}
	p.mux.Lock()
	p.onChange = cb
	p.mux.Unlock()
}
