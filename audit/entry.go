package audit

import "time"

// Level classifies an entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Action names what happened.
type Action string

const (
	ExecutionStarted     Action = "EXECUTION_STARTED"
	ComponentStarted     Action = "COMPONENT_STARTED"
	ComponentCacheHit    Action = "COMPONENT_CACHE_HIT"
	ComponentRetry       Action = "COMPONENT_RETRY"
	ComponentCompleted   Action = "COMPONENT_COMPLETED"
	ComponentError       Action = "COMPONENT_ERROR"
	ComponentSkipped     Action = "COMPONENT_SKIPPED"
	AggregationCompleted Action = "AGGREGATION_COMPLETED"
	ExecutionCompleted   Action = "EXECUTION_COMPLETED"
	ExecutionFailed      Action = "EXECUTION_FAILED"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp   time.Time              `json:"timestamp" yaml:"timestamp"`
	Action      Action                 `json:"action" yaml:"action"`
	ComponentID string                 `json:"componentId,omitempty" yaml:"componentId,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	Level       Level                  `json:"level" yaml:"level"`
}

// Clone returns a copy with its own details map.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	ret := *e
	if e.Details != nil {
		ret.Details = make(map[string]interface{}, len(e.Details))
		for k, v := range e.Details {
			ret.Details[k] = v
		}
	}
	return &ret
}
