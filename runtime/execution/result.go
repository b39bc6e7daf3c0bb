package execution

import "time"

// ComponentResult is the outcome of one component within one execution.
type ComponentResult struct {
	ComponentID      string          `json:"componentId" yaml:"componentId"`
	ToolName         string          `json:"toolName" yaml:"toolName"`
	Status           ComponentStatus `json:"status" yaml:"status"`
	ZKProofGenerated bool            `json:"zkProofGenerated" yaml:"zkProofGenerated"`
	ExecutionTime    time.Duration   `json:"executionTime" yaml:"executionTime"`
	Output           interface{}     `json:"output,omitempty" yaml:"output,omitempty"`
	Error            string          `json:"error,omitempty" yaml:"error,omitempty"`
	RetryCount       int             `json:"retryCount" yaml:"retryCount"`
	CacheHit         bool            `json:"cacheHit" yaml:"cacheHit"`
	CacheKey         string          `json:"cacheKey,omitempty" yaml:"cacheKey,omitempty"`
	Timestamp        time.Time       `json:"timestamp" yaml:"timestamp"`
}

// Clone returns a shallow copy; Output is treated as immutable and shared.
func (r *ComponentResult) Clone() *ComponentResult {
	if r == nil {
		return nil
	}
	ret := *r
	return &ret
}

// CloneResults clones every result of the slice.
func CloneResults(results []*ComponentResult) []*ComponentResult {
	if results == nil {
		return nil
	}
	ret := make([]*ComponentResult, len(results))
	for i, r := range results {
		ret[i] = r.Clone()
	}
	return ret
}
