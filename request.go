package composer

import (
	"fmt"
	"time"

	"github.com/viant/composer/audit"
	"github.com/viant/composer/model"
	"github.com/viant/composer/runtime/execution"
)

// Request asks for one composed proof. Exactly one of TemplateID and
// CustomComposition must be set.
type Request struct {
	TemplateID        string                 `json:"templateId,omitempty" yaml:"templateId,omitempty"`
	CustomComposition *model.Composition     `json:"customComposition,omitempty" yaml:"customComposition,omitempty"`
	GlobalParameters  map[string]interface{} `json:"globalParameters,omitempty" yaml:"globalParameters,omitempty"`
	ExecutionOptions  *ExecutionOptions      `json:"executionOptions,omitempty" yaml:"executionOptions,omitempty"`
	RequestID         string                 `json:"requestId,omitempty" yaml:"requestId,omitempty"`
}

// ExecutionOptions override the configured run defaults.
type ExecutionOptions struct {
	MaxParallelism int                `json:"maxParallelism,omitempty" yaml:"maxParallelism,omitempty"`
	EnableCaching  *bool              `json:"enableCaching,omitempty" yaml:"enableCaching,omitempty"`
	RetryPolicy    *model.RetryPolicy `json:"retryPolicy,omitempty" yaml:"retryPolicy,omitempty"`
}

// Validate checks the request shape.
func (r *Request) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request is nil", model.ErrInvalidRequest)
	}
	hasTemplate := r.TemplateID != ""
	hasComposition := r.CustomComposition != nil
	if hasTemplate == hasComposition {
		return fmt.Errorf("%w: exactly one of templateId and customComposition is required", model.ErrInvalidRequest)
	}
	if options := r.ExecutionOptions; options != nil {
		if options.MaxParallelism < 0 {
			return fmt.Errorf("%w: maxParallelism must be >= 0", model.ErrInvalidRequest)
		}
		if options.RetryPolicy != nil {
			if err := options.RetryPolicy.Validate(); err != nil {
				return fmt.Errorf("%w: %v", model.ErrInvalidRequest, err)
			}
		}
	}
	return nil
}

// Result is the outcome of a composed proof.
type Result struct {
	// Success is false only for an ERROR verdict.
	Success          bool                         `json:"success" yaml:"success"`
	RequestID        string                       `json:"requestId" yaml:"requestId"`
	TemplateID       string                       `json:"templateId" yaml:"templateId"`
	ExecutionID      string                       `json:"executionId" yaml:"executionId"`
	OverallVerdict   execution.Verdict            `json:"overallVerdict" yaml:"overallVerdict"`
	ComponentResults []*execution.ComponentResult `json:"componentResults" yaml:"componentResults"`
	AggregatedResult AggregatedResult             `json:"aggregatedResult" yaml:"aggregatedResult"`
	ExecutionMetrics ExecutionMetrics             `json:"executionMetrics" yaml:"executionMetrics"`
	AuditTrail       []*audit.Entry               `json:"auditTrail" yaml:"auditTrail"`
	Error            string                       `json:"error,omitempty" yaml:"error,omitempty"`
}

// AggregatedResult summarises component outcomes. AggregationScore is nil
// when aggregation did not run.
type AggregatedResult struct {
	TotalComponents   int      `json:"totalComponents" yaml:"totalComponents"`
	PassedComponents  int      `json:"passedComponents" yaml:"passedComponents"`
	FailedComponents  int      `json:"failedComponents" yaml:"failedComponents"`
	SkippedComponents int      `json:"skippedComponents" yaml:"skippedComponents"`
	AggregationScore  *float64 `json:"aggregationScore,omitempty" yaml:"aggregationScore,omitempty"`
}

// ExecutionMetrics reports timing and effort.
type ExecutionMetrics struct {
	StartTime          time.Time     `json:"startTime" yaml:"startTime"`
	EndTime            time.Time     `json:"endTime" yaml:"endTime"`
	TotalExecutionTime time.Duration `json:"totalExecutionTime" yaml:"totalExecutionTime"`
	// ParallelExecutions is the peak number of components in flight.
	ParallelExecutions int `json:"parallelExecutions" yaml:"parallelExecutions"`
	CacheHits          int `json:"cacheHits" yaml:"cacheHits"`
	Retries            int `json:"retries" yaml:"retries"`
}
