package composer

import (
	"context"
	"fmt"

	"github.com/viant/composer/audit"
	"github.com/viant/composer/internal/clock"
	"github.com/viant/composer/internal/idgen"
	"github.com/viant/composer/model"
	"github.com/viant/composer/policy"
	"github.com/viant/composer/runtime/execution"
	"github.com/viant/composer/service/aggregator"
	"github.com/viant/composer/service/retry"
	"github.com/viant/composer/service/scheduler"
	"github.com/viant/composer/tracing"
)

// Orchestrate runs a composed proof to completion.
//
// Request and template problems are returned as errors before anything runs
// (model.ErrInvalidRequest, model.ErrTemplateNotFound, model.ErrInvalidTemplate,
// *model.DependencyError). Once the execution started, failures are reported
// through an ERROR verdict with the partial results and the audit trail, and
// the returned error is nil.
func (s *Service) Orchestrate(ctx context.Context, request *Request) (*Result, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	template, err := s.resolveTemplate(ctx, request)
	if err != nil {
		return nil, err
	}
	if s.policy != nil && policy.FromContext(ctx) == nil {
		ctx = policy.WithPolicy(ctx, s.policy)
	}
	return s.newRun(ctx, request, template).execute(ctx), nil
}

func (s *Service) resolveTemplate(ctx context.Context, request *Request) (*model.CompositionTemplate, error) {
	if request.TemplateID != "" {
		return s.templates.Get(ctx, request.TemplateID)
	}
	template := request.CustomComposition.Template()
	if err := template.Validate(); err != nil {
		return nil, err
	}
	return template, nil
}

// run is the state of one Orchestrate call.
type run struct {
	service        *Service
	request        *Request
	template       *model.CompositionTemplate
	executionID    string
	requestID      string
	parentID       string
	depth          int
	maxParallelism int
	useCache       bool
	retryPolicy    *model.RetryPolicy
	tracker        *execution.Tracker
}

func (s *Service) newRun(ctx context.Context, request *Request, template *model.CompositionTemplate) *run {
	ret := &run{
		service:        s,
		request:        request,
		template:       template,
		executionID:    idgen.WithPrefix("exec"),
		requestID:      request.RequestID,
		maxParallelism: s.config.Orchestrator.MaxParallelism,
		useCache:       s.config.Orchestrator.EnableCaching,
	}
	ret.retryPolicy = normalizedPolicy(&s.config.Orchestrator.RetryPolicy)
	if ret.requestID == "" {
		ret.requestID = idgen.WithPrefix("req")
	}
	if caller, ok := ctx.Value(nestingKey{}).(*nesting); ok {
		ret.depth = caller.depth + 1
		ret.parentID = caller.executionID
	}
	if options := request.ExecutionOptions; options != nil {
		if options.MaxParallelism > 0 {
			ret.maxParallelism = options.MaxParallelism
		}
		if options.EnableCaching != nil {
			ret.useCache = *options.EnableCaching
		}
		if options.RetryPolicy != nil {
			ret.retryPolicy = normalizedPolicy(options.RetryPolicy)
		}
	}

	logger := s.logger.With("execution_id", ret.executionID, "template_id", template.ID)
	auditOptions := []audit.Option{audit.WithLogger(logger)}
	if s.auditSink != nil {
		auditOptions = append(auditOptions, audit.WithSink(s.auditSink))
	}
	state := execution.New(ret.executionID, template.ID, ret.requestID, len(template.Components))
	state.ParentID = ret.parentID
	ret.tracker = execution.NewTracker(state, audit.New(ret.executionID, auditOptions...), s.publish)
	return ret
}

// normalizedPolicy copies an already validated policy; an invalid one falls
// back to the default.
func normalizedPolicy(policy *model.RetryPolicy) *model.RetryPolicy {
	ret, err := policy.Normalize()
	if err != nil {
		return model.DefaultRetryPolicy()
	}
	return ret
}

func (s *Service) publish(ctx context.Context, snapshot *execution.Execution) {
	if err := s.executions.Save(context.WithoutCancel(ctx), snapshot); err != nil {
		s.logger.Warn("failed to publish execution", "execution_id", snapshot.ID, "error", err)
	}
}

func (r *run) execute(ctx context.Context) *Result {
	s := r.service
	ctx, span := tracing.StartOrchestration(ctx, r.template.ID, r.executionID, r.requestID, len(r.template.Components), r.depth)

	s.metrics.ExecutionStarted()
	details := map[string]interface{}{
		"templateId":     r.template.ID,
		"requestId":      r.requestID,
		"components":     len(r.template.Components),
		"maxParallelism": r.maxParallelism,
		"enableCaching":  r.useCache,
	}
	if r.parentID != "" {
		details["parentId"] = r.parentID
	}
	r.tracker.Start(ctx, details)

	runCtx := context.WithValue(ctx, nestingKey{}, &nesting{depth: r.depth, executionID: r.executionID, options: r.request.ExecutionOptions})
	sched := scheduler.New(scheduler.WithMaxParallelism(r.maxParallelism), scheduler.WithLogger(s.logger))
	outcome, err := sched.Execute(runCtx, r.template.Components, scheduler.RunnerFunc(r.runComponent), r.tracker)

	detached := context.WithoutCancel(ctx)
	result := &Result{
		RequestID:        r.requestID,
		TemplateID:       r.template.ID,
		ExecutionID:      r.executionID,
		ComponentResults: outcome.Results,
		OverallVerdict:   execution.VerdictError,
	}
	result.ExecutionMetrics.ParallelExecutions = outcome.PeakParallelism

	if err == nil {
		r.tracker.Phase(detached, execution.PhaseAggregating)
		var aggregation *aggregator.Aggregation
		if aggregation, err = aggregator.Aggregate(outcome.Results, r.template.Aggregation); err == nil {
			score := aggregation.Score
			result.OverallVerdict = aggregation.Verdict
			result.AggregatedResult = AggregatedResult{
				TotalComponents:   aggregation.Total,
				PassedComponents:  aggregation.Passed,
				FailedComponents:  aggregation.Failed,
				SkippedComponents: aggregation.Skipped,
				AggregationScore:  &score,
			}
			summary := map[string]interface{}{
				"verdict": string(aggregation.Verdict),
				"score":   score,
				"passed":  aggregation.Passed,
				"failed":  aggregation.Failed,
				"skipped": aggregation.Skipped,
			}
			r.tracker.Aggregated(detached, summary)
			r.tracker.Complete(detached, map[string]interface{}{"verdict": string(aggregation.Verdict)})
		}
	}
	if err != nil {
		result.Error = err.Error()
		result.AggregatedResult = count(outcome.Results)
		result.AggregatedResult.TotalComponents = len(r.template.Components)
		r.tracker.Fail(detached, err, map[string]interface{}{"completedComponents": len(outcome.Results)})
	}
	result.Success = result.OverallVerdict != execution.VerdictError

	snapshot := r.tracker.Snapshot()
	result.ExecutionMetrics.StartTime = snapshot.StartTime
	result.ExecutionMetrics.EndTime = clock.Now()
	if snapshot.EndTime != nil {
		result.ExecutionMetrics.EndTime = *snapshot.EndTime
	}
	result.ExecutionMetrics.TotalExecutionTime = result.ExecutionMetrics.EndTime.Sub(result.ExecutionMetrics.StartTime)
	result.ExecutionMetrics.CacheHits = r.tracker.CacheHits()
	result.ExecutionMetrics.Retries = r.tracker.Retries()
	result.AuditTrail = r.tracker.Audit().Entries()

	s.metrics.RecordExecution(r.template.ID, string(result.OverallVerdict), result.ExecutionMetrics.TotalExecutionTime, outcome.PeakParallelism)
	span.Set("verdict", string(result.OverallVerdict)).End(err)
	return result
}

func (r *run) runComponent(ctx context.Context, component *model.ProofComponent) (*execution.ComponentResult, error) {
	return r.service.retry.Execute(ctx, &retry.Request{
		Component: component,
		Globals:   r.request.GlobalParameters,
		Policy:    r.retryPolicy,
		UseCache:  r.useCache,
		Listener:  r.tracker,
	})
}

func count(results []*execution.ComponentResult) AggregatedResult {
	ret := AggregatedResult{}
	for _, result := range results {
		switch {
		case result.Status == execution.ComponentPass:
			ret.PassedComponents++
		case result.Status.IsFailure():
			ret.FailedComponents++
		case result.Status == execution.ComponentSkipped:
			ret.SkippedComponents++
		}
	}
	return ret
}

// String summarises the result for logs.
func (r *Result) String() string {
	return fmt.Sprintf("%s %s verdict=%s passed=%d/%d", r.TemplateID, r.ExecutionID, r.OverallVerdict, r.AggregatedResult.PassedComponents, r.AggregatedResult.TotalComponents)
}
