package composer

import (
	"context"
	"fmt"

	"github.com/viant/composer/model"
	"github.com/viant/composer/runtime/execution"
	"github.com/viant/composer/service/executor"
)

type nestingKey struct{}

// nesting describes the execution a component runs in.
type nesting struct {
	depth       int
	executionID string
	options     *ExecutionOptions
}

// nestedExecutor runs template:<id> tools as nested orchestrations and
// passes every other tool to next.
type nestedExecutor struct {
	service *Service
	next    executor.ToolExecutor
}

func (n *nestedExecutor) Execute(ctx context.Context, toolName string, params map[string]interface{}) (*executor.ToolResult, error) {
	component := &model.ProofComponent{ToolName: toolName}
	templateID, ok := component.NestedTemplateID()
	if !ok {
		return n.next.Execute(ctx, toolName, params)
	}
	depth := 0
	var options *ExecutionOptions
	if caller, ok := ctx.Value(nestingKey{}).(*nesting); ok {
		depth = caller.depth + 1
		options = caller.options
	}
	if limit := n.service.config.Orchestrator.MaxNestingDepth; depth > limit {
		return nil, fmt.Errorf("template %s: nesting depth %d exceeds limit %d", templateID, depth, limit)
	}
	result, err := n.service.Orchestrate(ctx, &Request{
		TemplateID:       templateID,
		GlobalParameters: params,
		ExecutionOptions: options,
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("template %s: %w", templateID, ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", templateID, err)
	}
	if result.OverallVerdict == execution.VerdictError {
		return nil, fmt.Errorf("template %s (execution %s): %s", templateID, result.ExecutionID, result.Error)
	}
	return &executor.ToolResult{
		Success:          result.OverallVerdict == execution.VerdictPass,
		ZKProofGenerated: proofsGenerated(result.ComponentResults),
		Output: map[string]interface{}{
			"executionId":      result.ExecutionID,
			"verdict":          string(result.OverallVerdict),
			"aggregationScore": result.AggregatedResult.AggregationScore,
			"passed":           result.AggregatedResult.PassedComponents,
			"total":            result.AggregatedResult.TotalComponents,
		},
	}, nil
}

func proofsGenerated(results []*execution.ComponentResult) bool {
	generated := false
	for _, result := range results {
		if result.Status != execution.ComponentPass {
			continue
		}
		if !result.ZKProofGenerated {
			return false
		}
		generated = true
	}
	return generated
}
