// Package aggregator folds component results into an overall verdict.
package aggregator

import (
	"fmt"

	"github.com/viant/composer/model"
	"github.com/viant/composer/runtime/execution"
)

// Aggregation is the outcome of folding a result list.
type Aggregation struct {
	Verdict execution.Verdict `json:"verdict" yaml:"verdict"`
	Score   float64           `json:"score" yaml:"score"`
	Total   int               `json:"total" yaml:"total"`
	Passed  int               `json:"passed" yaml:"passed"`
	Failed  int               `json:"failed" yaml:"failed"`
	Skipped int               `json:"skipped" yaml:"skipped"`
}

// Aggregate computes the verdict of results under logic. It never yields
// VerdictError; an unsupported strategy or an empty result list is reported
// as *model.AggregationError.
func Aggregate(results []*execution.ComponentResult, logic model.AggregationLogic) (*Aggregation, error) {
	if logic == nil {
		return nil, &model.AggregationError{Reason: "aggregation logic is missing"}
	}
	if len(results) == 0 {
		return nil, &model.AggregationError{Type: logic.Type(), Reason: "no component results"}
	}
	ret := count(results)
	n := float64(ret.Total)
	switch v := logic.(type) {
	case model.AllRequired:
		switch {
		case ret.Passed == ret.Total:
			ret.Verdict, ret.Score = execution.VerdictPass, 1
		case ret.Failed == ret.Total:
			ret.Verdict, ret.Score = execution.VerdictFail, 0
		default:
			ret.Verdict, ret.Score = execution.VerdictPartial, float64(ret.Passed)/n
		}
	case model.Majority:
		ret.Score = float64(ret.Passed) / n
		ret.Verdict = verdict(ret.Passed >= v.ThresholdFor(ret.Total))
	case model.Weighted:
		ret.Score = weightedScore(results, v.Weights)
		ret.Verdict = verdict(ret.Score >= v.EffectiveThreshold())
	case model.Custom:
		return nil, &model.AggregationError{Type: model.AggregationCustom, Reason: fmt.Sprintf("custom aggregation %q is not supported", v.Name)}
	default:
		return nil, &model.AggregationError{Type: logic.Type(), Reason: "unsupported aggregation type"}
	}
	return ret, nil
}

func count(results []*execution.ComponentResult) *Aggregation {
	ret := &Aggregation{Total: len(results)}
	for _, result := range results {
		switch {
		case result.Status == execution.ComponentPass:
			ret.Passed++
		case result.Status.IsFailure():
			ret.Failed++
		case result.Status == execution.ComponentSkipped:
			ret.Skipped++
		}
	}
	return ret
}

func weightedScore(results []*execution.ComponentResult, weights map[string]float64) float64 {
	var total, passed float64
	for _, result := range results {
		weight := weights[result.ComponentID]
		total += weight
		if result.Status == execution.ComponentPass {
			passed += weight
		}
	}
	if total == 0 {
		return 0
	}
	return passed / total
}

func verdict(pass bool) execution.Verdict {
	if pass {
		return execution.VerdictPass
	}
	return execution.VerdictFail
}
