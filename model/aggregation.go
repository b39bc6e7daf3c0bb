package model

import (
	"fmt"
	"math"
	"strings"
)

// AggregationType names an aggregation strategy.
type AggregationType string

const (
	AggregationAllRequired AggregationType = "ALL_REQUIRED"
	AggregationMajority    AggregationType = "MAJORITY"
	AggregationWeighted    AggregationType = "WEIGHTED"
	AggregationCustom      AggregationType = "CUSTOM"
)

// DefaultWeightedThreshold is used when a Weighted aggregation has no threshold.
const DefaultWeightedThreshold = 0.5

// AggregationLogic is a closed set of strategies combining component results
// into one verdict. Only types declared in this package implement it.
type AggregationLogic interface {
	Type() AggregationType
	aggregation()
}

// AllRequired passes only when every component passes.
type AllRequired struct{}

// Majority passes when at least Threshold components pass; nil means ceil(n/2).
type Majority struct {
	Threshold *int
}

// Weighted passes when the pass-weighted score reaches Threshold; nil means 0.5.
// Components without a weight contribute zero.
type Weighted struct {
	Weights   map[string]float64
	Threshold *float64
}

// Custom names a user-defined strategy; no evaluator exists for it.
type Custom struct {
	Name string
}

func (AllRequired) Type() AggregationType { return AggregationAllRequired }
func (Majority) Type() AggregationType    { return AggregationMajority }
func (Weighted) Type() AggregationType    { return AggregationWeighted }
func (Custom) Type() AggregationType      { return AggregationCustom }

func (AllRequired) aggregation() {}
func (Majority) aggregation()    {}
func (Weighted) aggregation()    {}
func (Custom) aggregation()      {}

// ThresholdFor returns the effective pass threshold for n components.
func (m Majority) ThresholdFor(n int) int {
	if m.Threshold != nil {
		return *m.Threshold
	}
	return int(math.Ceil(float64(n) / 2))
}

// EffectiveThreshold returns the configured threshold or the default.
func (w Weighted) EffectiveThreshold() float64 {
	if w.Threshold != nil {
		return *w.Threshold
	}
	return DefaultWeightedThreshold
}

// AggregationDoc is the serialisable form of AggregationLogic.
type AggregationDoc struct {
	Type      AggregationType    `json:"type" yaml:"type"`
	Threshold *float64           `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Weights   map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
	Name      string             `json:"name,omitempty" yaml:"name,omitempty"`
}

// Decode converts the document into its AggregationLogic variant.
func (d *AggregationDoc) Decode() (AggregationLogic, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: aggregation is missing", ErrInvalidTemplate)
	}
	switch AggregationType(strings.ToUpper(string(d.Type))) {
	case AggregationAllRequired:
		return AllRequired{}, nil
	case AggregationMajority:
		ret := Majority{}
		if d.Threshold != nil {
			v := *d.Threshold
			if v < 0 || v != math.Trunc(v) {
				return nil, fmt.Errorf("%w: majority threshold must be a non-negative integer, got %v", ErrInvalidTemplate, v)
			}
			threshold := int(v)
			ret.Threshold = &threshold
		}
		return ret, nil
	case AggregationWeighted:
		ret := Weighted{Weights: copyWeights(d.Weights)}
		if d.Threshold != nil {
			threshold := *d.Threshold
			ret.Threshold = &threshold
		}
		return ret, nil
	case AggregationCustom:
		return Custom{Name: d.Name}, nil
	}
	return nil, fmt.Errorf("%w: unsupported aggregation type %q", ErrInvalidTemplate, d.Type)
}

// EncodeAggregation converts a variant into its document form.
func EncodeAggregation(logic AggregationLogic) *AggregationDoc {
	switch v := logic.(type) {
	case AllRequired:
		return &AggregationDoc{Type: AggregationAllRequired}
	case Majority:
		ret := &AggregationDoc{Type: AggregationMajority}
		if v.Threshold != nil {
			threshold := float64(*v.Threshold)
			ret.Threshold = &threshold
		}
		return ret
	case Weighted:
		ret := &AggregationDoc{Type: AggregationWeighted, Weights: copyWeights(v.Weights)}
		if v.Threshold != nil {
			threshold := *v.Threshold
			ret.Threshold = &threshold
		}
		return ret
	case Custom:
		return &AggregationDoc{Type: AggregationCustom, Name: v.Name}
	}
	return nil
}

func copyWeights(weights map[string]float64) map[string]float64 {
	if weights == nil {
		return nil
	}
	ret := make(map[string]float64, len(weights))
	for k, v := range weights {
		ret[k] = v
	}
	return ret
}

func cloneAggregation(logic AggregationLogic) AggregationLogic {
	switch v := logic.(type) {
	case Majority:
		if v.Threshold != nil {
			threshold := *v.Threshold
			v.Threshold = &threshold
		}
		return v
	case Weighted:
		ret := Weighted{Weights: copyWeights(v.Weights)}
		if v.Threshold != nil {
			threshold := *v.Threshold
			ret.Threshold = &threshold
		}
		return ret
	}
	return logic
}
