package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregationDoc_RoundTrip(t *testing.T) {
	majority := 2
	threshold := 0.7
	testCases := []struct {
		name  string
		logic AggregationLogic
	}{
		{name: "all required", logic: AllRequired{}},
		{name: "majority default", logic: Majority{}},
		{name: "majority threshold", logic: Majority{Threshold: &majority}},
		{name: "weighted", logic: Weighted{Weights: map[string]float64{"a": 0.4, "b": 0.6}, Threshold: &threshold}},
		{name: "custom", logic: Custom{Name: "quorum"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := EncodeAggregation(tc.logic)
			require.NotNil(t, doc)
			decoded, err := doc.Decode()
			require.NoError(t, err)
			assert.EqualValues(t, tc.logic, decoded)
			assert.Equal(t, tc.logic.Type(), decoded.Type())
		})
	}
}

func TestAggregationDoc_Decode_Invalid(t *testing.T) {
	fraction := 1.5
	testCases := []struct {
		name string
		doc  *AggregationDoc
	}{
		{name: "nil", doc: nil},
		{name: "unknown type", doc: &AggregationDoc{Type: "QUORUM"}},
		{name: "fractional majority", doc: &AggregationDoc{Type: AggregationMajority, Threshold: &fraction}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.doc.Decode()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTemplate))
		})
	}
}

func TestMajority_ThresholdFor(t *testing.T) {
	two := 2
	assert.Equal(t, 2, Majority{}.ThresholdFor(3))
	assert.Equal(t, 2, Majority{}.ThresholdFor(4))
	assert.Equal(t, 0, Majority{}.ThresholdFor(0))
	assert.Equal(t, 2, Majority{Threshold: &two}.ThresholdFor(5))
	assert.Equal(t, 0.5, Weighted{}.EffectiveThreshold())
}
