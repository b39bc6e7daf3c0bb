package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMillis(t *testing.T) {
	testCases := []struct {
		description string
		value       interface{}
		expect      time.Duration
		expectErr   bool
	}{
		{description: "nil", value: nil},
		{description: "int", value: 100, expect: 100 * time.Millisecond},
		{description: "int64", value: int64(2500), expect: 2500 * time.Millisecond},
		{description: "float", value: 0.5, expect: 500 * time.Microsecond},
		{description: "json number", value: json.Number("30000"), expect: 30 * time.Second},
		{description: "numeric string", value: "250", expect: 250 * time.Millisecond},
		{description: "duration string", value: "1.5s", expect: 1500 * time.Millisecond},
		{description: "duration", value: 3 * time.Second, expect: 3 * time.Second},
		{description: "invalid string", value: "later", expectErr: true},
		{description: "unsupported type", value: true, expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			actual, err := ParseMillis(tc.value)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
		})
	}
}
