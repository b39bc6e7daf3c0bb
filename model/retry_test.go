package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRetryPolicy_Delay(t *testing.T) {
	testCases := []struct {
		name    string
		policy  RetryPolicy
		retries []time.Duration
	}{
		{
			name:    "fixed",
			policy:  RetryPolicy{BackoffStrategy: BackoffFixed, BackoffDelay: 100 * time.Millisecond},
			retries: []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond},
		},
		{
			name:    "linear",
			policy:  RetryPolicy{BackoffStrategy: BackoffLinear, BackoffDelay: 100 * time.Millisecond},
			retries: []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond},
		},
		{
			name:    "exponential",
			policy:  RetryPolicy{BackoffStrategy: BackoffExponential, BackoffDelay: 100 * time.Millisecond},
			retries: []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, time.Duration(0), tc.policy.Delay(0))
			for i, expect := range tc.retries {
				assert.Equal(t, expect, tc.policy.Delay(i+1), "retry %d", i+1)
			}
		})
	}
}

func TestRetryPolicy_Validate(t *testing.T) {
	policy := &RetryPolicy{MaxRetries: 2, BackoffStrategy: "exponential", BackoffDelay: time.Second}
	assert.NoError(t, policy.Validate())
	assert.Equal(t, BackoffStrategy("exponential"), policy.BackoffStrategy)
	normalized, err := policy.Normalize()
	require.NoError(t, err)
	assert.Equal(t, BackoffExponential, normalized.BackoffStrategy)
	assert.Equal(t, BackoffStrategy("exponential"), policy.BackoffStrategy)
	assert.Equal(t, 2*time.Second, policy.Delay(2))

	empty, err := (&RetryPolicy{}).Normalize()
	require.NoError(t, err)
	assert.Equal(t, BackoffFixed, empty.BackoffStrategy)

	assert.Error(t, (&RetryPolicy{MaxRetries: -1}).Validate())
	assert.Error(t, (&RetryPolicy{BackoffStrategy: "RANDOM"}).Validate())

	def := DefaultRetryPolicy()
	assert.Equal(t, 1, def.MaxRetries)
	assert.Equal(t, BackoffFixed, def.BackoffStrategy)
	assert.Equal(t, time.Second, def.BackoffDelay)
}

func TestRetryPolicy_Decode(t *testing.T) {
	testCases := []struct {
		description string
		json        string
		yaml        string
		expect      RetryPolicy
		expectErr   bool
	}{
		{
			description: "milliseconds",
			json:        `{"maxRetries":2,"backoffStrategy":"EXPONENTIAL","backoffDelay":100}`,
			yaml:        "maxRetries: 2\nbackoffStrategy: EXPONENTIAL\nbackoffDelay: 100\n",
			expect:      RetryPolicy{MaxRetries: 2, BackoffStrategy: BackoffExponential, BackoffDelay: 100 * time.Millisecond},
		},
		{
			description: "fractional milliseconds",
			json:        `{"maxRetries":1,"backoffStrategy":"LINEAR","backoffDelay":1.5}`,
			yaml:        "maxRetries: 1\nbackoffStrategy: LINEAR\nbackoffDelay: 1.5\n",
			expect:      RetryPolicy{MaxRetries: 1, BackoffStrategy: BackoffLinear, BackoffDelay: 1500 * time.Microsecond},
		},
		{
			description: "duration string",
			json:        `{"maxRetries":3,"backoffStrategy":"FIXED","backoffDelay":"2s"}`,
			yaml:        "maxRetries: 3\nbackoffStrategy: FIXED\nbackoffDelay: 2s\n",
			expect:      RetryPolicy{MaxRetries: 3, BackoffStrategy: BackoffFixed, BackoffDelay: 2 * time.Second},
		},
		{
			description: "invalid delay",
			json:        `{"backoffDelay":"soon"}`,
			yaml:        "backoffDelay: soon\n",
			expectErr:   true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			fromJSON := RetryPolicy{}
			fromYAML := RetryPolicy{}
			jsonErr := json.Unmarshal([]byte(tc.json), &fromJSON)
			yamlErr := yaml.Unmarshal([]byte(tc.yaml), &fromYAML)
			if tc.expectErr {
				assert.Error(t, jsonErr)
				assert.Error(t, yamlErr)
				return
			}
			require.NoError(t, jsonErr)
			require.NoError(t, yamlErr)
			assert.Equal(t, tc.expect, fromJSON)
			assert.Equal(t, tc.expect, fromYAML)

			encoded, err := json.Marshal(tc.expect)
			require.NoError(t, err)
			decoded := RetryPolicy{}
			require.NoError(t, json.Unmarshal(encoded, &decoded))
			assert.Equal(t, tc.expect, decoded)
		})
	}
}

func TestRetryPolicy_EncodeMilliseconds(t *testing.T) {
	encoded, err := json.Marshal(RetryPolicy{MaxRetries: 1, BackoffStrategy: BackoffFixed, BackoffDelay: time.Second})
	require.NoError(t, err)
	assert.JSONEq(t, `{"maxRetries":1,"backoffStrategy":"FIXED","backoffDelay":1000}`, string(encoded))
}
