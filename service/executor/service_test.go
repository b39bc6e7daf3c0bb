package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/composer/policy"
)

func pass(ctx context.Context, toolName string, params map[string]interface{}) (*ToolResult, error) {
	return &ToolResult{Success: true, Output: toolName}, nil
}

func TestRouter_Execute(t *testing.T) {
	var observed []string
	router := NewRouter(WithListener(func(toolName string, params map[string]interface{}, result *ToolResult, err error) {
		observed = append(observed, toolName)
	}))
	router.Register("gleif", Func(pass))

	result, err := router.Execute(context.Background(), "gleif", nil)
	require.NoError(t, err)
	assert.Equal(t, "gleif", result.Output)

	_, err = router.Execute(context.Background(), "unknown", nil)
	assert.True(t, errors.Is(err, ErrToolNotFound))

	withFallback := NewRouter(WithFallback(Func(pass)))
	result, err = withFallback.Execute(context.Background(), "unknown", nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	assert.Equal(t, []string{"gleif"}, observed)
	assert.Equal(t, []string{"gleif"}, router.Tools())
}

func TestGuarded_Execute(t *testing.T) {
	guarded := NewGuarded(Func(pass))
	testCases := []struct {
		name    string
		policy  *policy.Policy
		tool    string
		blocked bool
	}{
		{name: "no policy", tool: "sec-edgar-filing"},
		{name: "allowed", policy: &policy.Policy{AllowList: []string{"sec-*"}}, tool: "sec-edgar-filing"},
		{name: "blocked", policy: &policy.Policy{BlockList: []string{"sec-*"}}, tool: "sec-edgar-filing", blocked: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := policy.WithPolicy(context.Background(), tc.policy)
			_, err := guarded.Execute(ctx, tc.tool, nil)
			if tc.blocked {
				assert.True(t, errors.Is(err, ErrToolBlocked))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRateLimited_Execute(t *testing.T) {
	limited := NewRateLimited(Func(pass), 20, 1)
	ctx := context.Background()
	started := time.Now()
	for i := 0; i < 3; i++ {
		_, err := limited.Execute(ctx, "tool", nil)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(started), 90*time.Millisecond)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := NewRateLimited(Func(pass), 0.001, 1).Execute(cancelled, "tool", nil)
	assert.Error(t, err)

	unlimited := NewRateLimited(Func(pass), 0, 0)
	_, err = unlimited.Execute(ctx, "tool", nil)
	assert.NoError(t, err)
}
