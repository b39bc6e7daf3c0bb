package composer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/composer/model"
	"github.com/viant/composer/model/builtin"
	"github.com/viant/composer/policy"
	"github.com/viant/composer/runtime/execution"
)

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		description string
		mutate      func(c *Config)
		expectErr   bool
	}{
		{description: "default", mutate: func(c *Config) {}},
		{description: "zero parallelism", mutate: func(c *Config) { c.Orchestrator.MaxParallelism = 0 }, expectErr: true},
		{description: "bad backoff", mutate: func(c *Config) { c.Orchestrator.RetryPolicy.BackoffStrategy = "RANDOM" }, expectErr: true},
		{description: "redis without addr", mutate: func(c *Config) { c.Cache.Backend = CacheRedis }, expectErr: true},
		{description: "unknown cache", mutate: func(c *Config) { c.Cache.Backend = "memcached" }, expectErr: true},
		{description: "fs without url", mutate: func(c *Config) { c.Store.Kind = StoreFS }, expectErr: true},
		{description: "negative rate", mutate: func(c *Config) { c.RateLimit.RequestsPerSecond = -1 }, expectErr: true},
		{description: "lowercase backoff", mutate: func(c *Config) { c.Orchestrator.RetryPolicy.BackoffStrategy = "linear" }},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			err := config.Validate()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

const configYAML = `orchestrator:
  maxParallelism: 5
  enableCaching: false
  retryPolicy:
    maxRetries: 3
    backoffStrategy: EXPONENTIAL
    backoffDelay: 250ms
cache:
  ttl: 1h
store:
  kind: fs
  url: %s
audit:
  sqlitePath: %s
templates:
  builtins: true
policy:
  block: ["sec-*"]
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "composer.yaml")
	content := []byte(fmt.Sprintf(configYAML, filepath.Join(dir, "executions"), filepath.Join(dir, "audit.db")))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	t.Setenv("COMPOSER_ORCHESTRATOR_MAXPARALLELISM", "7")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, config.Orchestrator.MaxParallelism)
	assert.False(t, config.Orchestrator.EnableCaching)
	assert.Equal(t, 3, config.Orchestrator.RetryPolicy.MaxRetries)
	assert.Equal(t, model.BackoffExponential, config.Orchestrator.RetryPolicy.BackoffStrategy)
	assert.Equal(t, 250*time.Millisecond, config.Orchestrator.RetryPolicy.BackoffDelay)
	assert.Equal(t, time.Hour, config.Cache.TTL)
	assert.Equal(t, DefaultMaxNestingDepth, config.Orchestrator.MaxNestingDepth)
	assert.Equal(t, StoreFS, config.Store.Kind)
	require.NotNil(t, config.Policy)
	assert.Equal(t, []string{"sec-*"}, config.Policy.BlockList)

	defaults, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 7, defaults.Orchestrator.MaxParallelism)
	assert.True(t, defaults.Orchestrator.EnableCaching)
	assert.Equal(t, CacheMemory, defaults.Cache.Backend)
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	config := DefaultConfig()
	config.Store = StoreConfig{Kind: StoreFS, URL: filepath.Join(dir, "executions")}
	config.Audit.SQLitePath = filepath.Join(dir, "audit.db")
	config.RateLimit = RateLimitConfig{RequestsPerSecond: 100, Burst: 10}

	tools := newFakeTools()
	srv, err := NewFromConfig(ctx, config, WithToolExecutor(tools))
	require.NoError(t, err)
	defer srv.Close()
	srv.Start(ctx)

	result, err := srv.Orchestrate(ctx, &Request{
		TemplateID:       builtin.DataIntegrityID,
		GlobalParameters: map[string]interface{}{"documentId": "doc-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, execution.VerdictPass, result.OverallVerdict)

	snapshot, err := srv.GetExecution(ctx, result.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusCompleted, snapshot.Status)
	_, err = os.Stat(filepath.Join(dir, "executions", result.ExecutionID+".json"))
	assert.NoError(t, err)
	_, err = os.Stat(config.Audit.SQLitePath)
	assert.NoError(t, err)
}

func TestLoadConfig_Milliseconds(t *testing.T) {
	testCases := []struct {
		description string
		yaml        string
		env         map[string]string
		expectDelay time.Duration
		expectTTL   time.Duration
		expectErr   bool
	}{
		{
			description: "integers are milliseconds",
			yaml:        "orchestrator:\n  retryPolicy:\n    backoffDelay: 250\ncache:\n  ttl: 60000\n",
			expectDelay: 250 * time.Millisecond,
			expectTTL:   time.Minute,
		},
		{
			description: "duration strings",
			yaml:        "orchestrator:\n  retryPolicy:\n    backoffDelay: 1.5s\ncache:\n  ttl: 2h\n",
			expectDelay: 1500 * time.Millisecond,
			expectTTL:   2 * time.Hour,
		},
		{
			description: "environment milliseconds",
			yaml:        "cache:\n  ttl: 1000\n",
			env:         map[string]string{"COMPOSER_ORCHESTRATOR_RETRYPOLICY_BACKOFFDELAY": "100"},
			expectDelay: 100 * time.Millisecond,
			expectTTL:   time.Second,
		},
		{
			description: "invalid delay",
			yaml:        "orchestrator:\n  retryPolicy:\n    backoffDelay: soon\n",
			expectErr:   true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "composer.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o644))
			config, err := LoadConfig(path)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectDelay, config.Orchestrator.RetryPolicy.BackoffDelay)
			assert.Equal(t, tc.expectTTL, config.Cache.TTL)
		})
	}
}

func TestNewFromConfig_KeepsCallerConfig(t *testing.T) {
	ctx := context.Background()
	config := DefaultConfig()
	config.Policy = &policy.Config{BlockList: []string{"sec-*"}}

	srv, err := NewFromConfig(ctx, config, WithBuiltinTemplates(false), WithToolExecutor(newFakeTools()))
	require.NoError(t, err)
	defer srv.Close()

	assert.True(t, config.Templates.Builtins)
	assert.False(t, srv.Config().Templates.Builtins)

	srv.Config().Policy.BlockList[0] = "changed"
	assert.Equal(t, "sec-*", config.Policy.BlockList[0])

	other, err := New(WithConfig(config), WithBuiltinTemplates(false), WithToolExecutor(newFakeTools()))
	require.NoError(t, err)
	defer other.Close()
	assert.True(t, config.Templates.Builtins)
	assert.False(t, other.Config().Templates.Builtins)
}

func TestConfig_Clone(t *testing.T) {
	config := DefaultConfig()
	config.Templates.URLs = []string{"file:///templates"}
	config.Policy = &policy.Config{Mode: policy.ModeAuto, AllowList: []string{"gleif-*"}}

	clone := config.Clone()
	assert.Equal(t, config, clone)
	clone.Templates.URLs[0] = "changed"
	clone.Policy.AllowList[0] = "changed"
	clone.Orchestrator.RetryPolicy.BackoffStrategy = model.BackoffLinear
	assert.Equal(t, "file:///templates", config.Templates.URLs[0])
	assert.Equal(t, "gleif-*", config.Policy.AllowList[0])
	assert.Equal(t, model.BackoffFixed, config.Orchestrator.RetryPolicy.BackoffStrategy)
	assert.Nil(t, (*Config)(nil).Clone())
}
