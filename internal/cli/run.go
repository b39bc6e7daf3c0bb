package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/composer"
	"github.com/viant/composer/model"
	"github.com/viant/composer/service/executor"
	"github.com/viant/composer/service/executor/shell"
	"gopkg.in/yaml.v3"
)

type runOptions struct {
	templateID  string
	composition string
	params      []string
	parallelism int
	noCache     bool
	maxRetries  int
	backoff     string
	requestID   string
	tools       string
	simulate    bool
	fail        []string
}

func newRunCommand(options *rootOptions) *cobra.Command {
	run := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a composed proof",
		Long: `Execute a registered template (--template) or an ad-hoc composition file
(--composition) and print the result.

Tools are resolved from --tools, a YAML list of shell commands. With
--simulate every other tool succeeds with a generated proof; --fail makes
the named tools report a failed verification instead.

The command exits non-zero when the overall verdict is ERROR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run.execute(cmd, options)
		},
	}
	cmd.Flags().StringVarP(&run.templateID, "template", "t", "", "Template id to execute")
	cmd.Flags().StringVar(&run.composition, "composition", "", "URL of a YAML or JSON composition document")
	cmd.Flags().StringArrayVarP(&run.params, "param", "p", nil, "Global parameter as name=value (repeatable)")
	cmd.Flags().IntVar(&run.parallelism, "parallelism", 0, "Maximum concurrent components (0 uses the configured value)")
	cmd.Flags().BoolVar(&run.noCache, "no-cache", false, "Bypass the result cache")
	cmd.Flags().IntVar(&run.maxRetries, "max-retries", -1, "Retries per component (-1 uses the configured policy)")
	cmd.Flags().StringVar(&run.backoff, "backoff", "", "Backoff strategy: FIXED, LINEAR or EXPONENTIAL")
	cmd.Flags().StringVar(&run.requestID, "request-id", "", "Caller supplied request id")
	cmd.Flags().StringVar(&run.tools, "tools", "", "URL of the shell tools configuration")
	cmd.Flags().BoolVar(&run.simulate, "simulate", false, "Simulate tools that are not configured")
	cmd.Flags().StringSliceVar(&run.fail, "fail", nil, "Simulated tools reporting a failed verification")
	cmd.MarkFlagsMutuallyExclusive("template", "composition")
	return cmd
}

func (r *runOptions) execute(cmd *cobra.Command, options *rootOptions) error {
	ctx := cmd.Context()
	request, err := r.request(ctx, options)
	if err != nil {
		return err
	}
	tools, closer, err := r.toolExecutor(ctx)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}
	srv, err := options.service(ctx, composer.WithToolExecutor(tools))
	if err != nil {
		return err
	}
	defer srv.Close()
	srv.Start(ctx)

	result, err := srv.Orchestrate(ctx, request)
	if err != nil {
		return err
	}
	if err := options.print(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%s: %s", result, result.Error)
	}
	return nil
}

func (r *runOptions) request(ctx context.Context, options *rootOptions) (*composer.Request, error) {
	params, err := parseParams(r.params)
	if err != nil {
		return nil, err
	}
	request := &composer.Request{
		TemplateID:       r.templateID,
		GlobalParameters: params,
		RequestID:        r.requestID,
	}
	if r.composition != "" {
		if request.CustomComposition, err = loadComposition(ctx, r.composition); err != nil {
			return nil, err
		}
	}
	executionOptions := &composer.ExecutionOptions{MaxParallelism: r.parallelism}
	if r.noCache {
		enableCaching := false
		executionOptions.EnableCaching = &enableCaching
	}
	if r.maxRetries >= 0 || r.backoff != "" {
		config, err := composer.LoadConfig(options.configFile)
		if err != nil {
			return nil, err
		}
		policy := config.Orchestrator.RetryPolicy
		if r.maxRetries >= 0 {
			policy.MaxRetries = r.maxRetries
		}
		if r.backoff != "" {
			policy.BackoffStrategy = model.BackoffStrategy(r.backoff)
		}
		executionOptions.RetryPolicy = &policy
	}
	request.ExecutionOptions = executionOptions
	return request, request.Validate()
}

func (r *runOptions) toolExecutor(ctx context.Context) (executor.ToolExecutor, func() error, error) {
	var routerOptions []executor.RouterOption
	if r.simulate {
		routerOptions = append(routerOptions, executor.WithFallback(simulator(r.fail)))
	}
	router := executor.NewRouter(routerOptions...)
	if r.tools == "" {
		return router, nil, nil
	}
	config, err := shell.LoadConfig(ctx, r.tools)
	if err != nil {
		return nil, nil, err
	}
	shellTools, err := shell.New(config)
	if err != nil {
		return nil, nil, err
	}
	for _, name := range shellTools.Tools() {
		router.Register(name, shellTools)
	}
	return router, shellTools.Close, nil
}

// simulator succeeds for every tool except the failing ones, echoing params.
func simulator(failing []string) executor.Func {
	failed := map[string]bool{}
	for _, name := range failing {
		failed[name] = true
	}
	return func(ctx context.Context, toolName string, params map[string]interface{}) (*executor.ToolResult, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if failed[toolName] {
			return &executor.ToolResult{Success: false, Error: "simulated verification failure", Output: params}, nil
		}
		return &executor.ToolResult{Success: true, ZKProofGenerated: true, Output: params}, nil
	}
}

// parseParams converts name=value pairs; scalar values keep their YAML type.
func parseParams(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	ret := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}
		ret[name] = scalar(value)
	}
	return ret, nil
}

func scalar(value string) interface{} {
	var decoded interface{}
	if err := yaml.Unmarshal([]byte(value), &decoded); err != nil {
		return value
	}
	switch decoded.(type) {
	case bool, int, float64:
		return decoded
	}
	return value
}

func loadComposition(ctx context.Context, URL string) (*model.Composition, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, err
	}
	ret := &model.Composition{}
	if path.Ext(URL) == ".json" {
		err = json.Unmarshal(data, ret)
	} else {
		err = yaml.Unmarshal(data, ret)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode composition %s: %w", URL, err)
	}
	return ret, nil
}
