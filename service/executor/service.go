package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ToolResult is what a verifier reports. Success=false is a verification
// failure, not an execution error.
type ToolResult struct {
	Success          bool        `json:"success" yaml:"success"`
	ZKProofGenerated bool        `json:"zkProofGenerated" yaml:"zkProofGenerated"`
	Output           interface{} `json:"output,omitempty" yaml:"output,omitempty"`
	Error            string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// ToolExecutor runs a proof tool. A returned error denotes a transport or
// execution problem and may be retried.
type ToolExecutor interface {
	Execute(ctx context.Context, toolName string, params map[string]interface{}) (*ToolResult, error)
}

// Func adapts a function to ToolExecutor.
type Func func(ctx context.Context, toolName string, params map[string]interface{}) (*ToolResult, error)

// Execute implements ToolExecutor.
func (f Func) Execute(ctx context.Context, toolName string, params map[string]interface{}) (*ToolResult, error) {
	return f(ctx, toolName, params)
}

// Listener observes every tool call after it returns.
type Listener func(toolName string, params map[string]interface{}, result *ToolResult, err error)

// Router dispatches tool calls by name, falling back to a default executor.
type Router struct {
	mux      sync.RWMutex
	tools    map[string]ToolExecutor
	fallback ToolExecutor
	listener Listener
}

// RouterOption customises a Router.
type RouterOption func(r *Router)

// WithFallback sets the executor used for unregistered tools.
func WithFallback(fallback ToolExecutor) RouterOption {
	return func(r *Router) { r.fallback = fallback }
}

// WithListener sets the listener invoked after every routed call.
func WithListener(listener Listener) RouterOption {
	return func(r *Router) { r.listener = listener }
}

// NewRouter creates an empty router.
func NewRouter(opts ...RouterOption) *Router {
	ret := &Router{tools: map[string]ToolExecutor{}}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Register binds toolName to executor, replacing any previous binding.
func (r *Router) Register(toolName string, executor ToolExecutor) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.tools[toolName] = executor
}

// Tools returns the registered tool names sorted.
func (r *Router) Tools() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ret := make([]string, 0, len(r.tools))
	for name := range r.tools {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Execute implements ToolExecutor.
func (r *Router) Execute(ctx context.Context, toolName string, params map[string]interface{}) (*ToolResult, error) {
	r.mux.RLock()
	executor, ok := r.tools[toolName]
	if !ok {
		executor = r.fallback
	}
	listener := r.listener
	r.mux.RUnlock()
	if executor == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, toolName)
	}
	result, err := executor.Execute(ctx, toolName, params)
	if listener != nil {
		listener(toolName, params, result, err)
	}
	return result, err
}
