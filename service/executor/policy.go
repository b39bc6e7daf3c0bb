package executor

import (
	"context"
	"fmt"

	"github.com/viant/composer/policy"
)

// Guarded rejects tools the context policy does not allow.
type Guarded struct {
	next ToolExecutor
}

// NewGuarded wraps next with policy enforcement.
func NewGuarded(next ToolExecutor) *Guarded {
	return &Guarded{next: next}
}

// Execute implements ToolExecutor.
func (g *Guarded) Execute(ctx context.Context, toolName string, params map[string]interface{}) (*ToolResult, error) {
	if p := policy.FromContext(ctx); !p.IsAllowed(toolName) {
		return nil, fmt.Errorf("%w: %s", ErrToolBlocked, toolName)
	}
	return g.next.Execute(ctx, toolName, params)
}
