package policy

import (
	"context"
	"path"
	"strings"
)

// Execution modes.
const (
	ModeAuto = "auto" // execute allowed tools (default)
	ModeDeny = "deny" // block every tool
)

// Policy holds tool filtering rules. A nil *Policy allows everything.
type Policy struct {
	Mode string
	// AllowList entries are tool names or path.Match patterns; empty allows all.
	AllowList []string
	// BlockList has priority over AllowList.
	BlockList []string
}

// Config is the serialisable form of Policy.
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty" mapstructure:"mode"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty" mapstructure:"allow"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty" mapstructure:"block"`
}

// FromConfig converts a Config into a Policy; nil or empty config yields nil.
func FromConfig(c *Config) *Policy {
	if c == nil || (c.Mode == "" && len(c.AllowList) == 0 && len(c.BlockList) == 0) {
		return nil
	}
	return &Policy{
		Mode:      c.Mode,
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// ToConfig converts a Policy into its serialisable form.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:      p.Mode,
		AllowList: append([]string(nil), p.AllowList...),
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// IsAllowed reports whether tool may be executed. Matching is case-insensitive.
func (p *Policy) IsAllowed(tool string) bool {
	if p == nil {
		return true
	}
	if strings.EqualFold(p.Mode, ModeDeny) {
		return false
	}
	normalized := strings.ToLower(tool)
	for _, pattern := range p.BlockList {
		if matches(pattern, normalized) {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, pattern := range p.AllowList {
		if matches(pattern, normalized) {
			return true
		}
	}
	return false
}

func matches(pattern, tool string) bool {
	pattern = strings.ToLower(pattern)
	if pattern == tool {
		return true
	}
	ok, err := path.Match(pattern, tool)
	return err == nil && ok
}

type policyKey struct{}

// WithPolicy returns a context carrying p.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, policyKey{}, p)
}

// FromContext returns the policy carried by ctx, or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(policyKey{}).(*Policy)
	return p
}
