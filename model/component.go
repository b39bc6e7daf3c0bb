package model

import (
	"encoding/json"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TemplateToolPrefix marks a component that runs another registered template.
const TemplateToolPrefix = "template:"

// CacheKeyFunc derives a cache key from the component id and merged
// parameters. It returns false when no key can be produced.
type CacheKeyFunc func(componentID string, params map[string]interface{}) (string, bool)

// ProofComponent is a single proof verification step inside a composition.
type ProofComponent struct {
	ID           string                 `json:"id" yaml:"id"`
	ToolName     string                 `json:"toolName" yaml:"toolName"`
	Parameters   map[string]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Dependencies []string               `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Optional     bool                   `json:"optional,omitempty" yaml:"optional,omitempty"`
	// Timeout bounds each attempt; zero disables it. It travels as milliseconds.
	Timeout  time.Duration `json:"-" yaml:"-"`
	CacheKey string        `json:"cacheKey,omitempty" yaml:"cacheKey,omitempty"`

	CacheKeyFunc CacheKeyFunc `json:"-" yaml:"-"`
}

type componentFields ProofComponent

type componentDoc struct {
	componentFields `yaml:",inline"`
	Timeout         Millis `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

func (c *ProofComponent) doc() *componentDoc {
	return &componentDoc{componentFields: componentFields(*c), Timeout: Millis(c.Timeout)}
}

func (c *ProofComponent) fromDoc(doc *componentDoc) {
	*c = ProofComponent(doc.componentFields)
	c.Timeout = time.Duration(doc.Timeout)
}

// MarshalJSON encodes timeout as milliseconds.
func (c ProofComponent) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.doc())
}

// UnmarshalJSON decodes timeout from milliseconds or a duration string.
func (c *ProofComponent) UnmarshalJSON(data []byte) error {
	doc := &componentDoc{}
	if err := json.Unmarshal(data, doc); err != nil {
		return err
	}
	c.fromDoc(doc)
	return nil
}

// MarshalYAML encodes timeout as milliseconds.
func (c ProofComponent) MarshalYAML() (interface{}, error) {
	return c.doc(), nil
}

// UnmarshalYAML decodes timeout from milliseconds or a duration string.
func (c *ProofComponent) UnmarshalYAML(node *yaml.Node) error {
	doc := &componentDoc{}
	if err := node.Decode(doc); err != nil {
		return err
	}
	c.fromDoc(doc)
	return nil
}

// NestedTemplateID returns the template id for template:<id> tools.
func (c *ProofComponent) NestedTemplateID() (string, bool) {
	if !strings.HasPrefix(c.ToolName, TemplateToolPrefix) {
		return "", false
	}
	id := strings.TrimSpace(c.ToolName[len(TemplateToolPrefix):])
	return id, id != ""
}

// Cacheable reports whether the component declares any cache key source.
func (c *ProofComponent) Cacheable() bool {
	return c.CacheKey != "" || c.CacheKeyFunc != nil
}

// Clone returns a deep copy; parameter values are copied one level deep.
func (c *ProofComponent) Clone() *ProofComponent {
	if c == nil {
		return nil
	}
	ret := *c
	ret.Parameters = CloneParameters(c.Parameters)
	if c.Dependencies != nil {
		ret.Dependencies = append([]string(nil), c.Dependencies...)
	}
	return &ret
}

// CloneParameters copies a parameter map, including nested maps and slices.
func CloneParameters(params map[string]interface{}) map[string]interface{} {
	if params == nil {
		return nil
	}
	ret := make(map[string]interface{}, len(params))
	for k, v := range params {
		ret[k] = cloneValue(v)
	}
	return ret
}

func cloneValue(v interface{}) interface{} {
	switch actual := v.(type) {
	case map[string]interface{}:
		return CloneParameters(actual)
	case []interface{}:
		ret := make([]interface{}, len(actual))
		for i, item := range actual {
			ret[i] = cloneValue(item)
		}
		return ret
	case []string:
		return append([]string(nil), actual...)
	}
	return v
}

// MergeParameters returns globals overridden by component parameters.
func MergeParameters(globals, params map[string]interface{}) map[string]interface{} {
	ret := make(map[string]interface{}, len(globals)+len(params))
	for k, v := range globals {
		ret[k] = cloneValue(v)
	}
	for k, v := range params {
		ret[k] = cloneValue(v)
	}
	return ret
}
