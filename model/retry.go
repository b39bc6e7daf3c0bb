package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BackoffStrategy defines how the delay grows between attempts.
type BackoffStrategy string

const (
	BackoffFixed       BackoffStrategy = "FIXED"
	BackoffLinear      BackoffStrategy = "LINEAR"
	BackoffExponential BackoffStrategy = "EXPONENTIAL"
)

// RetryPolicy controls re-execution of components whose tool call raised an
// error. BackoffDelay travels as milliseconds.
type RetryPolicy struct {
	MaxRetries      int             `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`
	BackoffStrategy BackoffStrategy `json:"backoffStrategy" yaml:"backoffStrategy" mapstructure:"backoffStrategy"`
	BackoffDelay    time.Duration   `json:"-" yaml:"-" mapstructure:"backoffDelay"`
}

type retryPolicyFields RetryPolicy

type retryPolicyDoc struct {
	retryPolicyFields `yaml:",inline"`
	BackoffDelay      Millis `json:"backoffDelay" yaml:"backoffDelay"`
}

// DefaultRetryPolicy returns one retry with a fixed one second delay.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxRetries: 1, BackoffStrategy: BackoffFixed, BackoffDelay: time.Second}
}

// Normalize returns a validated copy with an upper-cased strategy name;
// an empty strategy becomes FIXED. The receiver is left unchanged.
func (p *RetryPolicy) Normalize() (*RetryPolicy, error) {
	ret := *p
	if ret.MaxRetries < 0 {
		return nil, fmt.Errorf("retry: maxRetries must be >= 0, got %d", ret.MaxRetries)
	}
	if ret.BackoffDelay < 0 {
		return nil, fmt.Errorf("retry: backoffDelay must be >= 0, got %s", ret.BackoffDelay)
	}
	ret.BackoffStrategy = BackoffStrategy(strings.ToUpper(string(ret.BackoffStrategy)))
	switch ret.BackoffStrategy {
	case "":
		ret.BackoffStrategy = BackoffFixed
	case BackoffFixed, BackoffLinear, BackoffExponential:
	default:
		return nil, fmt.Errorf("retry: unsupported backoff strategy %q", p.BackoffStrategy)
	}
	return &ret, nil
}

// Validate checks policy bounds and the strategy name.
func (p *RetryPolicy) Validate() error {
	_, err := p.Normalize()
	return err
}

// Delay returns the wait before retry k (1-based).
func (p *RetryPolicy) Delay(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	switch BackoffStrategy(strings.ToUpper(string(p.BackoffStrategy))) {
	case BackoffLinear:
		return p.BackoffDelay * time.Duration(retry)
	case BackoffExponential:
		delay := p.BackoffDelay
		for i := 1; i < retry; i++ {
			delay *= 2
		}
		return delay
	}
	return p.BackoffDelay
}

func (p *RetryPolicy) doc() *retryPolicyDoc {
	return &retryPolicyDoc{retryPolicyFields: retryPolicyFields(*p), BackoffDelay: Millis(p.BackoffDelay)}
}

func (p *RetryPolicy) fromDoc(doc *retryPolicyDoc) {
	*p = RetryPolicy(doc.retryPolicyFields)
	p.BackoffDelay = time.Duration(doc.BackoffDelay)
}

// MarshalJSON encodes backoffDelay as milliseconds.
func (p RetryPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.doc())
}

// UnmarshalJSON decodes backoffDelay from milliseconds or a duration string.
func (p *RetryPolicy) UnmarshalJSON(data []byte) error {
	doc := &retryPolicyDoc{}
	if err := json.Unmarshal(data, doc); err != nil {
		return err
	}
	p.fromDoc(doc)
	return nil
}

// MarshalYAML encodes backoffDelay as milliseconds.
func (p RetryPolicy) MarshalYAML() (interface{}, error) {
	return p.doc(), nil
}

// UnmarshalYAML decodes backoffDelay from milliseconds or a duration string.
func (p *RetryPolicy) UnmarshalYAML(node *yaml.Node) error {
	doc := &retryPolicyDoc{}
	if err := node.Decode(doc); err != nil {
		return err
	}
	p.fromDoc(doc)
	return nil
}
