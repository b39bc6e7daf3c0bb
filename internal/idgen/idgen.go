package idgen

import "github.com/google/uuid"

// NewFunc generates identifiers. Override in tests for determinism.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier as string.
func New() string { return NewFunc() }

// WithPrefix returns prefix-<id>, e.g. exec-6f1c...
func WithPrefix(prefix string) string {
	if prefix == "" {
		return New()
	}
	return prefix + "-" + New()
}
