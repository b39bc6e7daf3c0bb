// Package cache stores PASS component results under resolved cache keys so
// that repeated verifications within the TTL are served without calling the
// tool again.
package cache

import (
	"context"
	"time"

	"github.com/viant/composer/runtime/execution"
)

const (
	// DefaultTTL is the lifetime of a cached result.
	DefaultTTL = 24 * time.Hour
	// DefaultSweepInterval is the period of expired entry removal.
	DefaultSweepInterval = 5 * time.Minute
)

// Entry is a cached component result.
type Entry struct {
	CacheKey  string                     `json:"cacheKey"`
	Result    *execution.ComponentResult `json:"result"`
	Timestamp time.Time                  `json:"timestamp"`
	ExpiresAt time.Time                  `json:"expiresAt"`
	Hits      int                        `json:"hits"`
}

// Live reports whether the entry is still valid at now.
func (e *Entry) Live(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Clone returns a copy with its own result.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	ret := *e
	ret.Result = e.Result.Clone()
	return &ret
}

// Store is a concurrency-safe result cache.
type Store interface {
	// Lookup returns a live entry and counts the hit; expired entries are a miss.
	Lookup(ctx context.Context, key string) (*Entry, bool, error)
	// Store inserts or overwrites the entry for key.
	Store(ctx context.Context, key string, result *execution.ComponentResult) error
	// Sweep removes expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
}
