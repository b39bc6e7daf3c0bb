package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/composer/internal/clock"
	"github.com/viant/composer/runtime/execution"
)

var _ Store = (*Service)(nil)

// Service is an in-memory Store with lazy expiry and periodic sweeping.
type Service struct {
	mux           sync.Mutex
	entries       map[string]*Entry
	ttl           time.Duration
	sweepInterval time.Duration
	logger        *slog.Logger
}

// Option customises the memory store.
type Option func(s *Service)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepInterval overrides DefaultSweepInterval.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithLogger sets the logger used by the sweeper.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates an empty memory store.
func New(opts ...Option) *Service {
	ret := &Service{
		entries:       map[string]*Entry{},
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Lookup implements Store.
func (s *Service) Lookup(ctx context.Context, key string) (*Entry, bool, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	entry, ok := s.entries[key]
	if !ok || !entry.Live(clock.Now()) {
		return nil, false, nil
	}
	entry.Hits++
	return entry.Clone(), true, nil
}

// Store implements Store.
func (s *Service) Store(ctx context.Context, key string, result *execution.ComponentResult) error {
	now := clock.Now()
	s.mux.Lock()
	s.entries[key] = &Entry{
		CacheKey:  key,
		Result:    result.Clone(),
		Timestamp: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.mux.Unlock()
	return nil
}

// Sweep implements Store.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	now := clock.Now()
	s.mux.Lock()
	defer s.mux.Unlock()
	removed := 0
	for key, entry := range s.entries {
		if !entry.Live(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of entries, including expired ones not yet swept.
func (s *Service) Len() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.entries)
}

// Start sweeps expired entries every sweep interval until ctx is done.
func (s *Service) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed, _ := s.Sweep(ctx); removed > 0 {
					s.logger.Debug("cache sweep", "removed", removed)
				}
			}
		}
	}()
}
