// Package template keeps the registry of composition templates.
package template

import (
	"context"
	"iter"
	"log/slog"
	"sort"
	"sync"

	"github.com/viant/composer/model"
	"github.com/viant/composer/model/builtin"
)

// Service is a thread-safe template registry. Templates are validated on
// registration and stored and returned as clones.
type Service struct {
	mux       sync.RWMutex
	templates map[string]*model.CompositionTemplate
	logger    *slog.Logger
}

// Option customises the registry.
type Option func(s *Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates an empty registry.
func New(opts ...Option) *Service {
	ret := &Service{templates: map[string]*model.CompositionTemplate{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// NewWithBuiltins creates a registry seeded with the built-in templates.
func NewWithBuiltins(ctx context.Context, opts ...Option) (*Service, error) {
	ret := New(opts...)
	for _, t := range builtin.Templates() {
		if err := ret.Register(ctx, t); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// Register validates and stores a template, replacing one with the same id.
func (s *Service) Register(ctx context.Context, template *model.CompositionTemplate) error {
	if err := template.Validate(); err != nil {
		return err
	}
	stored := template.Clone()
	s.mux.Lock()
	_, replaced := s.templates[stored.ID]
	s.templates[stored.ID] = stored
	s.mux.Unlock()
	s.logger.DebugContext(ctx, "template registered", "template_id", stored.ID, "components", len(stored.Components), "replaced", replaced)
	return nil
}

// Get returns a copy of the template or model.ErrTemplateNotFound.
func (s *Service) Get(ctx context.Context, id string) (*model.CompositionTemplate, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, &notFoundError{id: id}
	}
	return t.Clone(), nil
}

// Delete removes a template; it reports whether the template existed.
func (s *Service) Delete(ctx context.Context, id string) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	_, ok := s.templates[id]
	delete(s.templates, id)
	return ok
}

// All iterates over copies of registered templates ordered by id. The set is
// captured when iteration starts, so every range over the sequence restarts
// from the current registry content.
func (s *Service) All() iter.Seq[*model.CompositionTemplate] {
	return func(yield func(*model.CompositionTemplate) bool) {
		s.mux.RLock()
		snapshot := make([]*model.CompositionTemplate, 0, len(s.templates))
		for _, t := range s.templates {
			snapshot = append(snapshot, t)
		}
		s.mux.RUnlock()
		sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID < snapshot[j].ID })
		for _, t := range snapshot {
			if !yield(t.Clone()) {
				return
			}
		}
	}
}

// Len returns the number of registered templates.
func (s *Service) Len() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return len(s.templates)
}

type notFoundError struct {
	id string
}

func (e *notFoundError) Error() string { return "template not found: " + e.id }

func (e *notFoundError) Is(target error) bool { return target == model.ErrTemplateNotFound }
