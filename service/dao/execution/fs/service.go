// Package fs persists execution snapshots as JSON documents on any afs
// storage (local file system, mem://, cloud buckets).
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/composer/runtime/execution"
	"github.com/viant/composer/service/dao"
	"github.com/viant/composer/service/dao/criteria"
)

// Service stores one <id>.json document per execution under baseURL.
type Service struct {
	baseURL string
	fs      afs.Service
	logger  *slog.Logger
	mu      sync.RWMutex
}

var _ dao.Service[string, execution.Execution] = (*Service)(nil)

// Save writes the execution document, overwriting a previous snapshot.
func (s *Service) Save(ctx context.Context, e *execution.Execution) error {
	if e == nil {
		return dao.ErrNilEntity
	}
	if e.ID == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", e.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.location(e.ID)
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save execution to %s: %w", location, err)
	}
	return nil
}

// Load reads an execution or returns dao.ErrNotFound.
func (s *Service) Load(ctx context.Context, id string) (*execution.Execution, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	location := s.location(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check execution %s: %w", id, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read execution %s: %w", id, err)
	}
	ret := &execution.Execution{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}
	return ret, nil
}

// Delete removes an execution document.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.location(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check execution %s: %w", id, err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	if err := s.fs.Delete(ctx, location); err != nil {
		return fmt.Errorf("failed to delete execution %s: %w", id, err)
	}
	return nil
}

// List reads every stored execution matching parameters, ordered by id.
// Unreadable documents are logged and skipped.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	var ret []*execution.Execution
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn("failed to read execution", "url", object.URL(), "error", err)
			continue
		}
		e := &execution.Execution{}
		if err := json.Unmarshal(data, e); err != nil {
			s.logger.Warn("failed to unmarshal execution", "url", object.URL(), "error", err)
			continue
		}
		if criteria.Match(criteria.ExecutionFields(e), parameters) {
			ret = append(ret, e)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret, nil
}

func (s *Service) location(id string) string {
	return url.Join(s.baseURL, path.Base(id)+".json")
}

// Option customises the service.
type Option func(s *Service)

// WithLogger sets the logger used for skipped documents.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithFS replaces the storage service.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// New creates the service, creating baseURL when missing.
func New(ctx context.Context, baseURL string, opts ...Option) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("execution store location cannot be empty")
	}
	ret := &Service{fs: afs.New(), logger: slog.Default()}
	for _, opt := range opts {
		opt(ret)
	}
	ret.baseURL = url.Normalize(baseURL, file.Scheme)
	exists, _ := ret.fs.Exists(ctx, ret.baseURL)
	if !exists {
		if err := ret.fs.Create(ctx, ret.baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create execution store %s: %w", ret.baseURL, err)
		}
	}
	return ret, nil
}
