package composer

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/viant/composer/audit"
	"github.com/viant/composer/audit/sqlite"
	"github.com/viant/composer/metrics"
	"github.com/viant/composer/model"
	"github.com/viant/composer/policy"
	"github.com/viant/composer/runtime/execution"
	"github.com/viant/composer/service/cache"
	"github.com/viant/composer/service/cache/redis"
	"github.com/viant/composer/service/dao"
	efs "github.com/viant/composer/service/dao/execution/fs"
	ememory "github.com/viant/composer/service/dao/execution/memory"
	"github.com/viant/composer/service/dao/template"
	"github.com/viant/composer/service/dao/template/loader"
	"github.com/viant/composer/service/executor"
	"github.com/viant/composer/service/retry"
	"github.com/viant/composer/tracing"
)

// Service orchestrates composed proofs.
type Service struct {
	config         *Config
	toolExecutor   executor.ToolExecutor
	tools          executor.ToolExecutor
	cache          cache.Store
	executions     dao.Service[string, execution.Execution]
	templates      *template.Service
	extraTemplates []*model.CompositionTemplate
	auditSink      audit.Sink
	metrics        *metrics.Metrics
	logger         *slog.Logger
	policy         *policy.Policy
	retry          *retry.Service

	mux     sync.Mutex
	closers []func() error
	stop    context.CancelFunc
}

// New creates a service. Without WithToolExecutor every tool call fails
// with executor.ErrToolNotFound.
func New(opts ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig()}
	for _, opt := range opts {
		opt(ret)
	}
	if err := ret.init(context.Background()); err != nil {
		return nil, err
	}
	return ret, nil
}

// NewFromConfig creates a service whose stores, sinks and decorators are
// built from config. Explicit options take precedence.
func NewFromConfig(ctx context.Context, config *Config, opts ...Option) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Service{config: config.Clone()}
	for _, opt := range opts {
		opt(ret)
	}
	if err := ret.configure(ctx); err != nil {
		_ = ret.Close()
		return nil, err
	}
	if err := ret.init(ctx); err != nil {
		_ = ret.Close()
		return nil, err
	}
	return ret, nil
}

func (s *Service) configure(ctx context.Context) error {
	config := s.config
	if s.cache == nil && strings.EqualFold(config.Cache.Backend, CacheRedis) {
		redisConfig := config.Cache.Redis
		if redisConfig.TTL == 0 {
			redisConfig.TTL = config.Cache.TTL
		}
		store, err := redis.New(&redisConfig)
		if err != nil {
			return fmt.Errorf("failed to create redis cache: %w", err)
		}
		s.cache = store
		s.closers = append(s.closers, store.Close)
	}
	if s.executions == nil && strings.EqualFold(config.Store.Kind, StoreFS) {
		store, err := efs.New(ctx, config.Store.URL, efs.WithLogger(s.loggerOrDefault()))
		if err != nil {
			return err
		}
		s.executions = store
	}
	if s.auditSink == nil && config.Audit.SQLitePath != "" {
		store, err := sqlite.Open(ctx, config.Audit.SQLitePath)
		if err != nil {
			return err
		}
		s.auditSink = store
		s.closers = append(s.closers, store.Close)
	}
	if s.policy == nil {
		s.policy = policy.FromConfig(config.Policy)
	}
	if config.Tracing.Enabled {
		if err := tracing.Init(config.Tracing.ServiceName, config.Tracing.ServiceVersion, config.Tracing.OutputFile); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		s.closers = append(s.closers, func() error { return tracing.Shutdown(context.Background()) })
	}
	return nil
}

func (s *Service) init(ctx context.Context) error {
	config := s.config
	s.logger = s.loggerOrDefault()
	if s.cache == nil {
		s.cache = cache.New(
			cache.WithTTL(config.Cache.TTL),
			cache.WithSweepInterval(config.Cache.SweepInterval),
			cache.WithLogger(s.logger),
		)
	}
	if s.executions == nil {
		s.executions = ememory.New()
	}
	if s.templates == nil {
		s.templates = template.New(template.WithLogger(s.logger))
		if config.Templates.Builtins {
			seeded, err := template.NewWithBuiltins(ctx, template.WithLogger(s.logger))
			if err != nil {
				return err
			}
			s.templates = seeded
		}
	}
	templateLoader := loader.New()
	for _, URL := range config.Templates.URLs {
		if _, err := templateLoader.LoadInto(ctx, s.templates, URL); err != nil {
			return err
		}
	}
	for _, t := range s.extraTemplates {
		if err := s.templates.Register(ctx, t); err != nil {
			return err
		}
	}
	if s.toolExecutor == nil {
		s.toolExecutor = executor.NewRouter()
	}
	var tools executor.ToolExecutor = s.toolExecutor
	if limit := config.RateLimit; limit.RequestsPerSecond > 0 {
		tools = executor.NewRateLimited(tools, limit.RequestsPerSecond, limit.Burst)
	}
	tools = executor.NewGuarded(tools)
	s.tools = &nestedExecutor{service: s, next: tools}

	retryOptions := []retry.Option{retry.WithCache(s.cache), retry.WithMetrics(s.metrics), retry.WithLogger(s.logger)}
	if config.Orchestrator.MaxBackoffDelay > 0 {
		retryOptions = append(retryOptions, retry.WithMaxDelay(config.Orchestrator.MaxBackoffDelay))
	}
	s.retry = retry.New(s.tools, retryOptions...)
	return nil
}

func (s *Service) loggerOrDefault() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// Start runs background maintenance (cache sweeping) until Close or ctx ends.
func (s *Service) Start(ctx context.Context) {
	memory, ok := s.cache.(*cache.Service)
	if !ok {
		return
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.stop != nil {
		return
	}
	ctx, s.stop = context.WithCancel(ctx)
	memory.Start(ctx)
}

// Close stops background work and releases stores opened from config.
func (s *Service) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.config }

// GetExecution returns a snapshot of an execution or dao.ErrNotFound.
func (s *Service) GetExecution(ctx context.Context, id string) (*execution.Execution, error) {
	return s.executions.Load(ctx, id)
}

// ListExecutions returns execution snapshots matching parameters.
func (s *Service) ListExecutions(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Execution, error) {
	return s.executions.List(ctx, parameters...)
}

// DeleteExecution evicts an execution snapshot.
func (s *Service) DeleteExecution(ctx context.Context, id string) error {
	return s.executions.Delete(ctx, id)
}

// Templates iterates over registered templates ordered by id.
func (s *Service) Templates() iter.Seq[*model.CompositionTemplate] {
	return s.templates.All()
}

// ListTemplates returns every registered template ordered by id.
func (s *Service) ListTemplates(ctx context.Context) []*model.CompositionTemplate {
	return slices.Collect(s.templates.All())
}

// GetTemplate returns a template or model.ErrTemplateNotFound.
func (s *Service) GetTemplate(ctx context.Context, id string) (*model.CompositionTemplate, error) {
	return s.templates.Get(ctx, id)
}

// RegisterTemplate validates and registers a template.
func (s *Service) RegisterTemplate(ctx context.Context, t *model.CompositionTemplate) error {
	return s.templates.Register(ctx, t)
}
