package composer

import (
	"log/slog"

	"github.com/viant/composer/audit"
	"github.com/viant/composer/metrics"
	"github.com/viant/composer/model"
	"github.com/viant/composer/policy"
	"github.com/viant/composer/runtime/execution"
	"github.com/viant/composer/service/cache"
	"github.com/viant/composer/service/dao"
	"github.com/viant/composer/service/dao/template"
	"github.com/viant/composer/service/executor"
	"github.com/viant/composer/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the Service.
type Option func(s *Service)

// WithConfig replaces the default configuration with a copy of config.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config.Clone()
		}
	}
}

// WithToolExecutor sets the tool executor every component is run with.
func WithToolExecutor(toolExecutor executor.ToolExecutor) Option {
	return func(s *Service) { s.toolExecutor = toolExecutor }
}

// WithCacheStore replaces the result cache.
func WithCacheStore(store cache.Store) Option {
	return func(s *Service) { s.cache = store }
}

// WithExecutionDAO replaces the execution registry.
func WithExecutionDAO(executions dao.Service[string, execution.Execution]) Option {
	return func(s *Service) { s.executions = executions }
}

// WithTemplateRegistry replaces the template registry.
func WithTemplateRegistry(registry *template.Service) Option {
	return func(s *Service) { s.templates = registry }
}

// WithTemplates registers additional templates at construction.
func WithTemplates(templates ...*model.CompositionTemplate) Option {
	return func(s *Service) { s.extraTemplates = append(s.extraTemplates, templates...) }
}

// WithBuiltinTemplates toggles seeding of the built-in templates.
func WithBuiltinTemplates(enabled bool) Option {
	return func(s *Service) { s.config.Templates.Builtins = enabled }
}

// WithAuditSink mirrors every audit entry to sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) { s.auditSink = sink }
}

// WithMetrics records prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithPolicy restricts which tools may run.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithTracing configures OpenTelemetry tracing. If outputFile is empty the
// stdout exporter is used. The first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing with a custom exporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
