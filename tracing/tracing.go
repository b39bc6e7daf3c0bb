package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans created by this module.
const InstrumentationName = "github.com/viant/composer"

// Span names.
const (
	orchestrationSpan = "composer.Orchestrate"
	componentSpan     = "component.execute"
)

var (
	mux      sync.Mutex
	provider *sdktrace.TracerProvider
)

// Init installs a stdout exporter writing to outputFile, or os.Stdout when
// outputFile is empty. Only the first installed provider is kept.
func Init(serviceName, serviceVersion, outputFile string) error {
	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create trace output %s: %w", outputFile, err)
		}
		w = f
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return err
	}
	return InitWithExporter(serviceName, serviceVersion, exporter)
}

// InitWithExporter installs a provider exporting spans synchronously to exporter.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}
	mux.Lock()
	defer mux.Unlock()
	if provider != nil {
		return nil
	}
	res, err := resource.New(context.Background(), resource.WithAttributes(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", serviceVersion),
	))
	if err != nil {
		return err
	}
	provider = sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return nil
}

// Shutdown flushes and stops the installed provider.
func Shutdown(ctx context.Context) error {
	mux.Lock()
	defer mux.Unlock()
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	provider = nil
	return err
}

// Span is a nil-safe handle on an OpenTelemetry span.
type Span struct {
	span trace.Span
}

// StartOrchestration starts the root span of one execution.
func StartOrchestration(ctx context.Context, templateID, executionID, requestID string, components, depth int) (context.Context, *Span) {
	ctx, span := otel.Tracer(InstrumentationName).Start(ctx, orchestrationSpan+" "+templateID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("template_id", templateID),
			attribute.String("execution_id", executionID),
			attribute.String("request_id", requestID),
			attribute.Int("components", components),
			attribute.Int("depth", depth),
		))
	return ctx, &Span{span: span}
}

// StartComponent starts a client span around one component execution.
func StartComponent(ctx context.Context, componentID, toolName string) (context.Context, *Span) {
	ctx, span := otel.Tracer(InstrumentationName).Start(ctx, componentSpan+" "+componentID,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("component_id", componentID),
			attribute.String("tool", toolName),
		))
	return ctx, &Span{span: span}
}

// Set attaches a string, int, bool or float attribute; other values are
// formatted with %v.
func (s *Span) Set(key string, value interface{}) *Span {
	if s == nil {
		return s
	}
	var kv attribute.KeyValue
	switch actual := value.(type) {
	case string:
		kv = attribute.String(key, actual)
	case int:
		kv = attribute.Int(key, actual)
	case bool:
		kv = attribute.Bool(key, actual)
	case float64:
		kv = attribute.Float64(key, actual)
	default:
		kv = attribute.String(key, fmt.Sprintf("%v", actual))
	}
	s.span.SetAttributes(kv)
	return s
}

// Retry records a retry event.
func (s *Span) Retry(attempt int, delay time.Duration) {
	if s == nil {
		return
	}
	s.span.AddEvent("retry", trace.WithAttributes(
		attribute.String("attempt", strconv.Itoa(attempt)),
		attribute.String("delay", delay.String()),
	))
}

// End sets the span status from err and ends it.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
