package audit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/viant/composer/internal/clock"
)

// Sink persists audit entries outside the process.
type Sink interface {
	Write(ctx context.Context, executionID string, entry *Entry) error
}

// Log is the append-only audit trail of one execution.
type Log struct {
	executionID string
	sink        Sink
	logger      *slog.Logger
	mux         sync.Mutex
	entries     []*Entry
}

// Option customises a Log.
type Option func(l *Log)

// WithSink mirrors every entry to sink. Sink failures are logged, not returned.
func WithSink(sink Sink) Option {
	return func(l *Log) { l.sink = sink }
}

// WithLogger sets the structured logger entries are echoed to.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// New creates an empty log for executionID.
func New(executionID string, opts ...Option) *Log {
	ret := &Log{executionID: executionID}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Record appends an entry stamped with the engine clock.
func (l *Log) Record(ctx context.Context, level Level, action Action, componentID string, details map[string]interface{}) *Entry {
	l.mux.Lock()
	entry := &Entry{
		Timestamp:   clock.Now(),
		Action:      action,
		ComponentID: componentID,
		Details:     details,
		Level:       level,
	}
	l.entries = append(l.entries, entry)
	l.mux.Unlock()

	if l.logger != nil {
		attrs := []any{"execution_id", l.executionID, "action", string(action)}
		if componentID != "" {
			attrs = append(attrs, "component_id", componentID)
		}
		for k, v := range details {
			attrs = append(attrs, k, v)
		}
		l.logger.Log(ctx, slogLevel(level), "audit", attrs...)
	}
	if l.sink != nil {
		if err := l.sink.Write(ctx, l.executionID, entry.Clone()); err != nil && l.logger != nil {
			l.logger.Warn("failed to persist audit entry", "execution_id", l.executionID, "action", string(action), "error", err)
		}
	}
	return entry
}

// Info appends an INFO entry.
func (l *Log) Info(ctx context.Context, action Action, componentID string, details map[string]interface{}) {
	l.Record(ctx, LevelInfo, action, componentID, details)
}

// Warn appends a WARN entry.
func (l *Log) Warn(ctx context.Context, action Action, componentID string, details map[string]interface{}) {
	l.Record(ctx, LevelWarn, action, componentID, details)
}

// Error appends an ERROR entry.
func (l *Log) Error(ctx context.Context, action Action, componentID string, details map[string]interface{}) {
	l.Record(ctx, LevelError, action, componentID, details)
}

// Entries returns copies of all entries in insertion order.
func (l *Log) Entries() []*Entry {
	l.mux.Lock()
	defer l.mux.Unlock()
	ret := make([]*Entry, len(l.entries))
	for i, entry := range l.entries {
		ret[i] = entry.Clone()
	}
	return ret
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mux.Lock()
	defer l.mux.Unlock()
	return len(l.entries)
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}
