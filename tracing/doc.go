// Package tracing is a thin wrapper around OpenTelemetry used to trace
// orchestrations and component executions.
package tracing
