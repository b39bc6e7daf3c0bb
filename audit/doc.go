// Package audit records the append-only trail of decisions taken while a
// composed proof executes. Entries are kept in memory per execution and can
// be mirrored to a durable Sink.
package audit
