// Package execution holds the runtime state of a composed proof run: the
// component results, the execution record published for polling and the
// tracker that updates both while recording the audit trail.
package execution
