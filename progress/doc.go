// Package progress keeps the aggregated component counters of a single
// composed proof execution and notifies a listener after every change.
package progress
