// Package idgen issues execution and request identifiers. Tests replace
// NewFunc to get stable ids; callers treat ids as opaque strings.
package idgen
