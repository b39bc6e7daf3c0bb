// Package clock is the single time source of the engine. It can be stubbed in
// tests and guarantees monotonic non-decreasing readings.
package clock
