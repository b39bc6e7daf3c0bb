package clock

import (
	"sync"
	"time"
)

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

var (
	mux  sync.Mutex
	last time.Time
)

// Now returns NowFunc() but never a value earlier than one it already
// returned, so audit and result timestamps are non-decreasing even when the
// wall clock steps backwards.
func Now() time.Time {
	now := NowFunc()
	mux.Lock()
	defer mux.Unlock()
	if now.Before(last) {
		return last
	}
	last = now
	return now
}

// Reset forgets the last returned instant. Tests that rewind NowFunc call it.
func Reset() {
	mux.Lock()
	last = time.Time{}
	mux.Unlock()
}
