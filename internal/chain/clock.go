package chain

import "time"

// Allocator hands out strictly increasing millisecond timestamps. It is not
// safe for concurrent use; a chain only calls it while holding its lock.
type Allocator struct {
	// Now returns wall-clock milliseconds. Nil uses time.Now.
	Now  func() int64
	last int64
}

// NowMs returns current time in milliseconds since Unix epoch.
func NowMs() int64 { return time.Now().UnixMilli() }

// Next returns max(now, last+1) and records it. A clock that stalls or jumps
// backwards still yields unique, increasing values.
func (a *Allocator) Next() int64 {
	now := NowMs
	if a.Now != nil {
		now = a.Now
	}
	ts := now()
	if ts <= a.last {
		ts = a.last + 1
	}
	a.last = ts
	return ts
}

// Last returns the most recently allocated timestamp, or 0.
func (a *Allocator) Last() int64 { return a.last }
