package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: not found")

// Op is a single mutation inside a Batch.
type Op struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Batch groups mutations that are applied atomically.
type Batch struct {
	Ops []Op
}

// Put appends a write.
func (b *Batch) Put(key, value []byte) { b.Ops = append(b.Ops, Op{Key: key, Value: value}) }

// Delete appends a point deletion.
func (b *Batch) Delete(key []byte) { b.Ops = append(b.Ops, Op{Key: key, Delete: true}) }

// Len returns the number of queued mutations.
func (b *Batch) Len() int { return len(b.Ops) }

// Backend is an ordered byte-keyed store shared by every chain.
type Backend interface {
	// Get returns a copy of the value or ErrNotFound.
	Get(ctx context.Context, key []byte) ([]byte, error)
	// Apply commits all ops in b atomically.
	Apply(ctx context.Context, b *Batch) error
	// Scan calls fn for keys in [lower, upper) in ascending order, stopping
	// after limit entries when limit > 0. nil upper means unbounded. The slices
	// passed to fn are only valid for the duration of the call.
	Scan(ctx context.Context, lower, upper []byte, limit int, fn func(key, value []byte) error) error
	// DeleteRange removes every key in [lower, upper).
	DeleteRange(ctx context.Context, lower, upper []byte) error
	// Ping performs a cheap read to verify the backend is usable.
	Ping(ctx context.Context) error
	Close() error
}

// MetricsHook observes backend latencies. Implementations must be safe for
// concurrent use.
type MetricsHook interface {
	ObserveWrite(elapsed time.Duration, bytes int)
	ObserveRead(elapsed time.Duration, bytes int)
	ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveWrite(time.Duration, int)            {}
func (NoopMetrics) ObserveRead(time.Duration, int)             {}
func (NoopMetrics) ObserveBatchCommit(time.Duration, int, int) {}

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil if no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
