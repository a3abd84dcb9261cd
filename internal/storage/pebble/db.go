package pebblestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/rzbill/feedsync/internal/storage"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// FsyncMode defines durability behavior for write operations.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways requests a WAL fsync on each committed batch.
	FsyncModeAlways
	// FsyncModeInterval lets Pebble coalesce WAL syncs within FsyncInterval.
	FsyncModeInterval
	// FsyncModeNever never forces a WAL sync from the application.
	FsyncModeNever
)

// Options configures the Pebble backend.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// Fsync determines when to sync the WAL.
	Fsync FsyncMode
	// FsyncInterval controls group-commit when Fsync=FsyncModeInterval.
	FsyncInterval time.Duration
	// PebbleOptions allows advanced tuning of Pebble. If nil, defaults are used.
	PebbleOptions *pebble.Options
	// Metrics observes read and commit latencies. Optional.
	Metrics storage.MetricsHook
	// Logger receives Pebble's internal log lines. Optional.
	Logger logpkg.Logger
}

// DB is a storage.Backend on top of Pebble.
type DB struct {
	inner     *pebble.DB
	writeSync bool
	metrics   storage.MetricsHook
}

var _ storage.Backend = (*DB)(nil)

// Open creates or opens a Pebble database with the provided options.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	if opts.Logger != nil {
		po.Logger = pebbleLogger{l: opts.Logger.With(logpkg.Component("pebble"))}
	}

	switch opts.Fsync {
	case FsyncModeAlways, FsyncModeNever:
		// Always syncs per commit; Never leaves it to Pebble.
	case FsyncModeInterval:
		if opts.FsyncInterval <= 0 {
			opts.FsyncInterval = 5 * time.Millisecond
		}
		interval := opts.FsyncInterval
		po.WALMinSyncInterval = func() time.Duration { return interval }
	default:
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, err
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = storage.NoopMetrics{}
	}

	return &DB{
		inner:     inner,
		writeSync: opts.Fsync == FsyncModeAlways,
		metrics:   metrics,
	}, nil
}

// Close closes the Pebble database.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

func (db *DB) writeOpts() *pebble.WriteOptions {
	if db.writeSync {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Apply commits b as a single Pebble batch.
func (db *DB) Apply(ctx context.Context, b *storage.Batch) error {
	if b == nil {
		return errors.New("pebble: nil batch")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	pb := db.inner.NewBatch()
	defer pb.Close()
	for _, op := range b.Ops {
		var err error
		if op.Delete {
			err = pb.Delete(op.Key, nil)
		} else {
			err = pb.Set(op.Key, op.Value, nil)
		}
		if err != nil {
			return err
		}
	}
	start := time.Now()
	size := pb.Len()
	err := pb.Commit(db.writeOpts())
	db.metrics.ObserveBatchCommit(time.Since(start), len(b.Ops), size)
	return err
}

// Get copies the value for the given key.
func (db *DB) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	val, closer, err := db.inner.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	buf := append([]byte(nil), val...)
	db.metrics.ObserveRead(time.Since(start), len(buf))
	return buf, nil
}

// Scan iterates [lower, upper) in key order.
func (db *DB) Scan(ctx context.Context, lower, upper []byte, limit int, fn func(key, value []byte) error) error {
	it, err := db.inner.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return err
	}
	defer it.Close()

	start := time.Now()
	n, bytes := 0, 0
	for ok := it.First(); ok; ok = it.Next() {
		if limit > 0 && n >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := it.ValueAndErr()
		if err != nil {
			return err
		}
		if err := fn(it.Key(), v); err != nil {
			return err
		}
		n++
		bytes += len(v)
	}
	db.metrics.ObserveRead(time.Since(start), bytes)
	return it.Error()
}

// DeleteRange removes [lower, upper) with a range tombstone.
func (db *DB) DeleteRange(ctx context.Context, lower, upper []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if upper == nil {
		return fmt.Errorf("pebble: unbounded delete range from %q", lower)
	}
	start := time.Now()
	err := db.inner.DeleteRange(lower, upper, db.writeOpts())
	db.metrics.ObserveWrite(time.Since(start), 0)
	return err
}

// Ping opens and closes an iterator to verify the database is readable.
func (db *DB) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	it, err := db.inner.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	_ = it.First()
	return it.Close()
}

type pebbleLogger struct{ l logpkg.Logger }

func (p pebbleLogger) Infof(format string, args ...interface{}) {
	p.l.Debug(fmt.Sprintf(format, args...))
}

func (p pebbleLogger) Errorf(format string, args ...interface{}) {
	p.l.Error(fmt.Sprintf(format, args...))
}

func (p pebbleLogger) Fatalf(format string, args ...interface{}) {
	p.l.Fatal(fmt.Sprintf(format, args...))
}
