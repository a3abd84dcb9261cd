package badgerstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/rzbill/feedsync/internal/storage"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

const defaultValueLogFileSize = 64 << 20

// Options configures the Badger backend.
type Options struct {
	// DataDir is the database directory. Ignored when InMemory is set.
	DataDir string
	// InMemory keeps everything in RAM; used by tests and ephemeral servers.
	InMemory bool
	// SyncWrites fsyncs the value log on every commit.
	SyncWrites bool
	// ValueLogFileSize caps each vlog file. Zero uses 64MiB.
	ValueLogFileSize int64
	Metrics          storage.MetricsHook
	// Logger receives Badger's internal log lines. nil silences Badger.
	Logger logpkg.Logger
}

// DB is a storage.Backend on top of Badger.
type DB struct {
	inner   *badger.DB
	metrics storage.MetricsHook
}

var _ storage.Backend = (*DB)(nil)

// Open creates or opens a Badger database.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" && !opts.InMemory {
		return nil, errors.New("badger: Options.DataDir is required")
	}
	if opts.ValueLogFileSize <= 0 {
		opts.ValueLogFileSize = defaultValueLogFileSize
	}

	bo := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	}
	bo = bo.WithSyncWrites(opts.SyncWrites).WithValueLogFileSize(opts.ValueLogFileSize)
	if opts.Logger != nil {
		bo = bo.WithLogger(badgerLogger{l: opts.Logger.With(logpkg.Component("badger"))})
	} else {
		bo = bo.WithLogger(nil)
	}

	inner, err := badger.Open(bo)
	if err != nil {
		return nil, err
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = storage.NoopMetrics{}
	}
	return &DB{inner: inner, metrics: metrics}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

// Get copies the value for key.
func (db *DB) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	var out []byte
	err := db.inner.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	db.metrics.ObserveRead(time.Since(start), len(out))
	return out, nil
}

// Apply commits b in a single read-write transaction.
func (db *DB) Apply(ctx context.Context, b *storage.Batch) error {
	if b == nil {
		return errors.New("badger: nil batch")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	size := 0
	err := db.inner.Update(func(txn *badger.Txn) error {
		for _, op := range b.Ops {
			size += len(op.Key) + len(op.Value)
			var err error
			if op.Delete {
				err = txn.Delete(op.Key)
			} else {
				err = txn.Set(op.Key, op.Value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	db.metrics.ObserveBatchCommit(time.Since(start), len(b.Ops), size)
	return err
}

// Scan iterates [lower, upper) in key order.
func (db *DB) Scan(ctx context.Context, lower, upper []byte, limit int, fn func(key, value []byte) error) error {
	start := time.Now()
	total := 0
	err := db.inner.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		n := 0
		for it.Seek(lower); it.Valid(); it.Next() {
			if limit > 0 && n >= limit {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			k := item.Key()
			if upper != nil && bytes.Compare(k, upper) >= 0 {
				return nil
			}
			err := item.Value(func(v []byte) error {
				total += len(v)
				return fn(k, v)
			})
			if err != nil {
				return err
			}
			n++
		}
		return nil
	})
	db.metrics.ObserveRead(time.Since(start), total)
	return err
}

// DeleteRange collects the keys in [lower, upper) and removes them through a
// WriteBatch, which splits the work across transactions as needed.
func (db *DB) DeleteRange(ctx context.Context, lower, upper []byte) error {
	if upper == nil {
		return fmt.Errorf("badger: unbounded delete range from %q", lower)
	}
	var keys [][]byte
	err := db.inner.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(lower); it.Valid(); it.Next() {
			k := it.Item().Key()
			if bytes.Compare(k, upper) >= 0 {
				break
			}
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	wb := db.inner.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	err = wb.Flush()
	db.metrics.ObserveWrite(time.Since(start), 0)
	return err
}

// Ping runs an empty read transaction.
func (db *DB) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if db.inner.IsClosed() {
		return errors.New("badger: closed")
	}
	return db.inner.View(func(*badger.Txn) error { return nil })
}

type badgerLogger struct{ l logpkg.Logger }

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...))
}
