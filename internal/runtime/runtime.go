package runtime

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rzbill/feedsync/internal/chain"
	cfgpkg "github.com/rzbill/feedsync/internal/config"
	"github.com/rzbill/feedsync/internal/storage"
	badgerstore "github.com/rzbill/feedsync/internal/storage/badger"
	pebblestore "github.com/rzbill/feedsync/internal/storage/pebble"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// SlowOpThreshold is the store latency above which an operation is logged.
const SlowOpThreshold = 250 * time.Millisecond

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
	// Backend, when set, is used instead of opening the configured engine.
	// The Runtime does not close it.
	Backend storage.Backend
}

// Runtime wires storage, config and the chain registry for a single node.
type Runtime struct {
	backend  storage.Backend
	owned    bool
	registry *chain.Registry
	config   cfgpkg.Config
	logger   logpkg.Logger
}

// Open initializes the storage backend and the chain registry.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.Default()
	}

	backend, owned := opts.Backend, false
	if backend == nil {
		var err error
		backend, err = openBackend(cfg.Store, logger)
		if err != nil {
			return nil, err
		}
		owned = true
	}

	registry := chain.NewRegistry(backend, chain.Options{
		MaxReadMarks: cfg.Chain.MaxReadMarks,
		PruneBatch:   cfg.Chain.PruneBatch,
		Retention:    cfg.Chain.Retention(),
	}, logger)

	return &Runtime{
		backend:  backend,
		owned:    owned,
		registry: registry,
		config:   cfg,
		logger:   logger,
	}, nil
}

func openBackend(sc cfgpkg.StoreConfig, logger logpkg.Logger) (storage.Backend, error) {
	dir := sc.DataDir
	if dir == "" && !sc.InMemory {
		dir = cfgpkg.DefaultDataDir()
	}
	metrics := slowOps{logger: logger.With(logpkg.Component("storage")), threshold: SlowOpThreshold}

	switch sc.Engine {
	case "", "pebble":
		if sc.InMemory {
			return nil, errors.New("store.inMemory is only supported by the badger engine")
		}
		return pebblestore.Open(pebblestore.Options{
			DataDir:       filepath.Join(dir, "pebble"),
			Fsync:         ParseFsync(sc.Fsync),
			FsyncInterval: sc.FsyncInterval(),
			Metrics:       metrics,
			Logger:        logger,
		})
	case "badger":
		opts := badgerstore.Options{
			InMemory:   sc.InMemory,
			SyncWrites: sc.Fsync == "always",
			Metrics:    metrics,
			Logger:     logger,
		}
		if !sc.InMemory {
			opts.DataDir = filepath.Join(dir, "badger")
		}
		return badgerstore.Open(opts)
	}
	return nil, fmt.Errorf("unknown store engine %q", sc.Engine)
}

// ParseFsync maps a config value to a Pebble fsync mode.
func ParseFsync(s string) pebblestore.FsyncMode {
	switch s {
	case "always":
		return pebblestore.FsyncModeAlways
	case "interval":
		return pebblestore.FsyncModeInterval
	case "never":
		return pebblestore.FsyncModeNever
	}
	return pebblestore.FsyncModeUnspecified
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.backend == nil || !r.owned {
		return nil
	}
	return r.backend.Close()
}

// CheckHealth pings the storage backend.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.backend == nil {
		return errors.New("store not open")
	}
	return r.backend.Ping(ctx)
}

// Registry returns the chain registry.
func (r *Runtime) Registry() *chain.Registry { return r.registry }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the process logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }

// slowOps logs store operations slower than threshold.
type slowOps struct {
	logger    logpkg.Logger
	threshold time.Duration
}

func (s slowOps) ObserveWrite(elapsed time.Duration, bytes int) {
	if elapsed > s.threshold {
		s.logger.Warn("slow store write", logpkg.Duration("elapsed", elapsed), logpkg.Int("bytes", bytes))
	}
}

func (s slowOps) ObserveRead(elapsed time.Duration, bytes int) {
	if elapsed > s.threshold {
		s.logger.Warn("slow store read", logpkg.Duration("elapsed", elapsed), logpkg.Int("bytes", bytes))
	}
}

func (s slowOps) ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int) {
	if elapsed > s.threshold {
		s.logger.Warn("slow store commit",
			logpkg.Duration("elapsed", elapsed),
			logpkg.Int("ops", numOps),
			logpkg.Int("bytes", bytes))
	}
}
