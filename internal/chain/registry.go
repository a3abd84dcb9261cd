package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rzbill/feedsync/internal/storage"
	"github.com/rzbill/feedsync/pkg/id"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// sweepPage is how many index keys Sweep reads per store call.
const sweepPage = 256

// Registry maps chain ids to live Chain actors. Lookups take the registry
// lock only briefly; operations run under the individual chain lock, so
// unrelated chains never wait on each other.
type Registry struct {
	backend storage.Backend
	index   storage.Store
	opts    Options
	logger  logpkg.Logger
	now     func() time.Time

	mu     sync.Mutex
	chains map[id.ChainID]*entry
}

type entry struct {
	chain    *Chain
	inflight int
	lastUsed time.Time
}

// SweepResult summarizes one garbage collection pass.
type SweepResult struct {
	Checked int
	Deleted int
	Failed  int
}

// NewRegistry creates a registry whose chains persist to backend.
func NewRegistry(backend storage.Backend, opts Options, logger logpkg.Logger) *Registry {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NewNullOutput()))
	}
	return &Registry{
		backend: backend,
		index:   storage.Scoped(backend, IndexPrefix),
		opts:    opts.withDefaults(),
		logger:  logger.With(logpkg.Component("chain")),
		now:     time.Now,
		chains:  make(map[id.ChainID]*entry),
	}
}

func (r *Registry) acquire(cid id.ChainID) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.chains[cid]
	if !ok {
		store := storage.Scoped(r.backend, scopePrefix(cid.String()))
		e = &entry{chain: newChain(cid, store, r.index, r.opts, r.logger)}
		r.chains[cid] = e
	}
	e.inflight++
	return e
}

func (r *Registry) release(cid id.ChainID, e *entry, loaded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.inflight--
	e.lastUsed = r.now()
	// Unloaded chains (failed load, self-destructed) hold nothing worth
	// caching.
	if e.inflight == 0 && !loaded && r.chains[cid] == e {
		delete(r.chains, cid)
	}
}

// Do runs fn with exclusive access to the chain, loading it first. Calls for
// the same id queue behind each other, including while fn waits on the
// store.
func (r *Registry) Do(ctx context.Context, cid id.ChainID, fn func(*Chain) error) error {
	e := r.acquire(cid)
	c := e.chain
	c.mu.Lock()
	err := c.load(ctx)
	if err == nil {
		err = fn(c)
	}
	loaded := c.loaded
	c.mu.Unlock()
	r.release(cid, e, loaded)
	return err
}

// Create allocates a fresh chain id and joins deviceName to it.
func (r *Registry) Create(ctx context.Context, deviceName string) (JoinResult, error) {
	cid, err := id.New()
	if err != nil {
		return JoinResult{}, fmt.Errorf("generate chain id: %w", err)
	}
	var res JoinResult
	err = r.Do(ctx, cid, func(c *Chain) error {
		var err error
		res, err = c.Join(ctx, deviceName)
		return err
	})
	return res, err
}

// Sweep walks the chain index and deletes every eligible chain. A failure
// on one chain is logged and counted, and the sweep moves on.
func (r *Registry) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	start := ""
	for {
		page, err := r.index.List(ctx, storage.ListOptions{Start: start, Limit: sweepPage})
		if err != nil {
			return res, fmt.Errorf("list chain index: %w", err)
		}
		for _, e := range page {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			cid, err := id.Parse(e.Key)
			if err != nil {
				r.logger.Warn("dropping malformed index entry", logpkg.Str("key", e.Key))
				_ = r.index.Delete(ctx, e.Key)
				continue
			}
			res.Checked++
			var deleted bool
			err = r.Do(ctx, cid, func(c *Chain) error {
				var err error
				deleted, err = c.SelfDestructIfEligible(ctx)
				return err
			})
			if err != nil {
				res.Failed++
				r.logger.Error("gc failed", logpkg.Str("sync_code", e.Key), logpkg.Err(err))
				continue
			}
			if deleted {
				res.Deleted++
			}
		}
		if len(page) < sweepPage {
			break
		}
		start = page[len(page)-1].Key + "\x00"
	}
	r.logger.Info("gc sweep finished",
		logpkg.Int("checked", res.Checked),
		logpkg.Int("deleted", res.Deleted),
		logpkg.Int("failed", res.Failed))
	return res, nil
}

// EvictIdle forgets chains unused for longer than olderThan and not in use.
// State stays in the store and is reloaded on the next access.
func (r *Registry) EvictIdle(olderThan time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-olderThan)
	n := 0
	for cid, e := range r.chains {
		if e.inflight == 0 && e.lastUsed.Before(cutoff) {
			delete(r.chains, cid)
			n++
		}
	}
	if n > 0 {
		r.logger.Debug("evicted idle chains", logpkg.Int("count", n), logpkg.Int("live", len(r.chains)))
	}
	return n
}

// Len returns the number of chains held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chains)
}
