package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rzbill/feedsync/internal/storage"
	"github.com/rzbill/feedsync/pkg/id"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// Chain owns the state of one sync chain. Its exported methods must only be
// called from inside Registry.Do, which holds the chain lock for the whole
// callback, store I/O included.
type Chain struct {
	mu sync.Mutex

	id     id.ChainID
	hex    string
	store  storage.Store
	index  storage.Store
	opts   Options
	logger logpkg.Logger
	clock  Allocator

	loaded    bool
	createdAt int64
	devices   []Device
	// markKeys mirrors the R_ keys in the store, oldest first.
	markKeys  []string
	hasFeeds  bool
	feedsETag string
	devRev    revision
	markRev   revision
}

func newChain(cid id.ChainID, store, index storage.Store, opts Options, logger logpkg.Logger) *Chain {
	hex := cid.String()
	return &Chain{
		id:     cid,
		hex:    hex,
		store:  store,
		index:  index,
		opts:   opts,
		logger: logger.With(logpkg.Str("sync_code", hex)),
		clock:  Allocator{Now: opts.Now},
	}
}

// ID returns the chain id.
func (c *Chain) ID() id.ChainID { return c.id }

// SyncCode returns the hex form of the chain id.
func (c *Chain) SyncCode() string { return c.hex }

// load brings the in-memory view up from the store once. On failure the
// chain stays unloaded and the next call retries from scratch.
func (c *Chain) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	c.reset()

	createdAt, err := c.loadCreatedAt(ctx)
	if err != nil {
		return err
	}

	hasFeeds, feedsETag := false, EmptyFeedsETag
	raw, err := c.store.Get(ctx, keyFeeds)
	switch {
	case err == nil:
		var fr feedsRecord
		if err := decode(raw, &fr); err != nil {
			return fmt.Errorf("decode feeds: %w", err)
		}
		hasFeeds, feedsETag = true, FeedsETag(fr.Hash)
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("load feeds: %w", err)
	}

	var devices []Device
	raw, err = c.store.Get(ctx, keyDevices)
	switch {
	case err == nil:
		var recs []deviceRecord
		if err := decode(raw, &recs); err != nil {
			return fmt.Errorf("decode devices: %w", err)
		}
		devices = make([]Device, len(recs))
		for i, r := range recs {
			devices[i] = Device{ID: r.ID, Name: r.Name}
		}
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("load devices: %w", err)
	}

	entries, err := c.store.List(ctx, storage.ListOptions{Prefix: readMarkPrefix})
	if err != nil {
		return fmt.Errorf("list read marks: %w", err)
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}

	epoch := nextEpoch(c.opts.Now)
	c.createdAt = createdAt
	c.hasFeeds, c.feedsETag = hasFeeds, feedsETag
	c.devices = devices
	c.markKeys = keys
	c.devRev = revision{tag: 'd', epoch: epoch}
	c.markRev = revision{tag: 'r', epoch: epoch}
	c.loaded = true

	c.logger.Debug("chain loaded",
		logpkg.Int("devices", len(devices)),
		logpkg.Int("read_marks", len(keys)),
		logpkg.Bool("has_feeds", hasFeeds))

	// An earlier prune may have been interrupted.
	if err := c.prune(ctx); err != nil {
		c.loaded = false
		return err
	}
	return nil
}

// loadCreatedAt reads the creation time, assigning and persisting now on
// first use. The index entry is written before meta so that a chain with
// meta is always reachable by Sweep.
func (c *Chain) loadCreatedAt(ctx context.Context) (int64, error) {
	raw, err := c.store.Get(ctx, keyMeta)
	if err == nil {
		var m metaRecord
		if err := decode(raw, &m); err != nil {
			return 0, fmt.Errorf("decode meta: %w", err)
		}
		return m.CreatedAt, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("load meta: %w", err)
	}

	m := metaRecord{CreatedAt: c.opts.Now()}
	raw, err = encode(m)
	if err != nil {
		return 0, err
	}
	if err := c.index.Put(ctx, c.hex, raw); err != nil {
		return 0, fmt.Errorf("write index: %w", err)
	}
	if err := c.store.Put(ctx, keyMeta, raw); err != nil {
		return 0, fmt.Errorf("write meta: %w", err)
	}
	c.logger.Info("chain created")
	return m.CreatedAt, nil
}

func (c *Chain) reset() {
	c.loaded = false
	c.createdAt = 0
	c.devices = nil
	c.markKeys = nil
	c.hasFeeds = false
	c.feedsETag = EmptyFeedsETag
}
