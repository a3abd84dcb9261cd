package chain

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rzbill/feedsync/internal/storage"
	badgerstore "github.com/rzbill/feedsync/internal/storage/badger"
	"github.com/rzbill/feedsync/pkg/id"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

const day = 24 * time.Hour

type fakeClock struct{ ms atomic.Int64 }

func newFakeClock(start int64) *fakeClock {
	c := &fakeClock{}
	c.ms.Store(start)
	return c
}

func (c *fakeClock) Now() int64              { return c.ms.Load() }
func (c *fakeClock) Set(ms int64)            { c.ms.Store(ms) }
func (c *fakeClock) Advance(d time.Duration) { c.ms.Add(d.Milliseconds()) }

func sequentialIDs() func() (int64, error) {
	var n atomic.Int64
	return func() (int64, error) { return n.Add(1), nil }
}

func nullLogger() logpkg.Logger {
	return logpkg.NewLogger(logpkg.WithOutput(logpkg.NewNullOutput()))
}

func newBackend(t *testing.T) storage.Backend {
	t.Helper()
	db, err := badgerstore.Open(badgerstore.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testChainID(b byte) id.ChainID {
	var c id.ChainID
	for i := range c {
		c[i] = b
	}
	return c
}

// recordingStore records the size of every Delete call and can be told to
// fail them.
type recordingStore struct {
	storage.Store
	mu         sync.Mutex
	deletes    []int
	failDelete error
}

func (s *recordingStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	s.deletes = append(s.deletes, len(keys))
	fail := s.failDelete
	s.mu.Unlock()
	if fail != nil {
		return fail
	}
	return s.Store.Delete(ctx, keys...)
}

func (s *recordingStore) deleteSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.deletes...)
}

type testChain struct {
	*Chain
	rec     *recordingStore
	backend storage.Backend
}

func newTestChain(t *testing.T, be storage.Backend, opts Options) testChain {
	t.Helper()
	cid := testChainID(0xab)
	rec := &recordingStore{Store: storage.Scoped(be, scopePrefix(cid.String()))}
	if opts.NewDeviceID == nil {
		opts.NewDeviceID = sequentialIDs()
	}
	c := newChain(cid, rec, storage.Scoped(be, IndexPrefix), opts.withDefaults(), nullLogger())
	return testChain{Chain: c, rec: rec, backend: be}
}

// faultyBackend fails Get or DeleteRange for keys under a prefix while armed.
type faultyBackend struct {
	storage.Backend
	prefix    []byte
	failGet   atomic.Bool
	failRange atomic.Bool
	metaGets  atomic.Int64
}

var errInjected = errors.New("injected store failure")

func (f *faultyBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	if bytes.HasPrefix(key, f.prefix) {
		if bytes.HasSuffix(key, []byte("/"+keyMeta)) {
			f.metaGets.Add(1)
		}
		if f.failGet.Load() {
			return nil, errInjected
		}
	}
	return f.Backend.Get(ctx, key)
}

func (f *faultyBackend) DeleteRange(ctx context.Context, lower, upper []byte) error {
	if f.failRange.Load() && bytes.HasPrefix(lower, f.prefix) {
		return errInjected
	}
	return f.Backend.DeleteRange(ctx, lower, upper)
}

func plain(guid string) ReadMarkInput {
	return PlainMark{FeedURL: "https://example.com/feed.xml", ArticleGUID: guid}
}

func plainBatch(n int) []ReadMarkInput {
	out := make([]ReadMarkInput, n)
	for i := range out {
		out[i] = plain("g")
	}
	return out
}
