package chain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rzbill/feedsync/pkg/id"
)

func join(t *testing.T, r *Registry, cid id.ChainID, name string) JoinResult {
	t.Helper()
	var res JoinResult
	err := r.Do(context.Background(), cid, func(c *Chain) error {
		var err error
		res, err = c.Join(context.Background(), name)
		return err
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	return res
}

func TestRegistrySerializesSameChain(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(5_000)
	r := NewRegistry(newBackend(t), Options{Now: clock.Now}, nullLogger())
	cid := testChainID(2)

	const writers, perWriter = 20, 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Do(ctx, cid, func(c *Chain) error {
				_, err := c.AppendReadMarks(ctx, plainBatch(perWriter))
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var list ReadMarkList
	_ = r.Do(ctx, cid, func(c *Chain) error {
		var err error
		list, err = c.ListReadMarksSince(ctx, 0, "")
		return err
	})
	if len(list.Marks) != writers*perWriter {
		t.Fatalf("expected %d marks, got %d", writers*perWriter, len(list.Marks))
	}
	seen := make(map[int64]bool, len(list.Marks))
	for _, m := range list.Marks {
		if seen[m.Timestamp] {
			t.Fatalf("duplicate timestamp %d", m.Timestamp)
		}
		seen[m.Timestamp] = true
	}
}

func TestRegistryChainsDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(newBackend(t), Options{}, nullLogger())
	a, b := testChainID(3), testChainID(4)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, a, func(*Chain) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	finished := make(chan error, 1)
	go func() {
		finished <- r.Do(ctx, b, func(c *Chain) error {
			_, err := c.Join(ctx, "other")
			return err
		})
	}()
	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("join other chain: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("operation on another chain was blocked")
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("do: %v", err)
	}
}

func TestRegistryLoadsOnceForConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	cid := testChainID(5)
	fb := &faultyBackend{Backend: newBackend(t), prefix: []byte(scopePrefix(cid.String()))}
	r := NewRegistry(fb, Options{}, nullLogger())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Do(ctx, cid, func(c *Chain) error {
				_, err := c.DeviceCount(ctx)
				return err
			})
		}()
	}
	wg.Wait()
	if got := fb.metaGets.Load(); got != 1 {
		t.Fatalf("expected a single load, meta read %d times", got)
	}
}

func TestRegistryRetriesFailedLoad(t *testing.T) {
	ctx := context.Background()
	cid := testChainID(6)
	fb := &faultyBackend{Backend: newBackend(t), prefix: []byte(scopePrefix(cid.String()))}
	r := NewRegistry(fb, Options{}, nullLogger())

	fb.failGet.Store(true)
	called := false
	err := r.Do(ctx, cid, func(*Chain) error { called = true; return nil })
	if !errors.Is(err, errInjected) || called {
		t.Fatalf("expected load failure before fn, got %v (called=%v)", err, called)
	}
	if r.Len() != 0 {
		t.Fatalf("failed chain must not stay cached")
	}

	fb.failGet.Store(false)
	join(t, r, cid, "phone")
	if r.Len() != 1 {
		t.Fatalf("expected chain cached after success")
	}
}

func TestRegistryEvictIdleReloadsFromStore(t *testing.T) {
	r := NewRegistry(newBackend(t), Options{}, nullLogger())
	cid := testChainID(7)
	j := join(t, r, cid, "phone")

	if n := r.EvictIdle(time.Hour); n != 0 {
		t.Fatalf("recently used chain evicted")
	}
	r.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if n := r.EvictIdle(time.Hour); n != 1 || r.Len() != 0 {
		t.Fatalf("expected one eviction, got %d (len %d)", n, r.Len())
	}

	var ok bool
	_ = r.Do(context.Background(), cid, func(c *Chain) error {
		var err error
		ok, err = c.IsRegistered(context.Background(), j.DeviceID)
		return err
	})
	if !ok {
		t.Fatalf("device lost after eviction")
	}
}

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry(newBackend(t), Options{}, nullLogger())
	res, err := r.Create(context.Background(), "phone")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cid, err := id.Parse(res.SyncCode)
	if err != nil {
		t.Fatalf("sync code %q: %v", res.SyncCode, err)
	}
	var count DeviceCount
	_ = r.Do(context.Background(), cid, func(c *Chain) error {
		var err error
		count, err = c.DeviceCount(context.Background())
		return err
	})
	if count.Count != 1 || count.EligibleForDeletion {
		t.Fatalf("unexpected count %+v", count)
	}
}

func TestSweepDeletesEligibleChains(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(1_000_000_000_000)
	r := NewRegistry(newBackend(t), Options{Now: clock.Now, NewDeviceID: sequentialIDs()}, nullLogger())

	old := testChainID(10)
	join(t, r, old, "stale")

	clock.Advance(91 * day)
	active := testChainID(11)
	join(t, r, active, "phone")
	empty := testChainID(12)
	e := join(t, r, empty, "gone")
	_ = r.Do(ctx, empty, func(c *Chain) error {
		_, err := c.RemoveDevice(ctx, e.DeviceID)
		return err
	})

	res, err := r.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Checked != 3 || res.Deleted != 2 || res.Failed != 0 {
		t.Fatalf("unexpected sweep result %+v", res)
	}

	again, _ := r.Sweep(ctx)
	if again.Checked != 1 || again.Deleted != 0 {
		t.Fatalf("second sweep should only see the active chain: %+v", again)
	}
}

func TestSweepContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	bad := testChainID(20)
	fb := &faultyBackend{Backend: newBackend(t), prefix: []byte(scopePrefix(bad.String()))}
	r := NewRegistry(fb, Options{NewDeviceID: sequentialIDs()}, nullLogger())

	for _, cid := range []id.ChainID{bad, testChainID(21)} {
		j := join(t, r, cid, "x")
		_ = r.Do(ctx, cid, func(c *Chain) error {
			_, err := c.RemoveDevice(ctx, j.DeviceID)
			return err
		})
	}

	fb.failRange.Store(true)
	res, err := r.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Checked != 2 || res.Deleted != 1 || res.Failed != 1 {
		t.Fatalf("unexpected sweep result %+v", res)
	}
}
