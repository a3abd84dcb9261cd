package pebblestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rzbill/feedsync/internal/storage"
)

type testMetrics struct {
	mu           sync.Mutex
	read         int
	batchCommits int
	batchOps     int
}

func (m *testMetrics) ObserveWrite(time.Duration, int) {}
func (m *testMetrics) ObserveRead(_ time.Duration, bytes int) {
	m.mu.Lock()
	m.read += bytes
	m.mu.Unlock()
}
func (m *testMetrics) ObserveBatchCommit(_ time.Duration, numOps int, _ int) {
	m.mu.Lock()
	m.batchCommits++
	m.batchOps += numOps
	m.mu.Unlock()
}

func newTestDB(t *testing.T) (*DB, *testMetrics) {
	t.Helper()
	metrics := &testMetrics{}
	db, err := Open(Options{
		DataDir:       t.TempDir(),
		Fsync:         FsyncModeInterval,
		FsyncInterval: 2 * time.Millisecond,
		Metrics:       metrics,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, metrics
}

func TestApplyAndGet(t *testing.T) {
	ctx := context.Background()
	db, metrics := newTestDB(t)

	var b storage.Batch
	b.Put([]byte("a"), []byte("1"))
	b.Put([]byte("b"), []byte("2"))
	if err := db.Apply(ctx, &b); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, err := db.Get(ctx, []byte("a"))
	if err != nil || string(got) != "1" {
		t.Fatalf("get a: %q %v", got, err)
	}
	if metrics.batchCommits != 1 || metrics.batchOps != 2 {
		t.Fatalf("unexpected commit metrics %+v", metrics)
	}
	if metrics.read == 0 {
		t.Fatalf("expected read metrics to record bytes")
	}

	var d storage.Batch
	d.Delete([]byte("a"))
	if err := db.Apply(ctx, &d); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get(ctx, []byte("a")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScanBoundsAndLimit(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)
	var b storage.Batch
	for i := 0; i < 10; i++ {
		b.Put([]byte(fmt.Sprintf("p/%02d", i)), []byte{byte(i)})
	}
	b.Put([]byte("q/00"), []byte("x"))
	if err := db.Apply(ctx, &b); err != nil {
		t.Fatalf("apply: %v", err)
	}

	var keys []string
	err := db.Scan(ctx, []byte("p/03"), storage.PrefixEnd([]byte("p/")), 4, func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []string{"p/03", "p/04", "p/05", "p/06"}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Fatalf("got %v want %v", keys, want)
	}
}

func TestDeleteRange(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)
	var b storage.Batch
	b.Put([]byte("c/1/meta"), []byte("m"))
	b.Put([]byte("c/1/R_1"), []byte("r"))
	b.Put([]byte("c/2/meta"), []byte("m"))
	if err := db.Apply(ctx, &b); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := db.DeleteRange(ctx, []byte("c/1/"), storage.PrefixEnd([]byte("c/1/"))); err != nil {
		t.Fatalf("delete range: %v", err)
	}
	if _, err := db.Get(ctx, []byte("c/1/meta")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected c/1 wiped, got %v", err)
	}
	if _, err := db.Get(ctx, []byte("c/2/meta")); err != nil {
		t.Fatalf("expected c/2 intact: %v", err)
	}
	if err := db.DeleteRange(ctx, []byte("x"), nil); err == nil {
		t.Fatalf("expected error for unbounded range")
	}
}

func TestPing(t *testing.T) {
	db, _ := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
