package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rzbill/feedsync/internal/storage"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApplyGetDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	var b storage.Batch
	b.Put([]byte("k"), []byte("v"))
	if err := db.Apply(ctx, &b); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, err := db.Get(ctx, []byte("k"))
	if err != nil || string(got) != "v" {
		t.Fatalf("get: %q %v", got, err)
	}
	var d storage.Batch
	d.Delete([]byte("k"))
	if err := db.Apply(ctx, &d); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get(ctx, []byte("k")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScanAndDeleteRange(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	var b storage.Batch
	for i := 0; i < 5; i++ {
		b.Put([]byte(fmt.Sprintf("a/%d", i)), []byte("x"))
	}
	b.Put([]byte("b/0"), []byte("y"))
	if err := db.Apply(ctx, &b); err != nil {
		t.Fatalf("apply: %v", err)
	}

	var keys []string
	err := db.Scan(ctx, []byte("a/1"), storage.PrefixEnd([]byte("a/")), 0, func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if fmt.Sprint(keys) != "[a/1 a/2 a/3 a/4]" {
		t.Fatalf("unexpected keys %v", keys)
	}

	if err := db.DeleteRange(ctx, []byte("a/"), storage.PrefixEnd([]byte("a/"))); err != nil {
		t.Fatalf("delete range: %v", err)
	}
	n := 0
	_ = db.Scan(ctx, []byte(""), nil, 0, func(_, _ []byte) error { n++; return nil })
	if n != 1 {
		t.Fatalf("expected only b/0 left, got %d keys", n)
	}
}

func TestPing(t *testing.T) {
	if err := newTestDB(t).Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
