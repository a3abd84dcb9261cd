package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rzbill/feedsync/internal/storage"
	badgerstore "github.com/rzbill/feedsync/internal/storage/badger"
)

func newBackend(t *testing.T) storage.Backend {
	t.Helper()
	db, err := badgerstore.Open(badgerstore.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	be := newBackend(t)
	a := storage.Scoped(be, "c/a/")
	b := storage.Scoped(be, "c/b/")

	if err := a.Put(ctx, "meta", []byte("A")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := b.Put(ctx, "meta", []byte("B")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := a.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if _, err := a.Get(ctx, "meta"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected a wiped, got %v", err)
	}
	got, err := b.Get(ctx, "meta")
	if err != nil || string(got) != "B" {
		t.Fatalf("b damaged: %q %v", got, err)
	}
}

func TestListPrefixStartLimit(t *testing.T) {
	ctx := context.Background()
	s := storage.Scoped(newBackend(t), "c/x/")
	var b storage.Batch
	for _, k := range []string{"D_1", "R_1", "R_2", "R_3", "R_4", "meta"} {
		b.Put([]byte(k), []byte(k))
	}
	if err := s.Write(ctx, &b); err != nil {
		t.Fatalf("write: %v", err)
	}

	all, err := s.List(ctx, storage.ListOptions{Prefix: "R_"})
	if err != nil || len(all) != 4 || all[0].Key != "R_1" {
		t.Fatalf("list prefix: %v %v", all, err)
	}
	page, err := s.List(ctx, storage.ListOptions{Prefix: "R_", Start: "R_2", Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].Key != "R_2" || page[1].Key != "R_3" || string(page[1].Value) != "R_3" {
		t.Fatalf("unexpected page %v", page)
	}

	if err := s.Delete(ctx, "R_1", "R_2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rest, _ := s.List(ctx, storage.ListOptions{Prefix: "R_"})
	if len(rest) != 2 {
		t.Fatalf("expected 2 marks left, got %d", len(rest))
	}
}

func TestPrefixEnd(t *testing.T) {
	if got := string(storage.PrefixEnd([]byte("c/"))); got != "c0" {
		t.Fatalf("got %q", got)
	}
	if got := storage.PrefixEnd([]byte{0xff, 0xff}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := storage.PrefixEnd([]byte{'a', 0xff}); string(got) != "b" {
		t.Fatalf("got %q", got)
	}
}
