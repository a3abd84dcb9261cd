// Package storage defines the ordered key/value contract that chains are
// persisted through, and the scoping that gives each chain its own key
// space.
//
// A Backend is a process-wide ordered byte store (Pebble or Badger). A Store
// is a view of a Backend restricted to one prefix, addressed by string keys
// relative to that prefix. Chains only ever see a Store.
//
//	be, _ := pebblestore.Open(pebblestore.Options{DataDir: dir})
//	s := storage.Scoped(be, "c/"+code+"/")
//	_ = s.Put(ctx, "meta", raw)
//	entries, _ := s.List(ctx, storage.ListOptions{Prefix: "R_", Limit: 100})
package storage
