// Package pebblestore implements storage.Backend on Pebble, with a
// configurable WAL fsync policy and optional latency hooks.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	var b storage.Batch
//	b.Put([]byte("k"), []byte("v"))
//	_ = db.Apply(ctx, &b)
//	v, _ := db.Get(ctx, []byte("k"))
package pebblestore
