// Package runtime wires config, the storage backend and the chain registry
// into a single-node feedsync instance.
//
// Example:
//
//	cfg := config.Default()
//	cfg.Store.DataDir = "./data"
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	res, _ := rt.Registry().Create(ctx, "laptop")
package runtime
