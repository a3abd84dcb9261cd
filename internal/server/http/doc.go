// Package httpserver is the REST gateway for feedsync. It routes /api
// requests to the chain registry behind basic auth, serves admin routes
// behind an admin key and exposes an unauthenticated health check.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt, nil)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
