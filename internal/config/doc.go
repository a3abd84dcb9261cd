// Package config provides loading and environment overlay for feedsync
// configuration. Default() is the baseline; Load reads a JSON or YAML file
// over it, LoadDotEnv pulls a .env file into the environment and FromEnv
// overlays FEEDSYNC_* variables.
//
// Example:
//
//	_ = config.LoadDotEnv("")
//	cfg, err := config.Load("/etc/feedsync.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
