// Package log provides feedsync's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Records are routed through a
// log/slog handler that feeds the formatter/outputs pipeline, so slog-aware
// libraries and the facade share the same output.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("chain"), log.Str("sync_code", code))
//	l.Info("device joined", log.Int64("device_id", id))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level, text or json
// format, console or null output). Redacted keys are replaced with
// "[REDACTED]" before formatting.
//
// # Interop
//
// RedirectStdLog routes the standard library logger (used by Pebble and
// Badger) through a facade Logger. Slog returns a *slog.Logger backed by the
// same pipeline.
package log
