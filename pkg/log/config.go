package log

import (
	"fmt"
	"strings"
	"sync"
)

// Config describes a logger declaratively.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output string // console (default) or null
	// RedactKeys lists field keys whose values are masked.
	RedactKeys []string
	ShowCaller bool
}

// ParseLevel maps a level name to a Level. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// FromConfig builds a Logger from cfg.
func FromConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{ShowCaller: cfg.ShowCaller}
	case "json":
		formatter = &JSONFormatter{ShowCaller: cfg.ShowCaller}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	var output Output
	switch strings.ToLower(cfg.Output) {
	case "", "console", "stderr":
		output = NewConsoleOutput()
	case "null", "none":
		output = NewNullOutput()
	default:
		return nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}
	return NewLogger(
		WithLevel(level),
		WithFormatter(formatter),
		WithOutput(output),
		WithRedactedKeys(cfg.RedactKeys...),
	), nil
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewLogger(WithLevel(InfoLevel), WithFormatter(&TextFormatter{}))
)

// ApplyConfig replaces the process-wide default logger. Invalid configs
// leave the current default in place.
func ApplyConfig(cfg *Config) (Logger, error) {
	l, err := FromConfig(cfg)
	if err != nil {
		return Default(), err
	}
	SetDefault(l)
	return l, nil
}

// Default returns the process-wide logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}
