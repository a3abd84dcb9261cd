package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Store    StoreConfig    `json:"store" yaml:"store"`
	Chain    ChainConfig    `json:"chain" yaml:"chain"`
	Auth     AuthConfig     `json:"auth" yaml:"auth"`
	GC       GCConfig       `json:"gc" yaml:"gc"`
	Registry RegistryConfig `json:"registry" yaml:"registry"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// StoreConfig selects and tunes the storage backend.
type StoreConfig struct {
	// Engine is "pebble" (default) or "badger".
	Engine  string `json:"engine" yaml:"engine"`
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// Fsync is "always", "interval" or "never".
	Fsync           string `json:"fsync" yaml:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
	// InMemory runs Badger without touching disk.
	InMemory bool `json:"inMemory" yaml:"inMemory"`
}

// ChainConfig bounds per-chain state.
type ChainConfig struct {
	MaxReadMarks  int `json:"maxReadMarks" yaml:"maxReadMarks"`
	PruneBatch    int `json:"pruneBatch" yaml:"pruneBatch"`
	RetentionDays int `json:"retentionDays" yaml:"retentionDays"`
}

// AuthConfig holds the fixed credentials checked by the HTTP gateway.
// Empty User and Password disable basic auth; an empty AdminKey disables
// the admin endpoints.
type AuthConfig struct {
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	AdminKey string `json:"adminKey" yaml:"adminKey"`
}

// GCConfig schedules the background sweep. Zero disables it.
type GCConfig struct {
	IntervalSeconds int `json:"intervalSeconds" yaml:"intervalSeconds"`
}

// RegistryConfig controls eviction of idle chains from memory.
type RegistryConfig struct {
	IdleTimeoutSeconds   int `json:"idleTimeoutSeconds" yaml:"idleTimeoutSeconds"`
	EvictIntervalSeconds int `json:"evictIntervalSeconds" yaml:"evictIntervalSeconds"`
}

// ServerConfig holds listen addresses.
type ServerConfig struct {
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	GRPCAddr string `json:"grpcAddr" yaml:"grpcAddr"`
}

// LogConfig mirrors pkg/log.Config.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Engine:          "pebble",
			Fsync:           "interval",
			FsyncIntervalMs: 5,
		},
		Chain: ChainConfig{
			MaxReadMarks:  900,
			PruneBatch:    128,
			RetentionDays: 90,
		},
		GC: GCConfig{IntervalSeconds: 3600},
		Registry: RegistryConfig{
			IdleTimeoutSeconds:   600,
			EvictIntervalSeconds: 60,
		},
		Server: ServerConfig{
			HTTPAddr: ":8080",
			GRPCAddr: ":50051",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top
// of the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the runtime cannot honor.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Engine {
	case "", "pebble", "badger":
	default:
		errs = append(errs, fmt.Errorf("store.engine: unknown engine %q", c.Store.Engine))
	}
	switch c.Store.Fsync {
	case "", "always", "interval", "never":
	default:
		errs = append(errs, fmt.Errorf("store.fsync: unknown mode %q", c.Store.Fsync))
	}
	if c.Chain.MaxReadMarks < 0 || c.Chain.PruneBatch < 0 || c.Chain.RetentionDays < 0 {
		errs = append(errs, errors.New("chain: limits must not be negative"))
	}
	if c.GC.IntervalSeconds < 0 {
		errs = append(errs, errors.New("gc.intervalSeconds must not be negative"))
	}
	if (c.Auth.User == "") != (c.Auth.Password == "") {
		errs = append(errs, errors.New("auth: user and password must be set together"))
	}
	return errors.Join(errs...)
}

// Retention returns the chain retention window.
func (c ChainConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// Interval returns the sweep period; zero means disabled.
func (c GCConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// IdleTimeout returns how long a chain may sit unused in memory.
func (c RegistryConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// EvictInterval returns how often idle chains are evicted.
func (c RegistryConfig) EvictInterval() time.Duration {
	return time.Duration(c.EvictIntervalSeconds) * time.Second
}

// FsyncInterval returns the group-commit window for the interval mode.
func (c StoreConfig) FsyncInterval() time.Duration {
	return time.Duration(c.FsyncIntervalMs) * time.Millisecond
}
