package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// FromEnv overlays FEEDSYNC_* environment variables onto cfg. Unparsable
// numbers and booleans are ignored.
func FromEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("FEEDSYNC_STORE_ENGINE", &cfg.Store.Engine)
	str("FEEDSYNC_DATA_DIR", &cfg.Store.DataDir)
	str("FEEDSYNC_FSYNC", &cfg.Store.Fsync)
	num("FEEDSYNC_FSYNC_INTERVAL_MS", &cfg.Store.FsyncIntervalMs)
	if v := os.Getenv("FEEDSYNC_STORE_IN_MEMORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Store.InMemory = b
		}
	}

	num("FEEDSYNC_MAX_READ_MARKS", &cfg.Chain.MaxReadMarks)
	num("FEEDSYNC_PRUNE_BATCH", &cfg.Chain.PruneBatch)
	num("FEEDSYNC_RETENTION_DAYS", &cfg.Chain.RetentionDays)

	str("FEEDSYNC_AUTH_USER", &cfg.Auth.User)
	str("FEEDSYNC_AUTH_PASSWORD", &cfg.Auth.Password)
	str("FEEDSYNC_ADMIN_KEY", &cfg.Auth.AdminKey)

	num("FEEDSYNC_GC_INTERVAL_SECONDS", &cfg.GC.IntervalSeconds)
	num("FEEDSYNC_IDLE_TIMEOUT_SECONDS", &cfg.Registry.IdleTimeoutSeconds)
	num("FEEDSYNC_EVICT_INTERVAL_SECONDS", &cfg.Registry.EvictIntervalSeconds)

	str("FEEDSYNC_HTTP_ADDR", &cfg.Server.HTTPAddr)
	str("FEEDSYNC_GRPC_ADDR", &cfg.Server.GRPCAddr)

	str("FEEDSYNC_LOG_LEVEL", &cfg.Log.Level)
	str("FEEDSYNC_LOG_FORMAT", &cfg.Log.Format)
}
