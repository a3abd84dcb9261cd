package config

import (
	"os"
	"path/filepath"
)

const appDir = "feedsync"

// DefaultDataDir returns the default data directory for the host OS:
// $XDG_DATA_HOME/feedsync, /var/lib/feedsync when /var/lib is writable,
// the macOS and Windows per-user application directories, and finally
// ~/.feedsync. Without a home directory it returns ./data.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}

	candidates := []struct {
		parent string
		dir    string
	}{
		{"/var/lib", filepath.Join("/var/lib", appDir)},
		{filepath.Join(homeDir, "Library"), filepath.Join(homeDir, "Library", "Application Support", "Feedsync")},
		{filepath.Join(homeDir, "AppData"), filepath.Join(homeDir, "AppData", "Local", "Feedsync")},
	}
	for _, c := range candidates {
		if c.parent == "/var/lib" && !isWritableDir(c.parent) {
			continue
		}
		if isDir(c.parent) {
			return c.dir
		}
	}
	return filepath.Join(homeDir, "."+appDir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func isWritableDir(path string) bool {
	if !isDir(path) {
		return false
	}
	f, err := os.CreateTemp(path, ".feedsync-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
