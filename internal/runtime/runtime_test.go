package runtime

import (
	"context"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/feedsync/internal/config"
	pebblestore "github.com/rzbill/feedsync/internal/storage/pebble"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

func quietLogger() logpkg.Logger {
	return logpkg.NewLogger(logpkg.WithOutput(logpkg.NewNullOutput()))
}

func TestOpenCloseHealthPebble(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Store.DataDir = t.TempDir()
	cfg.Store.Fsync = "always"
	rt, err := Open(Options{Config: cfg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := cfgpkg.Default()
	cfg.Store.DataDir = t.TempDir()

	rt, err := Open(Options{Config: cfg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	res, err := rt.Registry().Create(ctx, "laptop")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rt, err = Open(Options{Config: cfg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rt.Close()
	out, err := rt.Registry().Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if out.Checked != 1 || out.Deleted != 0 {
		t.Fatalf("chain %s not found after reopen: %+v", res.SyncCode, out)
	}
}

func TestOpenBadgerInMemory(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Store.Engine = "badger"
	cfg.Store.InMemory = true
	rt, err := Open(Options{Config: cfg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	ctx := context.Background()
	res, err := rt.Registry().Create(ctx, "phone")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.SyncCode == "" {
		t.Fatalf("expected sync code")
	}
	if err := rt.CheckHealth(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestOpenRejectsInMemoryPebble(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Store.InMemory = true
	if _, err := Open(Options{Config: cfg, Logger: quietLogger()}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseFsync(t *testing.T) {
	cases := map[string]pebblestore.FsyncMode{
		"always":   pebblestore.FsyncModeAlways,
		"interval": pebblestore.FsyncModeInterval,
		"never":    pebblestore.FsyncModeNever,
		"":         pebblestore.FsyncModeUnspecified,
	}
	for in, want := range cases {
		if got := ParseFsync(in); got != want {
			t.Fatalf("ParseFsync(%q) = %v, want %v", in, got, want)
		}
	}
}

type captureOutput struct{ lines []string }

func (c *captureOutput) Write(e *logpkg.Entry, _ []byte) error {
	c.lines = append(c.lines, e.Message)
	return nil
}
func (c *captureOutput) Close() error { return nil }

func TestSlowOpsLogsAboveThreshold(t *testing.T) {
	out := &captureOutput{}
	s := slowOps{logger: logpkg.NewLogger(logpkg.WithOutput(out)), threshold: 10 * time.Millisecond}
	s.ObserveRead(time.Millisecond, 1)
	s.ObserveBatchCommit(50*time.Millisecond, 3, 100)
	if len(out.lines) != 1 || out.lines[0] != "slow store commit" {
		t.Fatalf("unexpected log lines %v", out.lines)
	}
}
