package serverrun

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rzbill/feedsync/internal/chain"
	cfgpkg "github.com/rzbill/feedsync/internal/config"
	"github.com/rzbill/feedsync/internal/runtime"
	grpcserver "github.com/rzbill/feedsync/internal/server/grpc"
	httpserver "github.com/rzbill/feedsync/internal/server/http"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// Options for Run.
type Options struct {
	Config cfgpkg.Config
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
}

// Run starts the gRPC and HTTP servers plus the GC and eviction loops and
// blocks until ctx is cancelled or the process is signalled. An empty
// listen address disables that server.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	procLogger := opts.Logger
	if procLogger == nil {
		procLogger = buildLogger(cfg.Log)
	}

	// Redirect stdlib logs (e.g., Pebble) to our logger
	restore := logpkg.RedirectStdLog(procLogger)
	defer restore()

	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: procLogger})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("Starting feedsync server",
		logpkg.Str("grpc", cfg.Server.GRPCAddr),
		logpkg.Str("http", cfg.Server.HTTPAddr),
		logpkg.Str("engine", cfg.Store.Engine),
		logpkg.Str("data_dir", cfg.Store.DataDir),
		logpkg.Duration("gc_interval", cfg.GC.Interval()),
		logpkg.Duration("idle_timeout", cfg.Registry.IdleTimeout()),
	)

	var gsrv *grpcserver.Server
	var hsrv *httpserver.Server
	var wg sync.WaitGroup

	if cfg.Server.GRPCAddr != "" {
		gsrv = grpcserver.New(rt)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gsrv.ListenAndServe(sctx, cfg.Server.GRPCAddr); err != nil && sctx.Err() == nil {
				procLogger.Error("grpc server failed", logpkg.Err(err))
			}
		}()
	}

	if cfg.Server.HTTPAddr != "" {
		hsrv = httpserver.New(rt, procLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := hsrv.ListenAndServe(sctx, cfg.Server.HTTPAddr); err != nil && sctx.Err() == nil {
				procLogger.Error("http server failed", logpkg.Err(err))
			}
		}()
	}

	reg := rt.Registry()
	gcLogger := procLogger.With(logpkg.Component("gc"))
	wg.Add(2)
	go func() {
		defer wg.Done()
		every(sctx, cfg.GC.Interval(), func(ctx context.Context) { sweep(ctx, reg, gcLogger) })
	}()
	go func() {
		defer wg.Done()
		idle := cfg.Registry.IdleTimeout()
		every(sctx, cfg.Registry.EvictInterval(), func(context.Context) { reg.EvictIdle(idle) })
	}()

	<-sctx.Done()
	// Stop servers before the runtime closes the store.
	if gsrv != nil {
		gsrv.Close()
	}
	if hsrv != nil {
		hsrv.Close()
	}
	wg.Wait()
	procLogger.Info("feedsync server stopped")
	return nil
}

// buildLogger installs the process-wide logger from cfg, falling back to a
// text logger at the parsed level when the config is rejected.
func buildLogger(cfg cfgpkg.LogConfig) logpkg.Logger {
	lc := &logpkg.Config{Level: cfg.Level, Format: cfg.Format}
	l, err := logpkg.ApplyConfig(lc)
	if err == nil {
		return l
	}
	lvl := logpkg.InfoLevel
	if parsed, e := logpkg.ParseLevel(cfg.Level); e == nil {
		lvl = parsed
	}
	return logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
}

// every calls fn each interval until ctx ends. A non-positive interval
// disables the loop.
func every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(ctx)
		}
	}
}

func sweep(ctx context.Context, reg *chain.Registry, logger logpkg.Logger) {
	if _, err := reg.Sweep(ctx); err != nil && ctx.Err() == nil {
		logger.Error("gc sweep failed", logpkg.Err(err))
	}
}
