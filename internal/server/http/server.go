package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rzbill/feedsync/internal/runtime"
	"github.com/rzbill/feedsync/internal/server/http/controllers"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// Server is the REST gateway in front of the chain registry.
type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New builds the router and mounts every controller.
func New(rt *runtime.Runtime, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = rt.Logger()
	}
	logger = logger.With(logpkg.Component("http"))
	cfg := rt.Config()

	root := mux.NewRouter()
	api := root.PathPrefix("/api").Subrouter()
	api.Use(basicAuth(cfg.Auth))
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminKey(cfg.Auth.AdminKey))

	controllers.NewControllerRegistry(rt, logger).RegisterAllRoutes(controllers.Routers{
		Root:  root,
		API:   api,
		Admin: admin,
	})

	handler := requestID(accessLog(logger)(cors(root)))
	return &Server{
		rt:     rt,
		logger: logger,
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          logpkg.NewStdLogger(logger, logpkg.WarnLevel),
		},
	}
}

// Handler exposes the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Close closes the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
