package grpcserver

import (
	"context"
	"net"
	"time"

	"github.com/rzbill/feedsync/internal/runtime"
	logpkg "github.com/rzbill/feedsync/pkg/log"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// Server owns the gRPC server instance and runtime.
type Server struct {
	rt     *runtime.Runtime
	grpc   *grpc.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New constructs a gRPC server and registers services.
func New(rt *runtime.Runtime, opts ...grpc.ServerOption) *Server {
	logger := rt.Logger().With(logpkg.Component("grpc"))
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(logUnary(logger))}, opts...)
	s := &Server{rt: rt, grpc: grpc.NewServer(opts...), logger: logger}
	healthpb.RegisterHealthServer(s.grpc, &healthSvc{rt: rt})
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("grpc listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	select {
	case <-ctx.Done():
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func logUnary(logger logpkg.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("handled",
			logpkg.Str("method", info.FullMethod),
			logpkg.Str("code", status.Code(err).String()),
			logpkg.Duration("duration", time.Since(start)))
		return resp, err
	}
}
