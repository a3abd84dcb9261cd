package grpcserver

import (
	"context"

	"github.com/rzbill/feedsync/internal/runtime"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// healthSvc answers grpc.health.v1 checks from the storage ping. Only the
// empty service name and ServiceName are known.
type healthSvc struct {
	healthpb.UnimplementedHealthServer
	rt *runtime.Runtime
}

// ServiceName is the service name reported by the health check.
const ServiceName = "feedsync"

func (h *healthSvc) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", ServiceName:
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}
	if err := h.rt.CheckHealth(ctx); err != nil {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
