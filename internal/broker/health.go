package broker

import (
	"context"

	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer implements grpc_health_v1.HealthServer, reporting SERVING
// unconditionally once the broker is bound and listening, matching the
// standard liveness probe's documented behavior (§4.6).
type HealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
	b *Broker
}

// NewHealthServer returns a HealthServer backed by b's readiness flag.
func NewHealthServer(b *Broker) *HealthServer { return &HealthServer{b: b} }

func (h *HealthServer) Check(
	context.Context, *grpc_health_v1.HealthCheckRequest,
) (*grpc_health_v1.HealthCheckResponse, error) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if h.b.Ready() {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	return &grpc_health_v1.HealthCheckResponse{Status: status}, nil
}

func (h *HealthServer) Watch(
	req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer,
) error {
	resp, _ := h.Check(stream.Context(), req)
	return stream.Send(resp)
}
