package server

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServer is the gRPC health endpoint used by orchestrators and grpcurl.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func NewHealthServer(logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	g := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(g, hs)
	// Reflection for grpcurl
	reflection.Register(g)
	return &HealthServer{grpc: g, health: hs, logger: logger}
}

// SetServing flips the overall status reported for the empty service name.
func (h *HealthServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", st)
}

func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info("server.grpc.listen", "addr", lis.Addr().String())
	return h.grpc.Serve(lis)
}

// Stop marks the service as not serving and drains open RPCs.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
