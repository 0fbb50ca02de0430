package server

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the service name reported next to the overall status.
const HealthService = "swipe.extract"

// GRPCHealth serves the standard gRPC health protocol.
type GRPCHealth struct {
	Server *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func NewGRPCHealth(logger *slog.Logger) *GRPCHealth {
	if logger == nil {
		logger = slog.Default()
	}
	s := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, hs)
	g := &GRPCHealth{Server: s, health: hs, logger: logger}
	g.SetServing(false)
	return g
}

// SetServing flips the overall and extraction service status.
func (g *GRPCHealth) SetServing(ok bool) {
	st := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if ok {
		st = grpc_health_v1.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", st)
	g.health.SetServingStatus(HealthService, st)
}

func (g *GRPCHealth) Serve(lis net.Listener) error {
	g.logger.Info("grpc.listen", "addr", lis.Addr().String())
	return g.Server.Serve(lis)
}

// Stop marks the server not serving and drains in-flight RPCs.
func (g *GRPCHealth) Stop() {
	g.health.Shutdown()
	g.Server.GracefulStop()
}
