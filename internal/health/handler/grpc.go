// Package handler reports liveness and readiness over gRPC (grpc.health.v1) and HTTP.
package handler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported alongside the overall "" status.
const ServiceName = "slotbooking.Booking"

const pingTimeout = 2 * time.Second

// Pinger checks a dependency, e.g. *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server tracks readiness and publishes it on the standard gRPC health service.
type Server struct {
	pinger Pinger
	grpc   *health.Server
	logger logrus.FieldLogger
}

// NewServer returns a Server. A nil pinger is always ready.
func NewServer(pinger Pinger, logger logrus.FieldLogger) *Server {
	return &Server{
		pinger: pinger,
		grpc:   health.NewServer(),
		logger: logger,
	}
}

// GRPC returns the grpc.health.v1 implementation to register on a gRPC server.
func (s *Server) GRPC() healthpb.HealthServer {
	return s.grpc
}

// Ready pings the database.
func (s *Server) Ready(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.pinger.PingContext(ctx)
}

// Refresh runs Ready once and publishes the result.
func (s *Server) Refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.Ready(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.WithError(err).Warn("health: not ready")
	}
	s.grpc.SetServingStatus("", status)
	s.grpc.SetServingStatus(ServiceName, status)
}

// Run refreshes the status every interval until ctx is done, then marks everything NOT_SERVING.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	s.Refresh(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.grpc.Shutdown()
			return
		case <-t.C:
			s.Refresh(ctx)
		}
	}
}
