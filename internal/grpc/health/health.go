// Package health exposes the gRPC health service and keeps its status in
// sync with the backing stores.
package health

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"honeypot-lab/pkg/logger"
)

// ServiceName is the name reported next to the overall ("") status
const ServiceName = "honeypot.v1.HoneypotService"

// DefaultInterval is how often dependencies are probed
const DefaultInterval = 10 * time.Second

// Pinger is a dependency that can report its health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker probes dependencies and updates the health server
type Checker struct {
	server   *health.Server
	deps     map[string]Pinger
	interval time.Duration
	logger   *logger.Logger
}

// NewChecker creates a checker for the named dependencies. Nil entries are ignored.
func NewChecker(deps map[string]Pinger, interval time.Duration, log *logger.Logger) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}

	live := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			live[name] = p
		}
	}

	srv := health.NewServer()
	srv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	srv.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Checker{
		server:   srv,
		deps:     live,
		interval: interval,
		logger:   log.WithComponent("grpc-health"),
	}
}

// Register registers the health service on a gRPC server
func (c *Checker) Register(grpcServer *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(grpcServer, c.server)
}

// Server returns the underlying health server
func (c *Checker) Server() *health.Server {
	return c.server
}

// Check probes every dependency once and returns the failing ones
func (c *Checker) Check(ctx context.Context) map[string]error {
	failed := make(map[string]error)
	for name, dep := range c.deps {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := dep.Ping(pingCtx); err != nil {
			failed[name] = err
		}
		cancel()
	}

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if len(failed) > 0 {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		for name, err := range failed {
			c.logger.Warn().Err(err).Str("dependency", name).Msg("dependency unhealthy")
		}
	}
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(ServiceName, status)

	return failed
}

// Run probes dependencies until ctx is done, then marks the service as
// shutting down
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}
