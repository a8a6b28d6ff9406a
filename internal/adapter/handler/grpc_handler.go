package handler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCHealth serves grpc.health.v1 for a backend service. The status of
// service (and of the empty name) follows a periodic database ping.
type GRPCHealth struct {
	server   *health.Server
	service  string
	db       Pinger
	interval time.Duration
	logger   *zap.Logger
}

func NewGRPCHealth(service string, db Pinger, interval time.Duration, logger *zap.Logger) *GRPCHealth {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &GRPCHealth{
		server:   health.NewServer(),
		service:  service,
		db:       db,
		interval: interval,
		logger:   logger,
	}
}

func (h *GRPCHealth) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Run probes until ctx is done, then marks everything NOT_SERVING.
func (h *GRPCHealth) Run(ctx context.Context) {
	h.check(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.check(ctx)
		}
	}
}

func (h *GRPCHealth) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if h.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := h.db.Ping(pingCtx)
		cancel()
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			h.logger.Warn("grpc health: database unreachable", zap.Error(err))
		}
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(h.service, status)
}
