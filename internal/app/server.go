package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/cine-boletos/internal/adapter/handler"
)

// Server runs the HTTP API and, when GRPCAddr is set, a gRPC server that
// only carries the health service.
type Server struct {
	HTTPAddr        string
	Handler         http.Handler
	GRPCAddr        string
	GRPCHealth      *handler.GRPCHealth
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

// Run serves until ctx is cancelled or a listener fails, then shuts both
// servers down gracefully.
func (s *Server) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpLis, err := net.Listen("tcp", s.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", s.HTTPAddr, err)
	}
	httpServer := &http.Server{
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpLis.Addr().String()))
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var grpcServer *grpc.Server
	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()

	if s.GRPCAddr != "" && s.GRPCHealth != nil {
		grpcLis, err := net.Listen("tcp", s.GRPCAddr)
		if err != nil {
			httpServer.Close()
			return fmt.Errorf("listen grpc %s: %w", s.GRPCAddr, err)
		}

		grpcServer = grpc.NewServer()
		s.GRPCHealth.Register(grpcServer)
		go s.GRPCHealth.Run(healthCtx)

		go func() {
			logger.Info("gRPC server listening", zap.String("addr", grpcLis.Addr().String()))
			if err := grpcServer.Serve(grpcLis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case runErr = <-errCh:
		logger.Error("server failed", zap.Error(runErr))
	}

	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	if grpcServer != nil {
		stopHealth()
		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")
	}

	return runErr
}
