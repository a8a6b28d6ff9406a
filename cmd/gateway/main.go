package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rl1809/cine-boletos/internal/adapter/gateway"
	"github.com/rl1809/cine-boletos/internal/adapter/handler"
	"github.com/rl1809/cine-boletos/internal/app"
	"github.com/rl1809/cine-boletos/internal/config"
	"github.com/rl1809/cine-boletos/internal/logger"
	"github.com/rl1809/cine-boletos/internal/tracing"
)

const serviceName = "api-gateway"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(serviceName, "3000")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	shutdownTracing, err := tracing.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	backends := gateway.Backends{
		Movies:    cfg.MoviesURL,
		Sales:     cfg.SalesURL,
		Purchases: cfg.PurchasesURL,
	}
	log.Info("Starting API gateway",
		zap.String("peliculas", backends.Movies),
		zap.String("ventas", backends.Sales),
		zap.String("compras", backends.Purchases),
	)

	gw := gateway.NewHandler(gateway.NewClient(cfg.UpstreamTimeout), backends, log)
	router := handler.NewRouter(serviceName, log, gw.HealthCheck, gw)

	srv := &app.Server{
		HTTPAddr:        cfg.Address(),
		Handler:         router,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          log,
	}
	if err := srv.Run(ctx); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
	}
	log.Info("Shutdown complete")
}
