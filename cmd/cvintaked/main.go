package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/cv-intake/internal/app"
	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
	"github.com/joseph-ayodele/cv-intake/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "optional YAML config file")
	flag.Parse()

	// Bootstrap logger until config is loaded
	zl, _ := zap.NewProduction()
	defer func() { _ = zl.Sync() }()
	boot := zl.Sugar()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		boot.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		boot.Fatalf("invalid config: %v", err)
	}

	logger, closeLog := common.SetupLogger(cfg.Log.File, common.ParseLevel(cfg.Log.Level))
	defer func() { _ = closeLog() }()

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		boot.Fatalf("build pipeline: %v", err)
	}

	// gRPC health
	health := server.NewHealthServer(logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		boot.Fatalf("listen %s: %v", cfg.Server.GRPCAddr, err)
	}
	go func() {
		if err := health.Serve(lis); err != nil {
			logger.Error("server.grpc.serve_failed", "error", err)
		}
	}()

	// HTTP
	httpSrv := server.NewHTTPServer(server.HTTPConfig{
		BodyLimit:   cfg.Server.BodyLimit,
		EnforcePDF:  cfg.Server.EnforcePDF,
		DefaultMode: entity.Mode(cfg.Pipeline.Mode),
		AccessLog:   os.Stdout,
	}, a.Processor, a.Orchestrator, a.Registry, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Listen(cfg.Server.HTTPAddr) }()
	health.SetServing(true)
	boot.Infow("cvintaked started", "http", cfg.Server.HTTPAddr, "grpc", cfg.Server.GRPCAddr)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("server.http.listen_failed", "error", err)
		}
	}

	logger.Info("shutting down")
	health.SetServing(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.http.shutdown_failed", "error", err)
	}
	// Rows accepted before the signal still reach the ledger.
	if err := a.Close(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("app.close_failed", "error", err)
	}
	health.Stop()
	logger.Info("stopped")
}
