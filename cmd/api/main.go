package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/congo-pay/txengine/internal/batch"
	"github.com/congo-pay/txengine/internal/config"
	"github.com/congo-pay/txengine/internal/infra"
	"github.com/congo-pay/txengine/internal/ledger"
	"github.com/congo-pay/txengine/internal/logging"
	"github.com/congo-pay/txengine/internal/routes"
	"github.com/congo-pay/txengine/internal/server"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	backends, err := infra.Connect(ctx, cfg)
	if err != nil {
		logger.Error("connect backends", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := backends.Close(); err != nil {
			logger.Warn("close backends", "error", err)
		}
	}()

	sinks, err := backends.Sinks(ctx, cfg, logger)
	if err != nil {
		logger.Error("build report sinks", "error", err)
		os.Exit(1)
	}

	l := ledger.New(ledger.WithRounding(cfg.Rounding), ledger.WithWorkers(cfg.Workers))
	svc := batch.NewService(l, backends.Notifier(logger), logger, batch.WithSinks(sinks...))

	srv, err := server.New(routes.Deps{
		Cfg:    cfg,
		DB:     backends.DB,
		Cache:  backends.Cache,
		Logger: logger,
		Batch:  svc,
	})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()
	logger.Info("server listening",
		"address", cfg.Address(),
		"rounding", string(cfg.Rounding),
		"workers", cfg.Workers,
		"sinks", cfg.ReportSinks,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
