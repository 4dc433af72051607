package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/congo-pay/txengine/internal/batch"
	"github.com/congo-pay/txengine/internal/config"
	"github.com/congo-pay/txengine/internal/infra"
	"github.com/congo-pay/txengine/internal/ingest"
	"github.com/congo-pay/txengine/internal/ledger"
	"github.com/congo-pay/txengine/internal/logging"
	"github.com/congo-pay/txengine/internal/report"
)

const usage = "usage: txengine <transactions.csv>"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run replays one transactions file and writes the account report to stdout.
// It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, usage)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	logger := logging.NewWithWriter(cfg.LogLevel, stderr)

	txs, err := ingest.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "read transactions: %v\n", err)
		return 1
	}

	backends, err := infra.Connect(ctx, sinkBackends(cfg))
	if err != nil {
		fmt.Fprintf(stderr, "connect backends: %v\n", err)
		return 1
	}
	defer func() {
		if err := backends.Close(); err != nil {
			logger.Warn("close backends", "error", err)
		}
	}()
	sinks, err := backends.Sinks(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "build report sinks: %v\n", err)
		return 1
	}

	l := ledger.New(ledger.WithRounding(cfg.Rounding), ledger.WithWorkers(cfg.Workers))
	svc := batch.NewService(l, backends.Notifier(logger), logger, batch.WithSinks(sinks...))

	if _, err := svc.Process(ctx, txs); err != nil {
		fmt.Fprintf(stderr, "process transactions: %v\n", err)
		return 1
	}
	if err := report.WriteCSV(stdout, svc.Accounts()); err != nil {
		fmt.Fprintf(stderr, "write report: %v\n", err)
		return 1
	}

	if len(sinks) > 0 {
		if _, err := svc.Export(ctx); err != nil {
			fmt.Fprintf(stderr, "export report: %v\n", err)
			return 1
		}
	}
	return 0
}

// sinkBackends keeps only the store URLs the configured report sinks need,
// so a one-shot run never dials a store it will not write to.
func sinkBackends(cfg config.Config) config.Config {
	if !cfg.HasSink(report.SinkRedis) {
		cfg.RedisURL = ""
	}
	if !cfg.HasSink(report.SinkPostgres) {
		cfg.DatabaseURL = ""
	}
	return cfg
}
