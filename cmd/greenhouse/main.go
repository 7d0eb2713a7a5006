// Command greenhouse fetches the latest greenhouse sensor readings once and
// prints them. Fetch failures are reported on the console and still exit 0;
// only bad flags or configuration exit non-zero.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	service "github.com/croply-ai/croply/internal/app"
	"github.com/croply-ai/croply/internal/config"
	"github.com/croply-ai/croply/internal/telemetry"
	"github.com/croply-ai/croply/pkg/logger"
	"github.com/croply-ai/croply/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("greenhouse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		host = fs.String("host", "", "Greenhouse API host (overrides telemetry_host)")
		path = fs.String("path", "", "Greenhouse API path (overrides telemetry_path)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Logs go to stderr; stdout carries only the report.
	if err := logger.Init(logger.WithOutput(stderr)); err != nil {
		fmt.Fprintf(stderr, "failed to initialize logging: %v\n", err)
		return 1
	}
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if *host != "" {
		cfg.TelemetryHost = *host
	}
	if *path != "" {
		cfg.TelemetryPath = *path
	}

	reader, err := service.NewReader(cfg, log.Named("telemetry"), telemetry.WithOutput(stdout))
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 0
	}
	fmt.Fprintln(stdout, "Fetching greenhouse sensor data...")
	_ = reader.FetchAndPrint(ctx)
	fmt.Fprintln(stdout, "\nDone.")

	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warn(ctx, "metrics not written", logger.String("metrics_file", cfg.MetricsFile), logger.Error(err))
	}
	return 0
}
