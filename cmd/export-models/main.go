// Command export-models converts the configured detection models to a
// mobile runtime format using the ultralytics CLI.
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
	"github.com/croply-ai/croply/internal/export"
	"github.com/croply-ai/croply/pkg/logger"
	"github.com/croply-ai/croply/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code)
}

// run exports the models named in args, or export_models when args is empty.
// A nil runner executes the real toolchain.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, runner export.Runner) int {
	fs := flag.NewFlagSet("export-models", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: export-models [flags] [MODEL.pt ...]\n\n")
		fs.PrintDefaults()
	}
	var (
		format   = fs.String("format", "", "Target format: tflite, onnx, torchscript, openvino (overrides export_format)")
		quantize = fs.Bool("int8", true, "Quantize to int8 (overrides export_int8)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

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
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.ExportFormat = *format
		case "int8":
			cfg.ExportInt8 = *quantize
		}
	})
	paths := cfg.ExportModels
	if fs.NArg() > 0 {
		paths = fs.Args()
	}

	code := exportModels(ctx, cfg, paths, runner, stdout, stderr, log)
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warn(ctx, "metrics not written", logger.String("metrics_file", cfg.MetricsFile), logger.Error(err))
	}
	return code
}

func exportModels(ctx context.Context, cfg *config.Config, paths []string, runner export.Runner,
	stdout, stderr io.Writer, log logger.Logger,
) int {
	exp, err := service.NewExporter(cfg, log.Named("export"), export.WithRunner(runner))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	artifacts, err := exp.Export(ctx, paths)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, a := range artifacts {
		fmt.Fprintf(stdout, "%s -> %s\n", a.Source, a.Output)
	}
	fmt.Fprintf(stdout, "Model conversion to %s completed.\n", exp.Format())
	return 0
}
