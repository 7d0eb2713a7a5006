// Command infer submits images to the hosted crop workflow and prints the
// raw service answer for each, one JSON document per line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	service "github.com/croply-ai/croply/internal/app"
	"github.com/croply-ai/croply/internal/config"
	"github.com/croply-ai/croply/internal/inference"
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
	fs := flag.NewFlagSet("infer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: infer [flags] [-image] IMAGE [IMAGE...]\n\nIMAGE is a local path or an http(s) URL.\n\n")
		fs.PrintDefaults()
	}
	var (
		image     = fs.String("image", "", "Image path or URL")
		workspace = fs.String("workspace", "", "Workspace name (overrides inference_workspace)")
		workflow  = fs.String("workflow", "", "Workflow id (overrides inference_workflow)")
		noCache   = fs.Bool("no-cache", false, "Disable the service-side result cache")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	refs := fs.Args()
	if *image != "" {
		refs = append([]string{*image}, refs...)
	}
	if len(refs) == 0 {
		fs.Usage()
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
	if *workspace != "" {
		cfg.InferenceWorkspace = *workspace
	}
	if *workflow != "" {
		cfg.InferenceWorkflow = *workflow
	}
	if *noCache {
		cfg.InferenceUseCache = false
	}

	code := infer(ctx, cfg, refs, stdout, stderr, log)
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warn(ctx, "metrics not written", logger.String("metrics_file", cfg.MetricsFile), logger.Error(err))
	}
	return code
}

func infer(ctx context.Context, cfg *config.Config, refs []string, stdout, stderr io.Writer, log logger.Logger) int {
	wf, err := service.NewWorkflow(cfg, log.Named("inference"))
	if errors.Is(err, inference.ErrMissingAPIKey) {
		fmt.Fprintf(stderr, "Error: %v; set %sINFERENCE_API_KEY\n", err, config.EnvPrefix)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	for _, ref := range refs {
		img, err := inference.ParseImage(ref)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		res, err := wf.Run(ctx, img)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s: %v\n", ref, err)
			return 1
		}
		fmt.Fprintln(stdout, string(res.Raw))
	}
	return 0
}
