package service

import (
	"github.com/croply-ai/croply/internal/config"
	"github.com/croply-ai/croply/internal/export"
	"github.com/croply-ai/croply/internal/inference"
	"github.com/croply-ai/croply/internal/telemetry"
	"github.com/croply-ai/croply/pkg/logger"
)

// NewReader builds the greenhouse reader from cfg. Extra options are
// applied after the configured ones.
func NewReader(cfg *config.Config, log logger.Logger, opts ...telemetry.Option) (*telemetry.Reader, error) {
	base := []telemetry.Option{
		telemetry.WithTimeout(cfg.TelemetryTimeout),
		telemetry.WithLogger(log),
	}
	return telemetry.NewReader(cfg.TelemetryURL(), append(base, opts...)...)
}

// NewInferenceClient builds the hosted inference client from cfg.
func NewInferenceClient(cfg *config.Config, log logger.Logger, opts ...inference.Option) (*inference.Client, error) {
	base := []inference.Option{
		inference.WithAPIURL(cfg.InferenceAPIURL),
		inference.WithAPIKey(cfg.InferenceAPIKey),
		inference.WithTimeout(cfg.InferenceTimeout),
		inference.WithMaxImageSize(cfg.InferenceMaxImageSize),
		inference.WithLogger(log),
	}
	return inference.NewClient(append(base, opts...)...)
}

// NewWorkflow binds a client built from cfg to the configured workflow.
func NewWorkflow(cfg *config.Config, log logger.Logger, opts ...inference.Option) (*inference.Workflow, error) {
	client, err := NewInferenceClient(cfg, log, opts...)
	if err != nil {
		return nil, err
	}
	return inference.NewWorkflow(client, cfg.InferenceWorkspace, cfg.InferenceWorkflow,
		inference.WithCache(cfg.InferenceUseCache),
		inference.WithImageInput(cfg.InferenceImageInput),
	), nil
}

// NewExporter builds the model exporter from cfg.
func NewExporter(cfg *config.Config, log logger.Logger, opts ...export.Option) (*export.Exporter, error) {
	format, err := export.ParseFormat(cfg.ExportFormat)
	if err != nil {
		return nil, err
	}
	base := []export.Option{
		export.WithCommand(cfg.ExportCommand),
		export.WithFormat(format),
		export.WithInt8(cfg.ExportInt8),
		export.WithLogger(log),
	}
	return export.New(append(base, opts...)...), nil
}
