// Package export converts trained detection models into mobile runtime
// formats by driving the external ultralytics toolchain.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/croply-ai/croply/pkg/logger"
	"github.com/croply-ai/croply/pkg/metrics"
)

// Format is an export target understood by the toolchain.
type Format string

const (
	FormatTFLite      Format = "tflite"
	FormatONNX        Format = "onnx"
	FormatTorchScript Format = "torchscript"
	FormatOpenVINO    Format = "openvino"
)

// String returns the name the toolchain documentation uses, e.g. "TFLite".
func (f Format) String() string {
	switch f {
	case FormatTFLite:
		return "TFLite"
	case FormatONNX:
		return "ONNX"
	case FormatTorchScript:
		return "TorchScript"
	case FormatOpenVINO:
		return "OpenVINO"
	default:
		return string(f)
	}
}

// modelExt is the only artifact type the toolchain loads.
const modelExt = ".pt"

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatTFLite, FormatONNX, FormatTorchScript, FormatOpenVINO:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Artifact is one exported model.
type Artifact struct {
	Source string
	Output string
	Format Format
}

// Exporter runs exports one model at a time.
type Exporter struct {
	runner  Runner
	command string
	format  Format
	int8    bool
	logger  logger.Logger
}

// New builds an Exporter targeting int8 TFLite unless configured otherwise.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		runner:  ExecRunner{},
		command: "yolo",
		format:  FormatTFLite,
		int8:    true,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Format returns the configured target format.
func (e *Exporter) Format() Format { return e.format }

// Export validates every model before converting any of them, then exports
// them in order. The first failure aborts the run.
func (e *Exporter) Export(ctx context.Context, paths []string) ([]Artifact, error) {
	if len(paths) == 0 {
		return nil, ErrNoModels
	}
	if _, err := ParseFormat(string(e.format)); err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := checkModel(p); err != nil {
			return nil, err
		}
	}

	artifacts := make([]Artifact, 0, len(paths))
	for _, p := range paths {
		a, err := e.exportOne(ctx, p)
		if err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

func (e *Exporter) exportOne(ctx context.Context, path string) (Artifact, error) {
	args := []string{
		"export",
		"model=" + path,
		"format=" + string(e.format),
	}
	if e.int8 {
		args = append(args, "int8=True")
	}

	e.logger.Info(ctx, "exporting model",
		logger.String("model", path),
		logger.String("format", string(e.format)),
		logger.Bool("int8", e.int8))

	start := time.Now()
	out, err := e.runner.Run(ctx, e.command, args...)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordModelExport(string(e.format), metrics.OutcomeFailure, elapsed)
		metrics.RecordErrorByComponent("export", "export_failed")
		return Artifact{}, fmt.Errorf("%w: %s: %w: %s", ErrExportFailed, path, err, strings.TrimSpace(string(out)))
	}
	metrics.RecordModelExport(string(e.format), metrics.OutcomeSuccess, elapsed)

	a := Artifact{Source: path, Output: OutputPath(path, e.format, e.int8), Format: e.format}
	if _, statErr := os.Stat(a.Output); statErr != nil {
		e.logger.Warn(ctx, "export finished but output was not found",
			logger.String("model", path), logger.String("expected", a.Output))
	} else {
		e.logger.Info(ctx, "model exported", logger.String("output", a.Output))
	}
	return a, nil
}

// checkModel fails with ErrModelLoad unless path is an existing regular
// .pt file.
func checkModel(path string) error {
	if !strings.EqualFold(filepath.Ext(path), modelExt) {
		return fmt.Errorf("%w: %s: expected a %s file", ErrModelLoad, path, modelExt)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrModelLoad, path)
	}
	return nil
}

// OutputPath is where the toolchain writes the export of src.
func OutputPath(src string, f Format, int8 bool) string {
	dir := filepath.Dir(src)
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	switch f {
	case FormatTFLite:
		precision := "float32"
		if int8 {
			precision = "int8"
		}
		return filepath.Join(dir, stem+"_saved_model", stem+"_"+precision+".tflite")
	case FormatOpenVINO:
		return filepath.Join(dir, stem+"_openvino_model") + string(filepath.Separator)
	default:
		return filepath.Join(dir, stem+"."+string(f))
	}
}
