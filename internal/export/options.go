package export

import "github.com/croply-ai/croply/pkg/logger"

// Option applies a configuration option to the Exporter.
type Option func(*Exporter)

// WithRunner replaces the process runner, e.g. with a test double.
func WithRunner(r Runner) Option {
	return func(e *Exporter) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithCommand sets the export CLI, "yolo" by default.
func WithCommand(name string) Option {
	return func(e *Exporter) {
		if name != "" {
			e.command = name
		}
	}
}

// WithFormat sets the target format, "tflite" by default.
func WithFormat(f Format) Option {
	return func(e *Exporter) {
		if f != "" {
			e.format = f
		}
	}
}

// WithInt8 toggles integer quantization.
func WithInt8(on bool) Option {
	return func(e *Exporter) {
		e.int8 = on
	}
}

// WithLogger sets a custom logger for the exporter.
func WithLogger(l logger.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}
