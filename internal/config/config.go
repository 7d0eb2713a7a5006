// Package config defines tool configuration structures and loading hooks.
//
// Conventions:
// - Keys are flat and match the koanf tags, so YAML files and CROPLY_* env
//   vars use the same names.
// - Machine specific values (model paths, API credentials) never have
//   defaults; they must come from a file or the environment.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"time"
)

// Config contains process configuration shared by every binary under cmd/.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the analysis service listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MetricsFile, when set, receives the metrics registry in Prometheus
	// text format at the end of a CLI run.
	MetricsFile string `koanf:"metrics_file"`

	// Greenhouse telemetry endpoint.
	TelemetryScheme  string        `koanf:"telemetry_scheme"`
	TelemetryHost    string        `koanf:"telemetry_host"`
	TelemetryPath    string        `koanf:"telemetry_path"`
	TelemetryTimeout time.Duration `koanf:"telemetry_timeout"`

	// Hosted inference workflow.
	InferenceAPIURL       string        `koanf:"inference_api_url"`
	InferenceAPIKey       string        `koanf:"inference_api_key"`
	InferenceWorkspace    string        `koanf:"inference_workspace"`
	InferenceWorkflow     string        `koanf:"inference_workflow"`
	InferenceUseCache     bool          `koanf:"inference_use_cache"`
	InferenceImageInput   string        `koanf:"inference_image_input"`
	InferenceMaxImageSize int           `koanf:"inference_max_image_size"`
	InferenceTimeout      time.Duration `koanf:"inference_timeout"`

	// Model export.
	ExportModels  []string `koanf:"export_models"`
	ExportCommand string   `koanf:"export_command"`
	ExportFormat  string   `koanf:"export_format"`
	ExportInt8    bool     `koanf:"export_int8"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Addr:     ":9080",

		TelemetryScheme: "https",
		TelemetryHost:   "oracleapex.com",
		TelemetryPath:   "/ords/g3_data/iot/greenhouse/",

		InferenceAPIURL:     "https://serverless.roboflow.com",
		InferenceWorkspace:  "croply-ai",
		InferenceWorkflow:   "croply-ai-final-2",
		InferenceUseCache:   true,
		InferenceImageInput: "image",

		ExportCommand: "yolo",
		ExportFormat:  "tflite",
		ExportInt8:    true,
	}
}

// TelemetryURL joins scheme, host and path of the greenhouse endpoint.
func (c *Config) TelemetryURL() string {
	return c.TelemetryScheme + "://" + c.TelemetryHost + c.TelemetryPath
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.TelemetryHost == "":
		return invalid("telemetry_host must not be empty")
	case c.TelemetryScheme != "http" && c.TelemetryScheme != "https":
		return invalid("telemetry_scheme must be http or https")
	case c.InferenceAPIURL == "":
		return invalid("inference_api_url must not be empty")
	case c.InferenceMaxImageSize < 0:
		return invalid("inference_max_image_size must not be negative")
	}
	return nil
}
