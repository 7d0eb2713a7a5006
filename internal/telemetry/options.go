package telemetry

import (
	"io"
	"time"

	"github.com/croply-ai/croply/pkg/logger"
)

// Option applies a configuration option to the Reader.
type Option func(*Reader, *readerConfig)

// readerConfig holds construction-only settings.
type readerConfig struct {
	out     io.Writer
	loc     *time.Location
	timeout time.Duration
}

// WithClient replaces the HTTP client, e.g. with a test double.
func WithClient(c Doer) Option {
	return func(r *Reader, _ *readerConfig) {
		if c != nil {
			r.client = c
		}
	}
}

// WithOutput sets where the console report is written (stdout by default).
func WithOutput(w io.Writer) Option {
	return func(_ *Reader, cfg *readerConfig) {
		if w != nil {
			cfg.out = w
		}
	}
}

// WithLocation sets the zone numeric timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(_ *Reader, cfg *readerConfig) {
		if loc != nil {
			cfg.loc = loc
		}
	}
}

// WithTimeout bounds the whole request. Zero keeps the library default.
// Ignored when WithClient is used.
func WithTimeout(d time.Duration) Option {
	return func(_ *Reader, cfg *readerConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the reader.
func WithLogger(l logger.Logger) Option {
	return func(r *Reader, _ *readerConfig) {
		if l != nil {
			r.logger = l
		}
	}
}
