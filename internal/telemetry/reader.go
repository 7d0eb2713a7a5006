package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/croply-ai/croply/pkg/logger"
	"github.com/croply-ai/croply/pkg/metrics"
)

// Doer is the slice of *http.Client the reader needs. CloseIdleConnections
// releases the pooled connection once the invocation is over.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
	CloseIdleConnections()
}

// Reader performs one fetch of the greenhouse endpoint per call.
type Reader struct {
	endpoint string
	client   Doer
	printer  *Printer
	logger   logger.Logger
}

// NewReader builds a Reader for endpoint, e.g.
// "https://oracleapex.com/ords/g3_data/iot/greenhouse/".
func NewReader(endpoint string, opts ...Option) (*Reader, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: endpoint %q", ErrInvalidEndpoint, endpoint)
	}

	r := &Reader{
		endpoint: endpoint,
		logger:   logger.Nop(),
	}
	cfg := readerConfig{out: os.Stdout}
	for _, opt := range opts {
		opt(r, &cfg)
	}
	if r.client == nil {
		// A private transport so CloseIdleConnections only touches this
		// reader's connection. Zero timeout keeps the library default.
		r.client = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   cfg.timeout,
		}
	}
	r.printer = NewPrinter(cfg.out, cfg.loc)
	return r, nil
}

// Endpoint returns the URL the reader fetches.
func (r *Reader) Endpoint() string { return r.endpoint }

// Fetch issues one GET and returns the normalized readings. Errors are
// classified with ErrTransport, ErrStatus, ErrDecode and ErrUnexpectedFormat.
func (r *Reader) Fetch(ctx context.Context) ([]Reading, Shape, error) {
	defer r.client.CloseIdleConnections()
	return r.fetch(ctx, nil)
}

// fetch runs the request; progress lines go to p, which may be nil.
func (r *Reader) fetch(ctx context.Context, p *Printer) ([]Reading, Shape, error) {
	body, err := r.get(ctx, p)
	if err != nil {
		return nil, ShapeUnknown, err
	}
	payload, err := DecodePayload(body)
	if err != nil {
		return nil, ShapeUnknown, err
	}
	return Normalize(payload)
}

func (r *Reader) get(ctx context.Context, p *Printer) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	p.Printf("Waiting for response...")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	p.Printf("Response status: %d", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	p.Printf("API call successful")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrTransport, err)
	}
	return body, nil
}

// FetchAndPrint fetches once and writes the console report. Every failure is
// reported on the console and logged; none is returned, so a diagnostic run
// always ends cleanly. The pooled connection is released exactly once.
func (r *Reader) FetchAndPrint(ctx context.Context) error {
	defer r.client.CloseIdleConnections()

	start := time.Now()
	u, _ := url.Parse(r.endpoint)
	r.printer.Printf("Connecting to %s%s...", u.Host, u.EscapedPath())

	readings, shape, err := r.fetch(ctx, r.printer)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		outcome := r.report(ctx, err)
		metrics.RecordTelemetryFetch(outcome, elapsed)
		metrics.RecordErrorByComponent("telemetry", outcome)
		return nil
	}

	switch shape {
	case ShapeEnvelope:
		r.printer.Printf("Found 'items' array in response")
	case ShapeSingle:
		r.printer.Printf("Processing single reading object")
	case ShapeList:
		r.printer.Printf("Processing array of readings")
	}

	if len(readings) == 0 {
		r.printer.Printf("No sensor readings found")
		metrics.RecordTelemetryFetch("empty", elapsed)
		return nil
	}

	r.printer.Printf("Retrieved %d sensor readings", len(readings))
	r.printer.PrintReadings(readings)

	metrics.RecordTelemetryFetch(metrics.OutcomeSuccess, elapsed)
	metrics.RecordTelemetryReadings(len(readings))
	r.logger.Debug(ctx, "telemetry fetch complete",
		logger.String("endpoint", r.endpoint),
		logger.String("shape", shape.String()),
		logger.Int("readings", len(readings)))
	return nil
}

// report prints the console message for a failed fetch and returns the
// outcome label used for metrics.
func (r *Reader) report(ctx context.Context, err error) string {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		r.printer.Printf("%s", statusErr.Error())
		r.logger.Warn(ctx, "telemetry endpoint rejected request", logger.Int("status", statusErr.Code))
		return "http_status"
	case errors.Is(err, ErrTransport):
		r.printer.Printf("HTTP error occurred: %v", err)
		r.printer.Printf("\nTroubleshooting tips:")
		r.printer.Printf("1. Check your internet connection")
		r.printer.Printf("2. Verify the API endpoint is correct")
		r.printer.Printf("3. Try accessing the URL in a web browser")
		r.printer.Printf("4. The server might be down or restricting access")
		r.logger.Error(ctx, "telemetry transport failed", logger.String("endpoint", r.endpoint), logger.Error(err))
		return "transport_error"
	case errors.Is(err, ErrDecode):
		r.printer.Printf("Failed to decode JSON response")
		r.logger.Error(ctx, "telemetry decode failed", logger.Error(err))
		return "decode_error"
	case errors.Is(err, ErrUnexpectedFormat):
		r.printer.Printf("%s", err.Error())
		r.logger.Warn(ctx, "unexpected telemetry payload", logger.Error(err))
		return "unexpected_format"
	default:
		r.printer.Printf("Error: %v", err)
		r.logger.Error(ctx, "telemetry fetch failed", logger.Error(err))
		return metrics.OutcomeFailure
	}
}
