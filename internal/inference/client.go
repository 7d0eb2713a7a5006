// Package inference submits images to hosted inference workflows and
// returns whatever the service answers.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/croply-ai/croply/pkg/logger"
	"github.com/croply-ai/croply/pkg/metrics"
)

// DefaultAPIURL is the serverless endpoint of the hosted workflow service.
const DefaultAPIURL = "https://serverless.roboflow.com"

// Doer is the slice of *http.Client the client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is bound to one service URL and credential. It is safe for
// concurrent use.
type Client struct {
	apiURL       string
	apiKey       string
	http         Doer
	timeout      time.Duration
	maxImageSize int
	logger       logger.Logger
}

// NewClient builds a Client. The API key is required.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		apiURL: DefaultAPIURL,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	c.apiURL = strings.TrimRight(c.apiURL, "/")
	return c, nil
}

// WorkflowRequest names a workflow and its inputs.
type WorkflowRequest struct {
	Workspace  string
	WorkflowID string
	// Images maps workflow input names to images.
	Images map[string]Image
	// Parameters are passed through as additional non-image inputs.
	Parameters map[string]any
	UseCache   bool
}

// Result is the service answer. Raw is the body exactly as received;
// Outputs is its "outputs" list when present.
type Result struct {
	Raw     json.RawMessage
	Outputs []any
}

type workflowPayload struct {
	APIKey   string         `json:"api_key"`
	UseCache bool           `json:"use_cache"`
	Inputs   map[string]any `json:"inputs"`
}

// RunWorkflow performs one POST to the workflow endpoint. There is no retry
// and no validation of the returned outputs.
func (c *Client) RunWorkflow(ctx context.Context, req WorkflowRequest) (*Result, error) {
	if req.Workspace == "" || req.WorkflowID == "" {
		return nil, fmt.Errorf("%w: workspace and workflow id are required", ErrInvalidRequest)
	}
	if len(req.Images) == 0 {
		return nil, fmt.Errorf("%w: at least one image is required", ErrInvalidRequest)
	}

	inputs := make(map[string]any, len(req.Images)+len(req.Parameters))
	for name, v := range req.Parameters {
		inputs[name] = v
	}
	for name, img := range req.Images {
		in, err := img.input(c.maxImageSize)
		if err != nil {
			return nil, err
		}
		inputs[name] = in
	}

	body, err := json.Marshal(workflowPayload{APIKey: c.apiKey, UseCache: req.UseCache, Inputs: inputs})
	if err != nil {
		return nil, fmt.Errorf("encode workflow request: %w", err)
	}

	start := time.Now()
	res, err := c.post(ctx, c.workflowURL(req.Workspace, req.WorkflowID), body)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordInferenceRequest(req.WorkflowID, metrics.OutcomeFailure, elapsed)
		metrics.RecordErrorByComponent("inference", errorType(err))
		c.logger.Error(ctx, "workflow request failed",
			logger.String("workflow", req.WorkflowID), logger.Error(err))
		return nil, err
	}

	metrics.RecordInferenceRequest(req.WorkflowID, metrics.OutcomeSuccess, elapsed)
	c.logger.Debug(ctx, "workflow request complete",
		logger.String("workflow", req.WorkflowID),
		logger.Int("outputs", len(res.Outputs)),
		logger.Float64("latency_ms", elapsed))
	return res, nil
}

func (c *Client) workflowURL(workspace, workflowID string) string {
	return c.apiURL + "/" + url.PathEscape(workspace) + "/workflows/" + url.PathEscape(workflowID)
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(strings.TrimSpace(string(raw)), maxErrorBody)}
	}
	return c.decodeResult(ctx, raw)
}

func (c *Client) decodeResult(ctx context.Context, raw []byte) (*Result, error) {
	var envelope struct {
		Outputs []any `json:"outputs"`
	}
	if !json.Valid(raw) {
		return nil, ErrDecode
	}
	// A body that is valid JSON but has no usable "outputs" list is still
	// returned as is.
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.Debug(ctx, "workflow response has no outputs list", logger.Error(err))
	}
	return &Result{Raw: json.RawMessage(raw), Outputs: envelope.Outputs}, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrStatus):
		return "http_status"
	case errors.Is(err, ErrDecode):
		return "decode_error"
	default:
		return "transport_error"
	}
}
