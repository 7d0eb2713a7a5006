package inference

import (
	"time"

	"github.com/croply-ai/croply/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithAPIURL sets the service base URL, e.g. "https://serverless.roboflow.com".
func WithAPIURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.apiURL = u
		}
	}
}

// WithAPIKey sets the credential sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient replaces the HTTP client, e.g. with a test double.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

// WithTimeout bounds each request. Zero keeps the library default.
// Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxImageSize downscales byte images whose longer side exceeds n pixels.
// Zero disables resizing.
func WithMaxImageSize(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxImageSize = n
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WorkflowOption configures a Workflow.
type WorkflowOption func(*Workflow)

// WithCache toggles the service-side result cache.
func WithCache(use bool) WorkflowOption {
	return func(w *Workflow) {
		w.useCache = use
	}
}

// WithImageInput names the workflow input the image is bound to.
func WithImageInput(name string) WorkflowOption {
	return func(w *Workflow) {
		if name != "" {
			w.imageInput = name
		}
	}
}
