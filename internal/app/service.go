// Package service composes the tools from configuration and provides the
// long-running analysis service behind the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/croply-ai/croply/internal/config"
	"github.com/croply-ai/croply/internal/inference"
	"github.com/croply-ai/croply/pkg/logger"
)

// ErrNotStarted is returned by Analyze before Start succeeds.
var ErrNotStarted = errors.New("analysis service not started")

// Service implements the API dependencies for the analysis server.
type Service struct {
	mu sync.RWMutex

	cfg        *config.Config
	clientOpts []inference.Option
	workflow   *inference.Workflow

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration the service is built from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInferenceOptions appends options to the inference client, e.g. a
// test HTTP client.
func WithInferenceOptions(opts ...inference.Option) Option {
	return func(s *Service) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:    config.New(),
		logger: nil, // Will be replaced when service starts
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the workflow client. It fails when no API key is configured.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	wf, err := NewWorkflow(s.cfg, s.logger.Named("inference"), s.clientOpts...)
	if err != nil {
		return err
	}
	s.workflow = wf
	s.started = true

	s.logger.Info(ctx, "analysis service started",
		logger.String("api_url", s.cfg.InferenceAPIURL),
		logger.String("workspace", s.cfg.InferenceWorkspace),
		logger.String("workflow", s.cfg.InferenceWorkflow),
		logger.Bool("use_cache", s.cfg.InferenceUseCache),
	)
	return nil
}

// Stop marks the service as stopped. In-flight requests finish normally.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.workflow = nil
	s.logger.Info(context.Background(), "analysis service stopped")
}

// Analyze runs img through the configured workflow.
func (s *Service) Analyze(ctx context.Context, img inference.Image) (inference.Diagnosis, error) {
	s.mu.RLock()
	wf := s.workflow
	s.mu.RUnlock()

	if wf == nil {
		return inference.Diagnosis{}, ErrNotStarted
	}
	return wf.Analyze(ctx, img)
}
